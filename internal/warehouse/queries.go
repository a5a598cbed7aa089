// Shoprec - E-Commerce Recommendation and Insight Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/shoprec/internal/logging"
	"github.com/tomtom215/shoprec/internal/metrics"
	"github.com/tomtom215/shoprec/internal/models"
	"github.com/tomtom215/shoprec/internal/recommend"
)

var _ recommend.DataProvider = (*Store)(nil)

// selectColumns lists orders_full columns in scan order. Keep in sync with
// scanRow and the insert statement in ReplaceRows.
const selectColumns = `order_id, order_item_id, product_id, seller_id, price, freight_value,
	customer_id, customer_unique_id, order_status, order_purchase_timestamp,
	purchase_day_of_week, purchase_hour, customer_city, customer_state,
	product_category_name, seller_city, seller_state, review_score, summary,
	payment_type, payment_installments, payment_value, title, short_description,
	description, image_url, item_web_url, target_price, sentiment_score,
	avg_sentiment_score, persona, quantity`

// insertBatchSize bounds the number of rows per INSERT statement.
const insertBatchSize = 500

// ReplaceRows atomically swaps the feature table contents for the given rows.
// Row order is preserved via a sequence column so reads return rows in build
// order.
func (s *Store) ReplaceRows(ctx context.Context, rows []models.OrdersFullRow) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("replace_rows", time.Since(start), err) }()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM orders_full"); err != nil {
		return fmt.Errorf("clear orders_full: %w", err)
	}

	for offset := 0; offset < len(rows); offset += insertBatchSize {
		end := offset + insertBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := insertBatch(ctx, tx, rows[offset:end], offset); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit orders_full: %w", err)
	}

	logging.Info().
		Int("rows", len(rows)).
		Dur("duration", time.Since(start)).
		Msg("Feature table replaced")
	return nil
}

func insertBatch(ctx context.Context, tx *sql.Tx, rows []models.OrdersFullRow, seqBase int) error {
	const cols = 33 // selectColumns plus row_seq
	placeholders := make([]string, 0, len(rows))
	args := make([]any, 0, len(rows)*cols)
	for i, r := range rows {
		marks := make([]string, cols)
		for j := range marks {
			marks[j] = "?"
		}
		placeholders = append(placeholders, "("+strings.Join(marks, ", ")+")")
		args = append(args,
			r.OrderID, r.ItemSeq, r.ProductID, r.SellerID, r.Price, r.Freight,
			r.CustomerID, r.CustomerUniqueID, r.OrderStatus, r.PurchaseTS,
			r.PurchaseDay, r.PurchaseHour, r.CustomerCity, r.CustomerState,
			r.Category, r.SellerCity, r.SellerState, r.ReviewScore, r.Summary,
			r.PaymentType, r.Installments, r.PaymentValue, r.Title, r.ShortDescription,
			r.Description, r.ImageURL, r.ItemWebURL, r.TargetPrice, r.SentimentScore,
			r.AvgSentiment, r.Persona, r.Quantity, seqBase+i,
		)
	}

	query := "INSERT INTO orders_full (" + strings.ReplaceAll(selectColumns, "\n\t", " ") +
		", row_seq) VALUES " + strings.Join(placeholders, ", ")
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert orders_full batch: %w", err)
	}
	return nil
}

// CountRows returns the number of feature-table rows.
func (s *Store) CountRows(ctx context.Context) (_ int, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("count_rows", time.Since(start), err) }()

	var count int
	if err := s.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders_full").Scan(&count); err != nil {
		return 0, fmt.Errorf("count orders_full: %w", err)
	}
	return count, nil
}

func scanRow(rows *sql.Rows) (models.OrdersFullRow, error) {
	var r models.OrdersFullRow
	var ts sql.NullTime
	err := rows.Scan(
		&r.OrderID, &r.ItemSeq, &r.ProductID, &r.SellerID, &r.Price, &r.Freight,
		&r.CustomerID, &r.CustomerUniqueID, &r.OrderStatus, &ts,
		&r.PurchaseDay, &r.PurchaseHour, &r.CustomerCity, &r.CustomerState,
		&r.Category, &r.SellerCity, &r.SellerState, &r.ReviewScore, &r.Summary,
		&r.PaymentType, &r.Installments, &r.PaymentValue, &r.Title, &r.ShortDescription,
		&r.Description, &r.ImageURL, &r.ItemWebURL, &r.TargetPrice, &r.SentimentScore,
		&r.AvgSentiment, &r.Persona, &r.Quantity,
	)
	if err != nil {
		return r, err
	}
	if ts.Valid {
		r.PurchaseTS = ts.Time
	}
	return r, nil
}

func (s *Store) queryRows(ctx context.Context, op, where string, args ...any) (_ []models.OrdersFullRow, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery(op, time.Since(start), err) }()

	query := "SELECT " + selectColumns + " FROM orders_full"
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY row_seq"

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders_full: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.OrdersFullRow
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan orders_full row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders_full rows: %w", err)
	}
	return out, nil
}

// RowsByUser implements recommend.DataProvider.
func (s *Store) RowsByUser(ctx context.Context, userID string) ([]models.OrdersFullRow, error) {
	return s.queryRows(ctx, "rows_by_user", "customer_unique_id = ?", userID)
}

// RowsByCategories implements recommend.DataProvider.
func (s *Store) RowsByCategories(ctx context.Context, categories []string) ([]models.OrdersFullRow, error) {
	if len(categories) == 0 {
		return nil, nil
	}
	marks := make([]string, len(categories))
	args := make([]any, len(categories))
	for i, cat := range categories {
		marks[i] = "?"
		args[i] = cat
	}
	return s.queryRows(ctx, "rows_by_categories", "product_category_name IN ("+strings.Join(marks, ", ")+")", args...)
}

// RowsByUsers implements recommend.DataProvider.
func (s *Store) RowsByUsers(ctx context.Context, userIDs []string) ([]models.OrdersFullRow, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	marks := make([]string, len(userIDs))
	args := make([]any, len(userIDs))
	for i, uid := range userIDs {
		marks[i] = "?"
		args[i] = uid
	}
	return s.queryRows(ctx, "rows_by_users", "customer_unique_id IN ("+strings.Join(marks, ", ")+")", args...)
}

// RowsByCity implements recommend.DataProvider.
func (s *Store) RowsByCity(ctx context.Context, city string) ([]models.OrdersFullRow, error) {
	return s.queryRows(ctx, "rows_by_city", "lower(customer_city) = lower(?)", city)
}

// Personas implements recommend.DataProvider. The first row of each customer
// decides, matching the in-memory provider.
func (s *Store) Personas(ctx context.Context) (_ map[string]string, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("personas", time.Since(start), err) }()

	rows, err := s.conn.QueryContext(ctx, `
		SELECT customer_unique_id, first(persona ORDER BY row_seq)
		FROM orders_full
		WHERE customer_unique_id <> ''
		GROUP BY customer_unique_id`)
	if err != nil {
		return nil, fmt.Errorf("query personas: %w", err)
	}
	defer func() { _ = rows.Close() }()

	personas := make(map[string]string)
	for rows.Next() {
		var uid, persona string
		if err := rows.Scan(&uid, &persona); err != nil {
			return nil, fmt.Errorf("scan persona row: %w", err)
		}
		personas[uid] = persona
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate persona rows: %w", err)
	}
	return personas, nil
}

// SampleRows implements recommend.DataProvider.
func (s *Store) SampleRows(ctx context.Context, limit int) (_ []models.OrdersFullRow, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("sample_rows", time.Since(start), err) }()

	query := "SELECT " + selectColumns + " FROM orders_full ORDER BY row_seq"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sample rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.OrdersFullRow
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sample row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sample rows: %w", err)
	}
	return out, nil
}

// Categories implements recommend.DataProvider.
func (s *Store) Categories(ctx context.Context) (_ []string, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("categories", time.Since(start), err) }()

	rows, err := s.conn.QueryContext(ctx, `
		SELECT DISTINCT product_category_name
		FROM orders_full
		WHERE product_category_name <> ''
		ORDER BY product_category_name`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cats []string
	for rows.Next() {
		var cat string
		if err := rows.Scan(&cat); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return cats, nil
}
