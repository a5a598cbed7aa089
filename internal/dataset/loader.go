// Shoprec - E-Commerce Recommendation and Insight Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

// Package dataset loads the raw marketplace CSV export into typed tables.
//
// Files are addressed by the canonical export names (olist_orders_dataset.csv
// and friends) inside a single directory. Column order is not assumed: each
// file's header row is mapped by name, so exports with extra or reordered
// columns load fine.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shoprec/internal/models"
)

// Canonical file names inside the dataset directory.
const (
	OrdersFile       = "olist_orders_dataset.csv"
	OrderItemsFile   = "olist_order_items_dataset.csv"
	CustomersFile    = "olist_customers_dataset.csv"
	ProductsFile     = "olist_products_dataset.csv"
	SellersFile      = "olist_sellers_dataset.csv"
	ReviewsFile      = "olist_order_reviews_dataset.csv"
	PaymentsFile     = "olist_order_payments_dataset.csv"
	DescriptionsFile = "product_details.csv"
	SummariesFile    = "top_1000_product_review_summaries.csv"
)

// purchaseTimestampLayout is the export's timestamp format.
const purchaseTimestampLayout = "2006-01-02 15:04:05"

// ErrMissingTable indicates a required CSV file was absent.
var ErrMissingTable = errors.New("dataset: required table missing")

// Loader reads the CSV export from a directory.
type Loader struct {
	dir string
	log zerolog.Logger
}

// NewLoader creates a Loader for the given directory.
func NewLoader(dir string, log zerolog.Logger) *Loader {
	return &Loader{dir: dir, log: log.With().Str("component", "dataset").Logger()}
}

// Load reads all nine tables. Every table is required; a missing file aborts
// the load with ErrMissingTable so a partial export never produces a silently
// impoverished feature build.
func (l *Loader) Load(ctx context.Context) (*models.Dataset, error) {
	ds := &models.Dataset{}

	tables := []struct {
		file string
		load func(*table) error
	}{
		{OrdersFile, func(t *table) error { return l.loadOrders(t, ds) }},
		{OrderItemsFile, func(t *table) error { return l.loadOrderItems(t, ds) }},
		{CustomersFile, func(t *table) error { return l.loadCustomers(t, ds) }},
		{ProductsFile, func(t *table) error { return l.loadProducts(t, ds) }},
		{SellersFile, func(t *table) error { return l.loadSellers(t, ds) }},
		{ReviewsFile, func(t *table) error { return l.loadReviews(t, ds) }},
		{PaymentsFile, func(t *table) error { return l.loadPayments(t, ds) }},
		{DescriptionsFile, func(t *table) error { return l.loadDescriptions(t, ds) }},
		{SummariesFile, func(t *table) error { return l.loadSummaries(t, ds) }},
	}

	for _, spec := range tables {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t, err := l.readTable(spec.file)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s", ErrMissingTable, spec.file)
			}
			return nil, err
		}
		if err := spec.load(t); err != nil {
			return nil, err
		}
	}

	l.log.Info().
		Int("orders", len(ds.Orders)).
		Int("order_items", len(ds.OrderItems)).
		Int("customers", len(ds.Customers)).
		Int("products", len(ds.Products)).
		Int("descriptions", len(ds.Descriptions)).
		Msg("dataset loaded")
	return ds, nil
}

// table is a parsed CSV file with name-addressable columns.
type table struct {
	file    string
	columns map[string]int
	rows    [][]string
}

// get returns the named column of a row, "" when the column is absent.
func (t *table) get(row []string, column string) string {
	idx, ok := t.columns[column]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func (l *Loader) readTable(name string) (*table, error) {
	f, err := os.Open(filepath.Join(l.dir, name))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // ragged rows tolerated, missing cells read as ""

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("dataset: read header of %s: %w", name, err)
	}
	columns := make(map[string]int, len(header))
	for i, col := range header {
		columns[strings.TrimSpace(col)] = i
	}

	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: read %s: %w", name, err)
		}
		rows = append(rows, record)
	}
	return &table{file: name, columns: columns, rows: rows}, nil
}

func (l *Loader) loadOrders(t *table, ds *models.Dataset) error {
	ds.Orders = make([]models.Order, 0, len(t.rows))
	for _, row := range t.rows {
		o := models.Order{
			OrderID:    t.get(row, "order_id"),
			CustomerID: t.get(row, "customer_id"),
			Status:     t.get(row, "order_status"),
		}
		if raw := t.get(row, "order_purchase_timestamp"); raw != "" {
			ts, err := time.Parse(purchaseTimestampLayout, raw)
			if err != nil {
				l.log.Warn().Str("order_id", o.OrderID).Str("value", raw).Msg("unparseable purchase timestamp")
			} else {
				o.PurchaseTimestamp = ts
			}
		}
		ds.Orders = append(ds.Orders, o)
	}
	return nil
}

func (l *Loader) loadOrderItems(t *table, ds *models.Dataset) error {
	ds.OrderItems = make([]models.OrderItem, 0, len(t.rows))
	for _, row := range t.rows {
		ds.OrderItems = append(ds.OrderItems, models.OrderItem{
			OrderID:   t.get(row, "order_id"),
			ItemSeq:   parseInt(t.get(row, "order_item_id")),
			ProductID: t.get(row, "product_id"),
			SellerID:  t.get(row, "seller_id"),
			Price:     parseFloat(t.get(row, "price")),
			Freight:   parseFloat(t.get(row, "freight_value")),
		})
	}
	return nil
}

func (l *Loader) loadCustomers(t *table, ds *models.Dataset) error {
	ds.Customers = make([]models.Customer, 0, len(t.rows))
	for _, row := range t.rows {
		ds.Customers = append(ds.Customers, models.Customer{
			CustomerID: t.get(row, "customer_id"),
			UniqueID:   t.get(row, "customer_unique_id"),
			City:       t.get(row, "customer_city"),
			State:      t.get(row, "customer_state"),
		})
	}
	return nil
}

func (l *Loader) loadProducts(t *table, ds *models.Dataset) error {
	ds.Products = make([]models.Product, 0, len(t.rows))
	for _, row := range t.rows {
		// Exports with the translated category carry it in
		// product_category_name_english; fall back to the native column.
		category := t.get(row, "product_category_name_english")
		if category == "" {
			category = t.get(row, "product_category_name")
		}
		ds.Products = append(ds.Products, models.Product{
			ProductID: t.get(row, "product_id"),
			Category:  category,
		})
	}
	return nil
}

func (l *Loader) loadSellers(t *table, ds *models.Dataset) error {
	ds.Sellers = make([]models.Seller, 0, len(t.rows))
	for _, row := range t.rows {
		ds.Sellers = append(ds.Sellers, models.Seller{
			SellerID: t.get(row, "seller_id"),
			City:     t.get(row, "seller_city"),
			State:    t.get(row, "seller_state"),
		})
	}
	return nil
}

func (l *Loader) loadReviews(t *table, ds *models.Dataset) error {
	ds.Reviews = make([]models.Review, 0, len(t.rows))
	for _, row := range t.rows {
		ds.Reviews = append(ds.Reviews, models.Review{
			ReviewID: t.get(row, "review_id"),
			OrderID:  t.get(row, "order_id"),
			Score:    parseInt(t.get(row, "review_score")),
		})
	}
	return nil
}

func (l *Loader) loadPayments(t *table, ds *models.Dataset) error {
	ds.Payments = make([]models.Payment, 0, len(t.rows))
	for _, row := range t.rows {
		ds.Payments = append(ds.Payments, models.Payment{
			OrderID:      t.get(row, "order_id"),
			Type:         t.get(row, "payment_type"),
			Installments: parseInt(t.get(row, "payment_installments")),
			Value:        parseFloat(t.get(row, "payment_value")),
		})
	}
	return nil
}

func (l *Loader) loadDescriptions(t *table, ds *models.Dataset) error {
	ds.Descriptions = make([]models.ProductDescription, 0, len(t.rows))
	for _, row := range t.rows {
		ds.Descriptions = append(ds.Descriptions, models.ProductDescription{
			ProductID:        t.get(row, "product_id"),
			Title:            t.get(row, "title"),
			ShortDescription: t.get(row, "shortDescription"),
			Description:      t.get(row, "description"),
			ImageURL:         t.get(row, "imageUrl"),
			ItemWebURL:       t.get(row, "itemWebUrl"),
			TargetPrice:      parseFloat(t.get(row, "target_price")),
		})
	}
	return nil
}

func (l *Loader) loadSummaries(t *table, ds *models.Dataset) error {
	ds.Summaries = make([]models.ReviewSummary, 0, len(t.rows))
	for _, row := range t.rows {
		ds.Summaries = append(ds.Summaries, models.ReviewSummary{
			ProductID: t.get(row, "product_id"),
			Summary:   t.get(row, "summary"),
		})
	}
	return nil
}

// parseInt reads a possibly-fractional numeric cell as an int, 0 on failure.
func parseInt(s string) int {
	if s == "" {
		return 0
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
