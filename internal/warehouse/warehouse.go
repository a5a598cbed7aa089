// Shoprec - E-Commerce Recommendation and Insight Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

// Package warehouse persists the denormalized feature table in an embedded
// DuckDB database and serves the recommendation agents' read queries from it.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/shoprec/internal/config"
	"github.com/tomtom215/shoprec/internal/logging"
)

// Store wraps the DuckDB connection.
type Store struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig
}

// Open opens (or creates) the warehouse database and ensures the schema
// exists.
func Open(cfg *config.DatabaseConfig) (*Store, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	// The database file's parent directory must exist before DuckDB opens it.
	if cfg.Path != "" && cfg.Path != ":memory:" {
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, numThreads)
	if cfg.MaxMemory != "" {
		connStr += "&max_memory=" + cfg.MaxMemory
	}

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// DuckDB is embedded; a small pool is enough and keeps memory bounded.
	conn.SetMaxOpenConns(numThreads)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(0)

	s := &Store{conn: conn, cfg: cfg}
	if err := s.createSchema(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Int("threads", numThreads).
		Msg("Warehouse opened")
	return s, nil
}

// Conn returns the underlying SQL connection for ad-hoc queries.
func (s *Store) Conn() *sql.DB {
	return s.conn
}

// Ping checks that the connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	if s.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return s.conn.PingContext(ctx)
}

// Close checkpoints the WAL and closes the connection. The checkpoint is
// best effort; a failed one only costs replay time on next startup.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := s.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		logging.Warn().Err(err).Msg("Failed to checkpoint database before close")
	}
	return s.conn.Close()
}

func (s *Store) createSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := s.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS orders_full (
			order_id VARCHAR NOT NULL,
			order_item_id INTEGER NOT NULL,
			product_id VARCHAR NOT NULL,
			seller_id VARCHAR,
			price DOUBLE,
			freight_value DOUBLE,
			customer_id VARCHAR,
			customer_unique_id VARCHAR,
			order_status VARCHAR,
			order_purchase_timestamp TIMESTAMP,
			purchase_day_of_week TINYINT,
			purchase_hour INTEGER,
			customer_city VARCHAR,
			customer_state VARCHAR,
			product_category_name VARCHAR,
			seller_city VARCHAR,
			seller_state VARCHAR,
			review_score INTEGER,
			summary VARCHAR,
			payment_type VARCHAR,
			payment_installments INTEGER,
			payment_value DOUBLE,
			title VARCHAR,
			short_description VARCHAR,
			description VARCHAR,
			image_url VARCHAR,
			item_web_url VARCHAR,
			target_price DOUBLE,
			sentiment_score DOUBLE,
			avg_sentiment_score DOUBLE,
			persona VARCHAR,
			quantity INTEGER,
			row_seq BIGINT NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("create orders_full: %w", err)
	}
	return nil
}

func closeQuietly(conn *sql.DB) {
	if err := conn.Close(); err != nil {
		logging.Debug().Err(err).Msg("Error closing database connection")
	}
}
