// Shoprec - E-Commerce Recommendation and Insight Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package models

import "time"

// Raw table rows mirror the source marketplace export (one CSV per table).
// Optional fields that may be absent in the export are pointers or carry
// zero values; the pipeline treats missing joins as empty.

// Order is one purchase, keyed by OrderID.
type Order struct {
	OrderID           string    `json:"order_id"`
	CustomerID        string    `json:"customer_id"`
	Status            string    `json:"order_status"`
	PurchaseTimestamp time.Time `json:"order_purchase_timestamp"`
}

// OrderItem is one line item within an order. ItemSeq disambiguates multiple
// items of the same order.
type OrderItem struct {
	OrderID   string  `json:"order_id"`
	ItemSeq   int     `json:"order_item_id"`
	ProductID string  `json:"product_id"`
	SellerID  string  `json:"seller_id"`
	Price     float64 `json:"price"`
	Freight   float64 `json:"freight_value"`
}

// Customer links an order-scoped customer id to a durable unique id plus
// delivery geography.
type Customer struct {
	CustomerID string `json:"customer_id"`
	UniqueID   string `json:"customer_unique_id"`
	City       string `json:"customer_city"`
	State      string `json:"customer_state"`
}

// Product carries catalog attributes. Category is the english category name.
type Product struct {
	ProductID string `json:"product_id"`
	Category  string `json:"product_category_name"`
}

// Seller carries merchant geography.
type Seller struct {
	SellerID string `json:"seller_id"`
	City     string `json:"seller_city"`
	State    string `json:"seller_state"`
}

// Review is a post-delivery customer review.
type Review struct {
	ReviewID string `json:"review_id"`
	OrderID  string `json:"order_id"`
	Score    int    `json:"review_score"`
}

// Payment is one payment record for an order.
type Payment struct {
	OrderID      string  `json:"order_id"`
	Type         string  `json:"payment_type"`
	Installments int     `json:"payment_installments"`
	Value        float64 `json:"payment_value"`
}

// ProductDescription is catalog enrichment sourced from an external listing
// lookup. TargetPrice is the midpoint of the observed listing price range.
type ProductDescription struct {
	ProductID        string  `json:"product_id"`
	Title            string  `json:"title"`
	ShortDescription string  `json:"shortDescription"`
	Description      string  `json:"description"`
	ImageURL         string  `json:"imageUrl"`
	ItemWebURL       string  `json:"itemWebUrl"`
	TargetPrice      float64 `json:"target_price"`
}

// ReviewSummary is a condensed per-product digest of review text.
type ReviewSummary struct {
	ProductID string `json:"product_id"`
	Summary   string `json:"summary"`
}

// Dataset bundles the raw tables the pipeline consumes.
type Dataset struct {
	Orders       []Order
	OrderItems   []OrderItem
	Customers    []Customer
	Products     []Product
	Sellers      []Seller
	Reviews      []Review
	Payments     []Payment
	Descriptions []ProductDescription
	Summaries    []ReviewSummary
}

// OrdersFullRow is one row of the denormalized feature table: one order item
// with everything the recommendation agents need joined on. Field names on
// the wire match the feature-table columns.
type OrdersFullRow struct {
	OrderID          string    `json:"order_id"`
	ItemSeq          int       `json:"order_item_id"`
	ProductID        string    `json:"product_id"`
	SellerID         string    `json:"seller_id"`
	Price            float64   `json:"price"`
	Freight          float64   `json:"freight_value"`
	CustomerID       string    `json:"customer_id"`
	CustomerUniqueID string    `json:"customer_unique_id"`
	OrderStatus      string    `json:"order_status"`
	PurchaseTS       time.Time `json:"order_purchase_timestamp"`
	PurchaseDay      int       `json:"purchase_day_of_week"` // Monday=0 .. Sunday=6
	PurchaseHour     int       `json:"purchase_hour"`
	CustomerCity     string    `json:"customer_city"`
	CustomerState    string    `json:"customer_state"`
	Category         string    `json:"product_category_name"`
	SellerCity       string    `json:"seller_city"`
	SellerState      string    `json:"seller_state"`
	ReviewScore      int       `json:"review_score"`
	Summary          string    `json:"summary"`
	PaymentType      string    `json:"payment_type"`
	Installments     int       `json:"payment_installments"`
	PaymentValue     float64   `json:"payment_value"`
	Title            string    `json:"title"`
	ShortDescription string    `json:"shortDescription"`
	Description      string    `json:"description"`
	ImageURL         string    `json:"imageUrl"`
	ItemWebURL       string    `json:"itemWebUrl"`
	TargetPrice      float64   `json:"target_price"`
	SentimentScore   float64   `json:"sentiment_score"`
	AvgSentiment     float64   `json:"avg_sentiment_score"`
	Persona          string    `json:"persona"`
	Quantity         int       `json:"quantity"`
}
