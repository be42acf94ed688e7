// Package db embeds the schema and the demo orders used by seed-db.
package db

import _ "embed"

// Schema holds the idempotent DDL for orders, order items and API keys.
//
//go:embed migrations/001_schema.sql
var Schema string

// SeedOrders is a JSON array of demo orders.
//
//go:embed seed/orders.json
var SeedOrders []byte
