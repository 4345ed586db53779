// Package db provides embedded database schema files for the postgres
// storage driver.
package db

import _ "embed"

// Schema contains the DDL statements for the session key-value table.
//
//go:embed migrations/001_schema.sql
var Schema string
