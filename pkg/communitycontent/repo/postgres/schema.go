package postgres

import _ "embed"

// Schema is the DDL the repositories in this package expect.
//
//go:embed schema.sql
var Schema string
