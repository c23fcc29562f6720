// Package migrations embeds the SQL schema migrations for the error journal.
package migrations

import "embed"

// FS holds every NNNN_description.sql file in this directory.
//
//go:embed *.sql
var FS embed.FS
