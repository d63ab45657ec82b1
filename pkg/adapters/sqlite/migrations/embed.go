package migrations

import "embed"

// FS contains the embedded SQLite migrations of the note ledger.
//
//go:embed *.sql
var FS embed.FS
