// Package noteledger is the composition root of the note ledger.
//
// It connects the note lifecycle engine (pkg/core) with the storage
// adapters (pkg/adapters) using a hexagonal layout. The core owns the
// rules: maturity dates, simple interest, rollover of matured notes into
// successors and the invariants of the store. Adapters only move notes in
// and out of durable storage.
//
// Features:
//
//   - **Single-file ledgers**: YAML, JSON or CSV, rewritten atomically.
//   - **SQLite ledgers**: embedded migrations, transactional rewrites.
//   - **Spreadsheet ledgers**: the familiar .xlsx layout, one row per note.
//   - **Batch rollover**: every matured note rolled over in one atomic step.
//   - **Client letters**: PDF or text, exported concurrently (pkg/letters).
//
// Usage:
//
//	svc, err := noteledger.New("notes.yaml",
//		noteledger.WithWarningWindow(7),
//		noteledger.WithLogger(logger),
//	)
//
//	note, err := svc.AddNote(ctx, fields)
//	report, err := svc.RolloverAllMatured(ctx, core.Day(time.Now()))
package noteledger
