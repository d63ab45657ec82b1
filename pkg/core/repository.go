package core

import "context"

// Repository defines the contract for durable note storage.
// Adhering to this interface keeps the core independent of the
// underlying storage mechanism (YAML file, SQLite, spreadsheet, ...).
type Repository interface {
	// Initialize ensures the underlying storage is ready (e.g., create directories, schema migration).
	Initialize(ctx context.Context) error

	// Load returns every stored note in order.
	// A storage that does not exist yet yields an empty slice, not an error.
	Load(ctx context.Context) ([]Note, error)

	// Save replaces the stored collection with notes, preserving their order.
	Save(ctx context.Context, notes []Note) error
}

// Watchable is implemented by repositories that can report external changes.
type Watchable interface {
	// Watch emits an Event whenever the stored ledger changes outside this process.
	// The channel is closed when ctx is done.
	Watch(ctx context.Context) (<-chan Event, error)
}
