package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"github.com/aretw0/noteledger/pkg/core"
)

func openTempStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notes.db")
	store, err := Open(Config{Path: path})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func ledger() []core.Note {
	first := core.Note{
		ID:              "n-1",
		ClientFirstName: "Ada",
		ClientLastName:  "Lovelace",
		ProjectName:     "Harbor Tower",
		Principal:       decimal.RequireFromString("1000"),
		InterestRate:    decimal.RequireFromString("0.05"),
		OriginDate:      core.Date(2023, 1, 1),
		TermMonths:      12,
		MaturityDate:    core.Date(2024, 1, 1),
		Status:          core.StatusRolledOver,
	}
	second := first
	second.ID = "n-2"
	second.Principal = decimal.RequireFromString("1050.00")
	second.OriginDate = core.Date(2024, 1, 2)
	second.MaturityDate = core.Date(2025, 1, 2)
	second.Status = core.StatusActive
	second.PredecessorID = "n-1"
	return []core.Note{first, second}
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(Config{}); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestLoadEmpty(t *testing.T) {
	t.Parallel()

	store, _ := openTempStore(t)
	if err := store.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	notes, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(notes) != 0 {
		t.Fatalf("expected empty ledger, got %d notes", len(notes))
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	store, path := openTempStore(t)
	ctx := context.Background()
	want := ledger()
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	// Save replaces, it does not append.
	if err := store.Save(ctx, want[:1]); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(Config{Path: path})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, err = reopened.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got[0].ID != "n-1" {
		t.Fatalf("expected only n-1 after replace, got %+v", got)
	}
	if state := reopened.State().(StoreState); len(state.Migrations) != 0 {
		t.Fatalf("migrations re-applied on reopen: %v", state.Migrations)
	}
}

func TestSaveDuplicateIDIsAtomic(t *testing.T) {
	t.Parallel()

	store, _ := openTempStore(t)
	ctx := context.Background()
	if err := store.Save(ctx, ledger()); err != nil {
		t.Fatalf("save: %v", err)
	}

	dup := ledger()
	dup[1].ID = dup[0].ID
	err := store.Save(ctx, dup)
	if !errors.Is(err, core.ErrIntegrity) {
		t.Fatalf("expected ErrIntegrity, got %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("failed save must keep the previous ledger, got %d notes", len(got))
	}
}

func TestReadOnly(t *testing.T) {
	t.Parallel()

	store, path := openTempStore(t)
	ctx := context.Background()
	if err := store.Save(ctx, ledger()); err != nil {
		t.Fatalf("save: %v", err)
	}

	ro, err := Open(Config{Path: path, ReadOnly: true})
	if err != nil {
		t.Fatalf("open read-only: %v", err)
	}
	defer ro.Close()

	notes, err := ro.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(notes))
	}
	if err := ro.Save(ctx, nil); !errors.Is(err, core.ErrReadOnly) {
		t.Fatalf("expected ErrReadOnly, got %v", err)
	}
}

func TestReadOnlyMissingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing", "notes.db")
	ro, err := Open(Config{Path: path, ReadOnly: true})
	if err != nil {
		t.Fatalf("open read-only: %v", err)
	}
	defer ro.Close()

	ctx := context.Background()
	if err := ro.Initialize(ctx); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	notes, err := ro.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(notes) != 0 {
		t.Fatalf("expected empty ledger, got %d notes", len(notes))
	}
	if err := ro.Save(ctx, ledger()); !errors.Is(err, core.ErrReadOnly) {
		t.Fatalf("expected ErrReadOnly, got %v", err)
	}
	if state := ro.State().(StoreState); !state.Missing {
		t.Fatalf("expected missing state, got %+v", state)
	}
	if _, err := os.Stat(filepath.Dir(path)); !os.IsNotExist(err) {
		t.Fatalf("read-only open created %s", filepath.Dir(path))
	}
}

func TestServiceOverSQLite(t *testing.T) {
	t.Parallel()

	store, _ := openTempStore(t)
	ctx := context.Background()
	svc := core.NewService(store)
	if err := svc.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	fields := ledger()[0].Fields()
	fields.OriginDate = core.Date(2022, 1, 1)
	for range 3 {
		if _, err := svc.AddNote(ctx, fields); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	report, err := svc.RolloverAllMatured(ctx, core.Date(2024, 1, 1))
	if err != nil {
		t.Fatalf("rollover: %v", err)
	}
	if len(report.Succeeded()) != 3 {
		t.Fatalf("expected 3 rollovers, got %d", len(report.Succeeded()))
	}

	reloaded := core.NewService(store)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Len() != 6 {
		t.Fatalf("expected 6 notes, got %d", reloaded.Len())
	}
	rolled := 0
	for range reloaded.FindNotes(core.ByStatus(core.StatusRolledOver)) {
		rolled++
	}
	if rolled != 3 {
		t.Fatalf("expected 3 rolled over notes, got %d", rolled)
	}
}

func TestComponentType(t *testing.T) {
	t.Parallel()

	store, path := openTempStore(t)
	if store.ComponentType() != "sqlite-ledger" {
		t.Fatalf("unexpected component type %q", store.ComponentType())
	}
	state := store.State().(StoreState)
	if state.Path != path {
		t.Fatalf("path = %q, want %q", state.Path, path)
	}
	if len(state.Migrations) != 1 || state.Migrations[0] != "0001_notes.sql" {
		t.Fatalf("unexpected migrations %v", state.Migrations)
	}
}
