package core_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/noteledger/pkg/core"
)

// MockRepository implements core.Repository in memory.
type MockRepository struct {
	mu      sync.Mutex
	notes   []core.Note
	saves   int
	saveErr error
	loadErr error
}

func (m *MockRepository) Initialize(ctx context.Context) error { return nil }

func (m *MockRepository) Load(ctx context.Context) ([]core.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return slices.Clone(m.notes), nil
}

func (m *MockRepository) Save(ctx context.Context, notes []core.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.notes = slices.Clone(notes)
	return nil
}

func (m *MockRepository) stored() []core.Note {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.notes)
}

// sequentialIDs returns a deterministic id generator: n-1, n-2, ...
func sequentialIDs() func() string {
	var mu sync.Mutex
	next := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		next++
		return fmt.Sprintf("n-%d", next)
	}
}

func newTestService(t *testing.T, opts ...core.ServiceOption) (*core.Service, *MockRepository) {
	t.Helper()
	repo := &MockRepository{}
	opts = append([]core.ServiceOption{core.WithIDGenerator(sequentialIDs())}, opts...)
	svc := core.NewService(repo, opts...)
	require.NoError(t, svc.Load(context.Background()))
	return svc, repo
}

func validFields() core.NoteFields {
	return core.NoteFields{
		ClientFirstName: "Ada",
		ClientLastName:  "Lovelace",
		ProjectName:     "Harbor Tower",
		Principal:       dec("1000"),
		InterestRate:    dec("0.05"),
		OriginDate:      core.Date(2023, 1, 1),
		TermMonths:      12,
	}
}

func TestService_AddNote(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	n, err := svc.AddNote(ctx, validFields())
	require.NoError(t, err)

	assert.Equal(t, "n-1", n.ID)
	assert.Equal(t, core.StatusActive, n.Status)
	assert.Equal(t, core.Date(2024, 1, 1), n.MaturityDate)
	assert.Empty(t, n.PredecessorID)

	stored := repo.stored()
	require.Len(t, stored, 1)
	assert.True(t, stored[0].Equal(n))
}

func TestService_AddNote_ReportsEveryViolation(t *testing.T) {
	svc, repo := newTestService(t)

	_, err := svc.AddNote(context.Background(), core.NoteFields{
		ClientFirstName: "  ",
		Principal:       dec("0"),
		InterestRate:    dec("-0.01"),
		TermMonths:      0,
	})
	require.ErrorIs(t, err, core.ErrValidation)

	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr))
	for _, field := range []string{"client_first_name", "client_last_name", "principal", "interest_rate", "origin_date", "term_months"} {
		assert.True(t, verr.Has(field), "expected violation for %s in %v", field, verr.Violations)
	}
	assert.Equal(t, 0, svc.Len())
	assert.Equal(t, 0, repo.saves)
}

func TestService_UpdateNote(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	n, err := svc.AddNote(ctx, validFields())
	require.NoError(t, err)

	t.Run("Recomputes Maturity", func(t *testing.T) {
		term := 6
		origin := core.Date(2024, 8, 31)
		updated, err := svc.UpdateNote(ctx, n.ID, core.NotePatch{TermMonths: &term, OriginDate: &origin})
		require.NoError(t, err)
		assert.Equal(t, core.Date(2025, 2, 28), updated.MaturityDate)
		assert.Equal(t, n.ID, updated.ID)
	})

	t.Run("Rejects Invalid Values", func(t *testing.T) {
		zero := dec("0")
		_, err := svc.UpdateNote(ctx, n.ID, core.NotePatch{Principal: &zero})
		assert.ErrorIs(t, err, core.ErrValidation)

		got, err := svc.GetNote(n.ID)
		require.NoError(t, err)
		assert.True(t, got.Principal.Equal(dec("1000")), "failed update must not mutate")
	})

	t.Run("Unknown Id", func(t *testing.T) {
		name := "Grace"
		_, err := svc.UpdateNote(ctx, "missing", core.NotePatch{ClientFirstName: &name})
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}

func TestService_UpdateNote_ClosedNoteIsImmutable(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	n, err := svc.AddNote(ctx, validFields())
	require.NoError(t, err)
	_, err = svc.Rollover(ctx, n.ID, core.Date(2024, 1, 1))
	require.NoError(t, err)

	rate := dec("0.09")
	_, err = svc.UpdateNote(ctx, n.ID, core.NotePatch{InterestRate: &rate})
	assert.ErrorIs(t, err, core.ErrInvalidState)

	// Display fields can still be corrected.
	project := "Harbor Tower II"
	updated, err := svc.UpdateNote(ctx, n.ID, core.NotePatch{ProjectName: &project})
	require.NoError(t, err)
	assert.Equal(t, "Harbor Tower II", updated.ProjectName)
	assert.Equal(t, core.StatusRolledOver, updated.Status)
}

func TestService_RemoveNote(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	a, err := svc.AddNote(ctx, validFields())
	require.NoError(t, err)
	b, err := svc.AddNote(ctx, validFields())
	require.NoError(t, err)

	require.NoError(t, svc.RemoveNote(ctx, a.ID))
	_, err = svc.GetNote(a.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, svc.RemoveNote(ctx, a.ID), core.ErrNotFound)

	got, err := svc.GetNote(b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	assert.Len(t, repo.stored(), 1)
}

func TestService_RemoveNote_RejectsReferencedPredecessor(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	n, err := svc.AddNote(ctx, validFields())
	require.NoError(t, err)
	plan, err := svc.Rollover(ctx, n.ID, core.Date(2024, 1, 1))
	require.NoError(t, err)

	err = svc.RemoveNote(ctx, n.ID)
	assert.ErrorIs(t, err, core.ErrInvalidState)
	_, err = svc.GetNote(n.ID)
	assert.NoError(t, err, "predecessor must survive the rejected removal")

	// Removing the successor first releases the reference.
	require.NoError(t, svc.RemoveNote(ctx, plan.Successor.ID))
	assert.NoError(t, svc.RemoveNote(ctx, n.ID))
}

func TestService_IDsAreNeverReused(t *testing.T) {
	// A generator that repeats itself must not resurrect a removed id.
	ids := []string{"a", "a", "b", "a", "b", "c"}
	i := 0
	svc, _ := newTestService(t, core.WithIDGenerator(func() string {
		id := ids[i%len(ids)]
		i++
		return id
	}))
	ctx := context.Background()

	first, err := svc.AddNote(ctx, validFields())
	require.NoError(t, err)
	assert.Equal(t, "a", first.ID)
	require.NoError(t, svc.RemoveNote(ctx, "a"))

	second, err := svc.AddNote(ctx, validFields())
	require.NoError(t, err)
	assert.Equal(t, "b", second.ID)

	third, err := svc.AddNote(ctx, validFields())
	require.NoError(t, err)
	assert.Equal(t, "c", third.ID)
}

func TestService_Rollover(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	n, err := svc.AddNote(ctx, validFields())
	require.NoError(t, err)

	plan, err := svc.Rollover(ctx, n.ID, core.Date(2024, 1, 1))
	require.NoError(t, err)

	assert.Equal(t, "n-2", plan.Successor.ID)
	assert.Equal(t, core.Date(2024, 1, 2), plan.Successor.OriginDate)
	assert.True(t, plan.Successor.Principal.Equal(dec("1050")))
	assert.Equal(t, n.ID, plan.Successor.PredecessorID)

	original, err := svc.GetNote(n.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusRolledOver, original.Status)
	assert.True(t, original.Principal.Equal(dec("1000")))

	chain, err := svc.Chain(plan.Successor.ID)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, plan.Successor.ID, chain[0].ID)
	assert.Equal(t, n.ID, chain[1].ID)

	assert.Len(t, repo.stored(), 2)

	_, err = svc.Rollover(ctx, n.ID, core.Date(2024, 1, 1))
	assert.ErrorIs(t, err, core.ErrInvalidState, "a note is never rolled twice")
}

func TestService_Rollover_NotMatured(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	n, err := svc.AddNote(ctx, validFields())
	require.NoError(t, err)
	saves := repo.saves

	_, err = svc.Rollover(ctx, n.ID, core.Date(2023, 12, 31))
	assert.ErrorIs(t, err, core.ErrInvalidState)

	got, err := svc.GetNote(n.ID)
	require.NoError(t, err)
	assert.True(t, got.Equal(n), "no mutation on failed rollover")
	assert.Equal(t, 1, svc.Len())
	assert.Equal(t, saves, repo.saves)
}

func TestService_Settle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	n, err := svc.AddNote(ctx, validFields())
	require.NoError(t, err)

	_, err = svc.Settle(ctx, n.ID, core.Date(2023, 6, 1))
	assert.ErrorIs(t, err, core.ErrInvalidState)

	settled, err := svc.Settle(ctx, n.ID, core.Date(2024, 1, 5))
	require.NoError(t, err)
	assert.Equal(t, core.StatusMatured, settled.Status)

	_, err = svc.Rollover(ctx, n.ID, core.Date(2024, 1, 5))
	assert.ErrorIs(t, err, core.ErrInvalidState)
	assert.Equal(t, core.Normal, svc.Classify(settled, core.Date(2024, 2, 1)))
}

func TestService_FindNotes_Snapshot(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	harbor := validFields()
	_, err := svc.AddNote(ctx, harbor)
	require.NoError(t, err)
	mill := validFields()
	mill.ProjectName = "Old Mill Lofts"
	_, err = svc.AddNote(ctx, mill)
	require.NoError(t, err)

	seq := svc.FindNotes(core.ProjectContains("harbor"))

	// Mutations after the call are not observed.
	_, err = svc.AddNote(ctx, harbor)
	require.NoError(t, err)

	var ids []string
	for n := range seq {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"n-1"}, ids)

	// Restartable.
	count := 0
	for range seq {
		count++
	}
	assert.Equal(t, 1, count)

	// A fresh call sees the new note, in insertion order.
	ids = ids[:0]
	for n := range svc.FindNotes(nil) {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"n-1", "n-2", "n-3"}, ids)
}

func TestPredicates(t *testing.T) {
	n := maturedNote()
	asOf := core.Date(2024, 1, 2)

	assert.True(t, core.ProjectMatches("harbor*")(n))
	assert.True(t, core.ProjectMatches("{Harbor,Mill} Tower")(n))
	assert.False(t, core.ProjectMatches("mill*")(n))
	assert.False(t, core.ProjectMatches("[")(n), "invalid pattern matches nothing")
	assert.True(t, core.ByClient("ada", "LOVELACE")(n))
	assert.True(t, core.Matured(asOf)(n))
	assert.False(t, core.Matured(core.Date(2024, 1, 1))(n), "maturing today is not yet matured for batches")
	assert.True(t, core.MaturingBy(core.Date(2024, 1, 1))(n))
	assert.True(t, core.And(core.ByStatus(core.StatusActive), core.ProjectContains("TOWER"))(n))
	assert.False(t, core.And(core.ByStatus(core.StatusMatured), core.ProjectContains("tower"))(n))
}

func TestService_PersistenceFailure(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	repo.saveErr = errors.New("disk full")

	n, err := svc.AddNote(ctx, validFields())
	require.ErrorIs(t, err, core.ErrPersistence)

	var perr *core.PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "add", perr.Op)
	assert.EqualError(t, errors.Unwrap(err), "disk full")

	// Memory stays consistent and usable.
	assert.Equal(t, "n-1", n.ID)
	got, err := svc.GetNote(n.ID)
	require.NoError(t, err)
	assert.True(t, got.Equal(n))
	assert.True(t, svc.Dirty())
	assert.Empty(t, repo.stored())

	// Flush retries once storage recovers.
	repo.saveErr = nil
	require.NoError(t, svc.Flush(ctx))
	assert.False(t, svc.Dirty())
	assert.Len(t, repo.stored(), 1)
	assert.NoError(t, svc.Flush(ctx), "clean flush is a no-op")
}

func TestService_Load(t *testing.T) {
	t.Run("Recomputes Maturity", func(t *testing.T) {
		n := maturedNote()
		n.MaturityDate = core.Date(2030, 1, 1)
		repo := &MockRepository{notes: []core.Note{n}}
		svc := core.NewService(repo)
		require.NoError(t, svc.Load(context.Background()))

		got, err := svc.GetNote(n.ID)
		require.NoError(t, err)
		assert.Equal(t, core.Date(2024, 1, 1), got.MaturityDate)
	})

	t.Run("Dangling Predecessor", func(t *testing.T) {
		n := maturedNote()
		n.PredecessorID = "ghost"
		svc := core.NewService(&MockRepository{notes: []core.Note{n}})
		assert.ErrorIs(t, svc.Load(context.Background()), core.ErrIntegrity)
	})

	t.Run("Duplicate Id", func(t *testing.T) {
		n := maturedNote()
		svc := core.NewService(&MockRepository{notes: []core.Note{n, n}})
		assert.ErrorIs(t, svc.Load(context.Background()), core.ErrIntegrity)
	})

	t.Run("Two Successors", func(t *testing.T) {
		pred := maturedNote()
		pred.Status = core.StatusRolledOver
		a, b := maturedNote(), maturedNote()
		a.ID, b.ID = "succ-a", "succ-b"
		a.PredecessorID, b.PredecessorID = pred.ID, pred.ID
		svc := core.NewService(&MockRepository{notes: []core.Note{pred, a, b}})
		assert.ErrorIs(t, svc.Load(context.Background()), core.ErrIntegrity)
	})

	t.Run("Successor Of Active Note", func(t *testing.T) {
		pred := maturedNote()
		succ := maturedNote()
		succ.ID = "succ"
		succ.PredecessorID = pred.ID
		svc := core.NewService(&MockRepository{notes: []core.Note{pred, succ}})
		err := svc.Load(context.Background())
		assert.ErrorIs(t, err, core.ErrIntegrity)
		assert.ErrorContains(t, err, "active")
	})

	t.Run("Ids Removed Elsewhere Stay Retired", func(t *testing.T) {
		n := maturedNote()
		repo := &MockRepository{notes: []core.Note{n}}
		svc := core.NewService(repo, core.WithIDGenerator(func() string { return n.ID }))
		require.NoError(t, svc.Load(context.Background()))

		// Another process deleted the note; its id must not come back.
		repo.notes = nil
		require.NoError(t, svc.Load(context.Background()))
		_, err := svc.AddNote(context.Background(), validFields())
		assert.ErrorIs(t, err, core.ErrIntegrity)
	})

	t.Run("Storage Failure", func(t *testing.T) {
		svc := core.NewService(&MockRepository{loadErr: errors.New("unreadable")})
		assert.ErrorIs(t, svc.Load(context.Background()), core.ErrPersistence)
	})
}

func TestService_ReadOnly(t *testing.T) {
	svc, _ := newTestService(t, core.WithReadOnly(true))
	ctx := context.Background()

	_, err := svc.AddNote(ctx, validFields())
	assert.ErrorIs(t, err, core.ErrReadOnly)
	assert.ErrorIs(t, svc.RemoveNote(ctx, "n-1"), core.ErrReadOnly)
	_, err = svc.RolloverAllMatured(ctx, core.Date(2024, 1, 1))
	assert.ErrorIs(t, err, core.ErrReadOnly)
}

func TestService_NewDraft(t *testing.T) {
	svc, _ := newTestService(t, core.WithDefaults(core.Defaults{TermMonths: 9, InterestRate: dec("0.08")}))

	draft := svc.NewDraft(core.Date(2024, 5, 5))
	assert.Equal(t, 9, draft.TermMonths)
	assert.True(t, draft.InterestRate.Equal(dec("0.08")))
	assert.Equal(t, core.Date(2024, 5, 5), draft.OriginDate)
}

func TestService_State(t *testing.T) {
	svc, _ := newTestService(t, core.WithWarningWindow(14))
	_, err := svc.AddNote(context.Background(), validFields())
	require.NoError(t, err)

	state, ok := svc.State().(core.ServiceState)
	require.True(t, ok)
	assert.Equal(t, 1, state.Notes)
	assert.Equal(t, 1, state.ByStatus["active"])
	assert.Equal(t, 14, state.WarningWindowDays)
	assert.Equal(t, int64(365), state.DayCountBasis)
	assert.Equal(t, "repository", state.RepositoryType)
	assert.Equal(t, "note-store", svc.ComponentType())
}

func TestService_Watch_Unsupported(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Watch(context.Background())
	assert.Error(t, err)
}
