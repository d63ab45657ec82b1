package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// DefaultTermMonths is the term prefilled for new notes.
	DefaultTermMonths = 12

	maxIDAttempts = 8
)

// DefaultInterestRate is the annual rate prefilled for new notes.
var DefaultInterestRate = decimal.RequireFromString("0.05")

// Defaults are the values prefilled in a draft note.
type Defaults struct {
	TermMonths   int
	InterestRate decimal.Decimal
}

// Service is the note store: an ordered collection of notes keyed by id.
// Mutations validate first, apply in memory, then write the full ordered
// collection through the Repository.
type Service struct {
	mu         sync.RWMutex
	repo       Repository
	notes      []Note
	index      map[string]int
	retired    map[string]struct{}
	calc       Calculator
	classifier Classifier
	defaults   Defaults
	newID      func() string
	logger     *slog.Logger
	readOnly   bool
	dirty      bool
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithCalculator sets the interest policy.
func WithCalculator(c Calculator) ServiceOption {
	return func(s *Service) {
		s.calc = c
	}
}

// WithWarningWindow sets the ApproachingMaturity look-ahead in days.
func WithWarningWindow(days int) ServiceOption {
	return func(s *Service) {
		s.classifier = NewClassifier(days)
	}
}

// WithDefaults sets the term and rate prefilled by NewDraft.
func WithDefaults(d Defaults) ServiceOption {
	return func(s *Service) {
		if d.TermMonths > 0 {
			s.defaults.TermMonths = d.TermMonths
		}
		if !d.InterestRate.IsNegative() {
			s.defaults.InterestRate = d.InterestRate
		}
	}
}

// WithIDGenerator replaces the UUIDv7 id generator (useful for tests).
func WithIDGenerator(fn func() string) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithLogger sets the logger for the service.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithReadOnly makes every mutation fail with ErrReadOnly.
func WithReadOnly(readOnly bool) ServiceOption {
	return func(s *Service) {
		s.readOnly = readOnly
	}
}

// NewService creates an empty Service backed by repo. Call Load to read stored notes.
func NewService(repo Repository, opts ...ServiceOption) *Service {
	s := &Service{
		repo:       repo,
		index:      make(map[string]int),
		retired:    make(map[string]struct{}),
		calc:       DefaultCalculator,
		classifier: NewClassifier(DefaultWarningWindowDays),
		defaults: Defaults{
			TermMonths:   DefaultTermMonths,
			InterestRate: DefaultInterestRate,
		},
		newID:  newUUID,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Load replaces the in-memory state with the repository contents.
// Stored maturity dates are recomputed. Duplicate ids, dangling predecessor
// references, two successors of one note and a successor of a note that is
// not rolled over fail with ErrIntegrity.
func (s *Service) Load(ctx context.Context) error {
	stored, err := s.repo.Load(ctx)
	if err != nil {
		return &PersistenceError{Op: "load", Err: err}
	}

	notes := make([]Note, 0, len(stored))
	index := make(map[string]int, len(stored))
	for _, n := range stored {
		if n.ID == "" {
			return fmt.Errorf("%w: note without id", ErrIntegrity)
		}
		if _, dup := index[n.ID]; dup {
			return fmt.Errorf("%w: duplicate note id %s", ErrIntegrity, n.ID)
		}
		n.OriginDate = Day(n.OriginDate)
		maturity, err := s.calc.MaturityDate(n.OriginDate, n.TermMonths)
		if err != nil {
			return fmt.Errorf("%w: note %s: %v", ErrIntegrity, n.ID, err)
		}
		if !n.MaturityDate.IsZero() && !Day(n.MaturityDate).Equal(maturity) {
			s.logger.Warn("stored maturity date disagrees with schedule, recomputed",
				"id", n.ID, "stored", FormatDate(n.MaturityDate), "computed", FormatDate(maturity))
		}
		n.MaturityDate = maturity
		index[n.ID] = len(notes)
		notes = append(notes, n)
	}
	successorOf := make(map[string]string)
	for _, n := range notes {
		if n.PredecessorID == "" {
			continue
		}
		pi, ok := index[n.PredecessorID]
		if !ok {
			return fmt.Errorf("%w: note %s references missing predecessor %s", ErrIntegrity, n.ID, n.PredecessorID)
		}
		if other, dup := successorOf[n.PredecessorID]; dup {
			return fmt.Errorf("%w: notes %s and %s both succeed %s", ErrIntegrity, other, n.ID, n.PredecessorID)
		}
		successorOf[n.PredecessorID] = n.ID
		if pred := notes[pi]; pred.Status != StatusRolledOver {
			return fmt.Errorf("%w: note %s succeeds %s which is %s", ErrIntegrity, n.ID, pred.ID, pred.Status)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Ids that disappeared since the last load were deleted elsewhere.
	for _, n := range s.notes {
		if _, kept := index[n.ID]; !kept {
			s.retired[n.ID] = struct{}{}
		}
	}
	s.notes = notes
	s.index = index
	s.dirty = false
	s.logger.Debug("notes loaded", "count", len(notes))
	return nil
}

// NewDraft returns fields prefilled with the configured defaults, originating today.
func (s *Service) NewDraft(today time.Time) NoteFields {
	return NoteFields{
		InterestRate: s.defaults.InterestRate,
		OriginDate:   Day(today),
		TermMonths:   s.defaults.TermMonths,
	}
}

// AddNote validates the fields, assigns a fresh id, derives the maturity date and stores an Active note.
//
// When only the durable write fails the note is kept in memory and returned
// together with a *PersistenceError.
func (s *Service) AddNote(ctx context.Context, fields NoteFields) (Note, error) {
	if s.readOnly {
		return Note{}, ErrReadOnly
	}
	if err := fields.Validate(); err != nil {
		return Note{}, err
	}
	n, err := fields.build(s.calc)
	if err != nil {
		return Note{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.nextID(nil)
	if err != nil {
		return Note{}, err
	}
	n.ID = id
	s.insert(n)
	s.logger.Info("note added", "id", n.ID, "client", n.ClientName(), "maturity", FormatDate(n.MaturityDate))

	return n, s.persist(ctx, "add")
}

// UpdateNote applies a partial edit and recomputes the maturity date.
// Financial fields of closed (matured or rolled over) notes cannot change.
func (s *Service) UpdateNote(ctx context.Context, id string, patch NotePatch) (Note, error) {
	if s.readOnly {
		return Note{}, ErrReadOnly
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.index[id]
	if !ok {
		return Note{}, notFound(id)
	}
	current := s.notes[idx]
	if patch.Financial() && current.Status.Closed() {
		return Note{}, invalidState("note %s is %s, its financial fields are immutable", id, current.Status)
	}

	fields := patch.Apply(current.Fields())
	if err := fields.Validate(); err != nil {
		return Note{}, err
	}
	updated, err := fields.build(s.calc)
	if err != nil {
		return Note{}, err
	}
	updated.ID = current.ID
	updated.Status = current.Status
	updated.PredecessorID = current.PredecessorID

	s.notes[idx] = updated
	s.logger.Info("note updated", "id", id, "maturity", FormatDate(updated.MaturityDate))

	return updated, s.persist(ctx, "update")
}

// RemoveNote deletes a note. Notes still referenced as a predecessor cannot be removed.
func (s *Service) RemoveNote(ctx context.Context, id string) error {
	if s.readOnly {
		return ErrReadOnly
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.index[id]
	if !ok {
		return notFound(id)
	}
	for _, n := range s.notes {
		if n.PredecessorID == id {
			return invalidState("note %s is the predecessor of %s and cannot be removed", id, n.ID)
		}
	}

	s.notes = slices.Delete(s.notes, idx, idx+1)
	s.reindex()
	s.retired[id] = struct{}{}
	s.logger.Info("note removed", "id", id)

	return s.persist(ctx, "remove")
}

// Rollover rolls one matured Active note into a new note and stores both.
// The returned plan carries the committed successor with its id.
func (s *Service) Rollover(ctx context.Context, id string, asOf time.Time, opts ...RolloverOption) (Rollover, error) {
	if s.readOnly {
		return Rollover{}, ErrReadOnly
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.index[id]
	if !ok {
		return Rollover{}, notFound(id)
	}
	plan, err := PlanRollover(s.notes[idx], asOf, s.calc, opts...)
	if err != nil {
		return Rollover{}, err
	}
	ids, err := s.nextIDs(1)
	if err != nil {
		return Rollover{}, err
	}
	s.commitRollover(idx, &plan, ids[0])

	return plan, s.persist(ctx, "rollover")
}

// commitRollover gives the successor its id and applies the plan. Callers hold the write lock.
func (s *Service) commitRollover(idx int, plan *Rollover, successorID string) {
	plan.Successor.ID = successorID
	s.notes[idx] = plan.Predecessor
	s.insert(plan.Successor)
	s.logger.Info("note rolled over",
		"id", plan.Predecessor.ID,
		"successor", plan.Successor.ID,
		"principal", plan.Successor.Principal.String(),
		"origin", FormatDate(plan.Successor.OriginDate))
}

// Settle closes a matured Active note that is paid out instead of rolled over.
func (s *Service) Settle(ctx context.Context, id string, asOf time.Time) (Note, error) {
	if s.readOnly {
		return Note{}, ErrReadOnly
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.index[id]
	if !ok {
		return Note{}, notFound(id)
	}
	n := s.notes[idx]
	if n.Status != StatusActive {
		return Note{}, invalidState("note %s is %s, only active notes can be settled", id, n.Status)
	}
	if Day(asOf).Before(n.MaturityDate) {
		return Note{}, invalidState("note %s matures on %s, cannot settle on %s",
			id, FormatDate(n.MaturityDate), FormatDate(asOf))
	}
	n.Status = StatusMatured
	s.notes[idx] = n
	s.logger.Info("note settled", "id", id)

	return n, s.persist(ctx, "settle")
}

// GetNote returns the note with the given id.
func (s *Service) GetNote(id string) (Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.index[id]
	if !ok {
		return Note{}, notFound(id)
	}
	return s.notes[idx], nil
}

// ListNotes returns a copy of every note in insertion order.
func (s *Service) ListNotes() []Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.notes)
}

// Len returns the number of stored notes.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notes)
}

// Chain returns the note followed by its predecessors, newest first.
func (s *Service) Chain(id string) ([]Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.index[id]
	if !ok {
		return nil, notFound(id)
	}
	var chain []Note
	seen := make(map[string]bool)
	for {
		n := s.notes[idx]
		if seen[n.ID] {
			return nil, fmt.Errorf("%w: predecessor cycle at %s", ErrIntegrity, n.ID)
		}
		seen[n.ID] = true
		chain = append(chain, n)
		if n.PredecessorID == "" {
			return chain, nil
		}
		if idx, ok = s.index[n.PredecessorID]; !ok {
			return nil, fmt.Errorf("%w: note %s references missing predecessor %s", ErrIntegrity, n.ID, n.PredecessorID)
		}
	}
}

// Classify runs the configured maturity classifier.
func (s *Service) Classify(n Note, today time.Time) Classification {
	return s.classifier.Classify(n, today)
}

// TotalValue returns principal plus interest accrued as of asOf under the configured policy.
func (s *Service) TotalValue(n Note, asOf time.Time) (decimal.Decimal, error) {
	return s.calc.TotalValue(n, asOf)
}

// Calculator returns the interest policy in use.
func (s *Service) Calculator() Calculator {
	return s.calc
}

// Repository returns the storage collaborator, for hosts that inspect it.
func (s *Service) Repository() Repository {
	return s.repo
}

// Dirty reports whether the last durable write failed and memory is ahead of storage.
func (s *Service) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// Flush retries the durable write when the store is dirty.
func (s *Service) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}
	return s.persist(ctx, "flush")
}

// Close flushes pending changes and releases the repository when it holds resources.
func (s *Service) Close(ctx context.Context) error {
	flushErr := s.Flush(ctx)
	if c, ok := s.repo.(io.Closer); ok {
		if err := c.Close(); err != nil && flushErr == nil {
			return err
		}
	}
	return flushErr
}

// Watch observes external changes of the ledger if the repository supports it.
func (s *Service) Watch(ctx context.Context) (<-chan Event, error) {
	w, ok := s.repo.(Watchable)
	if !ok {
		return nil, fmt.Errorf("repository does not support watching")
	}
	return w.Watch(ctx)
}

func (s *Service) insert(n Note) {
	s.index[n.ID] = len(s.notes)
	s.notes = append(s.notes, n)
}

func (s *Service) reindex() {
	s.index = make(map[string]int, len(s.notes))
	for i, n := range s.notes {
		s.index[n.ID] = i
	}
}

// nextID returns an id that was never used by this store and is not in
// pending. Callers hold the write lock.
func (s *Service) nextID(pending map[string]struct{}) (string, error) {
	for range maxIDAttempts {
		id := s.newID()
		if id == "" {
			continue
		}
		if _, taken := pending[id]; taken {
			continue
		}
		if _, taken := s.index[id]; taken {
			continue
		}
		if _, used := s.retired[id]; used {
			continue
		}
		return id, nil
	}
	return "", fmt.Errorf("%w: could not generate a unique note id", ErrIntegrity)
}

// nextIDs reserves count distinct ids. Callers hold the write lock.
func (s *Service) nextIDs(count int) ([]string, error) {
	ids := make([]string, 0, count)
	pending := make(map[string]struct{}, count)
	for range count {
		id, err := s.nextID(pending)
		if err != nil {
			return nil, err
		}
		pending[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// persist writes the full ordered collection. Callers hold the write lock.
func (s *Service) persist(ctx context.Context, op string) error {
	if err := s.repo.Save(ctx, slices.Clone(s.notes)); err != nil {
		s.dirty = true
		s.logger.Error("saving notes failed", "op", op, "error", err)
		return &PersistenceError{Op: op, Err: err}
	}
	s.dirty = false
	return nil
}
