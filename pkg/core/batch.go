package core

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"
)

// BatchResult is the outcome of one note in a batch rollover.
type BatchResult struct {
	NoteID   string
	Rollover Rollover // committed plan, valid when Err is nil
	// Chain holds the rollovers of successors that had themselves matured
	// before the as-of date, in order.
	Chain []Rollover
	Err   error
}

// Rollovers returns every committed step of the result, Rollover first.
func (r BatchResult) Rollovers() []Rollover {
	return append([]Rollover{r.Rollover}, r.Chain...)
}

// BatchReport lists per-note outcomes of RolloverAllMatured.
type BatchReport struct {
	AsOf     time.Time
	Results  []BatchResult
	Canceled bool
}

// Succeeded returns the results that were committed.
func (r BatchReport) Succeeded() []BatchResult {
	var out []BatchResult
	for _, res := range r.Results {
		if res.Err == nil {
			out = append(out, res)
		}
	}
	return out
}

// Failed returns the results that were not committed.
func (r BatchReport) Failed() []BatchResult {
	var out []BatchResult
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// RolloverAllMatured rolls over every Active note whose maturity date is
// before asOf, oldest maturity first. A successor that also matures before
// asOf is rolled over in the same batch, so every chain ends with an Active
// note maturing on or after asOf.
//
// The batch works on a snapshot taken at start and computes every plan
// without holding the lock; the apply phase is one short critical section,
// so readers never observe a partial batch. Each note is independent: a
// failing note is reported and the rest proceed. ctx is checked between
// notes; on cancellation the plans computed so far are still applied and
// ctx.Err() is returned with the report. Notes already rolled over are
// never selected, so re-running a batch for the same date adds nothing.
func (s *Service) RolloverAllMatured(ctx context.Context, asOf time.Time, opts ...RolloverOption) (BatchReport, error) {
	report := BatchReport{AsOf: Day(asOf)}
	if s.readOnly {
		return report, ErrReadOnly
	}

	candidates := slices.Collect(s.FindNotes(Matured(report.AsOf)))
	slices.SortStableFunc(candidates, func(a, b Note) int {
		return a.MaturityDate.Compare(b.MaturityDate)
	})

	planned := make([]BatchResult, 0, len(candidates))
	for _, n := range candidates {
		if ctx.Err() != nil {
			report.Canceled = true
			break
		}
		planned = append(planned, planChain(n, report.AsOf, s.calc, opts...))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	applied := 0
	for i := range planned {
		res := &planned[i]
		if res.Err != nil {
			continue
		}
		idx, ok := s.index[res.NoteID]
		if !ok {
			res.Err = notFound(res.NoteID)
			continue
		}
		original := res.Rollover.Predecessor
		original.Status = StatusActive
		if !s.notes[idx].Equal(original) {
			res.Err = invalidState("note %s changed while the batch was running", res.NoteID)
			continue
		}
		if err := s.commitChain(idx, res); err != nil {
			res.Err = err
			continue
		}
		applied++
	}
	report.Results = planned

	s.logger.Info("batch rollover finished",
		"as_of", FormatDate(report.AsOf),
		"candidates", len(candidates),
		"applied", applied,
		"failed", len(planned)-applied,
		"canceled", report.Canceled)

	var persistErr error
	if applied > 0 {
		// Applied rollovers are kept even when the caller has given up.
		persistErr = s.persist(context.WithoutCancel(ctx), "rollover_batch")
	}
	var cancelErr error
	if report.Canceled {
		cancelErr = ctx.Err()
	}
	return report, errors.Join(persistErr, cancelErr)
}

// planChain plans the rollover of n and of every successor that matures
// before asOf. A note is either planned whole or fails whole.
func planChain(n Note, asOf time.Time, calc Calculator, opts ...RolloverOption) BatchResult {
	res := BatchResult{NoteID: n.ID}
	plan, err := PlanRollover(n, asOf, calc, opts...)
	if err != nil {
		res.Err = err
		return res
	}
	res.Rollover = plan
	for next := plan.Successor; next.MaturityDate.Before(asOf); {
		step, err := PlanRollover(next, asOf, calc, opts...)
		if err != nil {
			res.Err = fmt.Errorf("successor of note %s: %w", n.ID, err)
			res.Chain = nil
			return res
		}
		res.Chain = append(res.Chain, step)
		next = step.Successor
	}
	return res
}

// commitChain assigns ids to every step of res and applies them in chain
// order. Each step's predecessor is the successor committed just before it.
// Callers hold the write lock.
func (s *Service) commitChain(idx int, res *BatchResult) error {
	ids, err := s.nextIDs(1 + len(res.Chain))
	if err != nil {
		return err
	}
	s.commitRollover(idx, &res.Rollover, ids[0])
	prev := res.Rollover.Successor.ID
	for i := range res.Chain {
		step := &res.Chain[i]
		pi := s.index[prev]
		step.Predecessor = s.notes[pi]
		step.Predecessor.Status = StatusRolledOver
		step.Successor.PredecessorID = prev
		s.commitRollover(pi, step, ids[i+1])
		prev = step.Successor.ID
	}
	return nil
}
