package profile

import (
	"context"

	"go.uber.org/zap"

	"github.com/kasuganosora/colprofiler/internal/colset"
)

// runPass streams the row source once, feeding every Space in batch, then
// derives each Space's statistics, functional dependencies, and uniqueness
// in turn (§4.F steps 1-9).
func (r *run) runPass(ctx context.Context, batch []*Space) error {
	r.attachCollectors(batch)

	iter, err := r.rows.Open(ctx)
	if err != nil {
		return &IterationError{PassIndex: r.passIndex, Err: err}
	}
	defer iter.Close()

	var rowsSeen int64
	for iter.Next() {
		row := iter.Row()
		if len(row) != r.n {
			return &RowShapeError{PassIndex: r.passIndex, WantArity: r.n, GotArity: len(row)}
		}
		for _, s := range batch {
			if err := s.collector.observe(row); err != nil {
				if rse, ok := err.(*RowShapeError); ok {
					rse.PassIndex = r.passIndex
				}
				return err
			}
		}
		rowsSeen++
	}
	if err := iter.Err(); err != nil {
		return &IterationError{PassIndex: r.passIndex, Err: err}
	}

	if r.passIndex == 0 {
		r.rowCount = rowsSeen
	}

	for _, s := range batch {
		s.collector.finalize(s, r.opts.ValueListCap)
		s.collector = nil
		r.finishSpace(s)
	}

	if r.logger != nil {
		r.logger.Debug("pass complete",
			zap.Int("pass", r.passIndex),
			zap.Int("batch_size", len(batch)),
			zap.Int64("row_count", r.rowCount),
			zap.Int("distributions", len(r.distributions)),
		)
	}
	return nil
}

func (r *run) attachCollectors(batch []*Space) {
	for _, s := range batch {
		if s.Columns.Len() <= 1 {
			pos := 0
			if s.Columns.Len() == 1 {
				pos = s.Columns.Single()
			} else {
				// Empty Space: every row contributes to a single implicit
				// group, so the collector only counts rows.
				s.collector = newEmptyCollector()
				continue
			}
			s.collector = newSingletonCollector(pos)
			continue
		}
		positions := s.Columns.Members()
		var overflow OverflowSet
		if r.opts.OverflowThreshold > 0 && r.opts.OverflowFactory != nil {
			if o, err := r.opts.OverflowFactory(s.Columns.String()); err == nil {
				overflow = o
			}
		}
		s.collector = newCompositeCollector(positions, r.opts.OverflowThreshold, overflow)
	}
}

// finishSpace runs steps 4-8 of the pass for one already-finalized Space:
// insertion into the partial-order index, FD/minimality derivation,
// expected-cardinality computation, the interesting test, and uniqueness
// marking.
func (r *run) finishSpace(s *Space) {
	r.results.add(s)

	nonMinimal := r.deriveFDs(s)
	s.ExpectedCardinality = expectedCardinality(s, r.results, r.singletons, r.rowCount)

	wouldBeKey := r.rowCount > 1 && !s.Columns.IsEmpty() && s.Cardinality == r.rowCount
	s.minimal = nonMinimal == 0 && !wouldBeKey && !r.anyKeySubsetOf(s.Columns)

	if s.minimal && (s.Columns.Len() < 2 || surprise(s) > InterestingSurpriseThreshold) {
		r.registerDistribution(s)
	}

	if wouldBeKey && !r.anyKeySubsetOf(s.Columns) {
		s.Unique = true
		r.keys = append(r.keys, s.Columns)
		r.uniques = append(r.uniques, Unique{Columns: s.Columns})
	}

	r.done.push(s)
}

// deriveFDs checks every existing strict subset of s that shares its
// cardinality: each such subset's complement of columns is then a
// candidate functional dependency determined by the subset. Returns the
// count of candidates rejected as non-minimal (already implied by a
// smaller known determinant).
func (r *run) deriveFDs(s *Space) int {
	// With no rows every Space has cardinality 0, so equal cardinalities
	// say nothing about dependencies.
	if r.rowCount == 0 {
		return 0
	}
	nonMinimal := 0
	for _, d := range r.results.descendants(s) {
		if d.Cardinality != s.Cardinality {
			continue
		}
		determined := s.Columns.Difference(d.Columns)
		for _, col := range determined.Members() {
			if !r.isMinimalFD(d.Columns, col) {
				nonMinimal++
				continue
			}
			if r.singletons[col] != nil {
				r.singletons[col].Dependents = append(r.singletons[col].Dependents, d.Columns)
			}
			s.Dependencies = s.Dependencies.Union(colset.Of(col))
		}
	}
	return nonMinimal
}

// isMinimalFD reports whether determinant -> dependent is not already
// implied by a smaller known dependency: no proper subset of determinant
// is itself a known determinant of dependent, and determinant is not
// itself a strict superset of some other known determinant of dependent.
// A determinant that is already a known key determines every column
// trivially, so it carries no information and is never minimal.
func (r *run) isMinimalFD(determinant colset.ColumnSet, dependent int) bool {
	if r.anyKeySubsetOf(determinant) {
		return false
	}
	for _, i := range determinant.Members() {
		sing := r.singletons[i]
		if sing == nil {
			continue
		}
		rest := determinant.Clear(i)
		for _, known := range sing.Dependents {
			if known.Subset(rest) {
				return false
			}
		}
	}
	target := r.singletons[dependent]
	if target != nil {
		for _, known := range target.Dependents {
			if known.StrictSubset(determinant) {
				return false
			}
		}
	}
	return true
}

func (r *run) registerDistribution(s *Space) {
	r.distributions[s.Columns] = &Distribution{
		Columns:             s.Columns,
		ValueSet:            s.ValueSet,
		Cardinality:         s.Cardinality,
		NullCount:           s.NullCount,
		ExpectedCardinality: s.ExpectedCardinality,
		Minimal:             s.minimal,
	}
}

// assemble builds the final Profile from accumulated run state. Uniques
// for the empty ColumnSet are a special case: a table with exactly one row
// makes every column trivially a key, which carries no information, so the
// engine reports only the canonical empty-set key in that case and skips
// per-column uniqueness entirely (see the "rowCount > 1" guard in
// finishSpace).
func (r *run) assemble() *Profile {
	p := &Profile{RowCount: r.rowCount}

	for _, d := range r.distributions {
		p.Distributions = append(p.Distributions, *d)
	}
	p.Uniques = append(p.Uniques, r.uniques...)
	if r.rowCount == 1 {
		p.Uniques = append(p.Uniques, Unique{Columns: colset.Empty})
	}

	for col, s := range r.singletons {
		if s == nil {
			continue
		}
		for _, det := range s.Dependents {
			p.FunctionalDependencies = append(p.FunctionalDependencies, FunctionalDependency{
				Determinant: det,
				Dependent:   col,
			})
		}
	}

	if r.logger != nil {
		p.Trace = &TraceSummary{RunID: r.runID, Passes: r.passIndex}
	}
	return p
}
