// Package profile implements the combination-search engine: it discovers,
// across subsets of a table's columns, cardinality, a compact value list
// when small, unique keys, and functional dependencies — without ever
// evaluating all 2^N subsets. Run is the public entry point.
package profile

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kasuganosora/colprofiler/internal/colset"
)

// run holds all state for one profiling invocation. A run owns its
// frontier, done queue, partial-order index, singleton array, keys list,
// distribution map, and seen set; nothing here is shared across runs.
type run struct {
	opts    Options
	columns []Column
	n       int
	rows    RowSource

	frontier []colset.ColumnSet
	seen     map[colset.ColumnSet]bool
	done     *doneQueue
	keys     []colset.ColumnSet
	results  *partialOrder

	distributions map[colset.ColumnSet]*Distribution
	singletons    []*Space
	uniques       []Unique
	fds           []FunctionalDependency

	rowCount  int64
	passIndex int

	logger *zap.Logger
	runID  uuid.UUID
}

// Run profiles rows according to columns and opts, returning the resulting
// Profile. columns[i].Ordinal must equal i; rows must be restartable —
// Open is invoked once per pass and must replay the same sequence.
func Run(ctx context.Context, rows RowSource, columns []Column, opts Options) (*Profile, error) {
	opts.fillDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	for i, c := range columns {
		if c.Ordinal != i {
			return nil, &MisuseError{Reason: "column ordinal must equal its index in the schema slice"}
		}
	}
	n := len(columns)
	if n > colset.MaxColumns {
		return nil, &MisuseError{Reason: "too many columns for a single ColumnSet"}
	}

	r := &run{
		opts:          opts,
		columns:       columns,
		n:             n,
		rows:          rows,
		seen:          make(map[colset.ColumnSet]bool),
		done:          newDoneQueue(opts.Less),
		results:       newPartialOrder(),
		distributions: make(map[colset.ColumnSet]*Distribution),
		singletons:    make([]*Space, n),
		runID:         uuid.New(),
	}
	if opts.Logger != nil {
		r.logger = opts.Logger.With(zap.String("run_id", r.runID.String()))
	}

	r.initFrontier(n)

	for {
		batch := r.nextBatch()
		if len(batch) == 0 {
			break
		}
		if err := r.runPass(ctx, batch); err != nil {
			return nil, err
		}
		r.passIndex++
	}

	return r.assemble(), nil
}

func (r *run) initFrontier(n int) {
	total := int64(1) << uint(n)
	if total < int64(r.opts.CombinationsPerPass) {
		for _, cs := range colset.PowerSet(n) {
			r.frontier = append(r.frontier, cs)
			r.seen[cs] = true
		}
		return
	}
	r.frontier = append(r.frontier, colset.Empty)
	r.seen[colset.Empty] = true
}

// nextBatch pulls up to CombinationsPerPass Spaces for the next pass,
// materializing frontier entries first and, once the frontier runs dry,
// expanding finalized Spaces off the done queue to generate more frontier
// entries (§4.F "Batch selection").
func (r *run) nextBatch() []*Space {
	var batch []*Space
	for len(batch) < r.opts.CombinationsPerPass {
		if len(r.frontier) > 0 {
			cs := r.frontier[0]
			r.frontier = r.frontier[1:]
			s := newSpace(cs)
			batch = append(batch, s)
			if cs.Len() == 1 {
				r.singletons[cs.Single()] = s
			}
			continue
		}

		d := r.done.pop()
		if d == nil {
			break
		}
		r.expand(d)
	}
	return batch
}

// expand generates successor ColumnSets from a finalized Space D per
// §4.F step 2. Expansion from the empty Space bypasses the caller's
// Interest predicate: the predicate evaluates a parent's surprise, which
// is only meaningful once at least the singleton cardinalities are known,
// so the bootstrap step (empty -> singletons) is always taken. Without
// this, an "everything uninteresting" predicate would starve the search
// of even its singleton Distributions.
func (r *run) expand(d *Space) {
	empty := d.Columns.IsEmpty()
	for c := 0; c < r.n; c++ {
		if d.Columns.Has(c) {
			continue
		}
		t := d.Columns.Union(colset.Of(c))
		if r.seen[t] {
			continue
		}
		if !(r.passIndex == 0 || empty || !r.anyKeySubsetOf(t)) {
			continue
		}
		if !empty && !r.opts.Interest(d, c) {
			continue
		}
		r.seen[t] = true
		r.frontier = append(r.frontier, t)
	}
}

func (r *run) anyKeySubsetOf(t colset.ColumnSet) bool {
	for _, k := range r.keys {
		if k.Subset(t) {
			return true
		}
	}
	return false
}
