package profile

import "go.uber.org/zap"

// InterestPredicate decides whether a successor combination, formed by
// extending parent with extendCol, is worth enqueueing for evaluation.
// Must be total and deterministic.
type InterestPredicate func(parent *Space, extendCol int) bool

// Less orders two finalized Spaces for the done queue. The default matches
// the source behavior literally: smaller |S| first, and within equal size,
// lower surprise first — see DESIGN.md for why this (seemingly backwards)
// order is kept as the default instead of inverted.
type Less func(a, b *Space) bool

// Options configures a profiling run. Run replaces every zero-valued field
// with its default, so DefaultOptions and a zero Options behave alike.
type Options struct {
	// CombinationsPerPass bounds how many Spaces are evaluated concurrently
	// in one pass. Must be > 2.
	CombinationsPerPass int

	// Interest decides which successor ColumnSets get enqueued. Defaults
	// to accepting everything.
	Interest InterestPredicate

	// Less orders the done queue. Defaults to (size asc, surprise asc).
	Less Less

	// ValueListCap bounds the size of a retained singleton valueSet.
	ValueListCap int

	// OverflowThreshold, when > 0, is the number of distinct tuples after
	// which a composite collector promotes itself to a disk-backed
	// overflow set instead of growing its in-memory set further. 0
	// disables overflow (the collector stays fully in memory).
	OverflowThreshold int

	// OverflowFactory builds the overflow store for one composite Space
	// when OverflowThreshold is crossed. Required only if
	// OverflowThreshold > 0.
	OverflowFactory func(cols string) (OverflowSet, error)

	// Logger, when non-nil, receives one structured entry per pass with
	// the pass index, batch size, and running distribution count.
	Logger *zap.Logger
}

// DefaultCombinationsPerPass is the default value of
// Options.CombinationsPerPass.
const DefaultCombinationsPerPass = 100

// InterestingSurpriseThreshold is the fixed threshold used by the pass
// controller's own "interesting" test when deciding whether a minimal
// Space is registered as a Distribution (§4.F step 7). It is distinct from
// the caller-supplied Options.Interest predicate used for successor
// generation.
const InterestingSurpriseThreshold = 0.3

// DefaultOptions returns an Options with every field at its documented
// default.
func DefaultOptions() Options {
	return Options{
		CombinationsPerPass: DefaultCombinationsPerPass,
		Interest:            func(*Space, int) bool { return true },
		Less:                defaultLess,
		ValueListCap:        defaultValueListCap,
	}
}

func defaultLess(a, b *Space) bool {
	al, bl := a.Columns.Len(), b.Columns.Len()
	if al != bl {
		return al < bl
	}
	return surprise(a) < surprise(b)
}

func (o *Options) fillDefaults() {
	if o.CombinationsPerPass == 0 {
		o.CombinationsPerPass = DefaultCombinationsPerPass
	}
	if o.Interest == nil {
		o.Interest = func(*Space, int) bool { return true }
	}
	if o.Less == nil {
		o.Less = defaultLess
	}
	if o.ValueListCap == 0 {
		o.ValueListCap = defaultValueListCap
	}
}

func (o Options) validate() error {
	if o.CombinationsPerPass <= 2 {
		return &MisuseError{Reason: "combinationsPerPass must be > 2"}
	}
	return nil
}
