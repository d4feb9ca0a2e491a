package profile

import "github.com/kasuganosora/colprofiler/internal/colset"

// NotApplicable is the NullCount sentinel for composite Spaces, which do
// not report a per-column null count (see collector.go on the "null
// bucket" semantics of composite collectors).
const NotApplicable int64 = -1

// defaultValueListCap is the default size below which a singleton Space's
// distinct value list is retained. Implementations may override it via
// Options.ValueListCap.
const defaultValueListCap = 20

// Space is the workspace for one ColumnSet: its identity plus every
// statistic the pass controller has derived for it so far. A Space is
// created exactly once, when its ColumnSet is popped off the frontier, and
// is retained in the run's partial-order index for the lifetime of the run.
type Space struct {
	Columns             colset.ColumnSet
	Cardinality         int64
	NullCount           int64
	ValueSet            []Value // non-nil only for singleton Spaces with Cardinality-null < cap
	ExpectedCardinality float64
	Unique              bool
	Dependencies        colset.ColumnSet   // columns functionally determined by some subset equal to Columns
	Dependents          []colset.ColumnSet // singleton Spaces only: sets known to determine this column

	minimal   bool // set during FD derivation; true iff no rejected FD candidate and not itself redundant
	collector collector
}

func newSpace(cs colset.ColumnSet) *Space {
	return &Space{Columns: cs, NullCount: NotApplicable}
}
