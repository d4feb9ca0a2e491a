package profile

import (
	"github.com/google/uuid"
	"github.com/kasuganosora/colprofiler/internal/colset"
)

// Distribution is the emitted statistical description of one minimal,
// interesting ColumnSet.
type Distribution struct {
	Columns             colset.ColumnSet
	ValueSet            []Value // present only for singleton Spaces below the value-list cap
	Cardinality         int64
	NullCount           int64
	ExpectedCardinality float64
	Minimal             bool
}

// Unique names a ColumnSet whose observed cardinality equals the row
// count — a key.
type Unique struct {
	Columns colset.ColumnSet
}

// FunctionalDependency records that, on the observed rows, Determinant
// uniquely determines the single column Dependent.
type FunctionalDependency struct {
	Determinant colset.ColumnSet
	Dependent   int
}

// TraceSummary is populated only when Options.Logger is set.
type TraceSummary struct {
	RunID  uuid.UUID
	Passes int
}

// Profile is the output of a completed run: the table's row count plus
// every Distribution, Unique, and FunctionalDependency the search surfaced.
type Profile struct {
	RowCount              int64
	Distributions         []Distribution
	Uniques               []Unique
	FunctionalDependencies []FunctionalDependency
	Trace                 *TraceSummary
}
