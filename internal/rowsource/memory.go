// Package rowsource provides profile.RowSource implementations over
// in-memory data and common file formats. Every adapter here yields rows
// as []profile.Value in column order, with profile.Null marking SQL NULL.
package rowsource

import (
	"context"

	"github.com/kasuganosora/colprofiler/internal/profile"
)

// Memory is a profile.RowSource over a fixed, already-materialized set of
// rows. Useful for tests and for callers who have already loaded a table
// into memory (e.g. the result of a prior query).
type Memory struct {
	rows [][]profile.Value
}

// NewMemory wraps rows, which must all have the same width. rows is not
// copied; callers must not mutate it while a run is in progress.
func NewMemory(rows [][]profile.Value) *Memory {
	return &Memory{rows: rows}
}

func (m *Memory) Open(_ context.Context) (profile.RowIter, error) {
	return &memoryIter{rows: m.rows}, nil
}

type memoryIter struct {
	rows [][]profile.Value
	pos  int
}

func (it *memoryIter) Next() bool {
	if it.pos >= len(it.rows) {
		return false
	}
	it.pos++
	return true
}

func (it *memoryIter) Row() []profile.Value { return it.rows[it.pos-1] }
func (it *memoryIter) Err() error           { return nil }
func (it *memoryIter) Close() error         { return nil }
