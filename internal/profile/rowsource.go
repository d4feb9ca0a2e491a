package profile

import "context"

// RowSource is a finite, restartable sequence of rows. Open is called once
// per pass; each call must replay the same rows in the same order so that
// rowCount and every derived statistic are stable across passes. The
// profiler never caches rows itself — a caller whose underlying source is
// single-shot (e.g. a network cursor) is responsible for buffering or
// re-executing the query.
type RowSource interface {
	Open(ctx context.Context) (RowIter, error)
}

// RowIter yields rows of the width given at RowSource construction.
type RowIter interface {
	// Next advances to the next row, returning false at end of stream or
	// on error (check Err to distinguish the two).
	Next() bool
	// Row returns the current row's values, one per column, in ordinal
	// order. Valid only after Next returns true.
	Row() []Value
	// Err returns the first error encountered during iteration, if any.
	Err() error
	// Close releases resources held by the iterator.
	Close() error
}
