package rowsource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/kasuganosora/colprofiler/internal/profile"
)

// CSV is a profile.RowSource backed by a delimited text file. Every Open
// reopens the file from disk, which is what makes it restartable across
// the profiler's passes; the file must not change between passes.
type CSV struct {
	Path      string
	Delimiter rune // defaults to ',' if zero
	HasHeader bool // if true, the first line is skipped
}

func (c *CSV) Open(_ context.Context) (profile.RowIter, error) {
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, fmt.Errorf("rowsource: open csv %q: %w", c.Path, err)
	}
	r := csv.NewReader(f)
	if c.Delimiter != 0 {
		r.Comma = c.Delimiter
	}
	r.FieldsPerRecord = -1
	if c.HasHeader {
		if _, err := r.Read(); err != nil {
			f.Close()
			return nil, fmt.Errorf("rowsource: read csv header %q: %w", c.Path, err)
		}
	}
	return &csvIter{f: f, r: r}, nil
}

type csvIter struct {
	f   *os.File
	r   *csv.Reader
	row []profile.Value
	err error
}

func (it *csvIter) Next() bool {
	record, err := it.r.Read()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			it.err = err
		}
		return false
	}
	row := make([]profile.Value, len(record))
	for i, field := range record {
		row[i] = parseCSVField(field)
	}
	it.row = row
	return true
}

func (it *csvIter) Row() []profile.Value { return it.row }
func (it *csvIter) Err() error           { return it.err }
func (it *csvIter) Close() error         { return it.f.Close() }

// parseCSVField infers a scalar type for a raw CSV cell. An empty field is
// treated as SQL NULL, matching the convention the engine's other file
// adapters use.
func parseCSVField(field string) profile.Value {
	if field == "" {
		return profile.Null
	}
	if n, err := strconv.ParseInt(field, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(field, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(field); err == nil {
		return b
	}
	return field
}
