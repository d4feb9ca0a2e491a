package rowsource

import (
	"errors"
	"fmt"
	"io"
	"os"

	"context"

	pq "github.com/parquet-go/parquet-go"

	"github.com/kasuganosora/colprofiler/internal/profile"
)

// Parquet is a profile.RowSource over one native .parquet file. Column
// order follows the file's schema; callers must build their []profile.Column
// schema to match that order.
type Parquet struct {
	Path string
}

func (p *Parquet) Open(_ context.Context) (profile.RowIter, error) {
	f, err := os.Open(p.Path)
	if err != nil {
		return nil, fmt.Errorf("rowsource: open parquet %q: %w", p.Path, err)
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("rowsource: stat parquet %q: %w", p.Path, err)
	}
	pf, err := pq.OpenFile(f, stat.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("rowsource: open parquet schema %q: %w", p.Path, err)
	}
	width := len(pf.Schema().Fields())
	reader := pq.NewReader(f, pf.Schema())
	return &parquetIter{f: f, reader: reader, width: width}, nil
}

type parquetIter struct {
	f      *os.File
	reader *pq.Reader
	width  int
	buf    [128]pq.Row
	buffered int
	idx    int
	row    []profile.Value
	err    error
	done   bool
}

func (it *parquetIter) Next() bool {
	for {
		if it.idx < it.buffered {
			it.row = parquetRowToValues(it.buf[it.idx][:it.width])
			it.idx++
			return true
		}
		if it.done {
			return false
		}
		n, err := it.reader.ReadRows(it.buf[:])
		it.buffered = n
		it.idx = 0
		if err != nil {
			it.done = true
			if !errors.Is(err, io.EOF) {
				it.err = err
			}
		}
		if n == 0 {
			return false
		}
	}
}

func (it *parquetIter) Row() []profile.Value { return it.row }
func (it *parquetIter) Err() error           { return it.err }
func (it *parquetIter) Close() error         { it.reader.Close(); return it.f.Close() }

func parquetRowToValues(row pq.Row) []profile.Value {
	out := make([]profile.Value, len(row))
	for i, v := range row {
		if v.IsNull() {
			out[i] = profile.Null
			continue
		}
		switch v.Kind() {
		case pq.Boolean:
			out[i] = v.Boolean()
		case pq.Int32:
			out[i] = int64(v.Int32())
		case pq.Int64:
			out[i] = v.Int64()
		case pq.Float:
			out[i] = float64(v.Float())
		case pq.Double:
			out[i] = v.Double()
		case pq.ByteArray, pq.FixedLenByteArray:
			out[i] = string(v.ByteArray())
		default:
			out[i] = v.String()
		}
	}
	return out
}
