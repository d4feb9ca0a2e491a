// Package sqlsource adapts database/sql and GORM connections into
// profile.RowSource implementations. Both variants are restart-by-requery:
// Open runs the configured query fresh every pass, which is correct for any
// query against a table that is not being concurrently written.
package sqlsource

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/kasuganosora/colprofiler/internal/profile"
)

// Source is a profile.RowSource backed by a database/sql connection pool.
// DB is expected to be opened with one of "mysql", "postgres", or "sqlite"
// — the three drivers blank-imported above.
type Source struct {
	DB     *sql.DB
	Query  string
	Args   []any
}

// Open reopens the query using DB's pool context-scoped to ctx.
func (s *Source) Open(ctx context.Context) (profile.RowIter, error) {
	rows, err := s.DB.QueryContext(ctx, s.Query, s.Args...)
	if err != nil {
		return nil, fmt.Errorf("rowsource: sql query: %w", err)
	}
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, fmt.Errorf("rowsource: sql columns: %w", err)
	}
	return &sqlIter{rows: rows, width: len(cols)}, nil
}

type sqlIter struct {
	rows  *sql.Rows
	width int
	dest  []any
	row   []profile.Value
	err   error
}

func (it *sqlIter) Next() bool {
	if !it.rows.Next() {
		it.err = it.rows.Err()
		return false
	}
	if it.dest == nil {
		it.dest = make([]any, it.width)
		for i := range it.dest {
			it.dest[i] = new(any)
		}
	}
	if err := it.rows.Scan(it.dest...); err != nil {
		it.err = fmt.Errorf("rowsource: sql scan: %w", err)
		return false
	}
	row := make([]profile.Value, it.width)
	for i, d := range it.dest {
		v := *(d.(*any))
		if v == nil {
			row[i] = profile.Null
			continue
		}
		row[i] = normalizeSQLValue(v)
	}
	it.row = row
	return true
}

func (it *sqlIter) Row() []profile.Value { return it.row }
func (it *sqlIter) Err() error           { return it.err }
func (it *sqlIter) Close() error         { return it.rows.Close() }

// normalizeSQLValue narrows driver-specific scan types ([]byte for TEXT
// columns on several drivers) to the plain scalar types profile.Compare
// understands.
func normalizeSQLValue(v any) profile.Value {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
