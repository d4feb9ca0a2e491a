package sqlsource

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/kasuganosora/colprofiler/internal/profile"
)

// GormSource is a profile.RowSource that runs a raw query through a GORM
// session and streams its *sql.Rows result. It exists for callers who
// already hold a *gorm.DB (e.g. from the host application's ORM layer)
// and would rather not open a second raw database/sql connection.
type GormSource struct {
	DB    *gorm.DB
	Query string
	Args  []any
}

func (g *GormSource) Open(ctx context.Context) (profile.RowIter, error) {
	rows, err := g.DB.WithContext(ctx).Raw(g.Query, g.Args...).Rows()
	if err != nil {
		return nil, fmt.Errorf("rowsource: gorm query: %w", err)
	}
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, fmt.Errorf("rowsource: gorm columns: %w", err)
	}
	return &sqlIter{rows: rows, width: len(cols)}, nil
}
