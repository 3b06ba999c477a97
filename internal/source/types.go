package source

import (
	"context"
	"database/sql"
	"strings"
)

// RowSet is the in-memory form of one fetched result set. Column names and
// order come straight from the driver; values stay driver-native until a
// check coerces them.
type RowSet struct {
	Columns []string
	Rows    [][]any
}

// ColumnIndex returns the position of the named column, or -1 if absent.
// Matching is case-insensitive because Snowflake reports upper-cased names.
func (r *RowSet) ColumnIndex(name string) int {
	for i, col := range r.Columns {
		if strings.EqualFold(col, name) {
			return i
		}
	}
	return -1
}

type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) (*RowSet, error)
	Close() error
}

// ScanRows drains a sql.Rows into a RowSet. Shared by the driver backends.
func ScanRows(rows *sql.Rows) (*RowSet, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	rs := &RowSet{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		rs.Rows = append(rs.Rows, values)
	}
	return rs, rows.Err()
}
