package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/alexanderjulianmartinez/qa-watch/internal/config"
	"github.com/alexanderjulianmartinez/qa-watch/internal/source"
)

// Fetcher reads the summary table from a MySQL replica. Same contract as the
// snowflake backend minus the warehouse session statements, which have no
// MySQL equivalent.
type Fetcher struct {
	db      *sql.DB
	table   string
	dateCol string
	timeout time.Duration
	logger  *zap.Logger
}

func New(src config.SourceConfig, chk config.CheckConfig, logger *zap.Logger) (*Fetcher, error) {
	db, err := sql.Open("mysql", src.DSN)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), src.Timeout())
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("mysql ping failed: %w", err)
	}

	return &Fetcher{
		db:      db,
		table:   chk.Table,
		dateCol: chk.DateColumn,
		timeout: src.Timeout(),
		logger:  logger,
	}, nil
}

func (f *Fetcher) Name() string {
	return "mysql"
}

func (f *Fetcher) Fetch(ctx context.Context) (*source.RowSet, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	query := fmt.Sprintf(
		"SELECT * FROM %s WHERE %s = (SELECT MAX(%s) FROM %s)",
		f.table, f.dateCol, f.dateCol, f.table,
	)

	start := time.Now()
	rows, err := f.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", f.table, err)
	}
	defer rows.Close()

	rs, err := source.ScanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", f.table, err)
	}

	f.logger.Debug("summary rows fetched",
		zap.Int("rows", len(rs.Rows)),
		zap.Int("columns", len(rs.Columns)),
		zap.Duration("elapsed", time.Since(start)))
	return rs, nil
}

func (f *Fetcher) Close() error {
	return f.db.Close()
}
