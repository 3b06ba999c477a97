package snowflake

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sf "github.com/snowflakedb/gosnowflake"
	"go.uber.org/zap"

	"github.com/alexanderjulianmartinez/qa-watch/internal/config"
	"github.com/alexanderjulianmartinez/qa-watch/internal/source"
)

type Fetcher struct {
	db      *sql.DB
	role    string
	wh      string
	table   string
	dateCol string
	timeout time.Duration
	logger  *zap.Logger
}

func New(src config.SourceConfig, chk config.CheckConfig, logger *zap.Logger) (*Fetcher, error) {
	dsn, err := sf.DSN(&sf.Config{
		Account:       src.Account,
		User:          src.User,
		Password:      src.Password,
		Database:      src.Database,
		Schema:        src.Schema,
		Authenticator: authType(src.Authenticator),
	})
	if err != nil {
		return nil, fmt.Errorf("build snowflake dsn: %w", err)
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), src.Timeout())
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("snowflake ping failed: %w", err)
	}

	return &Fetcher{
		db:      db,
		role:    src.Role,
		wh:      src.Warehouse,
		table:   chk.Table,
		dateCol: chk.DateColumn,
		timeout: src.Timeout(),
		logger:  logger,
	}, nil
}

func (f *Fetcher) Name() string {
	return "snowflake"
}

// Fetch selects every row of the summary table carrying its maximum date.
// The role and warehouse are selected as explicit session statements before
// the data query runs.
func (f *Fetcher) Fetch(ctx context.Context) (*source.RowSet, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	session := []string{
		fmt.Sprintf("USE ROLE %s", f.role),
		fmt.Sprintf("USE WAREHOUSE %s", f.wh),
	}
	for _, stmt := range session {
		f.logger.Debug("executing session statement", zap.String("stmt", stmt))
		if _, err := f.db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("%s: %w", stmt, err)
		}
	}

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

func authType(name string) sf.AuthType {
	switch name {
	case "externalbrowser":
		return sf.AuthTypeExternalBrowser
	default:
		return sf.AuthTypeSnowflake
	}
}
