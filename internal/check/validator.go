package check

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderjulianmartinez/qa-watch/internal/config"
	"github.com/alexanderjulianmartinez/qa-watch/internal/source"
	"github.com/alexanderjulianmartinez/qa-watch/pkg/types"
)

const dateLayout = "2006-01-02"

// Run evaluates all three checks against the fetched row-set. Checks are
// independent: a failure never short-circuits the rest, so a single report
// carries every issue found. now must already be in the configured timezone.
func Run(rs *source.RowSet, cfg config.CheckConfig, now time.Time) *types.Report {
	report := &types.Report{}
	checkRecency(report, rs, cfg, now)
	checkColumnCount(report, rs, cfg)
	checkRatioBound(report, rs, cfg)
	report.Failed = len(report.Issues) > 0
	return report
}

func add(report *types.Report, check, message string) {
	report.Issues = append(report.Issues, types.Issue{Check: check, Message: message})
}

// checkRecency verifies the row-set's date column holds exactly yesterday.
// The fetch query pins the set to one date, but that invariant is verified
// here rather than assumed: mixed dates are reported loudly.
func checkRecency(report *types.Report, rs *source.RowSet, cfg config.CheckConfig, now time.Time) {
	yesterday := now.AddDate(0, 0, -1).Format(dateLayout)

	idx := rs.ColumnIndex(cfg.DateColumn)
	if idx < 0 {
		add(report, "date", fmt.Sprintf("Date check failed: column %s not present in result set", cfg.DateColumn))
		return
	}

	seen := map[string]bool{}
	var distinct []string
	for _, row := range rs.Rows {
		s, err := dateString(row[idx])
		if err != nil {
			add(report, "date", fmt.Sprintf("Date check failed: unreadable %s value: %v", cfg.DateColumn, err))
			return
		}
		if !seen[s] {
			seen[s] = true
			distinct = append(distinct, s)
		}
	}
	if len(distinct) == 0 {
		add(report, "date", "Date check failed: no rows to sample")
		return
	}
	if len(distinct) > 1 {
		add(report, "date", fmt.Sprintf("Date check failed: expected a single date, got %d distinct values (%s)",
			len(distinct), strings.Join(distinct, ", ")))
	}

	if got := distinct[0]; got != yesterday {
		add(report, "date", fmt.Sprintf("Date check failed: Expected %s, got %s", yesterday, got))
	}
}

func checkColumnCount(report *types.Report, rs *source.RowSet, cfg config.CheckConfig) {
	if got := len(rs.Columns); got != cfg.ExpectedColumns {
		add(report, "columns", fmt.Sprintf("Column count check failed: Expected %d, got %d", cfg.ExpectedColumns, got))
	}
}

func checkRatioBound(report *types.Report, rs *source.RowSet, cfg config.CheckConfig) {
	idx := rs.ColumnIndex(cfg.RatioColumn)
	if idx < 0 {
		add(report, "ratio", fmt.Sprintf("Row/Event ratio check failed: column %s not present in result set", cfg.RatioColumn))
		return
	}

	var min, max float64
	for i, row := range rs.Rows {
		v, err := ratioValue(row[idx])
		if err != nil {
			add(report, "ratio", fmt.Sprintf("Row/Event ratio check failed: unreadable %s value: %v", cfg.RatioColumn, err))
			return
		}
		if i == 0 || v < min {
			min = v
		}
		if i == 0 || v > max {
			max = v
		}
	}
	if len(rs.Rows) == 0 {
		add(report, "ratio", "Row/Event ratio check failed: no rows to sample")
		return
	}

	if max > 1+cfg.RatioTolerance || min < 1-cfg.RatioTolerance {
		add(report, "ratio", fmt.Sprintf("Row/Event ratio check failed: Values outside acceptable range (min=%v, max=%v)", min, max))
	}
}

// dateString normalizes a driver value to YYYY-MM-DD. Snowflake hands dates
// back as time.Time, MySQL as []byte; text timestamps are trimmed to their
// date prefix.
func dateString(v any) (string, error) {
	switch t := v.(type) {
	case time.Time:
		return t.Format(dateLayout), nil
	case string:
		return parseDateText(t)
	case []byte:
		return parseDateText(string(t))
	case nil:
		return "", fmt.Errorf("null date value")
	default:
		return "", fmt.Errorf("unsupported date type %T", v)
	}
}

func parseDateText(s string) (string, error) {
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	if _, err := time.Parse(dateLayout, s); err != nil {
		return "", err
	}
	return s, nil
}

// ratioValue coerces a driver value to float64. Snowflake returns fixed-point
// numbers as text, MySQL as []byte.
func ratioValue(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case string:
		return strconv.ParseFloat(t, 64)
	case []byte:
		return strconv.ParseFloat(string(t), 64)
	case nil:
		return 0, fmt.Errorf("null ratio value")
	default:
		return 0, fmt.Errorf("unsupported ratio type %T", v)
	}
}
