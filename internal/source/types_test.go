package source

import "testing"

func TestColumnIndex(t *testing.T) {
	rs := &RowSet{Columns: []string{"DATE", "REGION", "ROW_EVENT_RATIO"}}

	if idx := rs.ColumnIndex("ROW_EVENT_RATIO"); idx != 2 {
		t.Fatalf("expected index 2, got %d", idx)
	}
	// Snowflake upper-cases names; lookups must not care.
	if idx := rs.ColumnIndex("row_event_ratio"); idx != 2 {
		t.Fatalf("expected case-insensitive match, got %d", idx)
	}
	if idx := rs.ColumnIndex("MISSING"); idx != -1 {
		t.Fatalf("expected -1 for missing column, got %d", idx)
	}
}
