package domain

import (
	"testing"
	"time"
)

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return ts
}

func TestPlayMonthKey_UsesPlayMonthNotIngestionMonth(t *testing.T) {
	p := &Play{Timestamp: mustParse(t, "2025-08-31T23:59:59Z")}
	if got := p.MonthKey(); got != "2025-08" {
		t.Errorf("MonthKey = %q, want 2025-08", got)
	}
}
