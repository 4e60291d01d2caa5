package domain

import "testing"

func TestHasNoFail(t *testing.T) {
	cases := []struct {
		name string
		mods []string
		want bool
	}{
		{"empty", nil, false},
		{"nf alone", []string{"NF"}, true},
		{"nf lowercase", []string{"nf"}, true},
		{"nf mixed with others", []string{"HD", "NF", "DT"}, true},
		{"no nf", []string{"HD", "DT"}, false},
	}

	for _, tc := range cases {
		if got := HasNoFail(tc.mods); got != tc.want {
			t.Errorf("%s: HasNoFail(%v) = %v, want %v", tc.name, tc.mods, got, tc.want)
		}
	}
}

func TestAltersDifficulty(t *testing.T) {
	cases := []struct {
		name string
		mods []string
		want bool
	}{
		{"empty set never alters", nil, false},
		{"classic alone never alters", []string{"CL"}, false},
		{"classic lowercase", []string{"cl"}, false},
		{"single speed mod alters", []string{"DT"}, true},
		{"classic plus anything alters", []string{"CL", "HR"}, true},
		{"nf alone alters (must recalculate)", []string{"NF"}, true},
	}

	for _, tc := range cases {
		if got := AltersDifficulty(tc.mods); got != tc.want {
			t.Errorf("%s: AltersDifficulty(%v) = %v, want %v", tc.name, tc.mods, got, tc.want)
		}
	}
}

func TestMonthKeyOf(t *testing.T) {
	ts := mustParse(t, "2025-09-30T23:30:00+02:00")
	// 23:30+02:00 is 21:30 UTC, still September.
	if got := MonthKeyOf(ts); got != "2025-09" {
		t.Errorf("MonthKeyOf = %q, want 2025-09", got)
	}

	ts = mustParse(t, "2025-10-01T01:30:00+02:00")
	// 01:30+02:00 is 23:30 UTC the previous day.
	if got := MonthKeyOf(ts); got != "2025-09" {
		t.Errorf("MonthKeyOf across DST boundary = %q, want 2025-09", got)
	}
}
