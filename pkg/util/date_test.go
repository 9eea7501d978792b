package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestInBusinessHours(t *testing.T) {
	cases := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"monday morning", time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), true},
		{"monday before open", time.Date(2026, 3, 2, 8, 59, 0, 0, time.UTC), false},
		{"monday at close", time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC), false},
		{"saturday", time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC), false},
		{"sunday", time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC), false},
	}
	for _, tc := range cases {
		if got := InBusinessHours(tc.t); got != tc.want {
			t.Fatalf("%s: expected %v", tc.name, tc.want)
		}
	}
}

func TestNextBusinessWindow(t *testing.T) {
	inWindow := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	if got := NextBusinessWindow(inWindow); !got.Equal(inWindow) {
		t.Fatalf("in-window time must pass through, got %v", got)
	}

	fridayEvening := time.Date(2026, 3, 6, 18, 0, 0, 0, time.UTC)
	want := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	if got := NextBusinessWindow(fridayEvening); !got.Equal(want) {
		t.Fatalf("expected monday open %v, got %v", want, got)
	}

	earlyMorning := time.Date(2026, 3, 3, 6, 0, 0, 0, time.UTC)
	want = time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)
	if got := NextBusinessWindow(earlyMorning); !got.Equal(want) {
		t.Fatalf("expected same-day open %v, got %v", want, got)
	}
}
