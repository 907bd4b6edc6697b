package utils

import (
	"testing"
	"time"

	"signal-tracker/src/logger"
)

// -----------------------------------------------------------------------------

func TestMarketSchedulerFollowsSymbols(t *testing.T) {
	log := logger.NewLogger("error", "utils-test")
	ms := NewMarketScheduler([]string{"AAPL", "7203.T"}, log)
	if len(ms.Calendars) != 2 {
		t.Fatalf("expected 2 calendars, got %d", len(ms.Calendars))
	}

	ms.UpdateSymbols([]string{"MSFT"})
	if len(ms.Calendars) != 1 {
		t.Fatalf("mapping must be rebuilt, got %d calendars", len(ms.Calendars))
	}
	if _, ok := ms.Calendars["MSFT"]; !ok {
		t.Error("rebuilt mapping is missing MSFT")
	}
	if _, ok := ms.Calendars["AAPL"]; ok {
		t.Error("rebuilt mapping still holds a dropped symbol")
	}

	ms.UpdateSymbols(nil)
	if ms.AnyMarketOpen() {
		t.Error("no tracked symbols must mean no open market")
	}
}

// -----------------------------------------------------------------------------

func TestFallbackCalendarHours(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatal(err)
	}
	tc := &TradingCalendar{Fallback: true, Timezone: ny}

	cases := []struct {
		name string
		at   time.Time
		open bool
	}{
		{"midweek mid-session", time.Date(2021, 1, 6, 10, 0, 0, 0, ny), true},
		{"just before the bell", time.Date(2021, 1, 6, 9, 29, 0, 0, ny), false},
		{"at the open", time.Date(2021, 1, 6, 9, 30, 0, 0, ny), true},
		{"just before the close", time.Date(2021, 1, 6, 15, 59, 0, 0, ny), true},
		{"at the close", time.Date(2021, 1, 6, 16, 0, 0, 0, ny), false},
		{"saturday", time.Date(2021, 1, 9, 12, 0, 0, 0, ny), false},
	}
	for _, c := range cases {
		if got := tc.IsOpenAt(c.at); got != c.open {
			t.Errorf("%s: IsOpenAt(%v) = %v, want %v", c.name, c.at, got, c.open)
		}
	}
}
