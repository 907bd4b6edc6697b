package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"signal-tracker/src/logger"
	"signal-tracker/src/models"
)

// -----------------------------------------------------------------------------
// Fake provider
// -----------------------------------------------------------------------------

type fakeProvider struct {
	mu        sync.Mutex
	histories map[string][]models.MQuote
	failWith  map[string]error
	calls     int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		histories: make(map[string][]models.MQuote),
		failWith:  make(map[string]error),
	}
}

func (f *fakeProvider) FetchHistory(_ context.Context, symbol string) ([]models.MQuote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err, ok := f.failWith[symbol]; ok {
		return nil, err
	}
	history, ok := f.histories[symbol]
	if !ok {
		return nil, ErrInvalidTicker
	}
	return history, nil
}

func (f *fakeProvider) FetchLatestQuote(_ context.Context, symbol string) (models.MQuote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failWith[symbol]; ok {
		return models.MQuote{}, err
	}
	history := f.histories[symbol]
	if len(history) == 0 {
		return models.MQuote{}, ErrProviderUnavailable
	}
	return history[len(history)-1], nil
}

// -----------------------------------------------------------------------------

func history(prices ...float64) []models.MQuote {
	quotes := make([]models.MQuote, len(prices))
	for i, p := range prices {
		quotes[i] = models.MQuote{Timestamp: int64(100 + 10*i), Price: p}
	}
	return quotes
}

func newTestStore(t *testing.T) (*TickerStore, *fakeProvider) {
	t.Helper()
	provider := newFakeProvider()
	log := logger.NewLogger("error", "store-test")
	return NewTickerStore(3, provider, log), provider
}

// -----------------------------------------------------------------------------

func TestAddTicker(t *testing.T) {
	ts, provider := newTestStore(t)
	provider.histories["AAPL"] = history(10, 11, 12, 9, 15)

	if err := ts.AddTicker(context.Background(), "aapl"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := ts.Symbols(); len(got) != 1 || got[0] != "AAPL" {
		t.Fatalf("symbols = %v, want [AAPL]", got)
	}

	// Duplicate add fails and leaves the store alone.
	if err := ts.AddTicker(context.Background(), "AAPL"); !errors.Is(err, ErrDuplicateTicker) {
		t.Fatalf("duplicate add: got %v, want ErrDuplicateTicker", err)
	}

	// Unknown symbol rejected by the provider; nothing installed.
	if err := ts.AddTicker(context.Background(), "NOPE"); !errors.Is(err, ErrInvalidTicker) {
		t.Fatalf("invalid add: got %v, want ErrInvalidTicker", err)
	}
	if got := ts.Symbols(); len(got) != 1 {
		t.Fatalf("failed add must not change the store, symbols = %v", got)
	}
}

// -----------------------------------------------------------------------------

func TestDeleteTicker(t *testing.T) {
	ts, provider := newTestStore(t)
	provider.histories["MSFT"] = history(100, 101)

	if err := ts.AddTicker(context.Background(), "MSFT"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := ts.DeleteTicker("msft"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := ts.DeleteTicker("MSFT"); !errors.Is(err, ErrTickerNotFound) {
		t.Fatalf("second delete: got %v, want ErrTickerNotFound", err)
	}
}

// -----------------------------------------------------------------------------

func TestAppendQuoteRejectsStale(t *testing.T) {
	ts, provider := newTestStore(t)
	provider.histories["AAPL"] = history(10, 11, 12)
	if err := ts.AddTicker(context.Background(), "AAPL"); err != nil {
		t.Fatalf("add: %v", err)
	}

	if _, err := ts.AppendQuote("AAPL", 500, 13); err != nil {
		t.Fatalf("append: %v", err)
	}
	// Same timestamp again: stale.
	if _, err := ts.AppendQuote("AAPL", 500, 14); !errors.Is(err, ErrStaleQuote) {
		t.Fatalf("same-timestamp append: got %v, want ErrStaleQuote", err)
	}
	// Older timestamp: stale.
	if _, err := ts.AppendQuote("AAPL", 120, 14); !errors.Is(err, ErrStaleQuote) {
		t.Fatalf("older append: got %v, want ErrStaleQuote", err)
	}
	if _, err := ts.AppendQuote("TSLA", 600, 1); !errors.Is(err, ErrTickerNotFound) {
		t.Fatalf("untracked append: got %v, want ErrTickerNotFound", err)
	}
}

// -----------------------------------------------------------------------------

func TestLatestAsOf(t *testing.T) {
	ts, provider := newTestStore(t)
	provider.histories["AAPL"] = history(10, 11, 12) // timestamps 100, 110, 120
	if err := ts.AddTicker(context.Background(), "AAPL"); err != nil {
		t.Fatalf("add: %v", err)
	}

	cases := []struct {
		asOf      int64
		wantPrice float64
		wantData  bool
	}{
		{99, 0, false},   // before any data
		{100, 10, true},  // exact match
		{115, 11, true},  // between points: newest not after t
		{1000, 12, true}, // after everything
	}
	for _, c := range cases {
		pt, hasData, err := ts.LatestAsOf("AAPL", c.asOf)
		if err != nil {
			t.Fatalf("asOf %d: %v", c.asOf, err)
		}
		if hasData != c.wantData {
			t.Errorf("asOf %d: hasData = %v, want %v", c.asOf, hasData, c.wantData)
			continue
		}
		if hasData && pt.Price != c.wantPrice {
			t.Errorf("asOf %d: price = %v, want %v", c.asOf, pt.Price, c.wantPrice)
		}
	}

	if _, _, err := ts.LatestAsOf("TSLA", 100); !errors.Is(err, ErrTickerNotFound) {
		t.Fatalf("untracked query: got %v, want ErrTickerNotFound", err)
	}
}

// -----------------------------------------------------------------------------

func TestResetAllOrNothing(t *testing.T) {
	ts, provider := newTestStore(t)
	provider.histories["AAPL"] = history(10, 11, 12)
	provider.histories["MSFT"] = history(100, 101, 102)
	for _, sym := range []string{"AAPL", "MSFT"} {
		if err := ts.AddTicker(context.Background(), sym); err != nil {
			t.Fatalf("add %s: %v", sym, err)
		}
	}
	before := map[string][]models.MPricePoint{}
	for _, sym := range ts.Symbols() {
		s, _ := ts.Series(sym)
		before[sym] = s.Snapshot()
	}

	// One refetch fails: the old store must survive by value.
	provider.failWith["MSFT"] = ErrProviderUnavailable
	if err := ts.Reset(context.Background()); !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("reset: got %v, want ErrProviderUnavailable", err)
	}
	for sym, pts := range before {
		s, ok := ts.Series(sym)
		if !ok {
			t.Fatalf("failed reset dropped %s", sym)
		}
		after := s.Snapshot()
		if len(after) != len(pts) {
			t.Fatalf("failed reset changed %s: %d points, want %d", sym, len(after), len(pts))
		}
		for i := range pts {
			if after[i] != pts[i] {
				t.Fatalf("failed reset changed %s at %d", sym, i)
			}
		}
	}

	// All refetches succeed: fresh data swapped in wholesale.
	delete(provider.failWith, "MSFT")
	provider.histories["MSFT"] = history(200, 201, 202, 203)
	if err := ts.Reset(context.Background()); err != nil {
		t.Fatalf("reset: %v", err)
	}
	s, _ := ts.Series("MSFT")
	if s.Len() != 4 {
		t.Fatalf("reset did not install fresh history, len = %d", s.Len())
	}
}

// -----------------------------------------------------------------------------

// Concurrent queries during adds, deletes and appends must only ever see
// a ticker absent or with a fully computed series. Run with -race.
func TestConcurrentStructuralChanges(t *testing.T) {
	ts, provider := newTestStore(t)
	provider.histories["AAPL"] = history(10, 11, 12, 13, 14)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			if i%2 == 0 {
				_ = ts.AddTicker(context.Background(), "AAPL")
			} else {
				_ = ts.DeleteTicker("AAPL")
			}
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		ts2 := int64(1000)
		for {
			select {
			case <-stop:
				return
			default:
			}
			if _, err := ts.AppendQuote("AAPL", ts2, 15); err == nil {
				ts2++
			}
		}
	}()

	for i := 0; i < 5000; i++ {
		pt, hasData, err := ts.LatestAsOf("AAPL", 1<<62)
		if err != nil {
			if !IsNotFound(err) {
				t.Fatalf("unexpected error: %v", err)
			}
			continue
		}
		if !hasData {
			t.Fatal("tracked AAPL must always have its full series")
		}
		if pt.Timestamp < 140 {
			t.Fatalf("observed torn series: latest point %+v", pt)
		}
	}
	close(stop)
	wg.Wait()
}

// -----------------------------------------------------------------------------

func TestInstallHistory(t *testing.T) {
	ts, _ := newTestStore(t)
	if err := ts.InstallHistory("ibm", history(1, 2, 3)); err != nil {
		t.Fatalf("install: %v", err)
	}
	if err := ts.InstallHistory("IBM", history(4)); !errors.Is(err, ErrDuplicateTicker) {
		t.Fatalf("second install: got %v, want ErrDuplicateTicker", err)
	}
	s, ok := ts.Series("IBM")
	if !ok || s.Len() != 3 {
		t.Fatal("installed series missing or wrong length")
	}
}

// -----------------------------------------------------------------------------

func TestNormalize(t *testing.T) {
	for in, want := range map[string]string{" aapl ": "AAPL", "Msft": "MSFT", "IBM": "IBM"} {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}
