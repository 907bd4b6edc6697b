package server

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"signal-tracker/src/logger"
	"signal-tracker/src/models"
	"signal-tracker/src/store"
)

// -----------------------------------------------------------------------------

type stubProvider struct {
	mu        sync.Mutex
	histories map[string][]models.MQuote
}

func (p *stubProvider) FetchHistory(_ context.Context, symbol string) ([]models.MQuote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	h, ok := p.histories[symbol]
	if !ok {
		return nil, store.ErrInvalidTicker
	}
	return h, nil
}

func (p *stubProvider) FetchLatestQuote(_ context.Context, symbol string) (models.MQuote, error) {
	return models.MQuote{}, store.ErrProviderUnavailable
}

// -----------------------------------------------------------------------------

func newTestDispatcher(t *testing.T) (*Dispatcher, *stubProvider) {
	t.Helper()
	provider := &stubProvider{histories: map[string][]models.MQuote{
		"AAPL": {
			{Timestamp: 100, Price: 10},
			{Timestamp: 110, Price: 11},
			{Timestamp: 120, Price: 12},
			{Timestamp: 130, Price: 9},
			{Timestamp: 140, Price: 15},
		},
	}}
	log := logger.NewLogger("error", "dispatcher-test")
	ts := store.NewTickerStore(3, provider, log)
	if err := ts.AddTicker(context.Background(), "AAPL"); err != nil {
		t.Fatalf("add: %v", err)
	}
	return &Dispatcher{Store: ts, Logger: log}, provider
}

// -----------------------------------------------------------------------------

func TestDispatchPriceQuery(t *testing.T) {
	d, _ := newTestDispatcher(t)

	resp := d.Execute(context.Background(), "price,140")
	if !resp.OK {
		t.Fatalf("price query failed: %s", resp.Reason)
	}
	if got := string(resp.Encode()); got != "ok\nAAPL=15\n" {
		t.Errorf("price response = %q", got)
	}

	// Before any data: the No Data marker, not an error.
	resp = d.Execute(context.Background(), "price,50")
	if got := string(resp.Encode()); got != "ok\nAAPL=No Data\n" {
		t.Errorf("early price response = %q", got)
	}
}

// -----------------------------------------------------------------------------

func TestDispatchSignalQuery(t *testing.T) {
	d, _ := newTestDispatcher(t)

	// At ts 140 the worked series is long; at 130 it is short.
	for asOf, want := range map[int64]string{140: "long", 130: "short", 115: "none"} {
		resp := d.Execute(context.Background(), fmt.Sprintf("signal,%d", asOf))
		if !resp.OK || len(resp.Entries) != 1 {
			t.Fatalf("signal query %d failed: %+v", asOf, resp)
		}
		if resp.Entries[0].Value != want {
			t.Errorf("signal as of %d = %q, want %q", asOf, resp.Entries[0].Value, want)
		}
	}
}

// -----------------------------------------------------------------------------

func TestDispatchAddDeleteReset(t *testing.T) {
	d, provider := newTestDispatcher(t)
	provider.mu.Lock()
	provider.histories["MSFT"] = []models.MQuote{{Timestamp: 100, Price: 200}}
	provider.mu.Unlock()

	if resp := d.Execute(context.Background(), "add,msft"); !resp.OK {
		t.Fatalf("add failed: %s", resp.Reason)
	}
	if resp := d.Execute(context.Background(), "add,MSFT"); resp.OK {
		t.Fatal("duplicate add must fail")
	}
	if resp := d.Execute(context.Background(), "add,ZZZZ"); resp.OK {
		t.Fatal("invalid ticker add must fail")
	}
	if resp := d.Execute(context.Background(), "reset"); !resp.OK {
		t.Fatalf("reset failed: %s", resp.Reason)
	}
	if resp := d.Execute(context.Background(), "delete,MSFT"); !resp.OK {
		t.Fatalf("delete failed: %s", resp.Reason)
	}
	if resp := d.Execute(context.Background(), "delete,MSFT"); resp.OK {
		t.Fatal("second delete must fail")
	}
}

// -----------------------------------------------------------------------------

type recordingDB struct {
	mu      sync.Mutex
	saved   map[string]int
	deleted []string
}

func newRecordingDB() *recordingDB {
	return &recordingDB{saved: make(map[string]int)}
}

func (r *recordingDB) Initialize() error { return nil }

func (r *recordingDB) SavePricePoints(symbol string, points []models.MPricePoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved[symbol] += len(points)
	return nil
}

func (r *recordingDB) LoadHistory(symbol string) ([]models.MQuote, error) { return nil, nil }

func (r *recordingDB) DeleteSymbol(symbol string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, symbol)
	return nil
}

func (r *recordingDB) Close() error { return nil }

// -----------------------------------------------------------------------------

// The reload source must track the store: add persists the computed
// history, delete drops the symbol's rows, failed operations touch
// nothing.
func TestDispatchKeepsStorageInStep(t *testing.T) {
	d, provider := newTestDispatcher(t)
	db := newRecordingDB()
	d.DB = db

	provider.mu.Lock()
	provider.histories["MSFT"] = []models.MQuote{{Timestamp: 100, Price: 200}}
	provider.mu.Unlock()

	if resp := d.Execute(context.Background(), "add,msft"); !resp.OK {
		t.Fatalf("add failed: %s", resp.Reason)
	}
	if db.saved["MSFT"] != 1 {
		t.Errorf("add must persist the computed history, saved = %v", db.saved)
	}

	if resp := d.Execute(context.Background(), "delete,msft"); !resp.OK {
		t.Fatalf("delete failed: %s", resp.Reason)
	}
	if len(db.deleted) != 1 || db.deleted[0] != "MSFT" {
		t.Errorf("delete must drop the stored rows, deleted = %v", db.deleted)
	}

	if resp := d.Execute(context.Background(), "delete,msft"); resp.OK {
		t.Fatal("second delete must fail")
	}
	if len(db.deleted) != 1 {
		t.Errorf("failed delete must leave storage alone, deleted = %v", db.deleted)
	}
}

// -----------------------------------------------------------------------------

func TestDispatchMalformed(t *testing.T) {
	d, _ := newTestDispatcher(t)
	for _, line := range []string{"bogus,arg", "price,never", "", "add,"} {
		resp := d.Execute(context.Background(), line)
		if resp.OK {
			t.Errorf("line %q must yield an error response", line)
		}
		if !strings.HasPrefix(string(resp.Encode()), "error,") {
			t.Errorf("line %q: bad encoding %q", line, resp.Encode())
		}
	}
}

// -----------------------------------------------------------------------------

// End-to-end over a real TCP connection: one command, one response,
// connection closed by the server.
func TestCommandServerOneShot(t *testing.T) {
	d, _ := newTestDispatcher(t)
	cfg := &models.MConfig{Host: "127.0.0.1", Port: 0}
	cfg.Server.ReadTimeoutSeconds = 2
	cfg.Server.WriteTimeoutSeconds = 2

	srv := NewCommandServer(cfg, d, logger.NewLogger("error", "cmd-test"))
	if err := srv.Listen(); err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Serve(ctx)

	conn, err := net.DialTimeout("tcp", srv.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("price,140\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	var lines []string
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if len(lines) != 2 || lines[0] != "ok" || lines[1] != "AAPL=15" {
		t.Fatalf("response lines = %v", lines)
	}
}

// -----------------------------------------------------------------------------

func startCommandServer(t *testing.T, readTimeoutSeconds int) string {
	t.Helper()
	d, _ := newTestDispatcher(t)
	cfg := &models.MConfig{Host: "127.0.0.1", Port: 0}
	cfg.Server.ReadTimeoutSeconds = readTimeoutSeconds
	cfg.Server.WriteTimeoutSeconds = 2

	srv := NewCommandServer(cfg, d, logger.NewLogger("error", "cmd-test"))
	if err := srv.Listen(); err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go srv.Serve(ctx)
	return srv.Addr().String()
}

func readResponseLines(t *testing.T, conn net.Conn) []string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	var lines []string
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}

// -----------------------------------------------------------------------------

// A request terminated by a half-close instead of a newline is answered
// immediately.
func TestCommandServerHalfCloseFraming(t *testing.T) {
	addr := startCommandServer(t, 30)

	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("price,140")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.(*net.TCPConn).CloseWrite(); err != nil {
		t.Fatalf("close write: %v", err)
	}

	lines := readResponseLines(t, conn)
	if len(lines) != 2 || lines[0] != "ok" || lines[1] != "AAPL=15" {
		t.Fatalf("response lines = %v", lines)
	}
}

// -----------------------------------------------------------------------------

// A client that sends a command but never a terminator, holding the
// socket open, is answered after the settle window rather than after
// the full idle read timeout.
func TestCommandServerNoTerminator(t *testing.T) {
	addr := startCommandServer(t, 30)

	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("price,140")); err != nil {
		t.Fatalf("write: %v", err)
	}

	start := time.Now()
	lines := readResponseLines(t, conn)
	if len(lines) != 2 || lines[0] != "ok" || lines[1] != "AAPL=15" {
		t.Fatalf("response lines = %v", lines)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("response stalled for %v", elapsed)
	}
}
