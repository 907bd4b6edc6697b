// Package server implements the one-shot TCP command protocol and the
// HTTP status surface.
//
// Wire protocol, version 1. A client opens a connection, sends exactly
// one command line and reads exactly one response; the server then
// closes the connection.
//
// Request:
//
//	<verb>,<argument>\n
//
// where verb is one of price, signal, add, delete, reset. The argument
// is a timestamp for price/signal (RFC 3339, "2006-01-02 15:04:05",
// "2006-01-02", or unix seconds), a ticker symbol for add/delete, and
// empty for reset (a bare "reset" is also accepted). The trailing
// newline is the request terminator; a half-close (EOF) also ends the
// request, and a client that sends neither is answered after a short
// settle window.
//
// Response: a status line, then zero or more entry lines, then EOF.
//
//	ok
//	AAPL=189.21
//	MSFT=No Data
//
// or
//
//	error,duplicate ticker: AAPL
//
// price/signal responses carry one entry per tracked ticker in lexical
// order; the value is the price (shortest float form) or the signal
// (long, short or none), with the literal "No Data" when no point exists
// at or before the requested time. add/delete/reset responses are the
// status line alone.
package server

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// NoDataMarker is the wire literal for a ticker with no point at or
// before the requested time.
const NoDataMarker = "No Data"

// ErrMalformedCommand covers unknown verbs and bad argument shapes.
var ErrMalformedCommand = errors.New("malformed command")

// -----------------------------------------------------------------------------
// Command
// -----------------------------------------------------------------------------

type Verb string

const (
	VerbPrice  Verb = "price"
	VerbSignal Verb = "signal"
	VerbAdd    Verb = "add"
	VerbDelete Verb = "delete"
	VerbReset  Verb = "reset"
)

// Command is one parsed request. Constructed per connection, consumed
// once.
type Command struct {
	Verb   Verb
	Time   time.Time // price, signal
	Symbol string    // add, delete
}

// -----------------------------------------------------------------------------

// Naive query timestamps are interpreted as US market wall-clock, the
// same convention the historical feed uses.
var queryLocation = func() *time.Location {
	if loc, err := time.LoadLocation("America/New_York"); err == nil {
		return loc
	}
	return time.UTC
}()

// -----------------------------------------------------------------------------

// ParseCommand parses one request line.
func ParseCommand(line string) (Command, error) {
	line = strings.TrimRight(line, "\r\n")
	verb, arg, hasArg := strings.Cut(line, ",")
	verb = strings.TrimSpace(strings.ToLower(verb))
	arg = strings.TrimSpace(arg)

	switch Verb(verb) {
	case VerbPrice, VerbSignal:
		if arg == "" {
			return Command{}, fmt.Errorf("%w: %s requires a timestamp", ErrMalformedCommand, verb)
		}
		t, err := parseTime(arg)
		if err != nil {
			return Command{}, fmt.Errorf("%w: bad timestamp %q", ErrMalformedCommand, arg)
		}
		return Command{Verb: Verb(verb), Time: t}, nil

	case VerbAdd, VerbDelete:
		if arg == "" {
			return Command{}, fmt.Errorf("%w: %s requires a ticker", ErrMalformedCommand, verb)
		}
		return Command{Verb: Verb(verb), Symbol: arg}, nil

	case VerbReset:
		if hasArg && arg != "" {
			return Command{}, fmt.Errorf("%w: reset takes no argument", ErrMalformedCommand)
		}
		return Command{Verb: VerbReset}, nil

	default:
		return Command{}, fmt.Errorf("%w: unknown verb %q", ErrMalformedCommand, verb)
	}
}

// -----------------------------------------------------------------------------

func parseTime(arg string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, arg); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, arg, queryLocation); err == nil {
			return t, nil
		}
	}
	if unix, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return time.Unix(unix, 0), nil
	}
	return time.Time{}, fmt.Errorf("unparseable time %q", arg)
}

// -----------------------------------------------------------------------------
// Response
// -----------------------------------------------------------------------------

// Entry is one ticker=value pair in a query response.
type Entry struct {
	Ticker string
	Value  string
}

// Response is the single reply sent for a command.
type Response struct {
	OK      bool
	Reason  string
	Entries []Entry
}

// -----------------------------------------------------------------------------

func okResponse() Response {
	return Response{OK: true}
}

func errorResponse(err error) Response {
	return Response{OK: false, Reason: err.Error()}
}

// -----------------------------------------------------------------------------

// Encode renders the response in the documented wire form. Entries are
// emitted in lexical ticker order.
func (r Response) Encode() []byte {
	var b strings.Builder
	if r.OK {
		b.WriteString("ok\n")
	} else {
		reason := strings.ReplaceAll(r.Reason, "\n", " ")
		b.WriteString("error,")
		b.WriteString(reason)
		b.WriteByte('\n')
	}

	entries := append([]Entry(nil), r.Entries...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Ticker < entries[j].Ticker })
	for _, e := range entries {
		b.WriteString(e.Ticker)
		b.WriteByte('=')
		b.WriteString(e.Value)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// -----------------------------------------------------------------------------

// FormatPrice renders a price value for the wire.
func FormatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
