package server

import (
	"context"

	"signal-tracker/src/interfaces"
	"signal-tracker/src/logger"
	"signal-tracker/src/metrics"
	"signal-tracker/src/store"
)

// -----------------------------------------------------------------------------
// Dispatcher
// -----------------------------------------------------------------------------

// Dispatcher validates one command and routes it to the store. It
// borrows the store for the duration of the command and returns no
// references that outlive it; every outcome, including malformed input,
// becomes a structured response rather than a dropped connection.
type Dispatcher struct {
	Store   *store.TickerStore
	Logger  *logger.Logger
	DB      interfaces.IDatabase // optional; keeps the reload source in step
	Metrics *metrics.Recorder    // optional
}

// -----------------------------------------------------------------------------

// Execute parses and runs one command line.
func (d *Dispatcher) Execute(ctx context.Context, line string) Response {
	cmd, err := ParseCommand(line)
	if err != nil {
		d.Logger.Debug("rejecting command %q: %v", line, err)
		d.record("malformed", "error")
		return errorResponse(err)
	}

	resp := d.dispatch(ctx, cmd)
	if resp.OK {
		d.record(string(cmd.Verb), "ok")
	} else {
		d.record(string(cmd.Verb), "error")
	}
	return resp
}

// -----------------------------------------------------------------------------

func (d *Dispatcher) dispatch(ctx context.Context, cmd Command) Response {
	switch cmd.Verb {
	case VerbPrice, VerbSignal:
		return d.query(cmd)
	case VerbAdd:
		if err := d.Store.AddTicker(ctx, cmd.Symbol); err != nil {
			return errorResponse(err)
		}
		d.persistHistory(cmd.Symbol)
		return okResponse()
	case VerbDelete:
		if err := d.Store.DeleteTicker(cmd.Symbol); err != nil {
			return errorResponse(err)
		}
		d.dropStored(cmd.Symbol)
		return okResponse()
	case VerbReset:
		if err := d.Store.Reset(ctx); err != nil {
			return errorResponse(err)
		}
		return okResponse()
	default:
		return errorResponse(ErrMalformedCommand)
	}
}

// -----------------------------------------------------------------------------

// query answers price/signal for every tracked ticker. Each ticker's
// value is read under its own series lock; tickers update independently,
// so the response is per-entry consistent rather than one cross-ticker
// snapshot.
func (d *Dispatcher) query(cmd Command) Response {
	asOf := cmd.Time.Unix()
	resp := okResponse()

	for _, symbol := range d.Store.Symbols() {
		pt, hasData, err := d.Store.LatestAsOf(symbol, asOf)
		if err != nil || !hasData {
			// Deleted mid-query or nothing at/before the cutoff.
			resp.Entries = append(resp.Entries, Entry{Ticker: symbol, Value: NoDataMarker})
			continue
		}
		value := FormatPrice(pt.Price)
		if cmd.Verb == VerbSignal {
			value = pt.Signal.String()
		}
		resp.Entries = append(resp.Entries, Entry{Ticker: symbol, Value: value})
	}
	return resp
}

// -----------------------------------------------------------------------------

// persistHistory writes a freshly added ticker's computed series to the
// reload source. Storage failures degrade the reload path, not the add.
func (d *Dispatcher) persistHistory(symbol string) {
	if d.DB == nil {
		return
	}
	symbol = store.Normalize(symbol)
	series, ok := d.Store.Series(symbol)
	if !ok {
		return
	}
	if err := d.DB.SavePricePoints(symbol, series.Snapshot()); err != nil {
		d.Logger.Warning("failed to persist history for %s: %v", symbol, err)
	}
}

// -----------------------------------------------------------------------------

// dropStored removes a deleted ticker's rows from the reload source so a
// restart does not resurrect it.
func (d *Dispatcher) dropStored(symbol string) {
	if d.DB == nil {
		return
	}
	symbol = store.Normalize(symbol)
	if err := d.DB.DeleteSymbol(symbol); err != nil {
		d.Logger.Warning("failed to drop stored points for %s: %v", symbol, err)
	}
}

// -----------------------------------------------------------------------------

func (d *Dispatcher) record(verb, status string) {
	if d.Metrics != nil {
		d.Metrics.RecordCommand(verb, status)
	}
}
