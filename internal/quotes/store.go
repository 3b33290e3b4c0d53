package quotes

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/gagordon1/mm/internal/model"
)

// ErrNoQuotes is returned by Open when the requested pair/date range yields no
// quote events at all. Callers may treat it as "nothing to backtest" rather
// than a failure.
var ErrNoQuotes = errors.New("quotes: no quote events for requested pair and date range")

// OutOfOrderError reports a venue store whose timestamps regress. The core
// never reorders or drops such data; the whole run is aborted.
type OutOfOrderError struct {
	Venue  string
	File   string
	Row    int
	PrevNs int64
	TsNs   int64
}

func (e *OutOfOrderError) Error() string {
	return fmt.Sprintf("quotes: out-of-order timestamp for venue %s in %s row %d: %d after %d",
		e.Venue, e.File, e.Row, e.TsNs, e.PrevNs)
}

const dateLayout = "2006-01-02"

// Open loads the per-venue, per-day quote stores under dir for the given pair
// and inclusive date range and returns a merged Source. Store files are named
// <venue>_<YYYY-MM-DD>.csv; a venue may be missing files for some days. If
// start or end is empty, every store file for the venue is loaded.
func Open(dir, pair string, venues []string, start, end string) (*Source, error) {
	perVenue := make(map[string][]model.QuoteEvent, len(venues))
	total := 0
	for _, venue := range venues {
		paths, err := storePaths(dir, venue, start, end)
		if err != nil {
			return nil, err
		}
		var events []model.QuoteEvent
		for _, path := range paths {
			events, err = appendStore(events, path, venue, pair)
			if err != nil {
				return nil, err
			}
		}
		perVenue[venue] = events
		total += len(events)
	}
	if total == 0 {
		return nil, ErrNoQuotes
	}
	return NewSource(venues, perVenue)
}

// storePaths lists the store files for one venue in chronological order.
func storePaths(dir, venue, start, end string) ([]string, error) {
	if start == "" || end == "" {
		paths, err := filepath.Glob(filepath.Join(dir, venue+"_*.csv"))
		if err != nil {
			return nil, fmt.Errorf("quotes: list stores for %s: %w", venue, err)
		}
		sort.Strings(paths) // date suffix sorts chronologically
		return paths, nil
	}
	from, err := time.Parse(dateLayout, start)
	if err != nil {
		return nil, fmt.Errorf("quotes: bad start date %q: %w", start, err)
	}
	to, err := time.Parse(dateLayout, end)
	if err != nil {
		return nil, fmt.Errorf("quotes: bad end date %q: %w", end, err)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("quotes: end date %s before start date %s", end, start)
	}
	var paths []string
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.csv", venue, day.Format(dateLayout)))
		if _, err := os.Stat(path); err == nil {
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// appendStore reads one store file, filters to pair, validates that the
// venue's timestamps stay non-decreasing across the whole sequence built so
// far, and appends the rows to events.
func appendStore(events []model.QuoteEvent, path, venue, pair string) ([]model.QuoteEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("quotes: open store: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return events, nil
		}
		return nil, fmt.Errorf("quotes: read header of %s: %w", path, err)
	}
	col, err := columnIndex(header, path)
	if err != nil {
		return nil, err
	}

	prev := int64(0)
	if n := len(events); n > 0 {
		prev = events[n-1].TsNs
	}
	for row := 2; ; row++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("quotes: read %s row %d: %w", path, row, err)
		}
		if rec[col.pair] != pair {
			continue
		}
		ts, err := strconv.ParseInt(rec[col.ts], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("quotes: parse ts_ns in %s row %d: %w", path, row, err)
		}
		if ts < prev {
			return nil, &OutOfOrderError{Venue: venue, File: path, Row: row, PrevNs: prev, TsNs: ts}
		}
		prev = ts

		ev := model.QuoteEvent{Venue: venue, Pair: pair, TsNs: ts}
		if ev.Bid, err = parseOptional(rec[col.bid]); err != nil {
			return nil, fmt.Errorf("quotes: parse bid in %s row %d: %w", path, row, err)
		}
		if ev.BidSize, err = parseOptional(rec[col.bidSize]); err != nil {
			return nil, fmt.Errorf("quotes: parse bid_size in %s row %d: %w", path, row, err)
		}
		if ev.Ask, err = parseOptional(rec[col.ask]); err != nil {
			return nil, fmt.Errorf("quotes: parse ask in %s row %d: %w", path, row, err)
		}
		if ev.AskSize, err = parseOptional(rec[col.askSize]); err != nil {
			return nil, fmt.Errorf("quotes: parse ask_size in %s row %d: %w", path, row, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

type columns struct {
	ts, pair, bid, bidSize, ask, askSize int
}

func columnIndex(header []string, path string) (columns, error) {
	idx := map[string]int{}
	for i, name := range header {
		idx[name] = i
	}
	col := columns{}
	for _, want := range []struct {
		name string
		dst  *int
	}{
		{"ts_ns", &col.ts},
		{"pair", &col.pair},
		{"bid", &col.bid},
		{"bid_size", &col.bidSize},
		{"ask", &col.ask},
		{"ask_size", &col.askSize},
	} {
		i, ok := idx[want.name]
		if !ok {
			return col, fmt.Errorf("quotes: store %s missing column %q", path, want.name)
		}
		*want.dst = i
	}
	return col, nil
}

// parseOptional maps an empty field to nil (side unknown).
func parseOptional(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
