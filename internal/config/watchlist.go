package config

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"CrossSentinel/internal/model"
)

// WatchRow is one configured alert line group: a symbol/timeframe pair with
// one or more indicator specs and the candle count to fetch. Loaded once at
// start, immutable for the run.
type WatchRow struct {
	Symbol    string
	Timeframe int // minutes
	Specs     []model.IndicatorSpec
	Count     int
}

// LoadWatchlist reads watch rows from a CSV file.
func LoadWatchlist(path string) ([]WatchRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open watchlist: %w", err)
	}
	defer f.Close()
	rows, err := ParseWatchlist(f)
	if err != nil {
		return nil, fmt.Errorf("parse watchlist %s: %w", path, err)
	}
	return rows, nil
}

// ParseWatchlist parses CSV rows of
//
//	symbol,timeframe,periods,count[,kind]
//
// where periods is an integer or a semicolon-delimited list of integers and
// kind is "sma" (default) or "ema". A header row is skipped when the second
// column is not numeric.
func ParseWatchlist(r io.Reader) ([]WatchRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	var rows []WatchRow
	for i, rec := range records {
		if len(rec) == 0 || (len(rec) == 1 && strings.TrimSpace(rec[0]) == "") {
			continue
		}
		if len(rec) < 4 {
			return nil, fmt.Errorf("row %d: expected at least 4 columns, got %d", i+1, len(rec))
		}
		if i == 0 {
			if _, err := strconv.Atoi(strings.TrimSpace(rec[1])); err != nil {
				continue // header row
			}
		}

		row, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("watchlist contains no rows")
	}
	return rows, nil
}

func parseRow(rec []string) (WatchRow, error) {
	symbol := strings.TrimSpace(rec[0])
	if symbol == "" {
		return WatchRow{}, fmt.Errorf("empty symbol")
	}

	timeframe, err := strconv.Atoi(strings.TrimSpace(rec[1]))
	if err != nil || timeframe <= 0 {
		return WatchRow{}, fmt.Errorf("invalid timeframe %q", rec[1])
	}

	kind := model.IndicatorSMA
	if len(rec) >= 5 {
		kind, err = model.ParseIndicatorKind(rec[4])
		if err != nil {
			return WatchRow{}, err
		}
	}

	specs, err := parsePeriods(rec[2], kind)
	if err != nil {
		return WatchRow{}, err
	}

	count, err := strconv.Atoi(strings.TrimSpace(rec[3]))
	if err != nil || count <= 0 {
		return WatchRow{}, fmt.Errorf("invalid count %q", rec[3])
	}

	return WatchRow{Symbol: symbol, Timeframe: timeframe, Specs: specs, Count: count}, nil
}

// parsePeriods accepts "20" or "20;50;200".
func parsePeriods(s string, kind model.IndicatorKind) ([]model.IndicatorSpec, error) {
	var specs []model.IndicatorSpec
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		period, err := strconv.Atoi(part)
		if err != nil || period <= 0 {
			return nil, fmt.Errorf("invalid period %q", part)
		}
		specs = append(specs, model.IndicatorSpec{Kind: kind, Period: period})
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("no periods in %q", s)
	}
	return specs, nil
}
