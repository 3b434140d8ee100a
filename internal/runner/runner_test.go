package runner

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"CrossSentinel/internal/config"
	"CrossSentinel/internal/model"
	"CrossSentinel/internal/recorder"
)

type fakeSink struct {
	batches [][]string
	err     error
}

func (f *fakeSink) SendBulk(_ context.Context, msgs []string) error {
	f.batches = append(f.batches, append([]string(nil), msgs...))
	return f.err
}

type fakeFetcher struct {
	bars    map[string][]model.OHLCV
	errs    map[string]error
	panicOn string
}

func (f *fakeFetcher) Name() string { return "fake" }

func (f *fakeFetcher) FetchBars(symbol string, _, _ int) ([]model.OHLCV, error) {
	if symbol == f.panicOn {
		panic("boom")
	}
	if err := f.errs[symbol]; err != nil {
		return nil, err
	}
	return f.bars[symbol], nil
}

type countingRecorder struct {
	crossovers int
	runs       []*recorder.RunSummary
}

func (c *countingRecorder) RecordCrossover(_ *model.CrossoverEvent) error { c.crossovers++; return nil }
func (c *countingRecorder) RecordRun(sum *recorder.RunSummary) error {
	c.runs = append(c.runs, sum)
	return nil
}
func (c *countingRecorder) Close() error { return nil }

// crossingBars produces a series whose SMA2 at the final bar (101) lies
// strictly inside the final bar's open/close range.
func crossingBars() []model.OHLCV {
	t0 := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	closes := []float64{100, 100, 100, 98, 104}
	opens := []float64{100, 100, 100, 100, 99}
	bars := make([]model.OHLCV, len(closes))
	for i := range closes {
		bars[i] = model.OHLCV{
			Time: t0.Add(time.Duration(i) * 15 * time.Minute),
			Open: opens[i], Close: closes[i],
			High: 105, Low: 95, Volume: 1000,
		}
	}
	return bars
}

func sma2Row(symbol string) config.WatchRow {
	return config.WatchRow{
		Symbol:    symbol,
		Timeframe: 15,
		Specs:     []model.IndicatorSpec{{Kind: model.IndicatorSMA, Period: 2}},
		Count:     500,
	}
}

func TestRunOnce_AlertDelivered(t *testing.T) {
	sink := &fakeSink{}
	rec := &countingRecorder{}
	fetcher := &fakeFetcher{bars: map[string][]model.OHLCV{"NSE:SBIN-EQ": crossingBars()}}

	r := New(fetcher, sink, rec, []config.WatchRow{sma2Row("NSE:SBIN-EQ")}, false)
	if err := r.RunOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sink.batches) != 1 || len(sink.batches[0]) != 1 {
		t.Fatalf("expected one batch with one alert, got %#v", sink.batches)
	}
	msg := sink.batches[0][0]
	if !strings.Contains(msg, "Cross ABOVE SMA2 Bullish") {
		t.Errorf("unexpected alert text:\n%s", msg)
	}
	if rec.crossovers != 1 {
		t.Errorf("expected 1 recorded crossover, got %d", rec.crossovers)
	}
	if len(rec.runs) != 1 || rec.runs[0].Alerts != 1 || rec.runs[0].RowsProcessed != 1 {
		t.Errorf("unexpected run summary: %+v", rec.runs)
	}
}

func TestRunOnce_FetchFailureIsPerRow(t *testing.T) {
	sink := &fakeSink{}
	rec := &countingRecorder{}
	fetcher := &fakeFetcher{
		bars: map[string][]model.OHLCV{"NSE:TCS-EQ": crossingBars()},
		errs: map[string]error{"NSE:SBIN-EQ": errors.New("status 502")},
	}

	rows := []config.WatchRow{sma2Row("NSE:SBIN-EQ"), sma2Row("NSE:TCS-EQ")}
	r := New(fetcher, sink, rec, rows, false)
	if err := r.RunOnce(context.Background()); err != nil {
		t.Fatalf("per-row fetch failure must not abort the run: %v", err)
	}

	if len(sink.batches) != 1 || len(sink.batches[0]) != 2 {
		t.Fatalf("expected failure notice plus alert in one batch, got %#v", sink.batches)
	}
	if !strings.Contains(sink.batches[0][0], "History fetch failed") {
		t.Errorf("first message should be the fetch failure, got %s", sink.batches[0][0])
	}
	if !strings.Contains(sink.batches[0][1], "NSE:TCS-EQ") {
		t.Errorf("second row should still be processed, got %s", sink.batches[0][1])
	}
	if rec.runs[0].FetchFailures != 1 {
		t.Errorf("expected 1 fetch failure in summary, got %d", rec.runs[0].FetchFailures)
	}
}

func TestRunOnce_InsufficientDataIsQuiet(t *testing.T) {
	sink := &fakeSink{}
	fetcher := &fakeFetcher{bars: map[string][]model.OHLCV{
		"NSE:SBIN-EQ": {{Time: time.Now(), Open: 100, High: 101, Low: 99, Close: 100}},
	}}

	r := New(fetcher, sink, &countingRecorder{}, []config.WatchRow{sma2Row("NSE:SBIN-EQ")}, false)
	if err := r.RunOnce(context.Background()); err != nil {
		t.Fatalf("insufficient data must not be an error: %v", err)
	}
	if len(sink.batches) != 0 {
		t.Errorf("no notifications expected, got %#v", sink.batches)
	}
}

func TestRunOnce_DedupAcrossRows(t *testing.T) {
	sink := &fakeSink{}
	fetcher := &fakeFetcher{bars: map[string][]model.OHLCV{"NSE:SBIN-EQ": crossingBars()}}

	// The same alert line configured twice only fires once per run.
	rows := []config.WatchRow{sma2Row("NSE:SBIN-EQ"), sma2Row("NSE:SBIN-EQ")}
	r := New(fetcher, sink, &countingRecorder{}, rows, false)
	if err := r.RunOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.batches) != 1 || len(sink.batches[0]) != 1 {
		t.Fatalf("duplicate key must be suppressed, got %#v", sink.batches)
	}
}

func TestRunOnce_FreshStatePerRun(t *testing.T) {
	sink := &fakeSink{}
	fetcher := &fakeFetcher{bars: map[string][]model.OHLCV{"NSE:SBIN-EQ": crossingBars()}}

	r := New(fetcher, sink, &countingRecorder{}, []config.WatchRow{sma2Row("NSE:SBIN-EQ")}, false)
	for i := 0; i < 2; i++ {
		if err := r.RunOnce(context.Background()); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	// The dedup cache is scoped to one run, so the second run alerts again.
	if len(sink.batches) != 2 {
		t.Fatalf("expected one batch per run, got %d", len(sink.batches))
	}
}

func TestRunOnce_DiagnosticLogBatch(t *testing.T) {
	sink := &fakeSink{}
	fetcher := &fakeFetcher{bars: map[string][]model.OHLCV{"NSE:SBIN-EQ": crossingBars()}}

	r := New(fetcher, sink, &countingRecorder{}, []config.WatchRow{sma2Row("NSE:SBIN-EQ")}, true)
	if err := r.RunOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.batches) != 2 {
		t.Fatalf("expected alert batch plus diagnostic batch, got %d", len(sink.batches))
	}
	joined := strings.Join(sink.batches[1], "\n")
	if !strings.Contains(joined, "📊 NSE:SBIN-EQ | 15m") {
		t.Errorf("diagnostic batch should carry the per-row log lines:\n%s", joined)
	}
}

func TestRunOnce_PanicRecovered(t *testing.T) {
	sink := &fakeSink{}
	fetcher := &fakeFetcher{panicOn: "NSE:SBIN-EQ"}

	r := New(fetcher, sink, &countingRecorder{}, []config.WatchRow{sma2Row("NSE:SBIN-EQ")}, false)
	err := r.RunOnce(context.Background())
	if err == nil {
		t.Fatal("expected an error after an unhandled panic")
	}
	if len(sink.batches) != 1 || !strings.Contains(sink.batches[0][0], "Unhandled failure") {
		t.Errorf("critical notification should be attempted, got %#v", sink.batches)
	}
}

func TestRunOnce_DeliveryFailureNonFatal(t *testing.T) {
	sink := &fakeSink{err: errors.New("telegram down")}
	fetcher := &fakeFetcher{bars: map[string][]model.OHLCV{"NSE:SBIN-EQ": crossingBars()}}

	r := New(fetcher, sink, &countingRecorder{}, []config.WatchRow{sma2Row("NSE:SBIN-EQ")}, false)
	if err := r.RunOnce(context.Background()); err != nil {
		t.Fatalf("delivery failure must not fail the run: %v", err)
	}
}
