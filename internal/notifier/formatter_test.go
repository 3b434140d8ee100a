package notifier

import (
	"errors"
	"strings"
	"testing"
	"time"

	"CrossSentinel/internal/model"
)

func sampleEvent() *model.CrossoverEvent {
	return &model.CrossoverEvent{
		Symbol:     "NSE:SBIN-EQ",
		Timeframe:  15,
		Spec:       model.IndicatorSpec{Kind: model.IndicatorSMA, Period: 20},
		Direction:  model.DirectionUp,
		GapCrossed: false,
		BarTime:    time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC),
		Close:      110.005,
		Indicator:  105.128,
	}
}

func TestFormatCrossover_Bullish(t *testing.T) {
	msg := FormatCrossover(sampleEvent())

	for _, want := range []string{
		"NSE:SBIN-EQ | 15m",
		"Cross ABOVE SMA20 Bullish",
		"2026-03-02 14:30:00",
		"2026-03-02 02:30:00 PM",
		"Close: 110.00 | SMA: 105.13",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "Gap detected") {
		t.Error("gap annotation must only appear when gap-crossed")
	}
}

func TestFormatCrossover_BearishWithGap(t *testing.T) {
	evt := sampleEvent()
	evt.Direction = model.DirectionDown
	evt.GapCrossed = true
	evt.Spec = model.IndicatorSpec{Kind: model.IndicatorEMA, Period: 50}

	msg := FormatCrossover(evt)
	for _, want := range []string{
		"Cross BELOW EMA50 Bearish (Gap detected)",
		"EMA: 105.13",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatCrossover_Deterministic(t *testing.T) {
	a := FormatCrossover(sampleEvent())
	b := FormatCrossover(sampleEvent())
	if a != b {
		t.Error("formatting the same event twice must produce identical output")
	}
}

func TestFormatFetchFailure(t *testing.T) {
	msg := FormatFetchFailure("NSE:TCS-EQ", 60, errors.New("status 502"))
	if !strings.Contains(msg, "NSE:TCS-EQ | 60m") || !strings.Contains(msg, "status 502") {
		t.Errorf("unexpected failure message: %s", msg)
	}
}

func TestChunkMessages(t *testing.T) {
	short := chunkMessages([]string{"one", "two"}, 100)
	if len(short) != 1 || short[0] != "one\n\ntwo" {
		t.Fatalf("expected single blank-line-joined chunk, got %#v", short)
	}

	long := chunkMessages([]string{strings.Repeat("a", 150), strings.Repeat("b", 150)}, 100)
	if len(long) != 4 {
		t.Fatalf("expected 4 chunks of <=100 chars, got %d", len(long))
	}
	total := 0
	for i, c := range long {
		if len([]rune(c)) > 100 {
			t.Errorf("chunk %d exceeds limit: %d", i, len(c))
		}
		total += len([]rune(c))
	}
	if total != 302 { // 150 + 2 separator + 150
		t.Errorf("chunks must cover the whole batch, got %d chars", total)
	}

	if got := chunkMessages(nil, 100); got != nil {
		t.Errorf("empty batch should produce no chunks, got %#v", got)
	}
}
