package notifier

import (
	"fmt"
	"strings"

	"CrossSentinel/internal/model"
)

// FormatCrossover renders a detected crossover into the alert text sent to
// Telegram. Timestamps are shown in the bar's local zone, 12-hour and
// 24-hour; numeric values are rounded to two decimals.
func FormatCrossover(evt *model.CrossoverEvent) string {
	marker := "📉"
	side := "BELOW"
	if evt.Direction == model.DirectionUp {
		marker = "📈"
		side = "ABOVE"
	}
	gapInfo := ""
	if evt.GapCrossed {
		gapInfo = " (Gap detected)"
	}

	ts24 := evt.BarTime.Format("2006-01-02 15:04:05")
	ts12 := evt.BarTime.Format("2006-01-02 03:04:05 PM")

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s %s | %dm\n", marker, evt.Symbol, evt.Timeframe))
	b.WriteString(fmt.Sprintf("🕒 %s / %s\n", ts12, ts24))
	b.WriteString(fmt.Sprintf("Cross %s %s %s%s\n", side, evt.Spec.Label(), evt.Direction, gapInfo))
	b.WriteString(fmt.Sprintf("Close: %.2f | %s: %.2f", evt.Close, evt.Spec.Kind, evt.Indicator))
	return b.String()
}

// FormatFetchFailure renders a per-row fetch failure for the alert channel.
func FormatFetchFailure(symbol string, timeframe int, err error) string {
	return fmt.Sprintf("❌ %s | %dm\nHistory fetch failed: %v", symbol, timeframe, err)
}

// FormatCritical renders the top-level failure notification.
func FormatCritical(err error) string {
	return fmt.Sprintf("💥 Unhandled failure during run: %v", err)
}
