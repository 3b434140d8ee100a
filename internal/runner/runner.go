package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"CrossSentinel/internal/calculator"
	"CrossSentinel/internal/collector"
	"CrossSentinel/internal/config"
	"CrossSentinel/internal/detector"
	"CrossSentinel/internal/model"
	"CrossSentinel/internal/notifier"
	"CrossSentinel/internal/recorder"
)

// Sink delivers a batch of notification strings. The sink owns chunking and
// joining; delivery failure is logged by the runner and the batch dropped.
type Sink interface {
	SendBulk(ctx context.Context, messages []string) error
}

// Runner walks the watchlist once per invocation: fetch, compute, detect,
// format, accumulate, then deliver everything as one batch.
type Runner struct {
	Fetcher           collector.Fetcher
	Sink              Sink
	Recorder          recorder.Recorder
	Rows              []config.WatchRow
	SendDiagnosticLog bool
}

// New creates a Runner over the given collaborators.
func New(fetcher collector.Fetcher, sink Sink, rec recorder.Recorder, rows []config.WatchRow, sendDiag bool) *Runner {
	return &Runner{
		Fetcher:           fetcher,
		Sink:              sink,
		Recorder:          rec,
		Rows:              rows,
		SendDiagnosticLog: sendDiag,
	}
}

// runState carries the per-run accumulators. Created fresh for every
// RunOnce call and discarded at run end; nothing survives across runs.
type runState struct {
	cache  *detector.Cache
	alerts []string
	diag   []string
}

func (s *runState) diagf(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	logrus.Info(line)
	s.diag = append(s.diag, line)
}

func (s *runState) warnf(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	logrus.Warn(line)
	s.diag = append(s.diag, line)
}

// RunOnce processes every watch row sequentially and delivers the
// accumulated notifications in one batch. Per-row failures queue a failure
// notification and move on; anything unexpected is recovered once here,
// reported best-effort, and returned so the process can exit non-zero.
func (r *Runner) RunOnce(ctx context.Context) (err error) {
	started := time.Now()
	state := &runState{cache: detector.NewCache()}
	sum := recorder.RunSummary{StartedAt: started}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("unhandled failure during run: %v", rec)
			logrus.Errorf("%v", err)
			state.alerts = append(state.alerts, notifier.FormatCritical(err))
			r.flush(ctx, state)
		}
	}()

	for _, row := range r.Rows {
		sum.RowsProcessed++
		state.diagf("📊 %s | %dm | %s | count=%d", row.Symbol, row.Timeframe, specLabels(row.Specs), row.Count)

		bars, fetchErr := r.Fetcher.FetchBars(row.Symbol, row.Timeframe, row.Count)
		if fetchErr != nil {
			sum.FetchFailures++
			logrus.Errorf("fetch %s %dm: %v", row.Symbol, row.Timeframe, fetchErr)
			state.alerts = append(state.alerts, notifier.FormatFetchFailure(row.Symbol, row.Timeframe, fetchErr))
			continue
		}
		series := &model.Series{
			Symbol:    row.Symbol,
			Timeframe: row.Timeframe,
			Bars:      bars,
			FetchedAt: time.Now(),
		}
		closes := series.Closes()

		for _, spec := range row.Specs {
			indicator, calcErr := calculator.Compute(closes, spec)
			if calcErr != nil {
				logrus.Errorf("compute %s for %s: %v", spec.Label(), row.Symbol, calcErr)
				continue
			}
			evt, detErr := detector.Detect(series, indicator, spec, state.cache)
			if detErr != nil {
				if errors.Is(detErr, detector.ErrInsufficientData) {
					state.warnf("⚠️ %s | %dm: not enough data to check crossovers", row.Symbol, row.Timeframe)
					break // the whole series is too short, no spec can fire
				}
				logrus.Errorf("detect %s for %s: %v", spec.Label(), row.Symbol, detErr)
				continue
			}
			if evt == nil {
				continue
			}

			sum.Alerts++
			state.alerts = append(state.alerts, notifier.FormatCrossover(evt))
			state.diagf("🔔 %s %s %s @ %.2f", evt.Symbol, evt.Spec.Label(), evt.Direction, evt.Indicator)
			if recErr := r.Recorder.RecordCrossover(evt); recErr != nil {
				logrus.Errorf("record crossover: %v", recErr)
			}
		}
	}

	r.flush(ctx, state)

	sum.Duration = time.Since(started)
	if recErr := r.Recorder.RecordRun(&sum); recErr != nil {
		logrus.Errorf("record run: %v", recErr)
	}
	logrus.Infof("run completed: rows=%d fetch_failures=%d alerts=%d in %v",
		sum.RowsProcessed, sum.FetchFailures, sum.Alerts, sum.Duration.Round(time.Millisecond))
	return nil
}

// flush delivers accumulated notifications, then the diagnostic batch when
// enabled. Delivery failures are logged and the batch dropped, never fatal.
func (r *Runner) flush(ctx context.Context, state *runState) {
	if len(state.alerts) > 0 {
		if err := r.Sink.SendBulk(ctx, state.alerts); err != nil {
			logrus.Errorf("deliver notifications: %v", err)
		}
	} else {
		logrus.Info("no crossovers detected this run")
	}
	if r.SendDiagnosticLog && len(state.diag) > 0 {
		if err := r.Sink.SendBulk(ctx, state.diag); err != nil {
			logrus.Errorf("deliver diagnostic log: %v", err)
		}
	}
	state.alerts = nil
	state.diag = nil
}

func specLabels(specs []model.IndicatorSpec) string {
	labels := make([]string, len(specs))
	for i, s := range specs {
		labels[i] = s.Label()
	}
	return strings.Join(labels, ";")
}
