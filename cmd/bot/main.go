package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"CrossSentinel/internal/collector"
	"CrossSentinel/internal/config"
	"CrossSentinel/internal/logging"
	"CrossSentinel/internal/notifier"
	"CrossSentinel/internal/recorder"
	"CrossSentinel/internal/runner"
)

func main() {
	// Credentials may come from a local .env; absence is fine.
	_ = godotenv.Load()

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("config validation: %v", err)
	}

	logFile, err := logging.Init(logging.Options{
		Dir:        cfg.Logging.Dir,
		Level:      cfg.Logging.Level,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	if err != nil {
		logrus.Fatalf("init logging: %v", err)
	}
	logrus.Infof("CrossSentinel starting, logging to %s", logFile)

	// Watchlist: inline TRADE_CONFIGS takes precedence over the file.
	var rows []config.WatchRow
	if inline := os.Getenv("TRADE_CONFIGS"); inline != "" {
		rows, err = config.ParseWatchlist(strings.NewReader(inline))
	} else {
		rows, err = config.LoadWatchlist(cfg.Watchlist.File)
	}
	if err != nil {
		logrus.Fatalf("load watchlist: %v", err)
	}
	logrus.Infof("loaded %d watch rows", len(rows))

	loc, err := time.LoadLocation(cfg.Market.Timezone)
	if err != nil {
		logrus.Fatalf("load timezone %q: %v", cfg.Market.Timezone, err)
	}

	// Init fetcher
	var fetcher collector.Fetcher
	if cfg.DataSource.Provider == "yahoo" {
		fetcher = collector.NewYahooFetcher(cfg.Proxy, loc)
	} else {
		fetcher = collector.NewFyersFetcher(cfg.DataSource.BaseURL, cfg.DataSource.AccessToken, cfg.Proxy, loc)
	}
	logrus.Infof("data source: %s", fetcher.Name())

	// Init Telegram notifier
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	if cfg.Diagnostics.SendTestMessage {
		if err := tn.Send("🧪 Test: Telegram alerts are configured and working!"); err != nil {
			logrus.Warnf("telegram test message failed: %v", err)
		} else {
			logrus.Info("telegram test message sent")
		}
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			logrus.Warnf("init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	run := runner.New(fetcher, tn, rec, rows, cfg.Diagnostics.SendLog)

	exitCode := 0
	if cfg.Schedule.Cron == "" {
		// Single run-to-completion invocation.
		if err := run.RunOnce(ctx); err != nil {
			exitCode = 1
		}
	} else {
		sched := cron.New(cron.WithSeconds())
		if _, err := sched.AddFunc(cfg.Schedule.Cron, func() {
			if err := run.RunOnce(ctx); err != nil {
				logrus.Errorf("scheduled run failed: %v", err)
			}
		}); err != nil {
			logrus.Fatalf("register cron schedule: %v", err)
		}
		sched.Start()
		logrus.Infof("scheduler started: %s", cfg.Schedule.Cron)

		if os.Getenv("RUN_ON_START") == "true" {
			logrus.Info("RUN_ON_START enabled, executing run now")
			go func() {
				if err := run.RunOnce(ctx); err != nil {
					logrus.Errorf("initial run failed: %v", err)
				}
			}()
		}

		// Wait for shutdown signal
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logrus.Info("shutdown signal received, stopping...")
		sched.Stop()
		cancel()
	}

	if err := rec.Close(); err != nil {
		logrus.Errorf("close recorder: %v", err)
	}
	logrus.Info("CrossSentinel stopped")
	os.Exit(exitCode)
}
