package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/polyai/polytrader/internal/config"
	"github.com/polyai/polytrader/internal/history"
	"github.com/polyai/polytrader/internal/journal"
	"github.com/polyai/polytrader/internal/logger"
	"github.com/polyai/polytrader/internal/notify"
	"github.com/polyai/polytrader/internal/polymarket"
	"github.com/polyai/polytrader/internal/settlement"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	interval := flag.Duration("interval", 0, "poll interval; 0 runs a single pass and exits")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)

	store := journal.NewStore(cfg.Journal.Path)
	gateway := polymarket.NewClient(cfg.Polymarket.GammaHost, log)
	notifier := notify.New(cfg.Telegram.BotToken, cfg.Telegram.ChatID, log)

	var recorder settlement.Recorder
	if db, err := history.NewDatabase(cfg.Journal.HistoryPath); err != nil {
		log.Warn("history database unavailable, settlement audit disabled", "error", err)
	} else {
		recorder = history.NewRepository(db)
	}

	monitor := settlement.NewMonitor(store, gateway, notifier, recorder, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *interval <= 0 {
		settled := monitor.RunOnce(ctx)
		log.Info("settlement pass completed", "settled", settled)
		return
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		log.Info("shutdown signal received", "signal", sig.String())
		cancel()
	}()

	log.Info("settlement monitor started", "interval", interval.String())
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	monitor.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info("settlement monitor stopped")
			return
		case <-ticker.C:
			settled := monitor.RunOnce(ctx)
			if settled > 0 {
				log.Info("settlement pass completed", "settled", settled)
			}
		}
	}
}
