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
	"github.com/polyai/polytrader/internal/decision"
	"github.com/polyai/polytrader/internal/history"
	"github.com/polyai/polytrader/internal/journal"
	"github.com/polyai/polytrader/internal/logger"
	"github.com/polyai/polytrader/internal/notify"
	"github.com/polyai/polytrader/internal/orchestrator"
	"github.com/polyai/polytrader/internal/polymarket"
	"github.com/polyai/polytrader/internal/search"
	"github.com/polyai/polytrader/internal/web"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	runNow := flag.Bool("now", false, "run one trading cycle immediately and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)
	log.Info("starting polytrader", "cron", cfg.Trading.CronSpec, "record_trades", cfg.RecordTrades())

	store := journal.NewStore(cfg.Journal.Path)

	db, err := history.NewDatabase(cfg.Journal.HistoryPath)
	if err != nil {
		log.Error("history database init failed", "error", err)
		os.Exit(1)
	}
	repo := history.NewRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gateway := polymarket.NewClient(cfg.Polymarket.GammaHost, log)

	var balance orchestrator.BalanceSource
	if cfg.Polymarket.FunderAddress != "" {
		reader, err := polymarket.NewBalanceReader(
			cfg.Polymarket.RPCURL, cfg.Polymarket.USDCAddress, cfg.Polymarket.FunderAddress)
		if err != nil {
			log.Error("balance reader init failed", "error", err)
			os.Exit(1)
		}
		defer reader.Close()
		balance = reader
	} else {
		log.Warn("no funder address configured, sizing against max position only")
	}

	searchClient := search.NewClient(cfg.Tavily.APIKey, log)
	engine := decision.NewEngine(cfg, searchClient, log)
	notifier := notify.New(cfg.Telegram.BotToken, cfg.Telegram.ChatID, log)
	trader := orchestrator.NewTrader(gateway, balance, engine, store, notifier, repo, cfg, log)

	if *runNow {
		if err := trader.RunCycle(ctx); err != nil {
			log.Error("trading cycle failed", "error", err)
			os.Exit(1)
		}
		return
	}

	sched := orchestrator.NewScheduler(ctx, trader, log)
	if _, err := sched.Add(cfg.Trading.CronSpec); err != nil {
		log.Error("invalid cron spec", "spec", cfg.Trading.CronSpec, "error", err)
		os.Exit(1)
	}
	sched.Start()

	webServer := web.NewServer(cfg.Web.Port, store, repo, log)
	go func() {
		if err := webServer.Start(); err != nil {
			log.Error("web server error", "error", err)
		}
	}()

	notifier.Send("🤖 Polytrader started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("shutdown signal received", "signal", sig.String())

	cancel()
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := webServer.Shutdown(shutdownCtx); err != nil {
		log.Error("web server shutdown error", "error", err)
	}

	notifier.Send("🛑 Polytrader stopped")
	log.Info("polytrader stopped")
}
