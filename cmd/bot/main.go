package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/polyai/polytrader/internal/bot"
	"github.com/polyai/polytrader/internal/config"
	"github.com/polyai/polytrader/internal/journal"
	"github.com/polyai/polytrader/internal/logger"
	"github.com/polyai/polytrader/internal/polymarket"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)

	// Missing credential is fatal before the loop ever starts.
	if err := cfg.ValidateBot(); err != nil {
		log.Fatalf("bot config: %v", err)
	}

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		log.Fatalf("telegram bot init: %v", err)
	}
	log.Info("telegram bot connected", "username", api.Self.UserName)

	store := journal.NewStore(cfg.Journal.Path)

	var balance bot.BalanceSource
	if cfg.Polymarket.FunderAddress != "" {
		reader, err := polymarket.NewBalanceReader(
			cfg.Polymarket.RPCURL, cfg.Polymarket.USDCAddress, cfg.Polymarket.FunderAddress)
		if err != nil {
			log.Fatalf("balance reader init: %v", err)
		}
		defer reader.Close()
		balance = reader
	}

	b := bot.New(api, store, balance, bot.Options{
		AllowChat:   cfg.Telegram.ChatID,
		PollTimeout: cfg.PollTimeout(),
		Backoff:     cfg.PollBackoff(),
	}, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		log.Info("shutdown signal received", "signal", sig.String())
		cancel()
	}()

	b.Run(ctx)
}
