package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jhustinvs-a11y/mi-chat-web/internal/api"
	"github.com/jhustinvs-a11y/mi-chat-web/internal/chat"
	"github.com/jhustinvs-a11y/mi-chat-web/internal/config"
	"github.com/jhustinvs-a11y/mi-chat-web/internal/logger"
	"github.com/jhustinvs-a11y/mi-chat-web/internal/session"
)

func main() {
	configPath := flag.String("config", "", "optional config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	zl, err := logger.New(logger.Config{Development: cfg.Development()})
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	store, err := session.NewStore(cfg.Admin.Email, cfg.Admin.Name, cfg.Admin.Password)
	if err != nil {
		zl.Fatalw("seed admin account", "err", err)
	}
	tokens := session.NewTokenManager(cfg.App.JWTSecret, cfg.SessionTTL)

	hub := chat.NewHub(store, chat.Options{
		HistoryCapacity:  cfg.Chat.HistoryCapacity,
		HistoryReplay:    cfg.Chat.HistoryReplay,
		MaxMessageChars:  cfg.Chat.MaxMessageChars,
		RateLimitMax:     cfg.Chat.RateLimitMax,
		RateLimitWindow:  cfg.RateLimitWindow,
		PresenceDebounce: cfg.PresenceDebounce,
	}, zl)

	app := api.NewServer(cfg, store, tokens, hub, zl)

	errs := make(chan error, 1)
	go func() {
		zl.Infow("starting chat server", "addr", cfg.Addr())
		errs <- app.Listen(cfg.Addr())
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errs:
		zl.Fatalw("server error", "err", err)
	case s := <-sig:
		zl.Infow("signal received", "signal", s)
	}

	if err := app.Shutdown(); err != nil {
		zl.Warnw("http shutdown", "err", err)
	}
	hub.Close()
	zl.Info("shut down")
}
