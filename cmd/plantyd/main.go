package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/leafcare/planty/internal/analyze"
	"github.com/leafcare/planty/internal/api"
	"github.com/leafcare/planty/internal/care"
	"github.com/leafcare/planty/internal/config"
	"github.com/leafcare/planty/internal/notify"
	"github.com/leafcare/planty/internal/photos"
	"github.com/leafcare/planty/internal/refresh"
	"github.com/leafcare/planty/internal/store"
	"github.com/leafcare/planty/internal/weather"
	"github.com/leafcare/planty/internal/wikimedia"
)

func main() {
	log.Println("plantyd - plant care daemon")

	// Load .env file (optional - won't error if missing)
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, using environment variables")
	} else {
		log.Println("[config] Loaded .env file")
	}

	cfgPath := os.Getenv("PLANTY_CONFIG")
	if cfgPath == "" {
		cfgPath = "planty.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	sender := buildSender(cfg)

	var weatherClient *weather.Client
	if cfg.Weather.APIKey != "" {
		weatherClient = weather.NewClient(cfg.Weather.APIKey)
	} else {
		log.Println("[main] OPENWEATHER_API_KEY not set, temperature checks disabled")
	}

	var analyzer *analyze.Client
	if cfg.Analyze.APIKey != "" {
		analyzer = analyze.NewClient(cfg.Analyze.APIKey, cfg.Analyze.Model)
	} else {
		log.Println("[main] GEMINI_API_KEY not set, photo analysis disabled")
	}

	sync := care.NewSynchronizer(st)
	completer := care.NewCompleter(st, sync)
	prefs := care.NotifyPrefs{
		Water:       cfg.Notify.Water,
		Pesticide:   cfg.Notify.Pesticide,
		Temperature: cfg.Notify.Temperature,
	}
	worker := refresh.New(st, weatherClient, sync, sender, prefs, cfg.Weather.Lat, cfg.Weather.Lon)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// One pass at startup so attention state and the calendar are current
	// before the first request lands.
	if err := worker.Run(ctx); err != nil {
		log.Printf("Warning: initial refresh failed: %v", err)
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.Refresh.Cron, func() {
		if err := worker.Run(ctx); err != nil {
			log.Printf("[main] periodic refresh failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("Invalid refresh cron spec %q: %v", cfg.Refresh.Cron, err)
	}
	c.Start()
	defer c.Stop()

	server := api.NewServer(st, sync, completer, worker, analyzer, wikimedia.NewClient("en"), photos.New(cfg.Photos.Dir))
	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.Router(),
	}

	go func() {
		log.Printf("[main] listening on %s", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("[main] shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
}

func buildSender(cfg *config.Config) notify.Sender {
	switch cfg.Notify.Backend {
	case "discord":
		sender, err := notify.NewDiscordSender(cfg.Notify.Discord.Token, cfg.Notify.Discord.ChannelID)
		if err != nil {
			log.Printf("Warning: discord sender unavailable, logging only: %v", err)
			return notify.LogSender{}
		}
		return sender
	case "telegram":
		sender, err := notify.NewTelegramSender(cfg.Notify.Telegram.Token, cfg.Notify.Telegram.ChatID)
		if err != nil {
			log.Printf("Warning: telegram sender unavailable, logging only: %v", err)
			return notify.LogSender{}
		}
		return sender
	default:
		return notify.LogSender{}
	}
}
