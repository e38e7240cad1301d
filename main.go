package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smc-trading-bot/config"
	"smc-trading-bot/internal/api"
	"smc-trading-bot/internal/auth"
	"smc-trading-bot/internal/bot"
	"smc-trading-bot/internal/engine"
	"smc-trading-bot/internal/events"
	"smc-trading-bot/internal/journal"
	"smc-trading-bot/internal/logging"
	"smc-trading-bot/internal/market"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(&logging.Config{
		Level:      cfg.LoggingConfig.Level,
		Output:     cfg.LoggingConfig.Output,
		JSONFormat: cfg.LoggingConfig.JSONFormat,
		Component:  "main",
	})
	logging.SetDefault(logger)
	logger.Info("Structured logging initialized")

	eventBus := events.NewEventBus()

	ctx := context.Background()

	// Postgres journal (optional)
	var repo *journal.Repository
	if cfg.DatabaseConfig.Enabled {
		db, err := journal.NewDB(cfg.DatabaseConfig.URL, cfg.DatabaseConfig.MaxConns)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := db.RunMigrations(ctx); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		repo = journal.NewRepository(db)

		recorder := journal.NewRecorder(repo, cfg.MarketConfig.Symbol)
		recorder.Attach(eventBus)
		logger.Info("Signal journal enabled")
	}

	// Redis snapshot store (optional, falls back to in-memory)
	var store *journal.SnapshotStore
	if cfg.RedisConfig.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisConfig.Address,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unreachable, snapshots stay in memory", "error", err.Error())
		}
		store = journal.NewSnapshotStore(client)
	} else {
		store = journal.NewSnapshotStore(nil)
	}

	gateway := market.NewPaperGateway(cfg.MarketConfig.TickSize)
	eng, err := engine.NewEngine(cfg.EngineConfig, gateway, eventBus)
	if err != nil {
		log.Fatalf("Failed to build engine: %v", err)
	}

	// Warm up on recent history so zones and swings exist before live bars
	if cfg.MarketConfig.History > 0 {
		client := market.NewClient(cfg.MarketConfig.BaseURL)
		bars, err := client.GetBars(cfg.MarketConfig.Symbol, cfg.MarketConfig.Interval, cfg.MarketConfig.History)
		if err != nil {
			logger.Warn("History fetch failed, starting cold", "error", err.Error())
		} else {
			for _, b := range bars {
				if _, err := eng.ProcessBar(b); err != nil {
					log.Fatalf("Failed to replay history: %v", err)
				}
			}
			logger.Info("Engine warmed up", "bars", len(bars))
		}
	}

	feed := market.NewStreamFeed(cfg.MarketConfig.WSBaseURL, cfg.MarketConfig.Symbol, cfg.MarketConfig.Interval)
	tradingBot := bot.New(eng, feed, store, repo, cfg.MarketConfig.Symbol)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := tradingBot.Start(runCtx); err != nil {
		log.Fatalf("Failed to start bot: %v", err)
	}

	eventBus.Publish(events.Event{
		Type: events.EventEngineStarted,
		Data: map[string]interface{}{
			"symbol":   cfg.MarketConfig.Symbol,
			"interval": cfg.MarketConfig.Interval,
		},
	})

	// Web server (optional)
	var server *api.Server
	if cfg.ServerConfig.Enabled {
		var jwtManager *auth.JWTManager
		if cfg.AuthConfig.Enabled {
			jwtManager = auth.NewJWTManager(cfg.AuthConfig.JWTSecret, cfg.AuthConfig.AccessTokenDuration)
		}

		server = api.NewServer(api.ServerConfig{
			Port:           cfg.ServerConfig.Port,
			Host:           cfg.ServerConfig.Host,
			AllowedOrigins: cfg.ServerConfig.AllowedOrigins,
			ReadTimeout:    time.Duration(cfg.ServerConfig.ReadTimeout) * time.Second,
			WriteTimeout:   time.Duration(cfg.ServerConfig.WriteTimeout) * time.Second,
		}, tradingBot, repo, cfg.MarketConfig.Symbol, jwtManager)
		server.AttachBus(eventBus)

		go func() {
			if err := server.Start(); err != nil {
				log.Fatalf("Failed to start web server: %v", err)
			}
		}()
		logger.Info("API available", "addr", fmt.Sprintf("http://%s:%d", cfg.ServerConfig.Host, cfg.ServerConfig.Port))
	}

	logger.Info("Bot running", "symbol", cfg.MarketConfig.Symbol, "interval", cfg.MarketConfig.Interval)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down")

	eventBus.Publish(events.Event{
		Type: events.EventEngineStopped,
		Data: map[string]interface{}{},
	})

	cancel()
	tradingBot.Stop()

	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
			time.Duration(cfg.ServerConfig.ShutdownTimeout)*time.Second)
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown failed", "error", err.Error())
		}
		shutdownCancel()
	}

	logger.Info("Shutdown complete")
}
