// cmd/bot/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"fintrack-bot/internal/bot"
	"fintrack-bot/internal/common/config"
	"fintrack-bot/internal/common/database"
	"fintrack-bot/internal/common/genai"
	"fintrack-bot/internal/common/logger"

	br "fintrack-bot/internal/handlers/build-reply"
	em "fintrack-bot/internal/handlers/extract-message"
	qs "fintrack-bot/internal/handlers/query-summary"
	rt "fintrack-bot/internal/handlers/record-transaction"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting finance bot...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init GenAI client ---
	genaiClient, err := genai.NewClient(ctx, cfg.GenAI)
	if err != nil {
		zapLog.Fatal("genai client failed", zap.Error(err))
	}
	zapLog.Info("GenAI client initialized", zap.String("model", cfg.GenAI.Model))

	// --- Init Telegram bot API with retry ---
	var api *tgbotapi.BotAPI
	err = retryWithBackoff(func() error {
		var err error
		api, err = tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
		return err
	}, 5, 2*time.Second, zapLog, "Telegram bot initialization")

	if err != nil {
		zapLog.Fatal("telegram bot failed after retries", zap.Error(err))
	}
	api.Buffer = cfg.Telegram.UpdateBuffer
	zapLog.Info("Telegram bot authorized", zap.String("username", api.Self.UserName))

	// --- Build handlers ---
	emLogAdapter := &extractLoggerAdapter{log}

	extractHandler, err := em.NewHandler(
		&em.Config{
			Timeout:    time.Duration(cfg.Handlers.Extract.Timeout) * time.Millisecond,
			MaxRetries: cfg.Handlers.Extract.MaxRetries,
		},
		genaiClient, emLogAdapter,
	)
	if err != nil {
		zapLog.Fatal("failed to create extract-message handler", zap.Error(err))
	}

	recordHandler := rt.NewHandler(
		&rt.Config{
			Timeout: time.Duration(cfg.Handlers.Record.Timeout) * time.Millisecond,
		},
		pg.GetDB(), log,
	)

	summaryHandler := qs.NewHandler(
		&qs.Config{
			Timeout:       time.Duration(cfg.Handlers.Summary.Timeout) * time.Millisecond,
			CacheTTL:      time.Duration(cfg.Handlers.CacheTTL) * time.Second,
			MaxCategories: 10,
		},
		pg.GetDB(), redis.Client, log,
	)

	replies := br.NewBuilder(br.LoadConfig())
	sessions := bot.NewSessionStore(redis.Client, time.Duration(cfg.Handlers.SessionTTL)*time.Second)

	router := bot.NewRouter(api, extractHandler, recordHandler, summaryHandler, replies, sessions, log)
	zapLog.Info("All handlers registered successfully")

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening", zap.String("addr", cfg.App.MetricsAddr))
		if err := http.ListenAndServe(cfg.App.MetricsAddr, nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Update polling loop ---
	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = cfg.Telegram.PollTimeout
	updates := api.GetUpdatesChan(updateCfg)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				router.HandleUpdate(ctx, update)
			}
		}
	}()
	zapLog.Info("Polling for updates")

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping bot...")
	api.StopReceivingUpdates()
	cancel()
	wg.Wait()

	zapLog.Info("Finance bot stopped gracefully")
}

// Logger adapter for the extract handler which has its own Logger interface
type extractLoggerAdapter struct {
	logger.Logger
}

func (a *extractLoggerAdapter) With(fields map[string]interface{}) em.Logger {
	return &extractLoggerAdapter{a.Logger.With(fields)}
}
