package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/punchamoorthee/spinledger/internal/api"
	"github.com/punchamoorthee/spinledger/internal/config"
	"github.com/punchamoorthee/spinledger/internal/logging"
	"github.com/punchamoorthee/spinledger/internal/ratelimit"
	"github.com/punchamoorthee/spinledger/internal/service"
	"github.com/punchamoorthee/spinledger/internal/store"
	"github.com/punchamoorthee/spinledger/internal/wager"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("Unable to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Layers
	var roundStore service.Store
	if cfg.DBSource != "" {
		pg, err := store.NewPostgres(ctx, cfg.DBSource)
		if err != nil {
			logger.Fatal("unable to connect to database", zap.Error(err))
		}
		defer pg.Close()
		if err := pg.Migrate(ctx); err != nil {
			logger.Fatal("unable to migrate database", zap.Error(err))
		}
		roundStore = pg
	} else {
		logger.Warn("DB_SOURCE not set, rounds are kept in memory")
		roundStore = store.NewMemory()
	}

	var limiter ratelimit.Limiter = ratelimit.Unlimited{}
	if cfg.RedisURL != "" && cfg.SpinRateLimit > 0 {
		client, err := ratelimit.Dial(ctx, cfg.RedisURL, cfg.RedisPass, cfg.RedisDB)
		if err != nil {
			logger.Fatal("unable to connect to redis", zap.Error(err))
		}
		defer client.Close()
		limiter = ratelimit.NewRedis(client, cfg.SpinRateLimit, cfg.SpinRateWindow)
	}

	engine := service.NewEngine(roundStore,
		wager.New(wager.Limits{MaxBet: cfg.MaxBet}),
		service.WithInitialBalance(cfg.InitialBalance),
		service.WithLogger(logger.Named("engine")),
	)
	handler := api.NewHandler(engine, limiter, logger.Named("api"))

	// Router
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	handler.Routes(r, api.Authenticate(cfg.JWTSecret))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("server starting",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.Env),
		zap.Stringer("max_bet", cfg.MaxBet),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server failed", zap.Error(err))
	}
}
