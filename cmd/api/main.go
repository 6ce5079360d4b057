package main

import (
	"context"
	"crypto/rand"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"todochat/internal/auth"
	"todochat/internal/config"
	"todochat/internal/db"
	"todochat/internal/logging"
	"todochat/internal/respond"
	"todochat/internal/todos"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	users, store, closeStore, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("open store", zap.Error(err))
	}
	defer closeStore()

	secret := []byte(cfg.Phase2.JWTSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		_, _ = rand.Read(secret)
		logger.Warn("JWT_SECRET not set; using a random secret, tokens will not survive a restart")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	auth.Register(mux, users, secret, cfg.Phase2.TokenTTL, logger)
	todos.Register(mux, store, auth.New(secret), logger)

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              cfg.Phase2.Addr,
		Handler:           c.Handler(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("todo API listening", zap.String("addr", srv.Addr), zap.String("store", cfg.Phase2.Store))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("serve", zap.Error(err))
	}
}

func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (auth.UserStore, todos.Store, func(), error) {
	if cfg.Phase2.Store != "postgres" {
		return auth.NewMemoryUsers(), todos.NewMemoryStore(), func() {}, nil
	}

	database, err := db.Connect(ctx, cfg.ConnString())
	if err != nil {
		return nil, nil, nil, err
	}
	if err := db.Migrate(ctx, database); err != nil {
		database.Close()
		return nil, nil, nil, err
	}
	logger.Info("connected to PostgreSQL", zap.String("host", cfg.Phase2.DBHost), zap.String("db", cfg.Phase2.DBName))

	return auth.NewPostgresUsers(database), todos.NewPostgresStore(database), func() { database.Close() }, nil
}
