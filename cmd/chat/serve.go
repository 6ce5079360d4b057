package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"todochat/internal/chat"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat HTTP API",
	RunE:  serve,
}

func serve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: chat.NewHandler(rt, chat.ServerOptions{
			AllowedOrigins:   cfg.Server.AllowedOrigins,
			MaxMessageLength: cfg.Chat.MaxMessageLength,
		}, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("chat API listening",
			zap.String("addr", srv.Addr),
			zap.String("provider", cfg.LLM.Provider),
			zap.String("model", cfg.LLM.Model),
			zap.String("backend", cfg.Backend.BaseURL),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		logger.Info("shutting down chat API")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
