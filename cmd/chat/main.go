package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"todochat/internal/agent"
	"todochat/internal/ai"
	"todochat/internal/backend"
	"todochat/internal/config"
	"todochat/internal/logging"
	"todochat/internal/skills"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "todochat",
	Short: "Natural-language chat layer over the todo API",
	Long: `todochat lets a signed-in user manage their todo list by chatting.

Each message is handed to a reasoning engine together with five task tools;
the tools call the todo API on the user's behalf using their session token.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger, err = logging.New(cfg.Log)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, askCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRuntime wires the engine, gateway and skills from cfg.
func newRuntime(ctx context.Context) (*agent.Runtime, error) {
	engine, err := ai.NewEngine(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}
	gw := backend.New(cfg.Backend.BaseURL, cfg.Backend.Timeout, logger)
	set := skills.NewSet(gw, logger)
	return agent.New(engine, set, agent.Options{
		SystemPrompt:    cfg.Prompt.System,
		Fallback:        cfg.Prompt.Fallback,
		MaxRounds:       cfg.LLM.MaxToolRounds,
		Timeout:         cfg.LLM.Timeout,
		ToolConcurrency: cfg.LLM.ToolConcurrency,
	}, logger), nil
}
