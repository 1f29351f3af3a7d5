package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/csheth/promptune/internal/backend"
	"github.com/csheth/promptune/internal/config"
	"github.com/csheth/promptune/internal/logger"
)

func newRootCmd() *cobra.Command {
	var (
		configPath string
		listen     string
		logFile    string
		debug      bool
		system     string
	)
	cmd := &cobra.Command{
		Use:           "promptune-server",
		Short:         "Serve /rewrite and /chat over an OpenAI-compatible model",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("error loading config: %w", err)
			}
			if listen != "" {
				cfg.Server.Listen = listen
			}

			logger.Configure(debug)
			if logFile != "" {
				closer, _, err := logger.SetupFile(logFile)
				if err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
				defer closer.Close()
			} else {
				logger.SetOutput(os.Stderr)
			}

			completer, err := backend.NewOpenAICompleter(backend.OpenAIOptions{
				APIKey:  cfg.Server.APIKey,
				BaseURL: cfg.Server.BaseURL,
				Model:   cfg.Server.Model,
			})
			if err != nil {
				return err
			}
			logger.Named("main").WithFields(logger.Fields{
				"model":    cfg.Server.Model,
				"base_url": cfg.Server.BaseURL,
			}).Info("backend ready")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return backend.Serve(ctx, cfg.Server.Listen, backend.NewService(completer, system))
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to config.toml (default ~/.promptune/config.toml)")
	flags.StringVar(&listen, "listen", "", "address to listen on (default "+config.DefaultListen+")")
	flags.StringVar(&logFile, "log-file", "", "write logs to this file instead of stderr")
	flags.BoolVar(&debug, "debug", false, "enable debug logging")
	flags.StringVar(&system, "system-prompt", "", "override the chat system prompt")
	return cmd
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "promptune-server:", err)
		os.Exit(1)
	}
}
