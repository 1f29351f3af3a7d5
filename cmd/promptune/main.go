package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/csheth/promptune/internal/api"
	"github.com/csheth/promptune/internal/config"
	"github.com/csheth/promptune/internal/draftfile"
	"github.com/csheth/promptune/internal/logger"
	"github.com/csheth/promptune/internal/tui"
)

// Version information set via ldflags at build time
var version = "dev"

type options struct {
	configPath  string
	endpoint    string
	idleDelay   time.Duration
	noAltScreen bool
	logFile     string
	debug       bool
	draftFile   string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "promptune",
		Short: "Refine prompts in a chat before sending them",
		Long: `PrompTune scores the prompt you are typing, offers specific, creative and
formal rewrites, and sends whichever version you choose to the chat endpoint.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "path to config.toml (default ~/.promptune/config.toml)")
	flags.StringVar(&opts.endpoint, "endpoint", "", "backend base URL, eg. http://localhost:8000")
	flags.DurationVar(&opts.idleDelay, "idle-delay", 0, "pause after typing before suggestions are requested")
	flags.BoolVar(&opts.noAltScreen, "no-alt-screen", false, "disable the alternate screen buffer")
	flags.StringVar(&opts.logFile, "log-file", "", "write logs to this file (default "+logger.DefaultLogPath+")")
	flags.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	flags.StringVar(&opts.draftFile, "draft-file", "", "pre-fill the composer from a text or PDF file, or a URL")
	return cmd
}

func runTUI(cmd *cobra.Command, opts *options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if opts.endpoint != "" {
		cfg.Endpoint = opts.endpoint
	}
	if cmd.Flags().Changed("idle-delay") {
		cfg.IdleDelay = config.Duration{Duration: opts.idleDelay}
	}
	if opts.logFile != "" {
		cfg.LogFile = opts.logFile
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", cfg.Source, err)
	}

	logger.Configure(opts.debug)
	closer, logPath, err := logger.SetupFile(cfg.LogFile)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer closer.Close()
	log := logger.Named("main")
	log.WithFields(logger.Fields{"endpoint": cfg.Endpoint, "config": cfg.Source, "log": logPath}).Info("starting")

	var draft string
	if opts.draftFile != "" {
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout.Duration)
		draft, err = draftfile.Load(ctx, opts.draftFile, draftfile.Options{})
		cancel()
		if err != nil {
			return fmt.Errorf("load draft: %w", err)
		}
	}

	client := api.New(api.Config{Endpoint: cfg.Endpoint, Timeout: cfg.RequestTimeout.Duration})

	programOpts := []tea.ProgramOption{tea.WithMouseCellMotion()}
	if !opts.noAltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}
	program := tea.NewProgram(
		tui.New(tui.Config{
			Backend:        client,
			Greeting:       cfg.Greeting,
			IdleDelay:      cfg.IdleDelay.Duration,
			RequestTimeout: cfg.RequestTimeout.Duration,
			ArchivePath:    cfg.ArchiveFile,
			Draft:          draft,
		}),
		programOpts...,
	)
	if _, err := program.Run(); err != nil {
		log.WithError(err).Error("program stopped")
		return fmt.Errorf("error running app: %w", err)
	}
	log.Info("bye")
	return nil
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "promptune:", err)
		os.Exit(1)
	}
}
