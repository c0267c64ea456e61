package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/turfease/platform/internal/app"
	"github.com/turfease/platform/internal/infra"
)

// Options customizes how commands reach the application.
type Options struct {
	Out io.Writer

	// Open returns a wired runtime. Defaults to loading the environment
	// config and calling app.Bootstrap.
	Open func(ctx context.Context, logger *slog.Logger) (*app.Runtime, error)
}

type state struct {
	opts    Options
	output  string
	verbose bool
}

func (s *state) logger() *slog.Logger {
	level := slog.LevelWarn
	if s.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func (s *state) out() *Output {
	return NewOutput(s.opts.Out, s.output)
}

// withRuntime opens the application for the duration of fn.
func (s *state) withRuntime(ctx context.Context, fn func(*app.Runtime) error) error {
	rt, err := s.opts.Open(ctx, s.logger())
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(rt)
}

func openFromEnv(ctx context.Context, logger *slog.Logger) (*app.Runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.Bootstrap(ctx, cfg, logger)
}

func loadConfig() (*infra.Config, error) {
	cfg, err := infra.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// NewRootCmd creates the turfctl command tree.
func NewRootCmd(opts Options) *cobra.Command {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Open == nil {
		opts.Open = openFromEnv
	}
	s := &state{opts: opts, output: "text"}

	rootCmd := &cobra.Command{
		Use:   "turfctl",
		Short: "Operator tool for the TurfEase platform",
		Long: `turfctl runs schema migrations, seeds the administrator account and
reviews turf owner applications. It reads the same environment as the api.`,
		SilenceUsage: true,
	}
	rootCmd.SetOut(opts.Out)

	rootCmd.PersistentFlags().StringVarP(&s.output, "output", "o", s.output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&s.verbose, "verbose", "v", false, "Verbose logging")

	rootCmd.AddCommand(newMigrateCmd(s))
	rootCmd.AddCommand(newCreateAdminCmd(s))
	rootCmd.AddCommand(newOwnersCmd(s))

	return rootCmd
}

// Execute runs turfctl against the process environment.
func Execute() {
	if err := NewRootCmd(Options{}).Execute(); err != nil {
		os.Exit(1)
	}
}
