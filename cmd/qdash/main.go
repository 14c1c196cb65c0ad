package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ogulcanaydogan/qdash/internal/config"
	"github.com/ogulcanaydogan/qdash/internal/dashboard"
	"github.com/ogulcanaydogan/qdash/internal/dataset"
	"github.com/ogulcanaydogan/qdash/internal/payload"
	"github.com/ogulcanaydogan/qdash/internal/pipeline"
)

const (
	ExitOK                 = 0
	ExitFailure            = 1
	ExitDataUnavailable    = 10
	ExitMissingInput       = 11
	ExitPlaceholderMissing = 12
	ExitSchemaMismatch     = 14
	ExitNondeterministic   = 15
)

type cliError struct {
	code int
	err  error
}

func (e cliError) Error() string { return e.err.Error() }

func (e cliError) Unwrap() error { return e.err }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	st := &cliState{}
	err := execute(ctx, newRootCommand(st), st)
	stop()
	if err != nil {
		var ce cliError
		if errors.As(err, &ce) {
			fmt.Fprintln(os.Stderr, "ERROR:", ce.err)
			os.Exit(ce.code)
		}
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(ExitFailure)
	}
}

// execute runs root and flushes the logger whether or not the command failed.
func execute(ctx context.Context, root *cobra.Command, st *cliState) error {
	err := root.ExecuteContext(ctx)
	if st.logger != nil {
		_ = st.logger.Sync()
	}
	return err
}

// cliState is filled in by the root command before any subcommand runs.
type cliState struct {
	configPath string
	verbose    bool
	quiet      bool
	cfg        config.Config
	logger     *zap.Logger

	buildLogger func(verbose, quiet bool) (*zap.Logger, error)
}

func newRootCommand(st *cliState) *cobra.Command {
	root := &cobra.Command{
		Use:           "qdash",
		Short:         "Train a classifier and build a self-contained confidence dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			build := st.buildLogger
			if build == nil {
				build = newLogger
			}
			logger, err := build(st.verbose, st.quiet)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			st.logger = logger

			// init creates the config file, so it must not require one.
			if cmd.Name() == "init" {
				st.cfg = config.Default()
				return nil
			}
			cfg, err := config.Resolve(st.configPath)
			if err != nil {
				return err
			}
			st.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&st.configPath, "config", "", "config file (default ./"+config.DefaultPath+" when present)")
	root.PersistentFlags().BoolVarP(&st.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().BoolVarP(&st.quiet, "quiet", "q", false, "log warnings and errors only")

	root.AddCommand(newInitCommand(st))
	root.AddCommand(newDataCommand(st))
	root.AddCommand(newDashboardCommand(st))
	root.AddCommand(newReportCommand(st))
	return root
}

func newLogger(verbose, quiet bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	zc.DisableStacktrace = true
	zc.Sampling = nil
	switch {
	case verbose:
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case quiet:
		zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	return zc.Build()
}

// exitError maps pipeline failures to process exit codes.
func exitError(err error) error {
	if err == nil {
		return nil
	}
	code := ExitFailure
	switch {
	case errors.Is(err, dataset.ErrDataUnavailable):
		code = ExitDataUnavailable
	case errors.Is(err, dashboard.ErrMissingInput):
		code = ExitMissingInput
	case errors.Is(err, dashboard.ErrPlaceholderMissing):
		code = ExitPlaceholderMissing
	case errors.Is(err, payload.ErrSchemaMismatch):
		code = ExitSchemaMismatch
	case errors.Is(err, pipeline.ErrNondeterministic):
		code = ExitNondeterministic
	}
	return cliError{code: code, err: err}
}
