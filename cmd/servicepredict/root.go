package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"servicepredict/internal/cfg"
	"servicepredict/internal/metrics"
	"servicepredict/internal/storage"
)

var errUsage = errors.New("usage error")

type app struct {
	settings cfg.Settings
	stdout   io.Writer
	stderr   io.Writer
	metrics  *metrics.Metrics
	now      func() time.Time
}

func newApp(settings cfg.Settings, stdout, stderr io.Writer) *app {
	return &app{
		settings: settings,
		stdout:   stdout,
		stderr:   stderr,
		metrics:  metrics.New(),
		now:      time.Now,
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "servicepredict",
		Short:         "Predict the next vehicle service",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("%w: a command is required", errUsage)
		},
	}
	root.SetOut(a.stderr)
	root.SetErr(a.stderr)

	root.AddCommand(a.mileageCmd(), a.daysCmd(), a.trainCmd(), a.historyCmd())
	return root
}

// exactArgs is cobra.ExactArgs with the error marked as a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return fmt.Errorf("%w: %s expects %d arguments, got %d", errUsage, cmd.Name(), n, len(args))
		}
		return nil
	}
}

// flushMetrics writes the registry for the node-exporter textfile collector.
func (a *app) flushMetrics() {
	if a.settings.MetricsFile == "" {
		return
	}
	if err := a.metrics.WriteTextfile(a.settings.MetricsFile); err != nil {
		log.Warn().Err(err).Str("path", a.settings.MetricsFile).Msg("metrics textfile write failed")
	}
}

// openJournal returns nil when no journal is configured or it cannot be
// opened.
func (a *app) openJournal() *storage.Journal {
	if a.settings.JournalPath == "" {
		return nil
	}
	j, err := storage.Open(a.settings.JournalPath)
	if err != nil {
		log.Warn().Err(err).Msg("journal initialization failed, continuing without persistence")
		return nil
	}
	return j
}
