package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"servicepredict/internal/cfg"
	"servicepredict/internal/common"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code. Only prediction
// values are written to stdout.
func run(args []string, stdout, stderr io.Writer) int {
	setupLogging(stderr, zerolog.WarnLevel)

	settings, err := cfg.Load("")
	if err != nil {
		log.Warn().Err(err).Msg("config load failed, using defaults")
		settings = cfg.Defaults()
	}
	zerolog.SetGlobalLevel(settings.Level())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(settings, stdout, stderr)
	root := a.rootCmd()
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)

	cmd, err := root.ExecuteContextC(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if errors.Is(err, errUsage) {
			fmt.Fprint(stderr, cmd.UsageString())
		}
		return common.ExitError
	}
	return common.ExitOK
}

func setupLogging(w io.Writer, level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).
		With().Timestamp().Logger()
}
