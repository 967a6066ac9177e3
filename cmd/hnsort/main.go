package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pevans/hnsort/config"
	"github.com/pevans/hnsort/pipeline"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Exit codes for the run and verify commands.
const (
	exitOK         = 0
	exitError      = 1
	exitCollection = 2
	exitInvalidAge = 3
	exitOutOfOrder = 4
	exitPersist    = 5
)

// exitCodeError carries a process exit code up to main.
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string {
	return e.err.Error()
}

func (e *exitCodeError) Unwrap() error {
	return e.err
}

// exitCodeFor maps a failure kind to its exit code.
func exitCodeFor(kind pipeline.Kind) int {
	switch kind {
	case pipeline.KindNone:
		return exitOK
	case pipeline.KindCollection:
		return exitCollection
	case pipeline.KindInvalidAge:
		return exitInvalidAge
	case pipeline.KindOutOfOrder:
		return exitOutOfOrder
	case pipeline.KindPersist:
		return exitPersist
	default:
		return exitError
	}
}

// withExitCode tags err with the exit code for its kind.
func withExitCode(err error) error {
	if err == nil {
		return nil
	}
	return &exitCodeError{code: exitCodeFor(pipeline.Classify(err)), err: err}
}

// app holds state shared by all commands.
type app struct {
	cfgFile  string
	logLevel string
	log      *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "hnsort",
		Short: "Collect the newest Hacker News items and check they are sorted",
		Long: `hnsort collects a fixed-size batch from the "newest" listing, writes it
to a file, and then checks that the batch runs from newest to oldest.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.hnsort/config.yaml)")
	root.PersistentFlags().StringVarP(&a.logLevel, "loglevel", "l", "", "Set log level. Available: debug, info, warn, error")

	root.AddCommand(
		newRunCmd(a),
		newVerifyCmd(a),
		newHistoryCmd(a),
		newWatchCmd(a),
		newConfigCmd(a),
	)

	return root
}

// loadConfig loads the configuration and sets up the logger. The --loglevel
// flag wins over logging.level.
func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return nil, err
	}

	if a.logLevel != "" {
		cfg.Logging.Level = strings.ToLower(a.logLevel)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	a.log = newLogger(cfg.Logging.Level, cmd.ErrOrStderr())
	return cfg, nil
}

// newLogger creates a text logger writing to out at level.
func newLogger(level string, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)

	return log
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		var exitErr *exitCodeError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}
		os.Exit(exitError)
	}
}
