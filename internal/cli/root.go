// Package cli wires the cobra root command: flag parsing, opening the
// target file, and starting the three long-lived tasks (input
// producer, search worker, render coordinator) over their channels.
// The command-binding idiom (PersistentPreRunE, env var fallbacks,
// SilenceUsage) follows the teacher's internal/cmd/root.go.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nlindqvist/bigless/internal/accessor"
	"github.com/nlindqvist/bigless/internal/config"
	"github.com/nlindqvist/bigless/internal/coordinator"
	"github.com/nlindqvist/bigless/internal/input"
	"github.com/nlindqvist/bigless/internal/logging"
	"github.com/nlindqvist/bigless/internal/protocol"
	"github.com/nlindqvist/bigless/internal/render"
	"github.com/nlindqvist/bigless/internal/worker"
)

// Version is overridden at build time via -ldflags.
var Version = "dev"

var (
	caseInsensitiveFlag bool
	pageLinesFlag       int
	noColorFlag         bool
	verboseFlag         bool
	homeDirFlag         string
)

// NewRootCmd builds the bigless root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "bigless PATH",
		Short:         "A pager for huge, optionally compressed log files",
		Version:       fmt.Sprintf("bigless v%s", Version),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.SetHomeDir(homeDirFlag)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0])
		},
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&caseInsensitiveFlag, "ignore-case", "i", false, "Default searches to case-insensitive")
	flags.IntVar(&pageLinesFlag, "page-lines", 0, "Lines per page (default: terminal height)")
	flags.BoolVar(&noColorFlag, "no-color", false, "Disable ANSI color output")
	flags.BoolVar(&verboseFlag, "verbose", false, "Write a debug log to ~/.bigless/bigless.log")
	flags.StringVar(&homeDirFlag, "config-dir", "", "Override config directory (default: ~/.bigless)")

	if os.Getenv("NO_COLOR") != "" {
		noColorFlag = true
	}
	if v := os.Getenv("BIGLESS_HOME"); v != "" && homeDirFlag == "" {
		homeDirFlag = v
	}

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func run(path string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(verboseFlag)
	logger.WithField("path", path).Info("opening file")

	acc, err := accessor.Open(path, accessor.Options{SoftLineCapBytes: cfg.SoftLineCapBytes})
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer acc.Close()

	width, height := 80, 24
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width, height = w, h
	}
	pageLines := pageLinesFlag
	if pageLines <= 0 {
		pageLines = height - 2
	}

	commands := make(chan protocol.Command, protocol.ChannelCapacity)
	responses := make(chan protocol.Response, protocol.ChannelCapacity)
	actions := make(chan input.Action, protocol.ChannelCapacity)

	w := worker.New(acc, commands, responses, logger)
	go w.Run()

	renderer := render.New(os.Stdout, noColorFlag)
	coord := coordinator.New(coordinator.Config{
		PageLines:   pageLines,
		Width:       width,
		Height:      height,
		SmartCase:   cfg.SmartCaseDefault && !caseInsensitiveFlag,
		HistorySize: 64,
	}, renderer, commands, responses, actions, w)

	producer := input.New(actions)
	stopResize := make(chan struct{})
	go producer.WatchResize(stopResize)

	go func() {
		if err := producer.Run(); err != nil {
			logger.WithError(err).Warn("input producer exited")
		}
		coord.Stop()
	}()

	fmt.Fprint(os.Stdout, "\033[?1049h") // enter alternate screen
	defer fmt.Fprint(os.Stdout, "\033[?1049l")

	coord.Run()
	close(stopResize)

	// Await the worker's own shutdown before restoring the terminal,
	// so the alternate-screen-exit defer never races a scan still
	// draining in response to the Shutdown command above.
	<-w.Done()
	return nil
}
