// Command firetimes previews the fire instants of triggers defined in a
// YAML or TOML configuration file.
//
//	firetimes preview --config triggers.yaml --count 5
//	firetimes preview --config triggers.yaml --watch
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	trigger "github.com/netresearch/go-trigger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "firetimes",
		Short:         "Inspect repeating interval triggers",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newPreviewCmd())
	return root
}

type previewOptions struct {
	config  string
	count   int
	from    string
	verbose bool
	watch   bool
}

func newPreviewCmd() *cobra.Command {
	opts := &previewOptions{}
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the next fire instants of every configured trigger",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPreview(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.config, "config", "c", "", "trigger configuration file (.yaml, .yml or .toml)")
	cmd.Flags().IntVarP(&opts.count, "count", "n", 10, "number of fire instants per trigger")
	cmd.Flags().StringVar(&opts.from, "from", "", "only list instants at or after this RFC 3339 time")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "log trigger activity to stderr")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "print again whenever the configuration file changes")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func runPreview(cmd *cobra.Command, opts *previewOptions) error {
	if opts.count <= 0 {
		return fmt.Errorf("--count must be positive, got %d", opts.count)
	}

	var from time.Time
	if opts.from != "" {
		var err error
		if from, err = time.Parse(time.RFC3339, opts.from); err != nil {
			return fmt.Errorf("--from: %w", err)
		}
	}

	logger := trigger.DiscardLogger
	if opts.verbose {
		zl := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.RFC3339}).
			With().Timestamp().Logger()
		logger = trigger.NewZerologLogger(zl)
	}

	out := cmd.OutOrStdout()
	if err := render(out, opts, from, logger); err != nil {
		return err
	}
	if !opts.watch {
		return nil
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	var mu sync.Mutex
	return watchConfig(ctx, opts.config, logger, func() {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(out, "--- %s changed\n", opts.config)
		if err := render(out, opts, from, logger); err != nil {
			logger.Error(err, "reload failed", "config", opts.config)
			fmt.Fprintf(cmd.ErrOrStderr(), "reload: %v\n", err)
		}
	})
}

// render prints the preview of every trigger in the configuration file.
func render(out io.Writer, opts *previewOptions, from time.Time, logger trigger.Logger) error {
	file, err := trigger.LoadFile(opts.config)
	if err != nil {
		return err
	}

	for _, def := range file.Triggers {
		t, cal, err := def.Build(trigger.WithLogger(logger))
		if err != nil {
			return err
		}

		var times []time.Time
		if from.IsZero() {
			times = trigger.ComputeFireTimes(t, cal, opts.count)
		} else {
			times = previewFrom(t, cal, from, opts.count)
		}

		fmt.Fprintf(out, "%s (job %s, misfire %s)\n", def.Name, def.Job, t.MisfireInstruction())
		if len(times) == 0 {
			fmt.Fprintln(out, "  no fire times")
		}
		for _, at := range times {
			fmt.Fprintf(out, "  %s\n", at.Format(time.RFC3339Nano))
		}
		if final, ok := t.FinalFireTime(); ok {
			fmt.Fprintf(out, "  final: %s\n", final.Format(time.RFC3339Nano))
		} else {
			fmt.Fprintln(out, "  final: none (unbounded)")
		}
	}
	return nil
}

// previewFrom lists up to n instants at or after from. The upper bound is
// the trigger's final fire time when it has one, otherwise the range
// needed for n plain intervals; calendar exclusions can shorten the list.
func previewFrom(t *trigger.SimpleTrigger, cal trigger.Calendar, from time.Time, n int) []time.Time {
	to, ok := t.FinalFireTime()
	if !ok {
		to = from.Add(time.Duration(n) * t.RepeatInterval())
		if to.Before(t.StartTime()) {
			to = t.StartTime().Add(time.Duration(n) * t.RepeatInterval())
		}
	}
	return trigger.ComputeFireTimesBetween(t, cal, from, to, n)
}
