package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/loykin/dumbmem/internal/config"
	"github.com/loykin/dumbmem/internal/logger"
	"github.com/loykin/dumbmem/internal/manager"
	"github.com/loykin/dumbmem/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the CLI and maps any error to exit status 1.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCommand(ctx, nil)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}

// GlobalFlags holds flags that are not part of the resolved configuration.
type GlobalFlags struct {
	ConfigPath string
}

// newRootCommand builds the single dumbmem command. opts are passed to the
// monitor, which lets tests replace signal handling and stdio.
func newRootCommand(ctx context.Context, opts []manager.Option) *cobra.Command {
	flags := &GlobalFlags{}
	root := &cobra.Command{
		Use:   "dumbmem [flags] \"<command>\"",
		Short: "Record the memory usage of a command over time",
		Long: `dumbmem runs a command and appends its resident memory, in MiB, to an
output file at a fixed interval until the command exits or dumbmem is
interrupted. Interrupting dumbmem kills the command.

The command is split into words with shell quoting rules and executed
directly, without a shell. Unquoted shell operators (; & | < >) are
rejected; quote them, or wrap pipelines and redirections in sh -c '...'.

Examples:
  dumbmem -o mem.log "python train.py --epochs 3"
  dumbmem -n 5 -o mem.log "sh -c 'make -j8 && make test'"
  dumbmem --metrics-listen 127.0.0.1:9100 -o mem.log "./server"`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(ctx, cmd, flags, args, opts)
		},
	}

	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (optional)")
	f := root.Flags()
	f.IntP("interval", "n", config.DefaultInterval, "sampling interval in whole seconds (>= 1)")
	f.StringP("output", "o", "", "file to append samples to (required)")
	f.String("log-level", "info", "diagnostic log level: debug, info, warn, error")
	f.String("log-format", "text", "diagnostic log format: text or json")
	f.String("log-file", "", "write diagnostic logs to this rotated file instead of stderr")
	f.String("metrics-listen", "", "serve /metrics and /status on this address (e.g. 127.0.0.1:9100)")
	f.String("metrics-base-path", "", "mount the metrics and status routes under this path prefix")
	return root
}

func run(ctx context.Context, cmd *cobra.Command, flags *GlobalFlags, args []string, opts []manager.Option) error {
	cfg, err := config.Load(flags.ConfigPath, cmd.Flags())
	if err != nil {
		return err
	}
	if len(args) == 1 {
		cfg.Command = args[0]
	}

	log, closer, err := logger.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	if cfg.Metrics.Listen != "" {
		if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
			log.Warn("failed to register metrics", "error", err)
		}
	}

	mcfg := manager.Config{
		Command:         cfg.Command,
		Interval:        cfg.IntervalDuration(),
		Wake:            cfg.Wake,
		Output:          cfg.Output,
		MetricsListen:   cfg.Metrics.Listen,
		MetricsBasePath: cfg.Metrics.BasePath,
	}
	all := append([]manager.Option{manager.WithLogger(log)}, opts...)
	res, err := manager.Run(ctx, mcfg, all...)
	if err != nil {
		return err
	}
	log.Debug("run complete", "reason", res.Reason, "samples", res.Samples, "child_exit_code", res.Outcome.ExitCode)
	return nil
}
