package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	logAdapter "github.com/bft-labs/bulkd/internal/adapters/log"
	"github.com/bft-labs/bulkd/internal/app"
	"github.com/bft-labs/bulkd/internal/cliconfig"
	"github.com/bft-labs/bulkd/internal/ports"
)

const longHelp = `Group newline-delimited commands from TCP clients into bulks and log them.

Each connection is cut into static bulks of <bulk_size> commands. A block
opened by a "{" line and closed by the matching "}" line is logged as one
dynamic bulk regardless of size. Every bulk is printed as "bulk: a, b, c"
and written to its own bulk<time>_id<worker>_<seq>.log file.

Configuration is read from the config file, then BULKD_* environment
variables, then flags and positional arguments.`

var exampleUsage = strings.TrimSpace(`
  bulkd 9000 3
  bulkd --port 9000 --bulk-size 3 --output-dir /var/log/bulks
  bulkd --config $HOME/.bulkd/config.toml --metrics-addr :9102
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	log, _ := cliconfig.NewLogger(os.Stderr, "info")

	root := &cobra.Command{
		Use:     "bulkd [port] [bulk_size]",
		Short:   "Batch TCP command streams into bulks and log them",
		Long:    longHelp,
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		Args:    cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// BULKD_* override the file but not explicit flags
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			// Positional arguments behave like explicit flags
			if err := cliconfig.ApplyArgs(&cfg, args); err != nil {
				return err
			}
			if len(args) > 0 {
				changed["port"] = true
			}
			if len(args) > 1 {
				changed["bulk-size"] = true
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			lg, err := cliconfig.NewLogger(os.Stderr, cfg.LogLevel)
			if err != nil {
				return err
			}
			log = lg
			log.Info().Interface("config", cfg).Msg("configuration")

			return run(cmd.Context(), cfg, cfgFile, changed, log)
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.bulkd/config.toml)")
	root.Flags().StringVar(&cfg.Host, "host", cfg.Host, "interface to listen on (empty for all)")
	root.Flags().IntVar(&cfg.Port, "port", cfg.Port, "TCP port to listen on")
	root.Flags().IntVar(&cfg.BulkSize, "bulk-size", cfg.BulkSize, "commands per static bulk")
	root.Flags().StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "directory for bulk log files")
	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	root.Flags().StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "address to serve /metrics on (disabled when empty)")
	root.Flags().DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "maximum time to drain queued bulks on shutdown")

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("bulkd")
		os.Exit(1)
	}
}

func run(parent context.Context, cfg cliconfig.Config, cfgFile string, changed map[string]bool, log zerolog.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := logAdapter.NewZerologAdapterWithLogger(log)

	agent, err := app.NewAgent(app.AgentConfig{
		ListenAddr:      cfg.ListenAddr(),
		BulkSize:        cfg.BulkSize,
		OutputDir:       cfg.OutputDir,
		MetricsAddr:     cfg.MetricsAddr,
		ShutdownTimeout: cfg.ShutdownTimeout,
		Console:         os.Stdout,
	}, logger)
	if err != nil {
		return fmt.Errorf("create agent: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return agent.Run(gctx)
	})
	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		watcher := cliconfig.NewWatcher(cfgFile, cfg, changed, agent.SetBulkSize, logger)
		g.Go(func() error {
			if err := watcher.Run(gctx); err != nil {
				logger.Warn("config watcher stopped", ports.Err(err))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("stopped")
	return nil
}
