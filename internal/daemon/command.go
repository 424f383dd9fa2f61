package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tOgg1/mosaic/internal/catalog"
	"github.com/tOgg1/mosaic/internal/config"
	"github.com/tOgg1/mosaic/internal/logging"
)

// Execute runs the mosaicd command line.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

type rootFlags struct {
	configFile string
	logLevel   string
	logFormat  string
}

func newRootCmd(version string) *cobra.Command {
	flags := &rootFlags{}
	loader := config.NewLoader()

	cmd := &cobra.Command{
		Use:           "mosaicd",
		Short:         "Reference navigation backend for Mosaic",
		Long:          "mosaicd serves a SQLite media catalog over the single-step navigation API (HTTP and gRPC).",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	cmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "config file (default is $HOME/.config/mosaic/config.yaml)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override logging level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "override logging format (json, console)")
	cmd.PersistentFlags().String("catalog", "", "catalog database path")
	_ = loader.Viper().BindPFlag("catalog.path", cmd.PersistentFlags().Lookup("catalog"))

	cmd.AddCommand(newServeCmd(version, flags, loader), newSeedCmd(flags, loader))
	return cmd
}

func setup(flags *rootFlags, loader *config.Loader) (*config.Config, error) {
	if flags.configFile != "" {
		loader.SetConfigFile(flags.configFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Logging.Format = flags.logFormat
	}
	logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		EnableCaller: cfg.Logging.EnableCaller,
	})
	if err := cfg.EnsureDirectories(); err != nil {
		logger := logging.Component("mosaicd")
		logger.Warn().Err(err).Msg("failed to create directories")
	}
	if used := loader.ConfigFileUsed(); used != "" {
		logger := logging.Component("mosaicd")
		logger.Debug().Str("config_file", used).Msg("loaded config file")
	}
	return cfg, nil
}

func openCatalog(ctx context.Context, cfg *config.Config) (*catalog.Catalog, error) {
	return catalog.Open(ctx, cfg.CatalogPath(), catalog.Options{
		BusyTimeout: time.Duration(cfg.Catalog.BusyTimeoutMs) * time.Millisecond,
	})
}

func newServeCmd(version string, flags *rootFlags, loader *config.Loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog over HTTP and gRPC",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(flags, loader)
			if err != nil {
				return err
			}
			logger := logging.Component("mosaicd")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cat, err := openCatalog(ctx, cfg)
			if err != nil {
				return err
			}
			defer cat.Close()

			count, err := cat.Count(ctx)
			if err != nil {
				return err
			}
			logger.Info().
				Str("version", version).
				Str("catalog", cfg.CatalogPath()).
				Int("items", count).
				Msg("mosaicd starting")

			d, err := New(cat, logger, Options{
				HTTPAddr: cfg.Daemon.HTTPAddr,
				GRPCAddr: cfg.Daemon.GRPCAddr,
				Token:    cfg.Backend.Token,
			})
			if err != nil {
				return err
			}
			return d.Run(ctx)
		},
	}
	cmd.Flags().String("http-addr", "", "HTTP listen address")
	cmd.Flags().String("grpc-addr", "", "gRPC listen address (empty string disables)")
	_ = loader.Viper().BindPFlag("daemon.http_addr", cmd.Flags().Lookup("http-addr"))
	_ = loader.Viper().BindPFlag("daemon.grpc_addr", cmd.Flags().Lookup("grpc-addr"))
	return cmd
}

func newSeedCmd(flags *rootFlags, loader *config.Loader) *cobra.Command {
	opts := catalog.DefaultSeedOptions()
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the catalog with generated demo items",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(flags, loader)
			if err != nil {
				return err
			}
			cat, err := openCatalog(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cat.Close()

			n, err := cat.Seed(cmd.Context(), opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d items into %s\n", n, cfg.CatalogPath())
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.Count, "count", opts.Count, "number of items to generate")
	cmd.Flags().DurationVar(&opts.Span, "span", opts.Span, "time span covered by capture times")
	cmd.Flags().Float64Var(&opts.UntimedShare, "untimed-share", opts.UntimedShare, "fraction of items without any capture time")
	cmd.Flags().Float64Var(&opts.NestedShare, "nested-share", opts.NestedShare, "fraction of items with only an original capture time")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "random seed (0 = time based)")
	return cmd
}
