package mosaictui

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tOgg1/mosaic/internal/config"
	"github.com/tOgg1/mosaic/internal/mosaictui/state"
)

// Execute runs the mosaic command line.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

type rootFlags struct {
	configFile string
	logLevel   string
	at         string
	newest     bool
	noMouse    bool
}

func newRootCmd(version string) *cobra.Command {
	flags := &rootFlags{}
	loader := config.NewLoader()

	cmd := &cobra.Command{
		Use:           "mosaic",
		Short:         "Chronological media browser",
		Long:          "Terminal browser that scrolls a photo library by capture time, with a timeline scrubber for jumping across years.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags, loader)
			if err != nil {
				return err
			}
			run := RunOptions{
				Newest:        flags.newest,
				ThemeFromFlag: cmd.Flags().Changed("theme"),
			}
			if strings.TrimSpace(flags.at) != "" {
				at, ok := parseJumpTime(flags.at, time.Now().UTC())
				if !ok {
					return fmt.Errorf("invalid --at time %q", flags.at)
				}
				run.At = at
			}
			if flags.noMouse {
				cfg.TUI.Mouse = false
			}
			return Run(cfg, run)
		},
	}

	cmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "config file (default is $HOME/.config/mosaic/config.yaml)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override logging level (debug, info, warn, error)")
	cmd.Flags().StringVar(&flags.at, "at", "", "start at this time instead of the saved position (2016-05-08, 2016, -3y)")
	cmd.Flags().BoolVar(&flags.newest, "newest", false, "start at the newest item instead of the saved position")
	cmd.Flags().BoolVar(&flags.noMouse, "no-mouse", false, "disable mouse wheel and click handling")
	cmd.Flags().String("theme", "", "theme: default|high-contrast")
	cmd.Flags().String("backend", "", "backend base URL for the http transport")
	cmd.Flags().String("transport", "", "backend transport: http|grpc")
	cmd.Flags().String("grpc-addr", "", "backend gRPC address")
	v := loader.Viper()
	_ = v.BindPFlag("tui.theme", cmd.Flags().Lookup("theme"))
	_ = v.BindPFlag("backend.url", cmd.Flags().Lookup("backend"))
	_ = v.BindPFlag("backend.transport", cmd.Flags().Lookup("transport"))
	_ = v.BindPFlag("backend.grpc_addr", cmd.Flags().Lookup("grpc-addr"))

	cmd.AddCommand(newJumpCmd(flags, loader))
	return cmd
}

func loadConfig(flags *rootFlags, loader *config.Loader) (*config.Config, error) {
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
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newJumpCmd(flags *rootFlags, loader *config.Loader) *cobra.Command {
	return &cobra.Command{
		Use:   "jump <time>",
		Short: "Ask a running browser to jump to a time",
		Long:  "Writes a jump request that a running mosaic browser picks up immediately. Accepts dates (2016-05-08), years (2016), year-months (2016-05) and offsets from now (-3y, -6M, -2w).",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			at, ok := parseJumpTime(args[0], time.Now().UTC())
			if !ok {
				return fmt.Errorf("invalid time %q", args[0])
			}
			cfg, err := loadConfig(flags, loader)
			if err != nil {
				return err
			}
			if err := state.WriteJumpRequest(cfg.JumpRequestPath(), at); err != nil {
				return fmt.Errorf("write jump request: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "requested jump to %s\n", at.Format(time.RFC3339))
			return nil
		},
	}
}
