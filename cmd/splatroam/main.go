package main

import (
	"fmt"
	"os"

	"github.com/philipparndt/splatroam/internal/app"
	"github.com/philipparndt/splatroam/internal/config"
	"github.com/philipparndt/splatroam/internal/kvstore"
	"github.com/philipparndt/splatroam/internal/logging"
	"github.com/philipparndt/splatroam/internal/metrics"
	"github.com/philipparndt/splatroam/internal/persistence"
	"github.com/philipparndt/splatroam/pkg/pathstore"
	"github.com/philipparndt/splatroam/version"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// env is shared by all commands and filled in before any of them runs
type env struct {
	configDir string
	logLevel  string
	log       zerolog.Logger
	metrics   *metrics.Instruments
}

func newRootCmd() *cobra.Command {
	e := &env{}

	rootCmd := &cobra.Command{
		Use:   "splatroam",
		Short: "Author and replay camera roaming paths through point-cloud scenes",
		Long: `splatroam is a viewer for splat point clouds that lets you place named
multi-point paths in the scene, edit them, and fly the camera along a smooth
curve through them. Paths are stored locally and can be edited headless.`,
		Version:       version.GetFullVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&e.configDir, "config", ".", "directory containing "+config.FileName)
	rootCmd.PersistentFlags().StringVar(&e.logLevel, "log-level", "", "log level (overrides the config file)")

	rootCmd.AddCommand(
		newViewCmd(e),
		newInfoCmd(e),
		newPathsCmd(e),
		newRoamCmd(e),
		newVersionCmd(),
	)
	return rootCmd
}

func (e *env) setup(cmd *cobra.Command) error {
	if err := config.Load(e.configDir); err != nil {
		return err
	}

	level := e.logLevel
	if level == "" {
		level = config.GetString("logLevel")
	}
	log, err := logging.New(cmd.ErrOrStderr(), level, config.GetString("logFormat"))
	if err != nil {
		return err
	}
	e.log = log

	e.metrics = metrics.Nop()
	if config.GetBool("metrics.enabled") {
		m, err := metrics.New()
		if err != nil {
			return fmt.Errorf("failed to create metrics: %w", err)
		}
		e.metrics = m
	}
	return nil
}

// openStore opens the configured slot store and returns a path store seeded
// from it with write-through persistence attached
func (e *env) openStore() (*pathstore.Store, func() error, error) {
	sc := config.GetStorageConfig()
	kv, err := kvstore.New(kvstore.Config{Type: sc.Type, Path: sc.Path}, e.log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open storage: %w", err)
	}

	adapter := persistence.New(kv, app.StorageOptions(sc), e.log, e.metrics)
	state := adapter.Load()
	store := pathstore.New()
	store.Load(state.Paths, state.Active)
	adapter.Attach(store)
	return store, kv.Close, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
