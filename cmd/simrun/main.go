// cmd/simrun/main.go

// Command simrun runs one simulation against the backend from the terminal.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dalemusser/stratasim/internal/app/system/simclient"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	backendURL string
	timeout    time.Duration
	debug      bool

	// run flags
	configPath string
	sets       []string
	verbose    bool
	csvPath    string

	// params flags
	asYAML bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "simrun",
	Short: "Run disease simulations from the command line",
	Long: `simrun sends one parameter record to the simulation backend and prints
the infection summary.

Parameters start from the defaults, then a YAML file (--config) is merged
on top, then each --set key=value is applied in order.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if debug {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one simulation and print its summary",
	Example: `  simrun run --set N=5000 --set I=25
  simrun run --config outbreak.yaml --verbose --csv curve.csv`,
	Args: cobra.NoArgs,
	RunE: runSimulation,
}

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "List the parameters with their defaults",
	Args:  cobra.NoArgs,
	RunE:  listParams,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", envOr("STRATASIM_BACKEND_URL", simclient.DefaultEndpoint), "simulation backend run endpoint")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", simclient.DefaultTimeout, "maximum wait for the backend")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging on stderr")

	runCmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML parameter file")
	runCmd.Flags().StringArrayVarP(&sets, "set", "s", nil, "override one parameter (key=value); repeatable")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "ask the backend for per-day logs and print them")
	runCmd.Flags().StringVar(&csvPath, "csv", "", "write the curve to this file as day,infections")

	paramsCmd.Flags().BoolVar(&asYAML, "yaml", false, "print the defaults as a parameter file")

	rootCmd.AddCommand(runCmd, paramsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
