package commands

import (
	"fmt"

	"annbench/internal/config"
	"annbench/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	logLevel   string

	// Loaded before any subcommand runs
	globalConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "annbench",
	Short: "Benchmark approximate nearest neighbour indexes",
	Long: `annbench - build, query and measure approximate nearest neighbour indexes.

Supported algorithms:
  hnsw  hierarchical navigable small-world graph (M, efConstruction)
  ivf   inverted file over k-means lists (nlist)
  flat  exhaustive scan

Examples:
  # Run the default sweep
  annbench run

  # Run a sweep from a config file and print JSON
  annbench run --config sweep.yaml --json

  # Serve an adapter and benchmark it from another process
  annbench serve --addr :8080
  annbench run --remote http://localhost:8080`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		globalConfig = cfg
		level := cfg.Log.Level
		if logLevel != "" {
			level = logLevel
		}
		return logger.InitLogger(level, cfg.Log.File)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ./"+config.FileName+" if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		cfg, err := config.FromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", configPath, err)
		}
		return cfg, nil
	}
	cfg, err := config.NewConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
