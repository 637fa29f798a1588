package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"remedy/internal/config"
	"remedy/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string
	workDir    string

	// Loaded configuration, available to all subcommands after PersistentPreRunE.
	cfg *config.Config

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "remedy",
	Short: "remedy - self-correcting command execution engine",
	Long: `remedy executes shell commands under a destructive-operation policy gate
and, when a command fails, classifies the error, patches the offending
source, and retries, up to a bounded number of attempts.

Commands are never retried blindly: every retry is preceded by an error
classification and, where a target file can be identified, a concrete
source correction with a backup of the original content.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if configPath != "" {
			cfg, err = config.Load(configPath)
		} else {
			cfg, err = config.LoadFromWorkspace(workDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if workDir != "" {
			cfg.Execution.WorkingDirectory = workDir
		}
		if verbose {
			cfg.Logging.DebugMode = true
		}

		if err := logging.Initialize(cfg.Execution.WorkingDirectory); err != nil {
			logger.Warn("file logging unavailable", zap.Error(err))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default: <workdir>/.remedy/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&workDir, "workdir", "w", "", "working directory for execution and patching")

	rootCmd.AddCommand(healCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(toolsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
