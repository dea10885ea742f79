package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/papertrader/config"
	"github.com/rustyeddy/papertrader/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "papertrader",
	Short: "A paper-trading backtester for long-only strategies",
	Long: `Papertrader replays OHLCV bars and strategy signals through a paper
broker and reports return, a Sharpe-like ratio and drawdown.

It provides tools for:
  - Backtesting strategies on CSV, synthetic or Binance bars
  - Parallel parameter sweeps over the risk settings
  - SQLite and CSV trade journals with Org-mode reports
  - Generating and fetching bar data

Settings come from a YAML/JSON config file, PAPERTRADER_* environment
variables (optionally from a .env file) and command line flags, in
increasing order of precedence.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var (
	cfgFile string
	envFile string
	logDev  bool

	cfg *config.Config
	log *zap.Logger
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	defer func() {
		if log != nil {
			_ = log.Sync()
		}
	}()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config")
	rootCmd.PersistentFlags().BoolVar(&logDev, "log-dev", false, "human readable debug logging")
}

func setup(cmd *cobra.Command, args []string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	c, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	cfg = c

	l, err := logger.New(logDev || cfg.Log.Development)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	log = l
	return nil
}
