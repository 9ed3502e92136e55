package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/albionflip/internal/config"
	"github.com/newthinker/albionflip/internal/logger"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "albionflip",
	Short: "albionflip - Albion Online market flipping scanner",
	Long: `albionflip scans Albion Online market prices across the royal cities,
Brecilien and the Black Market, and reports items that can be bought in one
city and sold to a buy order in another at a profit after tax.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

// loadConfig reads the config file, falling back to defaults when none is given
func loadConfig(log *zap.Logger) (*config.Config, error) {
	if cfgFile == "" {
		log.Debug("no config file specified, using defaults")
		return config.Defaults(), nil
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger; --debug forces the development preset
func newLogger(level string) *zap.Logger {
	if debug {
		return logger.Must(true, "debug")
	}
	return logger.Must(false, level)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
