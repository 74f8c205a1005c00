package cmd

import (
	"fmt"
	"os"

	"marker-sync/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// configFile is the path given with --config.
var configFile string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "marker-sync",
	Short: "Marker Sync Service",
	Long: `Marker Sync mirrors spawn, first-spawn and warp locations into the
marker sets of a map renderer and keeps them up to date.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console format with the development config for readable CLI errors
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yaml", "path to the config file")
}
