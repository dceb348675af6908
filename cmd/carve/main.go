package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chazu/carve/internal/config"
	"github.com/chazu/carve/internal/logger"
)

var (
	flags config.Flags
	cfg   *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "carve",
	Short: "Crop triangle meshes with exact BSP booleans",
	Long: `carve combines closed triangle meshes with union, intersect and subtract.
Its main use is cropping a model with a placed cylinder, either directly
or through a small Lisp recipe that names shapes, placements and outputs.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(&flags)
		if err != nil {
			return err
		}
		return logger.Init(cfg.Logging.Level, cfg.Logging.LogFile)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	flags.Register(rootCmd.PersistentFlags())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
