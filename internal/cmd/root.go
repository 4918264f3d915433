// Package cmd implements the eduauth command line.
package cmd

import (
	"context"

	"github.com/cccteam/eduauth/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "eduauth",
	Short: "Session and role services for the learning platform",
	Long: `eduauth serves the privileged account handlers of the learning platform
and provides a command line client for its session lifecycle.

Configuration is read from the environment. Values from dotenv files given
with --env-file (default .env) fill in variables that are not already set.`,
	SilenceUsage: true,
}

var envFiles []string

// ExecuteContext runs the root command with ctx.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load (default .env)")
}

func loadConfig() (*config.Config, error) {
	return config.Load(envFiles...)
}
