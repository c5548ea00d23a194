// Package main is the operator CLI for the workshop registration service.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aura-webinar/workshops/config"
)

var version = "dev"

var (
	verbose bool
	logger  = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:           "adminctl",
	Short:         "Operate the workshop registration service",
	Long:          `Operator tasks for the workshop registration service: password hashes for admin accounts, deadline status, roster dumps and database migrations. Settings come from the same environment (.env) as the server.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			cfg := zap.NewDevelopmentConfig()
			cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
			cfg.OutputPaths = []string{"stderr"}
			if l, err := cfg.Build(); err == nil {
				logger = l
			}
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr")
}

// loadConfig is a var so tests can substitute it.
var loadConfig = config.Load

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
