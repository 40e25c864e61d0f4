// Package main is the coursegen command line entry point.
package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

// cfgFile is the optional YAML config override, merged over the environment.
var cfgFile string

func init() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel) // Set to InfoLevel (change to DebugLevel for detailed logs)
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "coursegen",
		Short: "Course content generation toolkit",
		Long: `Course content generation toolkit.

Wraps text- and image-generation API calls with caching, rate limiting,
circuit breaking and retries, and serves a diagnostics HTTP surface for
health, metrics and cache management.`,
		Version: version,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file merged over environment variables")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newCacheCmd())
	rootCmd.AddCommand(newHealthCmd())
	rootCmd.AddCommand(newGenerateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
