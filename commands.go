package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"coursegen-go/cache"
	"coursegen-go/circuitbreaker"
	"coursegen-go/config"

	"github.com/spf13/cobra"
)

// openStore opens the cache store for one-shot CLI commands.
func openStore(cfg config.Config) (*cache.Store, error) {
	return cache.Open(cfg.Cache.Dir, time.Duration(cfg.Cache.TTLInSeconds)*time.Second)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func newCacheCmd() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the result cache",
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache entry counts and size",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			return printJSON(store.Stats())
		},
	}

	var pattern string
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete cache entries, optionally only keys containing --pattern",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			cleared := store.Clear(pattern)
			return printJSON(map[string]any{"cleared": cleared, "pattern": pattern})
		},
	}
	clearCmd.Flags().StringVar(&pattern, "pattern", "", "only delete keys containing this substring")

	cleanupCmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Evict expired cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			cleaned := store.CleanupExpired()
			return printJSON(map[string]any{"cleaned": cleaned})
		},
	}

	cacheCmd.AddCommand(statsCmd, clearCmd, cleanupCmd)
	return cacheCmd
}

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Run all health checks and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.close()

			report := a.checker.CheckHealth()
			if err := printJSON(report); err != nil {
				return err
			}
			if report.Status != "healthy" {
				os.Exit(1)
			}
			return nil
		},
	}
}

// breakerByName returns the app breaker with the given name, or nil.
func (a *app) breakerByName(name string) *circuitbreaker.CircuitBreaker {
	switch name {
	case a.llmBreaker.Name():
		return a.llmBreaker
	case a.imageBreaker.Name():
		return a.imageBreaker
	default:
		return nil
	}
}
