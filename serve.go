package main

import (
	"net/http"

	"coursegen-go/logcolors"
	"coursegen-go/middleware"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the diagnostics HTTP server",
		Long: `Run the diagnostics HTTP server.

Exposes health checks, metrics, cache management and circuit breaker
status for the generation toolkit.`,
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

			router := mux.NewRouter()
			a.setupRoutes(router)

			c := cors.New(cors.Options{
				AllowedOrigins:   []string{"*"},
				AllowCredentials: false,
			})

			limiter := middleware.NewIPRateLimiter(
				rate.Limit(cfg.Server.AdminRateLimitPerSecond),
				cfg.Server.AdminRateLimitBurst,
			)

			// Middleware chain: logging -> cors -> rate limit -> api key
			handler := middleware.LoggingMiddleware(router)
			handler = c.Handler(handler)
			handler = middleware.RateLimitMiddleware(limiter)(handler)
			handler = middleware.APIKeyMiddleware(cfg.Server.AdminAPIKey, []string{"/health", "/"})(handler)

			log.Infof("%s Server listening on port %s", logcolors.LogServer, cfg.Server.Port)
			return http.ListenAndServe(":"+cfg.Server.Port, handler)
		},
	}
}
