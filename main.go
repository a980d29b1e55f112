package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/username/txlens/backend/src/config"
	"github.com/username/txlens/backend/src/handlers"
	"github.com/username/txlens/backend/src/logger"
	"github.com/username/txlens/backend/src/models"
	"github.com/username/txlens/backend/src/services"
)

func defaultClusterConfig(cfg *config.AppConfig) models.ClusterConfig {
	return models.ClusterConfig{
		NumberOfCluster: cfg.DefaultNumberOfCluster,
		Metric1:         cfg.DefaultMetric1,
		Metric2:         cfg.DefaultMetric2,
		Frequency: models.FrequencyConfig{
			FrequencyUniqueKey:       models.FrequencyUniqueKeyType(cfg.DefaultFrequencyUniqueKey),
			Per:                      cfg.DefaultFrequencyPer,
			DistanceMeasure:          cfg.DefaultDistanceMeasure,
			LinkageMethod:            cfg.DefaultLinkageMethod,
			NumberOfClusterForString: cfg.DefaultNumberOfClusterForString,
		},
	}
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("Transaction dashboard server starting...", "apiURL", config.Cfg.APIURL)

	backendClient := services.NewBackendClient(config.Cfg.APIURL, config.Cfg.FetchTimeout, config.Cfg.ClusterCacheExpiry)
	dashboardService := services.NewDashboardService(
		backendClient,
		defaultClusterConfig(config.Cfg),
		config.Cfg.SessionTTL,
		config.Cfg.FetchTimeout,
	)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(handlers.CORSMiddleware(config.Cfg.AllowedOrigins))
	r.Use(handlers.RateLimitMiddleware(config.Cfg.RateLimitInterval, config.Cfg.RateLimitBurst))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Transaction dashboard backend is running"})
	})

	r.Route("/api", dashboardHandler.Routes)

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		logger.L.Info("Server starting", "address", serverAddr)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.L.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Cfg.FetchTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L.Error("HTTP server shutdown failed", "error", err)
	}
	if err := dashboardService.Shutdown(shutdownCtx); err != nil {
		logger.L.Warn("Backend fetches still in flight at shutdown", "error", err)
	}
	logger.L.Info("Server stopped")
}
