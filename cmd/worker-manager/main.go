// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	stderrs "errors"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"creator-trips/internal/capability"
	"creator-trips/internal/common/camunda"
	"creator-trips/internal/common/config"
	"creator-trips/internal/common/database"
	"creator-trips/internal/common/logger"
	"creator-trips/internal/common/observability"
	"creator-trips/internal/interview"
	"creator-trips/internal/providers"
	"creator-trips/internal/recommendation/creators"
	"creator-trips/internal/workers"

	nq "creator-trips/internal/workers/interview/next-question"
	ed "creator-trips/internal/workers/recommendation/enrich-destinations"
	rd "creator-trips/internal/workers/recommendation/recommend-destinations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
	})
	log.Info("starting worker manager", map[string]interface{}{"environment": cfg.App.Environment})

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Provider capability matrix ---
	matrix := capability.NewMatrix(cfg.Providers)
	for _, s := range matrix.Snapshot() {
		fields := map[string]interface{}{"provider": s.Provider, "fallback": s.Fallback}
		if s.Enabled {
			log.Info("provider enabled", fields)
			continue
		}
		fields["missing"] = s.Missing
		log.Warn("provider disabled, fallback in use", fields)
	}
	resolver := capability.NewResolver(matrix, log)

	// --- Redis response cache (optional) ---
	cache := database.NewRedis(cfg.Redis)
	pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	if err := cache.Ping(pingCtx); err != nil {
		log.Warn("redis unavailable, provider responses will not be cached", map[string]interface{}{
			"address": cfg.Redis.Address,
			"error":   err.Error(),
		})
		_ = cache.Close()
		cache = nil
	} else {
		defer cache.Close()
		log.Info("redis connected", map[string]interface{}{"address": cfg.Redis.Address})
	}
	cancelPing()

	set := providers.NewSet(cfg.Providers, matrix, providers.OptionsFrom(cfg.Recommendation, cache, log))

	// --- Zeebe ---
	zeebe, err := camunda.Connect(ctx, camunda.ConfigFrom(cfg.Camunda), log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebe.Close()

	jobWorkers := camunda.NewWorkers(zeebe.GetClient(), log)

	// --- Workers ---
	{
		wcfg := config.GetWorkerConfig(cfg, ed.TaskType)
		c := ed.LoadConfig()
		if wcfg.Timeout > 0 {
			c.Timeout = config.GetDuration(wcfg.Timeout)
		}
		if cfg.Recommendation.EnrichmentConcurrency > 0 {
			c.Concurrency = cfg.Recommendation.EnrichmentConcurrency
		}
		handler := ed.NewHandler(c, ed.SourcesFrom(set), resolver, obs, log)
		jobWorkers.Start(ed.TaskType, wcfg, handler.Handle)
	}

	{
		wcfg := config.GetWorkerConfig(cfg, rd.TaskType)
		c := rd.LoadConfig()
		if wcfg.Timeout > 0 {
			c.Timeout = config.GetDuration(wcfg.Timeout)
		}
		if cfg.Recommendation.TopN > 0 {
			c.TopN = cfg.Recommendation.TopN
		}
		handler := rd.NewHandler(c, resolver, creators.NewGater(), obs, log)
		jobWorkers.Start(rd.TaskType, wcfg, handler.Handle)
	}

	{
		wcfg := config.GetWorkerConfig(cfg, nq.TaskType)
		c := nq.LoadConfig()
		if wcfg.Timeout > 0 {
			c.Timeout = config.GetDuration(wcfg.Timeout)
		}
		var gen interview.Generator
		if set.GenAI != nil {
			gen = set.GenAI
		}
		flow := interview.NewFlow(matrix, gen, cfg.Interview.MaxQuestions, log)
		handler := nq.NewHandler(c, flow, obs, log)
		jobWorkers.Start(nq.TaskType, wcfg, handler.Handle)
	}

	log.Info("workers registered", map[string]interface{}{"running": jobWorkers.Running()})

	activities := workers.Registry(cfg)
	if path := cfg.Server.RegistryFile; path != "" {
		if err := activities.Save(path); err != nil {
			log.Warn("activity registry export failed", map[string]interface{}{"path": path, "error": err.Error()})
		} else {
			log.Info("activity registry exported", map[string]interface{}{"path": path, "activities": len(activities.Activities)})
		}
	}

	// --- Health & Metrics Server ---
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "healthy"})
	})
	http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		rctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := zeebe.HealthCheck(rctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "ready",
			"workers": jobWorkers.Running(),
		})
	})
	http.HandleFunc("/providers", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, matrix.Snapshot())
	})
	http.Handle("/activities", workers.ActivitiesHandler(activities))
	http.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("health/metrics server listening", map[string]interface{}{"address": cfg.Server.Address})
		if err := srv.ListenAndServe(); err != nil && !stderrs.Is(err, http.ErrServerClosed) {
			log.Error("health/metrics server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, stopping workers", nil)
	jobWorkers.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("health/metrics server shutdown failed", map[string]interface{}{"error": err.Error()})
	}

	log.Info("worker manager stopped", nil)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
