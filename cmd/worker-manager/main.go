// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"delivery-notifier/internal/bootstrap"
	"delivery-notifier/internal/common/camunda"
	"delivery-notifier/internal/common/config"
	"delivery-notifier/internal/common/logger"
	sendpush "delivery-notifier/internal/workers/notification/send-push"
	"delivery-notifier/pkg/registry"
)

func main() {
	zapLog := logger.New("info", "console")
	defer func() { _ = zapLog.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog = newLogger(cfg)
	log := logger.NewZapAdapter(zapLog)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := bootstrap.Build(ctx, cfg, "worker-manager", log)
	if err != nil {
		zapLog.Fatal("bootstrap failed", zap.Error(err))
	}
	defer components.Close()

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = bootstrap.RetryWithBackoff(ctx, func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(camunda.ClientConfigFromApp(cfg.Camunda))
		return err
	}, 10, 2*time.Second, log, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebe.Close()
	log.Info("Zeebe client connected", nil)

	var workers []*camunda.CamundaWorker
	var activities []registry.Activity
	if config.IsWorkerEnabled(cfg, sendpush.TaskType) {
		handler := sendpush.NewHandler(components.PushConfig, components.Service, log).WithRetrier(zeebe)
		w := camunda.NewWorker(zeebe.GetClient(), camunda.WorkerOptions{
			TaskType:      sendpush.TaskType,
			MaxJobsActive: components.PushConfig.MaxJobsActive,
			Timeout:       handler.Timeout(),
		}, handler, log)
		w.Start()
		workers = append(workers, w)
		activities = append(activities, sendpush.Activity(components.PushConfig))
	} else {
		log.Info("worker disabled", map[string]interface{}{"taskType": sendpush.TaskType})
	}

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := zeebe.HealthCheck(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "not ready", "error": err.Error()})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	})
	mux.HandleFunc("/activities", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(registry.New(cfg.App.Version, activities...))
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: cfg.Server.Addr(), Handler: mux}
	go func() {
		log.Info("Health/Metrics server listening", map[string]interface{}{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			log.Error("Health/Metrics server failed", map[string]interface{}{"error": err})
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	log.Info("Shutdown signal received, stopping workers...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	for _, w := range workers {
		w.Stop(shutdownCtx)
	}
	_ = srv.Shutdown(shutdownCtx)

	log.Info("Worker manager stopped", nil)
}

func newLogger(cfg *config.Config) *zap.Logger {
	l, err := logger.NewZap(logger.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Output:  cfg.Logging.Output,
		Service: "worker-manager",
	})
	if err != nil {
		fallback := logger.New(cfg.Logging.Level, cfg.Logging.Format)
		fallback.Warn("falling back to stdout logging", zap.Error(err))
		return fallback.With(zap.String("service", "worker-manager"))
	}
	return l
}
