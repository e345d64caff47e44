// cmd/notifier-api/main.go
package main

import (
	"context"
	stderrors "errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"delivery-notifier/internal/api"
	"delivery-notifier/internal/bootstrap"
	"delivery-notifier/internal/common/config"
	"delivery-notifier/internal/common/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zapLog := logger.New("info", "console")
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := newLogger(cfg)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := bootstrap.Build(ctx, cfg, "notifier-api", log)
	if err != nil {
		zapLog.Fatal("bootstrap failed", zap.Error(err))
	}
	defer components.Close()

	router := api.NewRouter(api.RouterOptions{
		Dispatcher:     components.Service,
		Subscriptions:  components.Subscriptions,
		VAPIDPublicKey: components.PushConfig.VAPID.PublicKey,
		Ready:          components.Postgres,
		Logger:         log,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		log.Info("HTTP server listening", map[string]interface{}{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", map[string]interface{}{"error": err})
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", map[string]interface{}{"error": err})
	}
	log.Info("notifier-api stopped", nil)
}

func newLogger(cfg *config.Config) *zap.Logger {
	l, err := logger.NewZap(logger.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Output:  cfg.Logging.Output,
		Service: "notifier-api",
	})
	if err != nil {
		fallback := logger.New(cfg.Logging.Level, cfg.Logging.Format)
		fallback.Warn("falling back to stdout logging", zap.Error(err))
		return fallback.With(zap.String("service", "notifier-api"))
	}
	return l
}
