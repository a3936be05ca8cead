package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/yoockh/voicedit/config"
	"github.com/yoockh/voicedit/internal/api/routes"
	"github.com/yoockh/voicedit/internal/logger"
	"github.com/yoockh/voicedit/internal/metrics"
	"github.com/yoockh/voicedit/internal/workers"
)

func main() {
	_ = godotenv.Load()

	var configPath string
	flag.StringVar(&configPath, "config", os.Getenv("VOICEDIT_CONFIG"), "Path to YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	lg := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	m := metrics.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := buildApp(ctx, cfg, lg, m)
	if err != nil {
		lg.WithError(err).Fatal("failed to initialise providers")
	}
	defer app.Close()

	if app.limiter != nil {
		sweeper := &workers.LimiterSweeper{
			Limiter:  app.limiter,
			Interval: cfg.RateLimit.SweepInterval,
			Logger:   lg,
		}
		if err := sweeper.Start(ctx); err != nil {
			lg.WithError(err).Fatal("failed to start limiter sweeper")
		}
	}

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		lg.WithError(err).Fatal("invalid trusted proxies")
	}
	r.MaxMultipartMemory = cfg.Server.MaxUploadBytes

	routes.RegisterRoutes(r, routes.Deps{
		Recognition: app.handler,
		Limiter:     app.limiter,
		Metrics:     m,
		Logger:      lg,
	})

	srv := &http.Server{Addr: cfg.Server.Addr(), Handler: r}

	go func() {
		lg.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.WithError(err).Fatal("server error")
		}
	}()

	<-ctx.Done()
	lg.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.WithError(err).Error("graceful shutdown failed")
	}
}
