package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shadower-ai/shadow-analytics/cache"
	"github.com/shadower-ai/shadow-analytics/common"
	"github.com/shadower-ai/shadow-analytics/common/config"
	"github.com/shadower-ai/shadow-analytics/common/graceful"
	"github.com/shadower-ai/shadow-analytics/common/helper"
	"github.com/shadower-ai/shadow-analytics/common/logger"
	"github.com/shadower-ai/shadow-analytics/controller"
	"github.com/shadower-ai/shadow-analytics/middleware"
	"github.com/shadower-ai/shadow-analytics/model"
	"github.com/shadower-ai/shadow-analytics/router"
)

func main() {
	common.Init()
	common.StartTime = helper.GetTimestamp()
	logger.Logger.Info("shadow-analytics started", zap.String("version", common.Version))

	if config.GinMode != "" {
		gin.SetMode(config.GinMode)
	} else if !config.DebugEnabled {
		gin.SetMode(gin.ReleaseMode)
	}

	model.InitDB()
	defer func() {
		if err := model.CloseDB(); err != nil {
			logger.Logger.Error("failed to close database", zap.Error(err))
		}
	}()

	if err := common.InitRedisClient(); err != nil {
		logger.Logger.Fatal("failed to initialize Redis client", zap.Error(err))
	}
	var redisTier = common.RDB
	if !common.IsRedisEnabled() {
		redisTier = nil
	}
	controller.InitCache(cache.New(config.BucketCacheTTL, redisTier))

	backgroundCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	if config.UsageRetentionDays > 0 {
		graceful.GoBackground(backgroundCtx, "retention-sweep", runRetentionSweep)
	}

	server := gin.New()
	server.RedirectTrailingSlash = false
	server.Use(
		middleware.PanicRecover(),
		middleware.RequestId(),
		middleware.TrackRequest(),
	)
	if config.EnablePrometheusMetrics {
		server.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	router.SetApiRouter(server)

	port := config.ServerPort
	if port == "" {
		port = strconv.Itoa(*common.Port)
	}
	httpServer := &http.Server{
		Addr:    ":" + port,
		Handler: server,
	}

	go func() {
		logger.Logger.Info("server listening", zap.String("address", "http://localhost:"+port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Logger.Info("shutdown signal received", zap.String("signal", sig.String()))

	graceful.SetDraining()
	stopBackground()
	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(config.GracefulShutdownTimeout)*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if err := graceful.Drain(shutdownCtx); err != nil {
		logger.Logger.Warn("drain incomplete at shutdown deadline", zap.Error(err))
	}
	logger.Logger.Info("server stopped")
}

// runRetentionSweep periodically deletes raw usage events older than the
// configured retention window.
func runRetentionSweep(ctx context.Context) {
	interval := time.Duration(config.RetentionSweepInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Logger.Info("retention sweep enabled",
		zap.Int("retention_days", config.UsageRetentionDays),
		zap.String("interval", interval.String()))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().UTC().AddDate(0, 0, -config.UsageRetentionDays).Unix()
			if _, err := model.DeleteOldUsageEvents(cutoff); err != nil {
				logger.Logger.Error("retention sweep failed", zap.Error(err))
			}
		}
	}
}
