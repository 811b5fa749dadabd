package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ticketcheck/backend/config"
	httpDelivery "github.com/ticketcheck/backend/internal/delivery/http"
	"github.com/ticketcheck/backend/internal/infrastructure/cache"
	"github.com/ticketcheck/backend/internal/infrastructure/pdfreader"
	"github.com/ticketcheck/backend/internal/infrastructure/xlsx"
	"github.com/ticketcheck/backend/internal/usecase"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logger := config.NewLogger(cfg.Log, nil)
	logger.WithFields(logrus.Fields{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"cache_ttl":   cfg.Cache.TTL.String(),
	}).Info("Starting TicketCheck backend v1.0.0")

	// Infrastructure
	reportStore := cache.NewMemoryReportStore()
	defer reportStore.Close()

	reader := pdfreader.NewReader(pdfreader.Config{Validate: cfg.Reader.ValidatePDF}, logger)
	styleSheets := xlsx.NewStyleSheetReader(logger)
	exporter := xlsx.NewReportExporter(logger)

	// Use case
	reconciliationService := usecase.NewReconciliationService(
		reader,
		styleSheets,
		reportStore,
		exporter,
		usecase.ReconciliationConfig{
			ReportTTL:          cfg.Cache.TTL,
			QuantityTolerance:  decimal.NewFromFloat(cfg.Matching.QuantityTolerance),
			AddressThreshold:   cfg.Matching.AddressThreshold,
			EnableDebugLogging: cfg.Matching.EnableDebugLogging,
		},
		logger,
	)

	logger.WithFields(logrus.Fields{
		"quantity_tolerance": cfg.Matching.QuantityTolerance,
		"address_threshold":  cfg.Matching.AddressThreshold,
		"debug":              cfg.Matching.EnableDebugLogging,
		"validate_pdf":       cfg.Reader.ValidatePDF,
	}).Info("Matching configured")

	handler := httpDelivery.NewHandler(reconciliationService, cfg.Server.MaxUploadBytes(), logger)
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("addr", srv.Addr).Info("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
}
