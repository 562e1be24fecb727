package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/freightdocs/invoice-matcher/internal/common"
	extractopenai "github.com/freightdocs/invoice-matcher/internal/extract/openai"
	oracleopenai "github.com/freightdocs/invoice-matcher/internal/oracle/openai"
	"github.com/freightdocs/invoice-matcher/internal/recon"
	"github.com/freightdocs/invoice-matcher/internal/render"
	"github.com/freightdocs/invoice-matcher/internal/repository"
	"github.com/freightdocs/invoice-matcher/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", "error", err)
	}

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.Warn("database close failed", "error", cerr)
		}
	}()

	records := repository.NewRecordRepository(db, logger)

	judge := oracleopenai.NewClient(oracleopenai.Config{
		APIKey:      cfg.Oracle.APIKey,
		BaseURL:     cfg.Oracle.BaseURL,
		Model:       cfg.Oracle.Model,
		Temperature: cfg.Oracle.Temperature,
		Timeout:     cfg.Oracle.Timeout,
	}, logger)

	extractor := extractopenai.NewClient(extractopenai.Config{
		APIKey:      cfg.Extractor.APIKey,
		BaseURL:     cfg.Extractor.BaseURL,
		Model:       cfg.Extractor.Model,
		Temperature: cfg.Extractor.Temperature,
		Timeout:     cfg.Extractor.Timeout,
	}, logger)

	synth := recon.NewSynthesizer(judge, cfg.Recon.StrongScoreEvidence,
		decimal.NewFromFloat(cfg.Recon.AmountTolerance), logger)
	svc := recon.NewService(records, synth, logger)
	writer := render.NewVerifiedInvoiceWriter(cfg.Output.Dir, logger)

	handler := server.NewHandler(extractor, svc, writer, db, logger)
	router := server.NewRouter(handler)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Info("http.listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	logger.Info("stopped")
}
