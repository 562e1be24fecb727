package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/freightdocs/invoice-matcher/internal/async"
	"github.com/freightdocs/invoice-matcher/internal/common"
	"github.com/freightdocs/invoice-matcher/internal/entity"
	"github.com/freightdocs/invoice-matcher/internal/export"
	extractopenai "github.com/freightdocs/invoice-matcher/internal/extract/openai"
	oracleopenai "github.com/freightdocs/invoice-matcher/internal/oracle/openai"
	"github.com/freightdocs/invoice-matcher/internal/recon"
	"github.com/freightdocs/invoice-matcher/internal/render"
	"github.com/freightdocs/invoice-matcher/internal/repository"
)

// invoice-match reconciles one or more invoice text files against the record
// store from the command line and optionally writes an XLSX report.
func main() {
	var (
		inputDir   = flag.String("dir", "", "directory of invoice text files to reconcile")
		reportPath = flag.String("report", "", "write an XLSX reconciliation report to this path")
		currency   = flag.String("currency", "USD", "currency assumed when a document states none")
		workers    = flag.Int("workers", 4, "concurrent matching workers")
		seedSchema = flag.Bool("init-db", false, "create the CRM tables if missing (SQLite)")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", "error", err)
	}

	cfg := common.LoadConfig()
	if cfg.Database.DSN == "" {
		logger.Error("DB_URL is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if *seedSchema {
		if err := repository.EnsureSchema(ctx, db); err != nil {
			logger.Error("schema init failed", "error", err)
			os.Exit(1)
		}
		logger.Info("schema ready")
	}

	files := flag.Args()
	if *inputDir != "" {
		entries, err := os.ReadDir(*inputDir)
		if err != nil {
			logger.Error("read input directory", "dir", *inputDir, "error", err)
			os.Exit(1)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			files = append(files, filepath.Join(*inputDir, e.Name()))
		}
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "usage: invoice-match [flags] <invoice.txt> [more files...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

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

	var jobs []async.Job
	for _, path := range files {
		text, err := os.ReadFile(path)
		if err != nil {
			logger.Error("read invoice file", "path", path, "error", err)
			os.Exit(1)
		}
		jobs = append(jobs, async.Job{
			SourceFile:      path,
			DocumentText:    string(text),
			DefaultCurrency: *currency,
		})
	}

	pool := async.NewMatchPool(extractor, svc, logger, async.WithWorkers(*workers))
	results := pool.Run(ctx, jobs)

	var reportRows []export.ReportRow
	mismatches := 0
	for _, res := range results {
		if res.Err != nil {
			mismatches++
			fmt.Printf("%s: ERROR: %v\n", res.SourceFile, res.Err)
			continue
		}
		out := res.Outcome
		fmt.Printf("%s: %s\n", res.SourceFile, out.Result.Status)
		if out.Result.Status == entity.StatusMatch {
			if path, err := writer.Write(out.Extracted); err == nil {
				fmt.Printf("  verified invoice: %s\n", path)
			} else {
				logger.Warn("verified invoice render failed", "source_file", res.SourceFile, "error", err)
			}
		} else {
			mismatches++
			detail, _ := json.MarshalIndent(out.Result.FieldLevelComparison, "  ", "  ")
			fmt.Printf("  %s\n  %s\n", out.Result.Analysis, detail)
		}
		reportRows = append(reportRows, export.ReportRow{SourceFile: res.SourceFile, Outcome: out})
	}

	if *reportPath != "" && len(reportRows) > 0 {
		xlsx, err := export.NewService(logger).ReconciliationReportXLSX(reportRows)
		if err != nil {
			logger.Error("report generation failed", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*reportPath, xlsx, 0o644); err != nil {
			logger.Error("report write failed", "path", *reportPath, "error", err)
			os.Exit(1)
		}
		fmt.Printf("report written to %s\n", *reportPath)
	}

	if mismatches > 0 {
		os.Exit(1)
	}
}
