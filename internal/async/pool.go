package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/freightdocs/invoice-matcher/internal/common"
	"github.com/freightdocs/invoice-matcher/internal/extract"
	"github.com/freightdocs/invoice-matcher/internal/recon"
)

// Job is one document to push through the matching pipeline.
type Job struct {
	SourceFile      string
	DocumentText    string
	DefaultCurrency string
}

// JobResult pairs a job with its outcome; exactly one of Outcome or Err is set.
type JobResult struct {
	SourceFile string
	Outcome    *recon.Outcome
	Err        error
}

// MatchPool fans a batch of documents across a bounded worker set. Results
// are returned in submission order.
type MatchPool struct {
	extractor extract.Extractor
	recon     *recon.Service
	logger    *slog.Logger
	workers   int
	timeout   time.Duration
}

type Option func(*MatchPool)

func WithWorkers(n int) Option {
	return func(p *MatchPool) {
		if n > 0 {
			p.workers = n
		}
	}
}

func WithJobTimeout(d time.Duration) Option {
	return func(p *MatchPool) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func NewMatchPool(extractor extract.Extractor, svc *recon.Service, logger *slog.Logger, opts ...Option) *MatchPool {
	if logger == nil {
		logger = slog.Default()
	}
	p := &MatchPool{
		extractor: extractor,
		recon:     svc,
		logger:    logger,
		workers:   4,
		timeout:   3 * time.Minute,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run processes all jobs and blocks until every worker has finished. A
// cancelled context stops feeding new jobs; in-flight jobs complete.
func (p *MatchPool) Run(ctx context.Context, jobs []Job) []JobResult {
	results := make([]JobResult, len(jobs))
	ch := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			p.logger.Info("pool.worker.started", "worker_id", workerID)
			for idx := range ch {
				results[idx] = p.process(ctx, jobs[idx])
			}
			p.logger.Info("pool.worker.stopped", "worker_id", workerID)
		}(w + 1)
	}

	for i := range jobs {
		select {
		case ch <- i:
		case <-ctx.Done():
			results[i] = JobResult{SourceFile: jobs[i].SourceFile, Err: ctx.Err()}
		}
	}
	close(ch)
	wg.Wait()
	return results
}

func (p *MatchPool) process(ctx context.Context, job Job) JobResult {
	rid := uuid.New().String()
	jobCtx, cancel := common.WithTimeout(common.WithRequestID(ctx, rid), p.timeout)
	defer cancel()

	start := time.Now()
	invoice, _, err := p.extractor.ExtractInvoice(jobCtx, extract.Request{
		DocumentText:    job.DocumentText,
		FilenameHint:    job.SourceFile,
		DefaultCurrency: job.DefaultCurrency,
	})
	if err != nil {
		p.logger.Error("pool.job.extract_failed", "req_id", rid, "source_file", job.SourceFile, "error", err)
		return JobResult{SourceFile: job.SourceFile, Err: err}
	}

	outcome, err := p.recon.ReconcileInvoice(jobCtx, invoice)
	if err != nil {
		p.logger.Error("pool.job.recon_failed", "req_id", rid, "source_file", job.SourceFile, "error", err)
		return JobResult{SourceFile: job.SourceFile, Err: err}
	}

	p.logger.Info("pool.job.done",
		"req_id", rid,
		"source_file", job.SourceFile,
		"status", outcome.Result.Status,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return JobResult{SourceFile: job.SourceFile, Outcome: outcome}
}
