package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/RIDLEYsan/studio-classification-app/internal/batch"
	"github.com/RIDLEYsan/studio-classification-app/internal/models"
)

// BatchRunner is satisfied by *batch.Runner
type BatchRunner interface {
	Run(ctx context.Context, opts batch.Options) (*models.Report, error)
}

// ReportWriter is satisfied by *report.Writer
type ReportWriter interface {
	Write(report *models.Report, at time.Time) ([]string, error)
}

// BatchJobConfig contains configuration for the scheduled batch
type BatchJobConfig struct {
	Schedule    string // cron schedule, e.g. "0 3 * * *"
	Root        string
	Concurrency int
}

// RunSummary describes the latest scheduled run
type RunSummary struct {
	StartedAt time.Time `json:"started_at"`
	Folders   int       `json:"folders"`
	Failed    int       `json:"failed"`
	Reports   []string  `json:"reports,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// BatchJob runs the batch classifier on a cron schedule and writes a report per run
type BatchJob struct {
	runner BatchRunner
	writer ReportWriter
	config *BatchJobConfig
	cron   *cron.Cron
	logger *zap.Logger
	now    func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	last *RunSummary
}

func NewBatchJob(runner BatchRunner, writer ReportWriter, config *BatchJobConfig, logger *zap.Logger) *BatchJob {
	if logger == nil {
		logger = zap.NewNop()
	}
	cl := cronLogger{logger.Sugar()}
	ctx, cancel := context.WithCancel(context.Background())
	return &BatchJob{
		runner: runner,
		writer: writer,
		config: config,
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		logger: logger,
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start schedules the batch; an empty schedule disables it
func (j *BatchJob) Start() error {
	if j.config.Schedule == "" {
		j.logger.Info("Scheduled batch is disabled")
		return nil
	}

	_, err := j.cron.AddFunc(j.config.Schedule, func() {
		if err := j.RunOnce(j.ctx); err != nil {
			j.logger.Error("Scheduled batch failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule batch job: %w", err)
	}

	j.cron.Start()
	j.logger.Info("Scheduled batch started", zap.String("schedule", j.config.Schedule), zap.String("root", j.config.Root))
	return nil
}

// Stop cancels a running batch and waits for it to finish
func (j *BatchJob) Stop() {
	j.cancel()
	<-j.cron.Stop().Done()
	j.logger.Info("Scheduled batch stopped")
}

// RunOnce performs a single batch run and writes its report
func (j *BatchJob) RunOnce(ctx context.Context) error {
	summary := &RunSummary{StartedAt: j.now()}
	defer j.setLast(summary)

	report, err := j.runner.Run(ctx, batch.Options{
		Root:        j.config.Root,
		Concurrency: j.config.Concurrency,
	})
	if err != nil {
		summary.Error = err.Error()
		return fmt.Errorf("batch run failed: %w", err)
	}
	summary.Folders = report.Len()
	summary.Failed = len(report.FailedFolders())

	paths, err := j.writer.Write(report, summary.StartedAt)
	summary.Reports = paths
	if err != nil {
		summary.Error = err.Error()
		return fmt.Errorf("failed to write batch report: %w", err)
	}

	if ctx.Err() != nil {
		// report written, but folders after the interruption are failed rows
		summary.Error = ctx.Err().Error()
	}
	j.logger.Info("Scheduled batch completed",
		zap.Int("folders", summary.Folders),
		zap.Int("failed", summary.Failed),
		zap.Strings("reports", paths))
	return nil
}

// LastRun returns the summary of the most recent run, nil before the first one
func (j *BatchJob) LastRun() *RunSummary {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.last == nil {
		return nil
	}
	copied := *j.last
	return &copied
}

func (j *BatchJob) setLast(s *RunSummary) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.last = s
}

// cronLogger routes robfig/cron logging to zap
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
