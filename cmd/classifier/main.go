package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/RIDLEYsan/studio-classification-app/internal/app"
	"github.com/RIDLEYsan/studio-classification-app/internal/batch"
	"github.com/RIDLEYsan/studio-classification-app/internal/config"
	_ "github.com/RIDLEYsan/studio-classification-app/internal/llm/gemini"
	"github.com/RIDLEYsan/studio-classification-app/internal/report"
	"github.com/RIDLEYsan/studio-classification-app/internal/utils"
)

type options struct {
	root        string
	out         string
	retryFailed string
	concurrency int
}

func parseFlags(args []string, cfg *config.Config) (*options, error) {
	fs := flag.NewFlagSet("classifier", flag.ContinueOnError)
	opts := &options{}
	fs.StringVar(&opts.root, "root", cfg.PhotosDir, "directory containing one sub-folder per property")
	fs.StringVar(&opts.out, "out", cfg.OutputDir, "directory the reports are written to")
	fs.StringVar(&opts.retryFailed, "retry-failed", "", "previous JSON report; only its failed folders are processed")
	fs.IntVar(&opts.concurrency, "concurrency", cfg.Concurrency, "folders classified in parallel")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.concurrency <= 0 {
		return nil, fmt.Errorf("-concurrency must be positive, got %d", opts.concurrency)
	}
	return opts, nil
}

// run performs one batch and writes its report. Per-folder failures are part of
// the report; only setup problems return an error.
func run(ctx context.Context, args []string, stdout io.Writer, logger *zap.Logger) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	opts, err := parseFlags(args, cfg)
	if err != nil {
		return err
	}

	writer, err := report.NewWriter(opts.out, cfg.ReportFormats, logger)
	if err != nil {
		return err
	}

	var folders []string
	if opts.retryFailed != "" {
		previous, err := report.ReadJSON(opts.retryFailed)
		if err != nil {
			return err
		}
		folders = previous.FailedFolders()
		if len(folders) == 0 {
			fmt.Fprintf(stdout, "%s に再実行が必要なフォルダはありません\n", opts.retryFailed)
			return nil
		}
		logger.Info("Re-running failed folders", zap.Int("folders", len(folders)), zap.String("report", opts.retryFailed))
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	logger.Info("Batch started", zap.String("root", opts.root), zap.Int("concurrency", opts.concurrency))
	result, err := a.Runner.Run(ctx, batch.Options{
		Root:        opts.root,
		Folders:     folders,
		Concurrency: opts.concurrency,
	})
	if err != nil {
		return err
	}

	paths, err := writer.Write(result, time.Now())
	if err != nil {
		return err
	}
	if err := report.PrintSummary(stdout, result, paths); err != nil {
		return fmt.Errorf("failed to print summary: %w", err)
	}

	if ctx.Err() != nil {
		return fmt.Errorf("batch interrupted after writing report: %w", ctx.Err())
	}
	return nil
}

func main() {
	bootstrap := config.FromEnv()
	logger, err := utils.NewLogger(bootstrap.LogLevel, bootstrap.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, logger); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		logger.Error("Classification aborted", zap.Error(err))
		stop()
		logger.Sync()
		os.Exit(1)
	}
}
