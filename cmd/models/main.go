package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/RIDLEYsan/studio-classification-app/internal/config"
	"github.com/RIDLEYsan/studio-classification-app/internal/llm"
	_ "github.com/RIDLEYsan/studio-classification-app/internal/llm/gemini"
	"github.com/RIDLEYsan/studio-classification-app/internal/utils"
)

var errListingUnsupported = errors.New("provider cannot list models")

// run prints the models that accept generateContent requests
func run(ctx context.Context, stdout io.Writer, logger *zap.Logger) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	provider, err := llm.NewProvider(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize AI provider: %w", err)
	}
	lister, ok := provider.(llm.ModelLister)
	if !ok {
		return fmt.Errorf("%w: %s", errListingUnsupported, provider.GetProviderName())
	}

	available, err := lister.ListModels(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, "利用可能なモデル一覧:")
	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tDISPLAY NAME\tINPUT TOKENS\tOUTPUT TOKENS")
	for _, m := range available {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", m.Name, m.DisplayName, m.InputTokenLimit, m.OutputTokenLimit)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "\n%d models support generateContent (configured: %s)\n", len(available), cfg.GeminiModel)
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, os.Stdout, logger); err != nil {
		logger.Error("Failed to list models", zap.Error(err))
		cancel()
		logger.Sync()
		os.Exit(1)
	}
}
