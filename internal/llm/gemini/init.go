package gemini

import (
	"context"

	"go.uber.org/zap"

	"github.com/RIDLEYsan/studio-classification-app/internal/config"
	"github.com/RIDLEYsan/studio-classification-app/internal/llm"
)

// Register Gemini provider on package import
func init() {
	llm.RegisterProvider("gemini", func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (llm.Classifier, error) {
		geminiConfig, err := NewConfig(cfg)
		if err != nil {
			return nil, err
		}
		return NewClient(ctx, geminiConfig, logger)
	})
}
