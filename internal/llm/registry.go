package llm

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/RIDLEYsan/studio-classification-app/internal/config"
)

// defines a function that creates a new provider instance
type ProviderFactory func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Classifier, error)

// global registry of available providers
var providers = make(map[string]ProviderFactory)

// registers a provider factory with the given name
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// creates a new provider instance based on the configured name
func NewProvider(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Classifier, error) {
	factory, exists := providers[cfg.Provider]
	if !exists {
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
	return factory(ctx, cfg, logger)
}

// RegisteredProviders lists provider names in lexical order
func RegisteredProviders() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
