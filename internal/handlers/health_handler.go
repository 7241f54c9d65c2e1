package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/RIDLEYsan/studio-classification-app/internal/config"
	"github.com/RIDLEYsan/studio-classification-app/internal/llm"
	"github.com/RIDLEYsan/studio-classification-app/internal/prompts"
	"github.com/RIDLEYsan/studio-classification-app/internal/utils"
)

const serviceName = "studio-classifier"

type ReadinessCheck struct {
	Status  string `json:"status"` // "ok" | "failed"
	Message string `json:"message,omitempty"`
}

type ReadinessResponse struct {
	Status  string                    `json:"status"` // "ready" | "not_ready"
	Service string                    `json:"service"`
	Checks  map[string]ReadinessCheck `json:"checks"`
}

// Pinger is satisfied by *history.Store
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	provider      llm.Classifier
	promptManager prompts.PromptProvider
	config        *config.Config
	history       Pinger
}

// NewHealthHandler takes a nil history when the store is disabled
func NewHealthHandler(provider llm.Classifier, promptManager prompts.PromptProvider, cfg *config.Config, history Pinger) *HealthHandler {
	return &HealthHandler{
		provider:      provider,
		promptManager: promptManager,
		config:        cfg,
		history:       history,
	}
}

func (handler *HealthHandler) HealthzHandler(writer http.ResponseWriter, request *http.Request) {
	utils.JSON(writer, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": serviceName,
		"version": "1.0.0",
	})
}

func (handler *HealthHandler) ReadyzHandler(writer http.ResponseWriter, request *http.Request) {
	checks := make(map[string]ReadinessCheck)
	allChecksPass := true

	fail := func(name, message string) {
		checks[name] = ReadinessCheck{Status: "failed", Message: message}
		allChecksPass = false
	}

	if handler.provider == nil {
		fail("provider", "Classifier not initialized")
	} else {
		checks["provider"] = ReadinessCheck{Status: "ok", Message: handler.provider.GetProviderName()}
	}

	switch {
	case handler.promptManager == nil:
		fail("prompt_manager", "Prompt manager not initialized")
	case len(handler.promptManager.GetTemplates()[prompts.ModeClassify]) == 0:
		fail("prompt_manager", "No classify prompt templates loaded")
	default:
		checks["prompt_manager"] = ReadinessCheck{Status: "ok"}
	}

	if handler.config == nil {
		fail("configuration", "Configuration not loaded")
	} else {
		checks["configuration"] = ReadinessCheck{Status: "ok"}
	}

	// history is optional, only checked when configured
	if handler.history != nil {
		ctx, cancel := context.WithTimeout(request.Context(), 2*time.Second)
		defer cancel()
		if err := handler.history.Ping(ctx); err != nil {
			fail("history", err.Error())
		} else {
			checks["history"] = ReadinessCheck{Status: "ok"}
		}
	}

	response := ReadinessResponse{
		Service: serviceName,
		Checks:  checks,
	}

	if allChecksPass {
		response.Status = "ready"
		utils.JSON(writer, http.StatusOK, response)
	} else {
		response.Status = "not_ready"
		utils.JSON(writer, http.StatusServiceUnavailable, response)
	}
}
