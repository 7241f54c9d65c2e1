package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/RIDLEYsan/studio-classification-app/internal/llm"
	"github.com/RIDLEYsan/studio-classification-app/internal/models"
	"github.com/RIDLEYsan/studio-classification-app/internal/resilience"
)

const providerName = "gemini"

// Client classifies property photos with the Gemini API
type Client struct {
	client   *genai.Client
	config   *Config
	executor *resilience.Executor
	logger   *zap.Logger
}

func NewClient(ctx context.Context, config *Config, logger *zap.Logger) (*Client, error) {
	return newClient(ctx, config, nil, logger)
}

func newClient(ctx context.Context, config *Config, httpClient *http.Client, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientConfig := &genai.ClientConfig{
		APIKey:     config.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if config.BaseURL != "" || config.APIVersion != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{
			BaseURL:    config.BaseURL,
			APIVersion: config.APIVersion,
		}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, &llm.ProviderError{
			Provider: providerName,
			Code:     llm.ErrCodeAPIKey,
			Message:  "Failed to create Gemini client",
			Err:      err,
		}
	}

	return &Client{
		client:   client,
		config:   config,
		executor: resilience.NewExecutor(config.Resilience, logger),
		logger:   logger,
	}, nil
}

// Classify sends the prompt, any few-shot examples and all request images in one call
func (c *Client) Classify(ctx context.Context, req *models.ClassificationRequest) (*models.Label, error) {
	if len(req.Images) == 0 {
		return nil, &llm.ProviderError{
			Provider: providerName,
			Code:     llm.ErrCodeInvalidInput,
			Message:  "No images to classify",
		}
	}

	contents := []*genai.Content{genai.NewContentFromParts(buildParts(req), genai.RoleUser)}
	genConfig := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr(c.config.Temperature),
	}

	startTime := time.Now()
	var result *genai.GenerateContentResponse
	err := c.executor.Execute(ctx, "gemini.generate_content", func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
		defer cancel()

		resp, err := c.client.Models.GenerateContent(callCtx, c.config.Model, contents, genConfig)
		if err != nil {
			return err
		}
		result = resp
		return nil
	}, classifyError)
	if err != nil {
		return nil, toProviderError(err, "Failed to classify images")
	}

	if result == nil {
		return nil, &llm.ProviderError{
			Provider: providerName,
			Code:     llm.ErrCodeMalformed,
			Message:  "No response generated",
		}
	}

	text := result.Text()
	if strings.TrimSpace(text) == "" {
		message := "Empty response generated"
		if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
			message = "Prompt blocked: " + string(result.PromptFeedback.BlockReason)
		}
		return nil, &llm.ProviderError{
			Provider: providerName,
			Code:     llm.ErrCodeMalformed,
			Message:  message,
		}
	}

	label, err := parseLabel(text)
	if err != nil {
		return nil, &llm.ProviderError{
			Provider: providerName,
			Code:     llm.ErrCodeMalformed,
			Message:  "Failed to parse classification response",
			Err:      err,
		}
	}
	label.Model = c.config.Model
	if result.ModelVersion != "" {
		label.Model = result.ModelVersion
	}

	fields := []zap.Field{
		zap.String("request_id", req.RequestID),
		zap.String("folder", req.Folder),
		zap.Int("images", len(req.Images)),
		zap.Int("examples", len(req.Examples)),
		zap.Duration("elapsed", time.Since(startTime)),
	}
	if result.UsageMetadata != nil {
		fields = append(fields, zap.Int32("total_tokens", result.UsageMetadata.TotalTokenCount))
	}
	c.logger.Debug("Gemini classification completed", fields...)

	return label, nil
}

// ListModels returns the models that support content generation
func (c *Client) ListModels(ctx context.Context) ([]models.ModelInfo, error) {
	var out []models.ModelInfo

	page, err := c.client.Models.List(ctx, &genai.ListModelsConfig{PageSize: 50})
	for {
		if errors.Is(err, genai.ErrPageDone) {
			break
		}
		if err != nil {
			return nil, toProviderError(err, "Failed to list models")
		}
		for _, m := range page.Items {
			if !supportsGenerateContent(m.SupportedActions) {
				continue
			}
			out = append(out, models.ModelInfo{
				Name:             strings.TrimPrefix(m.Name, "models/"),
				DisplayName:      m.DisplayName,
				SupportedActions: m.SupportedActions,
				InputTokenLimit:  m.InputTokenLimit,
				OutputTokenLimit: m.OutputTokenLimit,
			})
		}
		if page.NextPageToken == "" {
			break
		}
		page, err = page.Next(ctx)
	}

	return out, nil
}

func (c *Client) GetProviderName() string {
	return providerName
}

func (c *Client) Model() string {
	return c.config.Model
}

func supportsGenerateContent(actions []string) bool {
	for _, action := range actions {
		if action == "generateContent" {
			return true
		}
	}
	return false
}

// buildParts lays out prompt, example (image, caption) pairs, then the images to classify
func buildParts(req *models.ClassificationRequest) []*genai.Part {
	parts := make([]*genai.Part, 0, 2+2*len(req.Examples)+len(req.Images))
	parts = append(parts, genai.NewPartFromText(req.Prompt))

	for _, ex := range req.Examples {
		parts = append(parts,
			genai.NewPartFromBytes(ex.Image.Data, ex.Image.MIMEType),
			genai.NewPartFromText(exampleCaption(ex)),
		)
	}

	if len(req.Examples) > 0 {
		parts = append(parts, genai.NewPartFromText(fmt.Sprintf("【判定対象】以下の%d枚の画像を分類してください。", len(req.Images))))
	}

	for _, img := range req.Images {
		parts = append(parts, genai.NewPartFromBytes(img.Data, img.MIMEType))
	}
	return parts
}

func exampleCaption(ex models.Example) string {
	caption := "→ 分類: " + ex.Category
	if ex.Subcategory != "" {
		caption += " / " + ex.Subcategory
	}
	if ex.Note != "" {
		caption += "（" + ex.Note + "）"
	}
	return caption
}
