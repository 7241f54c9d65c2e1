package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/RIDLEYsan/studio-classification-app/internal/fewshot"
	"github.com/RIDLEYsan/studio-classification-app/internal/imageset"
	"github.com/RIDLEYsan/studio-classification-app/internal/llm"
	"github.com/RIDLEYsan/studio-classification-app/internal/metrics"
	"github.com/RIDLEYsan/studio-classification-app/internal/models"
	"github.com/RIDLEYsan/studio-classification-app/internal/prompts"
	"github.com/RIDLEYsan/studio-classification-app/internal/taxonomy"
)

const (
	reasonNoImages      = "no readable images"
	reasonCanceled      = "canceled"
	reasonNotFound      = "folder not found"
	reasonUnreadable    = "unreadable folder"
	reasonOverBudget    = "request size budget"
	providerCallSuccess = "ok"
)

// Recorder persists folder results; implemented by history.Store
type Recorder interface {
	Record(ctx context.Context, runID, provider string, result models.ClassificationResult) error
}

// Runner is the batch classifier: one request per property folder, one result row per folder
type Runner struct {
	classifier llm.Classifier
	taxonomy   *taxonomy.Taxonomy
	prompts    prompts.PromptProvider
	loader     *imageset.Loader
	examples   *fewshot.Set
	recorder   Recorder
	metrics    *metrics.Metrics
	logger     *zap.Logger
	newID      func() string

	requestBudget int64
}

type Option func(*Runner)

func WithExamples(set *fewshot.Set) Option {
	return func(r *Runner) { r.examples = set }
}

func WithRecorder(rec Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithLoader(loader *imageset.Loader) Option {
	return func(r *Runner) { r.loader = loader }
}

func WithPrompts(p prompts.PromptProvider) Option {
	return func(r *Runner) { r.prompts = p }
}

// WithRequestBudget caps the inline bytes of one provider request; n <= 0 removes the cap
func WithRequestBudget(n int64) Option {
	return func(r *Runner) { r.requestBudget = n }
}

// WithIDGenerator replaces uuid run and request IDs
func WithIDGenerator(fn func() string) Option {
	return func(r *Runner) { r.newID = fn }
}

// Options selects what a single Run processes
type Options struct {
	Root        string
	Folders     []string // only these folder names when non-empty
	Concurrency int
}

func NewRunner(classifier llm.Classifier, tax *taxonomy.Taxonomy, opts ...Option) (*Runner, error) {
	if classifier == nil {
		return nil, errors.New("batch: classifier is required")
	}
	if tax == nil {
		tax = taxonomy.Default()
	}

	r := &Runner{
		classifier: classifier,
		taxonomy:   tax,
		logger:     zap.NewNop(),
		newID:      uuid.NewString,

		requestBudget: imageset.DefaultMaxRequestBytes,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.loader == nil {
		r.loader = imageset.NewLoader(imageset.DefaultMaxImages, 0, r.logger)
	}
	if r.prompts == nil {
		pm, err := prompts.NewPromptManager()
		if err != nil {
			return nil, fmt.Errorf("batch: %w", err)
		}
		r.prompts = pm
	}
	return r, nil
}

type target struct {
	name   string
	folder *models.PropertyFolder
}

// Run classifies every property folder under opts.Root. A setup error (root
// missing or empty) is returned before any call is made; per-folder failures are
// rows of the report. On cancellation the folders not yet started become failed rows.
func (r *Runner) Run(ctx context.Context, opts Options) (*models.Report, error) {
	folders, err := imageset.Scan(opts.Root, r.logger)
	if err != nil {
		r.metrics.ObserveRun(err)
		return nil, err
	}

	targets := selectTargets(folders, opts.Folders)
	runID := r.newID()
	startTime := time.Now()

	r.logger.Info("Starting batch run",
		zap.String("run_id", runID),
		zap.String("root", opts.Root),
		zap.Int("folders", len(targets)),
		zap.Int("concurrency", max(opts.Concurrency, 1)))

	results := make([]models.ClassificationResult, len(targets))
	if opts.Concurrency <= 1 {
		for i, t := range targets {
			results[i] = r.processTarget(ctx, runID, t)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(opts.Concurrency)
		for i, t := range targets {
			g.Go(func() error {
				// each worker owns exactly one slot
				results[i] = r.processTarget(ctx, runID, t)
				return nil
			})
		}
		_ = g.Wait()
	}

	provider := r.classifier.GetProviderName()
	if r.recorder != nil {
		recordCtx := context.WithoutCancel(ctx)
		for _, res := range results {
			if err := r.recorder.Record(recordCtx, runID, provider, res); err != nil {
				r.logger.Warn("Failed to record analysis history",
					zap.String("run_id", runID),
					zap.String("folder", res.Folder),
					zap.Error(err))
			}
		}
	}

	report := &models.Report{
		Provider: provider,
		Model:    modelName(r.classifier),
		Results:  results,
	}

	fields := []zap.Field{
		zap.String("run_id", runID),
		zap.Int("folders", report.Len()),
		zap.Int("failed", len(report.FailedFolders())),
		zap.Duration("elapsed", time.Since(startTime)),
	}
	if ctx.Err() != nil {
		r.logger.Warn("Batch run interrupted", append(fields, zap.Error(ctx.Err()))...)
	} else {
		r.logger.Info("Batch run completed", fields...)
	}
	r.metrics.ObserveRun(nil)

	return report, nil
}

// ClassifyImages classifies already loaded images as one folder, used by the HTTP API.
// It returns the result row, the number of few-shot examples sent and the provider
// error if the call failed.
func (r *Runner) ClassifyImages(ctx context.Context, requestID, folder string, images []models.Image, withExamples bool) (models.ClassificationResult, int, error) {
	result := models.ClassificationResult{
		Folder:     folder,
		ImageCount: len(images),
		ImagesSent: len(images),
	}
	if len(images) == 0 {
		return markFailed(result, reasonNoImages), 0, imageset.ErrEmptyImage
	}

	var examples []models.Example
	if withExamples {
		examples = r.examples.Select()
	}

	images, result.Skipped = r.fitBudget(folder, images, examples)
	result.ImagesSent = len(images)
	if len(images) == 0 {
		return markFailed(result, reasonOverBudget), len(examples), imageset.ErrRequestTooLarge
	}

	result, err := r.classify(ctx, requestID, result, images, examples)
	if r.recorder != nil {
		if recErr := r.recorder.Record(context.WithoutCancel(ctx), requestID, r.classifier.GetProviderName(), result); recErr != nil {
			r.logger.Warn("Failed to record analysis history", zap.String("request_id", requestID), zap.Error(recErr))
		}
	}
	return result, len(examples), err
}

// Examples exposes the loaded few-shot set
func (r *Runner) Examples() *fewshot.Set {
	return r.examples
}

func (r *Runner) Taxonomy() *taxonomy.Taxonomy {
	return r.taxonomy
}

func (r *Runner) processTarget(ctx context.Context, runID string, t target) models.ClassificationResult {
	result := models.ClassificationResult{Folder: t.name}

	if t.folder == nil {
		r.logger.Warn("Requested folder not found", zap.String("run_id", runID), zap.String("folder", t.name))
		return markFailed(result, reasonNotFound)
	}
	if t.folder.ScanErr != nil {
		r.logger.Warn("Property folder is unreadable",
			zap.String("run_id", runID),
			zap.String("folder", t.name),
			zap.Error(t.folder.ScanErr))
		return markFailed(result, reasonUnreadable)
	}
	result.ImageCount = len(t.folder.Images)

	if ctx.Err() != nil {
		return markFailed(result, reasonCanceled)
	}

	r.metrics.StartFolder()
	startTime := time.Now()

	images, skipped := r.loader.Load(*t.folder)
	examples := r.examples.Select()
	images, overBudget := r.fitBudget(t.name, images, examples)
	skipped = append(skipped, overBudget...)
	result.Skipped = skipped
	result.ImagesSent = len(images)

	switch {
	case len(images) > 0:
		result, _ = r.classify(ctx, r.newID(), result, images, examples)
	case len(overBudget) > 0:
		result = markFailed(result, reasonOverBudget)
	default:
		result = markFailed(result, reasonNoImages)
		r.logger.Warn("Folder has no readable images",
			zap.String("run_id", runID),
			zap.String("folder", t.name),
			zap.Int("skipped", len(skipped)))
	}

	r.metrics.FinishFolder(string(result.Status), time.Since(startTime), len(skipped))
	r.logger.Info("Folder processed",
		zap.String("run_id", runID),
		zap.String("folder", result.Folder),
		zap.String("status", string(result.Status)),
		zap.String("category", result.Category),
		zap.String("subcategory", result.Subcategory),
		zap.Int("images_sent", result.ImagesSent))
	return result
}

func (r *Runner) classify(ctx context.Context, requestID string, result models.ClassificationResult, images []models.Image, examples []models.Example) (models.ClassificationResult, error) {
	variant := prompts.VariantZeroShot
	if len(examples) > 0 {
		variant = prompts.VariantFewShot
	}

	prompt, err := r.prompts.BuildPrompt(prompts.ModeClassify, variant, prompts.ClassifyData{
		ImageCount:     len(images),
		ExampleCount:   len(examples),
		Hierarchy:      r.taxonomy.HierarchyJSON(),
		Categories:     r.taxonomy.CategoryNames(),
		ImpressionTags: taxonomy.TagSlugs(r.taxonomy.ImpressionTags),
		ObjectTags:     taxonomy.TagSlugs(r.taxonomy.ObjectTags),
	})
	if err != nil {
		return markFailed(result, err.Error()), err
	}

	req := &models.ClassificationRequest{
		RequestID: requestID,
		Folder:    result.Folder,
		Prompt:    prompt,
		Images:    images,
		Examples:  examples,
	}

	label, err := r.classifier.Classify(ctx, req)
	provider := r.classifier.GetProviderName()
	if err != nil {
		code := llm.ErrorCode(err)
		if code == "" {
			code = "error"
		}
		r.metrics.ObserveProviderCall(provider, code)
		r.logger.Error("Classification failed",
			zap.String("request_id", requestID),
			zap.String("folder", result.Folder),
			zap.String("code", code),
			zap.Error(err))
		return markFailed(result, err.Error()), err
	}
	r.metrics.ObserveProviderCall(provider, providerCallSuccess)

	return r.applyLabel(result, label), nil
}

// applyLabel maps the provider answer onto the taxonomy
func (r *Runner) applyLabel(result models.ClassificationResult, label *models.Label) models.ClassificationResult {
	category, subcategory, ok := r.taxonomy.Resolve(label.Category, label.Subcategory)
	if !ok {
		result.Status = models.StatusUnclassified
		result.Category = models.UnclassifiedLabel
		result.Subcategory = ""
		result.Reason = label.Reason
		result.Error = fmt.Sprintf("category %q is not in the category set", label.Category)
		r.logger.Warn("Classifier answered an unknown category",
			zap.String("folder", result.Folder),
			zap.String("category", label.Category))
		return result
	}

	result.Status = models.StatusClassified
	result.Category = category
	result.Subcategory = subcategory
	result.Reason = label.Reason
	result.Confidence = label.Confidence
	result.ImpressionTags = r.taxonomy.FilterImpressionTags(label.ImpressionTags)
	result.ObjectTags = r.taxonomy.FilterObjectTags(label.ObjectTags)
	result.Purpose = label.Purpose
	return result
}

// fitBudget drops trailing images that would push the request over the byte budget
func (r *Runner) fitBudget(folder string, images []models.Image, examples []models.Example) ([]models.Image, []models.SkippedImage) {
	if r.requestBudget <= 0 {
		return images, nil
	}
	kept, skipped := imageset.FitRequestBudget(images, r.requestBudget-imageset.ExamplesInlineSize(examples))
	if len(skipped) > 0 {
		r.logger.Warn("Request size budget reached",
			zap.String("folder", folder),
			zap.Int64("budget_bytes", r.requestBudget),
			zap.Int("sent", len(kept)),
			zap.Int("not_sent", len(skipped)))
	}
	return kept, skipped
}

func markFailed(result models.ClassificationResult, reason string) models.ClassificationResult {
	result.Status = models.StatusFailed
	result.Category = models.UnclassifiedLabel
	result.Subcategory = ""
	result.Error = reason
	return result
}

// selectTargets keeps scan order; requested names missing on disk follow in request order
func selectTargets(folders []models.PropertyFolder, only []string) []target {
	if len(only) == 0 {
		targets := make([]target, len(folders))
		for i := range folders {
			targets[i] = target{name: folders[i].Name, folder: &folders[i]}
		}
		return targets
	}

	wanted := make(map[string]bool, len(only))
	for _, name := range only {
		wanted[name] = true
	}

	var targets []target
	found := make(map[string]bool)
	for i := range folders {
		if wanted[folders[i].Name] {
			targets = append(targets, target{name: folders[i].Name, folder: &folders[i]})
			found[folders[i].Name] = true
		}
	}
	for _, name := range only {
		if !found[name] {
			found[name] = true
			targets = append(targets, target{name: name})
		}
	}
	return targets
}

func modelName(c llm.Classifier) string {
	if m, ok := c.(interface{ Model() string }); ok {
		return m.Model()
	}
	return ""
}
