package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// embeds all .yaml files in the templates folder into Go program at compile time
//
//go:embed templates/*.yaml
var templateFS embed.FS

const (
	ModeClassify    = "classify"
	VariantZeroShot = "zero_shot"
	VariantFewShot  = "few_shot"
)

// PromptProvider renders prompts; implemented by PromptManager and by test stubs
type PromptProvider interface {
	BuildPrompt(mode, variant string, data interface{}) (string, error)
	GetTemplates() map[string]map[string]*template.Template
}

type PromptManager struct {
	templates map[string]map[string]*template.Template // mode -> variant -> compiled template
}

// loaded prompt template file
type PromptTemplate struct {
	BasePrompt string            `yaml:"base_prompt"`
	Variants   map[string]string `yaml:"variants"`
}

// ClassifyData is the data passed to the classify templates
type ClassifyData struct {
	ImageCount     int
	ExampleCount   int
	Hierarchy      string
	Categories     []string
	ImpressionTags []string
	ObjectTags     []string
}

var funcs = template.FuncMap{
	"join": strings.Join,
}

// creates a new prompt manager and loads templates
func NewPromptManager() (*PromptManager, error) {
	pm := &PromptManager{
		templates: make(map[string]map[string]*template.Template),
	}

	if err := pm.loadTemplates(); err != nil {
		return nil, fmt.Errorf("failed to load prompt templates: %w", err)
	}

	return pm, nil
}

// builds a prompt for the given mode and variant
func (pm *PromptManager) BuildPrompt(mode, variant string, data interface{}) (string, error) {
	variants, exists := pm.templates[mode]
	if !exists {
		return "", fmt.Errorf("template not found for mode: %s", mode)
	}

	tmpl, exists := variants[variant]
	if !exists {
		return "", fmt.Errorf("variant '%s' not found for mode '%s'", variant, mode)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s/%s prompt: %w", mode, variant, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func (pm *PromptManager) GetTemplates() map[string]map[string]*template.Template {
	return pm.templates
}

// loadTemplates compiles every YAML prompt file from the embedded filesystem
func (pm *PromptManager) loadTemplates() error {
	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return fmt.Errorf("failed to read templates directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		data, err := templateFS.ReadFile("templates/" + entry.Name())
		if err != nil {
			return fmt.Errorf("failed to read template file %s: %w", entry.Name(), err)
		}

		var promptTemplate PromptTemplate
		if err := yaml.Unmarshal(data, &promptTemplate); err != nil {
			return fmt.Errorf("failed to parse template file %s: %w", entry.Name(), err)
		}

		mode := strings.TrimSuffix(entry.Name(), ".yaml")
		pm.templates[mode] = make(map[string]*template.Template)

		for variant, body := range promptTemplate.Variants {
			var full strings.Builder
			if promptTemplate.BasePrompt != "" {
				full.WriteString(promptTemplate.BasePrompt)
				full.WriteString("\n")
			}
			full.WriteString(body)

			tmpl, err := template.New(mode + "/" + variant).Funcs(funcs).Option("missingkey=error").Parse(full.String())
			if err != nil {
				return fmt.Errorf("failed to compile %s/%s: %w", mode, variant, err)
			}
			pm.templates[mode][variant] = tmpl
		}
	}

	return nil
}
