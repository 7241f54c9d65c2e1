package prompts

import (
	"strings"
	"testing"
)

func testData() ClassifyData {
	return ClassifyData{
		ImageCount:     3,
		ExampleCount:   2,
		Hierarchy:      `{"自然": ["山", "海"]}`,
		Categories:     []string{"自然"},
		ImpressionTags: []string{"modern", "retro"},
	}
}

func TestPromptManagerBuildPrompt(t *testing.T) {
	pm, err := NewPromptManager()
	if err != nil {
		t.Fatalf("NewPromptManager error: %v", err)
	}

	prompt, err := pm.BuildPrompt(ModeClassify, VariantZeroShot, testData())
	if err != nil {
		t.Fatalf("BuildPrompt error: %v", err)
	}
	if !containsAll(prompt, []string{"3枚", `"自然": ["山", "海"]`, "modern, retro", `"category"`}) {
		t.Fatalf("prompt did not contain expected values: %s", prompt)
	}
	if strings.Contains(prompt, "オブジェクトタグの選択肢") {
		t.Fatalf("object tag section should be omitted when no tags are given: %s", prompt)
	}

	fewShot, err := pm.BuildPrompt(ModeClassify, VariantFewShot, testData())
	if err != nil {
		t.Fatalf("BuildPrompt few_shot error: %v", err)
	}
	if !strings.Contains(fewShot, "2枚の例示画像") {
		t.Fatalf("few-shot prompt should mention the examples: %s", fewShot)
	}

	if _, err := pm.BuildPrompt("unknown", VariantZeroShot, testData()); err == nil {
		t.Fatalf("expected error for unknown mode")
	}

	if _, err := pm.BuildPrompt(ModeClassify, "missing", testData()); err == nil {
		t.Fatalf("expected error for missing variant")
	}

	if len(pm.GetTemplates()) == 0 {
		t.Fatalf("expected templates to be loaded")
	}
}

func TestPromptManagerMissingKey(t *testing.T) {
	pm, err := NewPromptManager()
	if err != nil {
		t.Fatalf("NewPromptManager error: %v", err)
	}

	if _, err := pm.BuildPrompt(ModeClassify, VariantZeroShot, map[string]interface{}{"ImageCount": 1}); err == nil {
		t.Fatal("expected error when template data is incomplete")
	}
}

func containsAll(haystack string, terms []string) bool {
	for _, term := range terms {
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	return true
}
