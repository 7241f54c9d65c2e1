package gemini

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/RIDLEYsan/studio-classification-app/internal/models"
	"github.com/RIDLEYsan/studio-classification-app/internal/utils"
)

var errMissingCategory = errors.New("response has no category")

// accepted spellings for each field, English first
var (
	categoryKeys    = []string{"category", "broad_category", "大分類"}
	subcategoryKeys = []string{"subcategory", "specific_item", "小項目"}
	reasonKeys      = []string{"reason", "判定理由"}
	confidenceKeys  = []string{"confidence", "確信度"}
	impressionKeys  = []string{"impression_tags", "印象タグ"}
	objectKeys      = []string{"object_tags", "オブジェクトタグ"}
	purposeKeys     = []string{"purpose", "撮影用途"}
)

// parseLabel turns the model's JSON answer into a Label. Category names are
// returned as the model wrote them; mapping onto the taxonomy happens upstream.
func parseLabel(text string) (*models.Label, error) {
	payload := utils.ExtractJSONObject(utils.StripFences(text))

	var raw map[string]any
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON in response: %w", err)
	}

	label := &models.Label{
		Category:       lookupString(raw, categoryKeys),
		Subcategory:    lookupString(raw, subcategoryKeys),
		Reason:         lookupString(raw, reasonKeys),
		ImpressionTags: lookupStrings(raw, impressionKeys),
		ObjectTags:     lookupStrings(raw, objectKeys),
		Purpose:        lookupString(raw, purposeKeys),
	}
	if label.Category == "" {
		return nil, errMissingCategory
	}

	if v, ok := lookup(raw, confidenceKeys); ok {
		label.Confidence = normalizeConfidence(v)
	}
	return label, nil
}

func lookup(raw map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func lookupString(raw map[string]any, keys []string) string {
	v, ok := lookup(raw, keys)
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	}
	return ""
}

// lookupStrings accepts a JSON array or a comma separated string
func lookupStrings(raw map[string]any, keys []string) []string {
	v, ok := lookup(raw, keys)
	if !ok {
		return nil
	}

	var out []string
	switch list := v.(type) {
	case []any:
		for _, item := range list {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case string:
		for _, part := range strings.FieldsFunc(list, func(r rune) bool { return r == ',' || r == '、' }) {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// normalizeConfidence maps 0-1, 1-10 and 1-100 scales onto [0,1]
func normalizeConfidence(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(n), "%"), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}

	switch {
	case f <= 0:
		return 0
	case f <= 1:
		return f
	case f <= 10:
		return f / 10
	case f <= 100:
		return f / 100
	}
	return 1
}
