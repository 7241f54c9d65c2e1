package taxonomy

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/RIDLEYsan/studio-classification-app/internal/utils"
)

//go:embed default.yaml
var defaultYAML []byte

var ErrEmptyTaxonomy = errors.New("taxonomy has no categories")

// Taxonomy is the fixed label set a folder is classified into
type Taxonomy struct {
	Categories     []Category `yaml:"categories" json:"categories"`
	ImpressionTags []TagGroup `yaml:"impression_tags" json:"impression_tags,omitempty"`
	ObjectTags     []TagGroup `yaml:"object_tags" json:"object_tags,omitempty"`

	categoryIndex map[string]int
	impression    map[string]bool
	objects       map[string]bool
}

// broad category and its specific items
type Category struct {
	Name  string   `yaml:"name" json:"name"`
	Items []string `yaml:"items" json:"items"`
}

type TagGroup struct {
	Group string `yaml:"group" json:"group"`
	Tags  []Tag  `yaml:"tags" json:"tags"`
}

type Tag struct {
	Label string `yaml:"label" json:"label"`
	Slug  string `yaml:"slug" json:"slug"`
}

// Default returns the built-in studio category set
func Default() *Taxonomy {
	t, err := Parse(defaultYAML)
	if err != nil {
		panic("invalid embedded taxonomy: " + err.Error())
	}
	return t
}

// Load reads a taxonomy from a YAML file; an empty path yields Default()
func Load(path string) (*Taxonomy, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read taxonomy file %s: %w", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load taxonomy file %s: %w", path, err)
	}
	return t, nil
}

func Parse(data []byte) (*Taxonomy, error) {
	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse taxonomy: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	t.index()
	return &t, nil
}

func (t *Taxonomy) Validate() error {
	if len(t.Categories) == 0 {
		return ErrEmptyTaxonomy
	}
	seen := make(map[string]bool)
	for i, c := range t.Categories {
		name := utils.NormalizeLabel(c.Name)
		if name == "" {
			return fmt.Errorf("category %d has an empty name", i)
		}
		if seen[name] {
			return fmt.Errorf("duplicate category %q", c.Name)
		}
		seen[name] = true
		for _, item := range c.Items {
			if strings.TrimSpace(item) == "" {
				return fmt.Errorf("category %q has an empty item", c.Name)
			}
		}
	}
	for _, groups := range [][]TagGroup{t.ImpressionTags, t.ObjectTags} {
		for _, g := range groups {
			for _, tag := range g.Tags {
				if tag.Slug == "" {
					return fmt.Errorf("tag %q in group %q has no slug", tag.Label, g.Group)
				}
			}
		}
	}
	return nil
}

func (t *Taxonomy) index() {
	t.categoryIndex = make(map[string]int, len(t.Categories))
	for i, c := range t.Categories {
		t.categoryIndex[utils.NormalizeLabel(c.Name)] = i
	}
	t.impression = slugSet(t.ImpressionTags)
	t.objects = slugSet(t.ObjectTags)
}

func slugSet(groups []TagGroup) map[string]bool {
	set := make(map[string]bool)
	for _, g := range groups {
		for _, tag := range g.Tags {
			set[tag.Slug] = true
		}
	}
	return set
}

func (t *Taxonomy) CategoryNames() []string {
	names := make([]string, len(t.Categories))
	for i, c := range t.Categories {
		names[i] = c.Name
	}
	return names
}

// Subcategories flattens every item of every category, duplicates removed, order kept
func (t *Taxonomy) Subcategories() []string {
	seen := make(map[string]bool)
	var items []string
	for _, c := range t.Categories {
		for _, item := range c.Items {
			if !seen[item] {
				seen[item] = true
				items = append(items, item)
			}
		}
	}
	return items
}

// Resolve maps a model answer onto the canonical names. ok is false when the
// category is not part of the set; a subcategory outside the category is dropped.
func (t *Taxonomy) Resolve(category, subcategory string) (string, string, bool) {
	idx, found := t.categoryIndex[utils.NormalizeLabel(category)]
	if !found {
		return "", "", false
	}
	c := t.Categories[idx]

	want := utils.NormalizeLabel(subcategory)
	for _, item := range c.Items {
		if utils.NormalizeLabel(item) == want {
			return c.Name, item, true
		}
	}
	return c.Name, "", true
}

// FilterImpressionTags keeps only known impression slugs, duplicates removed
func (t *Taxonomy) FilterImpressionTags(slugs []string) []string {
	return filter(t.impression, slugs)
}

// FilterObjectTags keeps only known object slugs, duplicates removed
func (t *Taxonomy) FilterObjectTags(slugs []string) []string {
	return filter(t.objects, slugs)
}

func filter(known map[string]bool, slugs []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range slugs {
		s = strings.TrimSpace(s)
		if known[s] && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// HierarchyJSON renders categories as {"name": [items...]} for prompts
func (t *Taxonomy) HierarchyJSON() string {
	var b strings.Builder
	b.WriteString("{\n")
	for i, c := range t.Categories {
		name, _ := json.Marshal(c.Name)
		items, _ := json.Marshal(c.Items)
		b.WriteString("  ")
		b.Write(name)
		b.WriteString(": ")
		b.Write(items)
		if i < len(t.Categories)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("}")
	return b.String()
}

// TagSlugs lists slugs of the given groups in declaration order
func TagSlugs(groups []TagGroup) []string {
	var slugs []string
	for _, g := range groups {
		for _, tag := range g.Tags {
			slugs = append(slugs, tag.Slug)
		}
	}
	return slugs
}
