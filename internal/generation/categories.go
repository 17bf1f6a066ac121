package generation

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed config/categories.yaml
var configFiles embed.FS

// Category pairs a prompt category with the model and system instruction used for it.
type Category struct {
	Name        string `yaml:"name" json:"name"`
	Model       string `yaml:"model" json:"model"`
	Instruction string `yaml:"instruction" json:"-"`
}

type categoryFile struct {
	DefaultCategory     string     `yaml:"default_category"`
	FallbackInstruction string     `yaml:"fallback_instruction"`
	Categories          []Category `yaml:"categories"`
}

// Categories is the closed set of prompt categories. It is read-only after load.
type Categories struct {
	byName   map[string]Category
	order    []string
	fallback Category
}

// LoadCategories parses the embedded category table.
func LoadCategories() (*Categories, error) {
	data, err := configFiles.ReadFile("config/categories.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read categories: %w", err)
	}
	return parseCategories(data)
}

func parseCategories(data []byte) (*Categories, error) {
	var file categoryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal categories: %w", err)
	}
	if len(file.Categories) == 0 {
		return nil, fmt.Errorf("category table is empty")
	}

	c := &Categories{byName: make(map[string]Category, len(file.Categories))}
	for _, cat := range file.Categories {
		if cat.Name == "" || cat.Model == "" {
			return nil, fmt.Errorf("category %q is missing a name or model", cat.Name)
		}
		if _, dup := c.byName[cat.Name]; dup {
			return nil, fmt.Errorf("duplicate category %q", cat.Name)
		}
		if strings.TrimSpace(cat.Instruction) == "" {
			cat.Instruction = file.FallbackInstruction
		}
		c.byName[cat.Name] = cat
		c.order = append(c.order, cat.Name)
	}

	def, ok := c.byName[file.DefaultCategory]
	if !ok {
		return nil, fmt.Errorf("default category %q is not defined", file.DefaultCategory)
	}
	c.fallback = def
	return c, nil
}

// Resolve returns the named category. Unknown or empty names get the default.
func (c *Categories) Resolve(name string) Category {
	if cat, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return cat
	}
	return c.fallback
}

// Names lists the categories in table order
func (c *Categories) Names() []string {
	return append([]string(nil), c.order...)
}
