package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/satriahrh/cocoa-fruit/teacher/domain"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is the set of canned prompts and the starting prompt context.
type Catalog struct {
	Title    string   `yaml:"title"`
	Defaults Defaults `yaml:"defaults"`
	Prompts  []string `yaml:"prompts"`
}

type Defaults struct {
	Role          string          `yaml:"role"`
	TeachingStyle string          `yaml:"teaching_style"`
	Semester      domain.Semester `yaml:"semester"`
}

// Context returns the prompt context a fresh session starts with.
func (c Catalog) Context() domain.PromptContext {
	return domain.PromptContext{
		Role:          c.Defaults.Role,
		TeachingStyle: c.Defaults.TeachingStyle,
		Semester:      c.Defaults.Semester,
	}
}

// Default returns the catalog compiled into the binary.
func Default() Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Errorf("parsing embedded catalog: %w", err))
	}
	return c
}

// Load reads a catalog file, or the embedded one when path is empty.
func Load(path string) (Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("reading catalog: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("decoding catalog: %w", err)
	}
	if c.Defaults.Semester == 0 {
		c.Defaults.Semester = domain.FirstSemester
	}
	if err := c.validate(); err != nil {
		return Catalog{}, err
	}
	return c, nil
}

func (c Catalog) validate() error {
	if len(c.Prompts) == 0 {
		return errors.New("catalog has no prompts")
	}
	seen := make(map[string]struct{}, len(c.Prompts))
	for i, p := range c.Prompts {
		if p == "" {
			return fmt.Errorf("prompt %d is empty", i)
		}
		if _, dup := seen[p]; dup {
			return fmt.Errorf("duplicate prompt %q", p)
		}
		seen[p] = struct{}{}
	}
	return nil
}
