// Package catalog holds the static content bundled with the assistant:
// the lesson catalog, the welcome texts and the default legal corpus.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"

	"trafficsafe-backend/models"

	"gopkg.in/yaml.v3"
)

//go:embed data/lessons.yaml
var lessonsYAML []byte

//go:embed data/luat_giao_thong.txt
var legalCorpus string

// DefaultLang is used when a conversation does not ask for a language
const DefaultLang = "vi"

// Catalog is the parsed lesson catalog
type Catalog struct {
	Welcome map[string]string `yaml:"welcome"`
	Lessons []models.Lesson   `yaml:"lessons"`
}

// Load parses the embedded catalog
func Load() (*Catalog, error) {
	return Parse(lessonsYAML)
}

// Parse decodes and validates a catalog document
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse lesson catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	if len(c.Lessons) == 0 {
		return errors.New("lesson catalog is empty")
	}
	seen := make(map[int]bool, len(c.Lessons))
	for _, l := range c.Lessons {
		if l.ID < 1 || l.ID > len(c.Lessons) {
			return fmt.Errorf("lesson id %d out of range 1..%d", l.ID, len(c.Lessons))
		}
		if seen[l.ID] {
			return fmt.Errorf("duplicate lesson id %d", l.ID)
		}
		seen[l.ID] = true
		if l.Key == "" || l.Title == "" || l.Content == "" {
			return fmt.Errorf("lesson %d is missing key, title or content", l.ID)
		}
	}
	if c.Welcome[DefaultLang] == "" {
		return fmt.Errorf("welcome text for %q is required", DefaultLang)
	}
	return nil
}

// WelcomeText returns the greeting for lang, falling back to Vietnamese
func (c *Catalog) WelcomeText(lang string) string {
	if text, ok := c.Welcome[lang]; ok && text != "" {
		return text
	}
	return c.Welcome[DefaultLang]
}

// LegalCorpus returns the bundled legal reference text
func LegalCorpus() string {
	return legalCorpus
}
