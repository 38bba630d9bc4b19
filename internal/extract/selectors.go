package extract

import (
	"errors"
	"fmt"
	"os"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

// SelectorsVersion is the only selector schema version this build understands.
const SelectorsVersion = 1

// Selectors describes where answer text lives on the target site. Keeping it
// as data lets the class-name guesses change without a code change.
type Selectors struct {
	Version   int `yaml:"version" json:"version"`
	Container struct {
		// Tag is the element name searched for, e.g. "div".
		Tag string `yaml:"tag" json:"tag"`
		// ClassContains lists case-insensitive substrings; the first element
		// whose class attribute contains any of them is the answer container.
		ClassContains []string `yaml:"classContains" json:"classContains"`
	} `yaml:"container" json:"container"`
	Fallback struct {
		// Tag elements are concatenated when no container matches.
		Tag string `yaml:"tag" json:"tag"`
	} `yaml:"fallback" json:"fallback"`
}

// DefaultSelectors returns the built-in version 1 configuration for quora.com.
func DefaultSelectors() Selectors {
	var s Selectors
	s.Version = SelectorsVersion
	s.Container.Tag = "div"
	s.Container.ClassContains = []string{"AnswerBase", "AnswerItem"}
	s.Fallback.Tag = "p"
	return s
}

// Validate checks the version and required fields.
func (s Selectors) Validate() error {
	if s.Version != SelectorsVersion {
		return fmt.Errorf("selectors: unsupported version %d (want %d)", s.Version, SelectorsVersion)
	}
	if strings.TrimSpace(s.Container.Tag) == "" {
		return errors.New("selectors: container.tag is required")
	}
	if len(s.Container.ClassContains) == 0 {
		return errors.New("selectors: container.classContains must not be empty")
	}
	for _, c := range s.Container.ClassContains {
		if strings.TrimSpace(c) == "" {
			return errors.New("selectors: container.classContains has an empty entry")
		}
	}
	if strings.TrimSpace(s.Fallback.Tag) == "" {
		return errors.New("selectors: fallback.tag is required")
	}
	return nil
}

// LoadSelectors reads a YAML selector file. An empty path yields the defaults.
func LoadSelectors(path string) (Selectors, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultSelectors(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Selectors{}, err
	}
	return ParseSelectors(b)
}

// ParseSelectors decodes YAML (or JSON, which YAML accepts) and validates it.
func ParseSelectors(b []byte) (Selectors, error) {
	var s Selectors
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Selectors{}, fmt.Errorf("parse selectors: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Selectors{}, err
	}
	return s, nil
}
