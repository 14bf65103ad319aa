package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is the on-disk shape of a rule file.
//
//	rules:
//	  - number: 1
//	    property: category
//	    predicate: equals
//	    value: Walls
//	    severity: error
//	    message: "{property} must be {value}"
type Document struct {
	Rules []Rule `json:"rules" yaml:"rules"`
}

// LoadFile reads a rule file (YAML or JSON). Format is detected by
// extension (.yaml/.yml, .json) or by content.
func LoadFile(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rules: read %q: %w", path, err)
	}
	rs, err := Load(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("rules: load %q: %w", path, err)
	}
	return rs, nil
}

// Load parses rules from bytes. ext is the file extension used as a format
// hint; empty means detect from content. Rules without a number are
// numbered by position (1-based). Every rule is validated; all validation
// failures are reported together.
func Load(data []byte, ext string) ([]Rule, error) {
	doc, err := decode(data, ext)
	if err != nil {
		return nil, err
	}

	var errs []error
	for i := range doc.Rules {
		if doc.Rules[i].Number == 0 {
			doc.Rules[i].Number = i + 1
		}
		if err := doc.Rules[i].Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return doc.Rules, nil
}

// SetFuzzyThreshold gives every fuzzy rule without its own threshold the
// supplied one. Rules that set a threshold, zero included, keep it.
func SetFuzzyThreshold(rs []Rule, threshold float64) {
	for i := range rs {
		if rs[i].Fuzzy && rs[i].Threshold == nil {
			t := threshold
			rs[i].Threshold = &t
		}
	}
}

func decode(data []byte, ext string) (*Document, error) {
	ext = strings.ToLower(ext)
	if ext == ".yml" {
		ext = ".yaml"
	}
	if ext == "" {
		// Detect: JSON documents start with {, anything else is YAML.
		if strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
			ext = ".json"
		} else {
			ext = ".yaml"
		}
	}

	var doc Document
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse rules json: %w", err)
		}
	case ".yaml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse rules yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported rule file extension %q", ext)
	}
	return &doc, nil
}
