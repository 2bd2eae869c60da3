package classification

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidRules indicates a rules set that cannot drive a classifier.
var ErrInvalidRules = errors.New("invalid classifier rules")

// Rules holds the keyword lists and patterns used to read notifications.
// Keywords are matched as case-insensitive substrings; patterns are
// case-insensitive regular expressions with one capture group.
type Rules struct {
	AmountPattern  string        `yaml:"amount_pattern"`
	RejectKeywords []string      `yaml:"reject_keywords"`
	CreditKeywords []string      `yaml:"credit_keywords"`
	PayerAnchors   []PayerAnchor `yaml:"payer_anchors"`
}

// PayerAnchor extracts a payer name from text around a fixed phrase.
type PayerAnchor struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
}

// LoadRules reads a YAML rules file. Sections missing from the file keep
// their default values.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()

	data, err := os.ReadFile(path) //nolint:gosec // Path comes from local configuration
	if err != nil {
		return Rules{}, fmt.Errorf("failed to read rules file: %w", err)
	}

	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}

	if err := rules.Validate(); err != nil {
		return Rules{}, err
	}

	return rules, nil
}

// Validate checks that every pattern compiles and captures a value.
func (r Rules) Validate() error {
	if len(r.CreditKeywords) == 0 {
		return fmt.Errorf("%w: at least one credit keyword is required", ErrInvalidRules)
	}
	for _, kw := range append(append([]string{}, r.RejectKeywords...), r.CreditKeywords...) {
		if strings.TrimSpace(kw) == "" {
			return fmt.Errorf("%w: empty keyword", ErrInvalidRules)
		}
	}

	if _, err := compilePattern(r.AmountPattern); err != nil {
		return fmt.Errorf("%w: amount pattern: %w", ErrInvalidRules, err)
	}

	for _, anchor := range r.PayerAnchors {
		if _, err := compilePattern(anchor.Pattern); err != nil {
			return fmt.Errorf("%w: payer anchor %q: %w", ErrInvalidRules, anchor.Name, err)
		}
	}

	return nil
}

func compilePattern(pattern string) (*regexp.Regexp, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, errors.New("pattern is empty")
	}
	if !strings.HasPrefix(pattern, "(?i)") {
		pattern = "(?i)" + pattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	if re.NumSubexp() < 1 {
		return nil, errors.New("pattern must have a capture group")
	}
	return re, nil
}
