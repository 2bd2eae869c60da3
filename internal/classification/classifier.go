// Package classification reads payment notifications and decides whether
// they announce an incoming payment.
package classification

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shintopc/UPI-voice-alert/internal/model"
	"github.com/shopspring/decimal"
)

type compiledAnchor struct {
	regex *regexp.Regexp
	PayerAnchor
}

// Classifier applies a rules set to notification text. It holds no mutable
// state and is safe for concurrent use.
type Classifier struct {
	amountRegex *regexp.Regexp
	reject      []string
	credit      []string
	anchors     []compiledAnchor
}

// NewClassifier compiles the given rules.
func NewClassifier(rules Rules) (*Classifier, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}

	amountRegex, err := compilePattern(rules.AmountPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to compile amount pattern: %w", err)
	}

	anchors := make([]compiledAnchor, 0, len(rules.PayerAnchors))
	for _, a := range rules.PayerAnchors {
		re, err := compilePattern(a.Pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to compile payer anchor %s: %w", a.Name, err)
		}
		anchors = append(anchors, compiledAnchor{PayerAnchor: a, regex: re})
	}

	return &Classifier{
		amountRegex: amountRegex,
		reject:      lowerAll(rules.RejectKeywords),
		credit:      lowerAll(rules.CreditKeywords),
		anchors:     anchors,
	}, nil
}

// MustDefault returns a classifier built from DefaultRules.
func MustDefault() *Classifier {
	c, err := NewClassifier(DefaultRules())
	if err != nil {
		panic(fmt.Sprintf("default classifier rules are invalid: %v", err))
	}
	return c
}

// Classify decides whether a notification is a confirmed incoming payment.
// Rejection keywords win over everything else.
func (c *Classifier) Classify(title, body string) model.Classification {
	text := strings.ToLower(title + " " + body)

	if containsAny(text, c.reject) {
		return model.Rejected
	}
	if !containsAny(text, c.credit) {
		return model.Rejected
	}

	amount, ok := c.extractAmount(text)
	if !ok {
		return model.Rejected
	}

	evidence := model.NotificationEvent{Title: title, Body: body}.Evidence()
	return model.Accept(amount, c.extractPayer(title, body), evidence)
}

// extractAmount parses the first currency-prefixed number.
func (c *Classifier) extractAmount(text string) (decimal.Decimal, bool) {
	match := c.amountRegex.FindStringSubmatch(text)
	if match == nil {
		return decimal.Zero, false
	}

	raw := strings.ReplaceAll(match[1], ",", "")
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	if !amount.IsPositive() {
		return decimal.Zero, false
	}
	return amount, true
}

// extractPayer tries each anchor against the title and then the body,
// falling back to the title itself.
func (c *Classifier) extractPayer(title, body string) string {
	for _, anchor := range c.anchors {
		for _, field := range []string{title, body} {
			match := anchor.regex.FindStringSubmatch(field)
			if match == nil {
				continue
			}
			if name := cleanName(match[1]); name != "" {
				return name
			}
		}
	}

	if name := strings.TrimSpace(title); name != "" {
		return name
	}
	return model.UnknownPayer
}

func cleanName(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), " .,!:;-")
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(s))
	}
	return out
}
