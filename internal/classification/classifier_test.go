package classification

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shintopc/UPI-voice-alert/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifier_Classify(t *testing.T) {
	c := MustDefault()

	tests := []struct {
		name       string
		title      string
		body       string
		wantAmount string
		wantPayer  string
		wantAccept bool
	}{
		{
			name:       "received with thousands separator and payer after amount",
			title:      "You received ₹1,234.50 from Jane",
			wantAccept: true,
			wantAmount: "1234.50",
			wantPayer:  "Jane",
		},
		{
			name:       "paid you anchor",
			title:      "Ravi Kumar paid you ₹500",
			body:       "Tap to view details",
			wantAccept: true,
			wantAmount: "500",
			wantPayer:  "Ravi Kumar",
		},
		{
			name:       "received from anchor in body",
			title:      "Payment received",
			body:       "Rs. 250.75 received from Anita.",
			wantAccept: true,
			wantAmount: "250.75",
			wantPayer:  "Anita",
		},
		{
			name:       "INR marker and credited keyword falls back to title",
			title:      "Money credited",
			body:       "INR 1,00,000 credited to your account",
			wantAccept: true,
			wantAmount: "100000",
			wantPayer:  "Money credited",
		},
		{
			name:       "rupees word marker with colon",
			title:      "",
			body:       "Rupees: 75 sent you by UPI",
			wantAccept: true,
			wantAmount: "75",
			wantPayer:  model.UnknownPayer,
		},
		{
			name:       "payer stops before via and reference",
			title:      "Payment received",
			body:       "You got Rs 250 from ABC via UPI. Ref 1234",
			wantAccept: true,
			wantAmount: "250",
			wantPayer:  "ABC",
		},
		{
			name:       "payer stops before date",
			title:      "Received ₹250 from Ravi Kumar on 12 Oct",
			wantAccept: true,
			wantAmount: "250",
			wantPayer:  "Ravi Kumar",
		},
		{
			name:       "payer stops at comma",
			body:       "₹90 received from Anita, UPI Ref 5521",
			wantAccept: true,
			wantAmount: "90",
			wantPayer:  "Anita",
		},
		{
			name:       "payer stops at line break",
			title:      "Money received",
			body:       "Rs 40 received from Mohan\nBalance updated",
			wantAccept: true,
			wantAmount: "40",
			wantPayer:  "Mohan",
		},
		{
			name:       "uppercase text is case folded",
			title:      "RECEIVED RS 40 FROM SHOP",
			wantAccept: true,
			wantAmount: "40",
			wantPayer:  "SHOP",
		},
		{
			name:  "failure keyword wins over credit keyword",
			title: "Failed: You received ₹500",
		},
		{
			name:  "payment request",
			title: "Ravi sent you a payment request of ₹300",
		},
		{
			name: "cashback",
			body: "You received ₹10 cashback",
		},
		{
			name: "refund",
			body: "Refund of Rs 99 credited",
		},
		{
			name: "otp",
			body: "Your OTP for receiving ₹100 is 123456. Received",
		},
		{
			name:  "declined",
			title: "Payment of ₹50 from Ravi declined, not received",
		},
		{
			name:  "no credit keyword",
			title: "You paid ₹500 to Grocery Mart",
		},
		{
			name:  "credit keyword without amount",
			title: "You received a new message",
		},
		{
			name:  "zero amount",
			title: "You received ₹0",
		},
		{
			name:  "separator only is malformed",
			title: "Received Rs, thanks",
		},
		{
			name: "currency marker inside a word is ignored",
			body: "Received yours 500",
		},
		{
			name: "empty input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.title, tt.body)

			if !tt.wantAccept {
				assert.False(t, got.Accepted)
				assert.Equal(t, model.Rejected, got)
				return
			}

			require.True(t, got.Accepted)
			assert.True(t, decimal.RequireFromString(tt.wantAmount).Equal(got.Amount),
				"amount = %s, want %s", got.Amount, tt.wantAmount)
			assert.Equal(t, tt.wantPayer, got.PayerName)
			assert.Equal(t, tt.title+" | "+tt.body, got.Evidence)
		})
	}
}

func TestClassifier_RejectionPrecedence(t *testing.T) {
	c := MustDefault()
	credits := []string{"You received ₹500 from Ravi", "Ravi paid you Rs 20", "INR 10 credited", "Ravi sent you ₹5"}

	for _, kw := range DefaultRules().RejectKeywords {
		for _, text := range credits {
			t.Run(kw+"/"+text, func(t *testing.T) {
				assert.False(t, c.Classify(text, kw).Accepted)
				assert.False(t, c.Classify(kw+" "+text, "").Accepted)
			})
		}
	}
}

func TestClassifier_AcceptsCreditWithAmount(t *testing.T) {
	c := MustDefault()
	amounts := map[string]string{
		"₹1":           "1",
		"₹ 12.5":       "12.5",
		"Rs.99.99":     "99.99",
		"rs 1,000":     "1000",
		"INR 7,50,000": "750000",
		"rupee 3.05":   "3.05",
	}

	for _, kw := range DefaultRules().CreditKeywords {
		for expr, want := range amounts {
			t.Run(kw+"/"+expr, func(t *testing.T) {
				got := c.Classify("Payment "+kw, expr)
				require.True(t, got.Accepted)
				assert.True(t, decimal.RequireFromString(want).Equal(got.Amount))
			})
		}
	}
}

func TestClassifier_FirstAmountWins(t *testing.T) {
	c := MustDefault()
	got := c.Classify("You received ₹200", "Balance Rs 5,000")

	require.True(t, got.Accepted)
	assert.True(t, decimal.NewFromInt(200).Equal(got.Amount))
}

func TestClassifier_FractionLimitedToTwoDigits(t *testing.T) {
	c := MustDefault()
	got := c.Classify("You received ₹10.505", "")

	require.True(t, got.Accepted)
	assert.Equal(t, "10.5", got.Amount.String())
}

func TestNewClassifier_InvalidRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Rules)
	}{
		{"no credit keywords", func(r *Rules) { r.CreditKeywords = nil }},
		{"blank keyword", func(r *Rules) { r.RejectKeywords = append(r.RejectKeywords, "  ") }},
		{"empty amount pattern", func(r *Rules) { r.AmountPattern = "" }},
		{"amount pattern without group", func(r *Rules) { r.AmountPattern = `₹\d+` }},
		{"bad regex", func(r *Rules) { r.AmountPattern = `(₹[` }},
		{"bad anchor", func(r *Rules) { r.PayerAnchors = []PayerAnchor{{Name: "x", Pattern: "from"}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := DefaultRules()
			tt.mutate(&rules)

			_, err := NewClassifier(rules)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidRules)
		})
	}
}

func TestDefaultRules(t *testing.T) {
	rules := DefaultRules()

	assert.NoError(t, rules.Validate())
	assert.Contains(t, rules.RejectKeywords, "otp")
	assert.Contains(t, rules.CreditKeywords, "paid you")
	require.GreaterOrEqual(t, len(rules.PayerAnchors), 2)
	assert.Equal(t, "received from", rules.PayerAnchors[0].Name)
	assert.Equal(t, "paid you", rules.PayerAnchors[1].Name)
}

func TestLoadRules(t *testing.T) {
	dir := t.TempDir()

	t.Run("partial file keeps defaults", func(t *testing.T) {
		path := filepath.Join(dir, "rules.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
reject_keywords:
  - collect
credit_keywords:
  - deposited
`), 0o600))

		rules, err := LoadRules(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"collect"}, rules.RejectKeywords)
		assert.Equal(t, []string{"deposited"}, rules.CreditKeywords)
		assert.Equal(t, DefaultRules().AmountPattern, rules.AmountPattern)

		c, err := NewClassifier(rules)
		require.NoError(t, err)
		assert.True(t, c.Classify("₹30 deposited", "").Accepted)
		assert.False(t, c.Classify("₹30 received", "").Accepted)
		assert.False(t, c.Classify("collect ₹30 deposited", "").Accepted)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(dir, "broken.yaml")
		require.NoError(t, os.WriteFile(path, []byte("reject_keywords: [unterminated"), 0o600))

		_, err := LoadRules(path)
		assert.Error(t, err)
	})

	t.Run("invalid pattern", func(t *testing.T) {
		path := filepath.Join(dir, "pattern.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`amount_pattern: "(["`), 0o600))

		_, err := LoadRules(path)
		assert.ErrorIs(t, err, ErrInvalidRules)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRules(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})
}
