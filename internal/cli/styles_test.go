package cli

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRupees(t *testing.T) {
	assert.Equal(t, "₹500.00", Rupees(decimal.NewFromInt(500)))
	assert.Equal(t, "₹1234.50", Rupees(decimal.RequireFromString("1234.5")))
}

func TestPayments(t *testing.T) {
	for n, want := range map[int]string{0: "0 payments", 1: "1 payment", 2: "2 payments", 120: "120 payments"} {
		assert.Equal(t, want, Payments(n))
	}
}

func TestBar(t *testing.T) {
	maxValue := decimal.NewFromInt(100)

	tests := []struct {
		name  string
		value decimal.Decimal
		width int
		want  int
	}{
		{"full", decimal.NewFromInt(100), 10, 10},
		{"half", decimal.NewFromInt(50), 10, 5},
		{"rounds up", decimal.NewFromInt(1), 10, 1},
		{"zero", decimal.Zero, 10, 0},
		{"no width", decimal.NewFromInt(50), 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := Bar(tt.value, maxValue, tt.width)
			assert.Equal(t, tt.want, strings.Count(bar, "█"))
		})
	}
}

func TestFormatMessages(t *testing.T) {
	assert.Contains(t, FormatSuccess("done"), "done")
	assert.Contains(t, FormatError("boom"), ErrorIcon)
	assert.Contains(t, FormatTitle("Today"), "Today")
	assert.Contains(t, RenderBox("Summary", "₹10.00"), "Summary")
}
