package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"4.617,50 TL", "4617.50"},
		{"1.200", "1200"},
		{"1.200 TL", "1200"},
		{"899,90", "899.90"},
		{"₺139,90", "139.90"},
		{"12.345.678,9", "12345678.9"},
		{"  750 TL ", "750"},
		{"1000", "1000"},
		{"", "0"},
		{"-", "0"},
		{"   ", "0"},
		{"abc", "0"},
		{"Sepette", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got := ParsePrice(tc.in)
			assert.True(t, decimal.RequireFromString(tc.want).Equal(got), "ParsePrice(%q) = %s, want %s", tc.in, got, tc.want)
		})
	}
}

func TestParseAmount(t *testing.T) {
	assert.True(t, ParseAmount("990.50").Equal(decimal.RequireFromString("990.5")))
	assert.True(t, ParseAmount(" 120 ").Equal(decimal.NewFromInt(120)))
	assert.True(t, ParseAmount("").IsZero())
	assert.True(t, ParseAmount("n/a").IsZero())
}
