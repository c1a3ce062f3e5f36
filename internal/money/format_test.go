package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestFormatINR(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "0", want: "₹0.00"},
		{in: "409.5", want: "₹409.50"},
		{in: "1000", want: "₹1,000.00"},
		{in: "123456.5", want: "₹1,23,456.50"},
		{in: "12345678.9", want: "₹1,23,45,678.90"},
		{in: "-2500.125", want: "-₹2,500.13"},
		{in: "-0.001", want: "₹0.00"},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			require.Equal(t, tc.want, FormatINR(decimal.RequireFromString(tc.in)))
		})
	}
}

func TestGroupIndianWithoutFraction(t *testing.T) {
	require.Equal(t, "10,00,000", GroupIndian("1000000"))
	require.Equal(t, "999", GroupIndian("999"))
}
