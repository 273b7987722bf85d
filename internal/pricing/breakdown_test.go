package pricing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeBreakdown_ReferenceFixture(t *testing.T) {
	b, err := ComputeBreakdown(45000, 3, 10000, DefaultFeeRates())
	require.NoError(t, err)

	want := PriceBreakdown{
		BasePrice:          45000,
		Nights:             3,
		Subtotal:           135000,
		CleaningFee:        10000,
		ServiceFee:         18900,
		VATAmount:          7695,
		PlatformCommission: 16200,
		ProcessingFee:      4015,
		GuestTotal:         171595,
		HostEarnings:       124785,
	}
	assert.Equal(t, want, b)
	assert.Equal(t, Money(46810), b.PlatformTake())
}

func TestComputeBreakdown_InvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		base     Money
		nights   int
		cleaning Money
		rates    FeeRates
	}{
		{name: "zero base price", base: 0, nights: 1, rates: DefaultFeeRates()},
		{name: "negative base price", base: -100, nights: 1, rates: DefaultFeeRates()},
		{name: "zero nights", base: 45000, nights: 0, rates: DefaultFeeRates()},
		{name: "negative cleaning fee", base: 45000, nights: 2, cleaning: -1, rates: DefaultFeeRates()},
		{name: "negative rate", base: 45000, nights: 2, rates: FeeRates{ServiceBps: -1}},
		{name: "rate above 100%", base: 45000, nights: 2, rates: FeeRates{VATBps: 10001}},
		{name: "overflow", base: MaxAmount, nights: 2, rates: DefaultFeeRates()},
		{name: "fees exceed host payout", base: 50, nights: 1, rates: DefaultFeeRates()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeBreakdown(tt.base, tt.nights, tt.cleaning, tt.rates)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidArgument), "got %v", err)
		})
	}
}

func TestComputeBreakdown_Properties(t *testing.T) {
	rates := DefaultFeeRates()
	bases := []Money{200, 999, 12345, 45000, 100001, 7_654_321}
	cleanings := []Money{0, 1, 5000, 33333}

	for _, base := range bases {
		for nights := 1; nights <= 30; nights += 7 {
			for _, cleaning := range cleanings {
				b, err := ComputeBreakdown(base, nights, cleaning, rates)
				require.NoError(t, err)

				stay := b.Subtotal + b.CleaningFee
				assert.GreaterOrEqual(t, b.GuestTotal, stay)
				assert.LessOrEqual(t, b.HostEarnings, stay)
				assert.GreaterOrEqual(t, b.GuestTotal, b.HostEarnings)
				assert.GreaterOrEqual(t, b.HostEarnings, Money(0))

				take := b.ServiceFee + b.VATAmount + b.PlatformCommission + b.ProcessingFee
				assert.Equal(t, take, b.PlatformTake(), "base=%d nights=%d cleaning=%d", base, nights, cleaning)

				again, err := ComputeBreakdown(base, nights, cleaning, rates)
				require.NoError(t, err)
				assert.Equal(t, b, again)
			}
		}
	}
}

func TestComputeBreakdown_RoundsHalfUp(t *testing.T) {
	// 50 * 1% = 0.5 -> 1
	b, err := ComputeBreakdown(50, 1, 0, FeeRates{ServiceBps: 100})
	require.NoError(t, err)
	assert.Equal(t, Money(1), b.ServiceFee)

	// 49 * 1% = 0.49 -> 0
	b, err = ComputeBreakdown(49, 1, 0, FeeRates{ServiceBps: 100})
	require.NoError(t, err)
	assert.Equal(t, Money(0), b.ServiceFee)
}

func TestFormatAED(t *testing.T) {
	tests := []struct {
		in   Money
		want string
	}{
		{in: 156503, want: "AED 1,565.03"},
		{in: 0, want: "AED 0.00"},
		{in: 5, want: "AED 0.05"},
		{in: 123456789, want: "AED 1,234,567.89"},
		{in: -1050, want: "-AED 10.50"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAED(tt.in))
	}
}
