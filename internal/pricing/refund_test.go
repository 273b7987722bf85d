package pricing

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var refNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func TestCalculateRefund_Tiers(t *testing.T) {
	tests := []struct {
		name       string
		policy     CancellationPolicy
		until      time.Duration
		percentage int
		eligible   bool
		reason     string
	}{
		{
			name: "flexible one day", policy: PolicyFlexible, until: 24 * time.Hour,
			percentage: 100, eligible: true,
			reason: "Cancelled 1 day before check-in under flexible policy: 100% refund",
		},
		{
			name: "flexible same day", policy: PolicyFlexible, until: 23 * time.Hour,
			percentage: 0, eligible: false,
			reason: "Cancelled 0 days before check-in under flexible policy: no refund",
		},
		{
			name: "moderate six days", policy: PolicyModerate, until: 6*24*time.Hour + time.Hour,
			percentage: 100, eligible: true,
			reason: "Cancelled 6 days before check-in under moderate policy: 100% refund",
		},
		{
			name: "moderate four days", policy: PolicyModerate, until: 4*24*time.Hour + 23*time.Hour,
			percentage: 50, eligible: true,
			reason: "Cancelled 4 days before check-in under moderate policy: 50% refund",
		},
		{
			name: "moderate under a day", policy: PolicyModerate, until: 2 * time.Hour,
			percentage: 0, eligible: false,
		},
		{
			name: "strict fourteen days", policy: PolicyStrict, until: 14 * 24 * time.Hour,
			percentage: 100, eligible: true,
		},
		{
			name: "strict ten days", policy: PolicyStrict, until: 10 * 24 * time.Hour,
			percentage: 50, eligible: true,
		},
		{
			name: "strict six days", policy: PolicyStrict, until: 6 * 24 * time.Hour,
			percentage: 0, eligible: false,
			reason: "Cancelled 6 days before check-in under strict policy: no refund",
		},
		{
			name: "non refundable far ahead", policy: PolicyNonRefundable, until: 90 * 24 * time.Hour,
			percentage: 0, eligible: false,
			reason: "Non-refundable policy: no refund",
		},
		{
			name: "check-in passed", policy: PolicyFlexible, until: -time.Hour,
			percentage: 0, eligible: false,
			reason: "Check-in has already passed under flexible policy: no refund",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := CalculateRefund(100000, refNow.Add(tt.until), tt.policy, refNow)
			require.NoError(t, err)

			assert.Equal(t, tt.percentage, res.RefundPercentage)
			assert.Equal(t, tt.eligible, res.IsEligible)
			assert.Equal(t, Money(100000), res.RefundAmount+res.PenaltyAmount)
			if tt.reason != "" {
				assert.Equal(t, tt.reason, res.Reason)
			}
		})
	}
}

func TestCalculateRefund_ModerateExactlyFiveDays(t *testing.T) {
	res, err := CalculateRefund(156503, refNow.Add(5*24*time.Hour), PolicyModerate, refNow)
	require.NoError(t, err)

	assert.Equal(t, 5, res.DaysUntilCheckIn)
	assert.Equal(t, 100, res.RefundPercentage)
	assert.Equal(t, Money(156503), res.RefundAmount)
	assert.Equal(t, Money(0), res.PenaltyAmount)
	assert.True(t, res.IsEligible)
}

func TestCalculateRefund_ModerateThreeDays(t *testing.T) {
	res, err := CalculateRefund(156503, refNow.Add(3*24*time.Hour), PolicyModerate, refNow)
	require.NoError(t, err)

	assert.Equal(t, 50, res.RefundPercentage)
	assert.Equal(t, Money(78252), res.RefundAmount)
	assert.Equal(t, Money(78251), res.PenaltyAmount)
	assert.Equal(t, "Cancelled 3 days before check-in under moderate policy: 50% refund", res.Reason)
}

func TestCalculateRefund_NonRefundableNeverEligible(t *testing.T) {
	for days := -3; days <= 60; days++ {
		res, err := CalculateRefund(156503, refNow.Add(time.Duration(days)*24*time.Hour), PolicyNonRefundable, refNow)
		require.NoError(t, err)
		assert.False(t, res.IsEligible)
		assert.Equal(t, Money(0), res.RefundAmount)
		assert.Equal(t, Money(156503), res.PenaltyAmount)
	}
}

func TestCalculateRefund_Monotonic(t *testing.T) {
	for _, policy := range Policies() {
		prev := -1
		for hours := -48; hours <= 30*24; hours += 5 {
			res, err := CalculateRefund(100000, refNow.Add(time.Duration(hours)*time.Hour), policy, refNow)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, res.RefundPercentage, prev, "policy=%s hours=%d", policy, hours)
			prev = res.RefundPercentage
		}
	}
}

func TestCalculateRefund_InvalidInput(t *testing.T) {
	_, err := CalculateRefund(-1, refNow, PolicyFlexible, refNow)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	_, err = CalculateRefund(100, time.Time{}, PolicyFlexible, refNow)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	_, err = CalculateRefund(100, refNow, CancellationPolicy("lenient"), refNow)
	assert.True(t, errors.Is(err, ErrUnknownPolicy))
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy(" Moderate ")
	require.NoError(t, err)
	assert.Equal(t, PolicyModerate, p)

	_, err = ParsePolicy("super_flexible")
	assert.True(t, errors.Is(err, ErrUnknownPolicy))
}

func TestPolicyTiersCopy(t *testing.T) {
	tiers := PolicyStrict.Tiers()
	require.Len(t, tiers, 2)
	tiers[0].RefundPercentage = 0

	assert.Equal(t, 100, PolicyStrict.Tiers()[0].RefundPercentage)
	assert.Empty(t, PolicyNonRefundable.Tiers())
}
