package utils

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/zetacard/bnpl-engine/internal/domain"
)

func TestDetermineApplicationStatus(t *testing.T) {
	tests := []struct {
		name           string
		income         decimal.Decimal
		network        domain.CardNetwork
		requestedLimit decimal.Decimal
		expected       string
	}{
		{
			name:           "visa within ceiling approves",
			income:         decimal.NewFromInt(600000),
			network:        domain.NetworkVisa,
			requestedLimit: decimal.NewFromInt(150000), // ceiling 180,000
			expected:       domain.ApplicationStatusApproved,
		},
		{
			name:           "visa exactly at ceiling approves",
			income:         decimal.NewFromInt(600000),
			network:        domain.NetworkVisa,
			requestedLimit: decimal.NewFromInt(180000),
			expected:       domain.ApplicationStatusApproved,
		},
		{
			name:           "visa slightly above ceiling goes to review",
			income:         decimal.NewFromInt(600000),
			network:        domain.NetworkVisa,
			requestedLimit: decimal.NewFromInt(200000), // ratio 1.11
			expected:       domain.ApplicationStatusPending,
		},
		{
			name:           "visa at review ceiling goes to review",
			income:         decimal.NewFromInt(600000),
			network:        domain.NetworkVisa,
			requestedLimit: decimal.NewFromInt(216000), // ratio exactly 1.2
			expected:       domain.ApplicationStatusPending,
		},
		{
			name:           "visa beyond review ceiling rejects",
			income:         decimal.NewFromInt(600000),
			network:        domain.NetworkVisa,
			requestedLimit: decimal.NewFromInt(250000), // ratio 1.39
			expected:       domain.ApplicationStatusRejected,
		},
		{
			name:           "mastercard gets higher ceiling",
			income:         decimal.NewFromInt(600000),
			network:        domain.NetworkMastercard,
			requestedLimit: decimal.NewFromInt(300000), // ceiling 300,000
			expected:       domain.ApplicationStatusApproved,
		},
		{
			name:           "amex gets highest ceiling",
			income:         decimal.NewFromInt(600000),
			network:        domain.NetworkAmex,
			requestedLimit: decimal.NewFromInt(420000), // ceiling 420,000
			expected:       domain.ApplicationStatusApproved,
		},
		{
			name:           "unknown network uses default multiplier",
			income:         decimal.NewFromInt(600000),
			network:        domain.NetworkOther,
			requestedLimit: decimal.NewFromInt(240000), // ceiling 240,000
			expected:       domain.ApplicationStatusApproved,
		},
		{
			name:           "zero income rejects",
			income:         decimal.Zero,
			network:        domain.NetworkVisa,
			requestedLimit: decimal.NewFromInt(1000),
			expected:       domain.ApplicationStatusRejected,
		},
		{
			name:           "negative income rejects",
			income:         decimal.NewFromInt(-50000),
			network:        domain.NetworkVisa,
			requestedLimit: decimal.NewFromInt(1000),
			expected:       domain.ApplicationStatusRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DetermineApplicationStatus(tt.income, tt.network, tt.requestedLimit)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestMinAllowedLimit(t *testing.T) {
	income := decimal.NewFromInt(100000)

	assert.True(t, MinAllowedLimit(income, domain.NetworkVisa).Equal(decimal.NewFromInt(10000)))
	assert.True(t, MinAllowedLimit(income, domain.NetworkMastercard).Equal(decimal.NewFromInt(20000)))
	assert.True(t, MinAllowedLimit(income, domain.NetworkAmex).Equal(decimal.NewFromInt(40000)))
	assert.True(t, MinAllowedLimit(income, domain.NetworkOther).Equal(decimal.NewFromInt(20000)))
}

func TestSplitInstallmentAmounts(t *testing.T) {
	tests := []struct {
		name     string
		total    decimal.Decimal
		months   int
		expected []string
	}{
		{
			name:     "non-divisible amount puts remainder on last installment",
			total:    decimal.NewFromInt(10000),
			months:   3,
			expected: []string{"3333.33", "3333.33", "3333.34"},
		},
		{
			name:     "evenly divisible amount",
			total:    decimal.NewFromInt(9000),
			months:   6,
			expected: []string{"1500.00", "1500.00", "1500.00", "1500.00", "1500.00", "1500.00"},
		},
		{
			name:     "rounding up shrinks the last installment",
			total:    decimal.NewFromFloat(100.01),
			months:   3,
			expected: []string{"33.34", "33.34", "33.33"},
		},
		{
			name:     "nine month split",
			total:    decimal.NewFromInt(1000),
			months:   9,
			expected: []string{"111.11", "111.11", "111.11", "111.11", "111.11", "111.11", "111.11", "111.11", "111.12"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amounts := SplitInstallmentAmounts(tt.total, tt.months)
			assert.Len(t, amounts, tt.months)

			sum := decimal.Zero
			for i, amount := range amounts {
				assert.Equal(t, tt.expected[i], amount.StringFixed(2))
				sum = sum.Add(amount)
			}
			assert.True(t, sum.Equal(tt.total), "sum %s must equal total %s", sum, tt.total)
		})
	}
}

func TestInstallmentDueDate(t *testing.T) {
	transactionDate := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 2, 15, 10, 30, 0, 0, time.UTC), InstallmentDueDate(transactionDate, 1))
	assert.Equal(t, time.Date(2024, 4, 15, 10, 30, 0, 0, time.UTC), InstallmentDueDate(transactionDate, 3))

	// A month-end purchase clamps to the last day of each shorter month
	// instead of overflowing past it: no installment ever skips a month.
	endOfMonth := time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC), InstallmentDueDate(endOfMonth, 1))
	assert.Equal(t, time.Date(2023, 3, 31, 0, 0, 0, 0, time.UTC), InstallmentDueDate(endOfMonth, 2))
	assert.Equal(t, time.Date(2023, 4, 30, 0, 0, 0, 0, time.UTC), InstallmentDueDate(endOfMonth, 3))

	// Leap years keep the 29th.
	leap := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), InstallmentDueDate(leap, 1))

	// Year rollover.
	november := time.Date(2024, 11, 30, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 1, 30, 0, 0, 0, 0, time.UTC), InstallmentDueDate(november, 2))
}

func TestDaysLate(t *testing.T) {
	due := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, int64(0), DaysLate(due, time.Date(2024, 3, 10, 23, 59, 0, 0, time.UTC)))
	assert.Equal(t, int64(1), DaysLate(due, time.Date(2024, 3, 11, 0, 1, 0, 0, time.UTC)))
	assert.Equal(t, int64(10), DaysLate(due, time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, int64(-5), DaysLate(due, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)))
}

func TestCalculateLateFee(t *testing.T) {
	due := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		amount   decimal.Decimal
		dueDate  *time.Time
		isPaid   bool
		asOf     time.Time
		expected string
	}{
		{
			name:     "ten days late on 1000",
			amount:   decimal.NewFromInt(1000),
			dueDate:  &due,
			asOf:     time.Date(2024, 3, 20, 8, 0, 0, 0, time.UTC),
			expected: "60.00", // 10*1.00 + 1000*0.005*10
		},
		{
			name:     "one day late on 3333.33",
			amount:   decimal.NewFromFloat(3333.33),
			dueDate:  &due,
			asOf:     time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
			expected: "17.67", // 1.00 + 16.666..., rounded
		},
		{
			name:     "due today accrues nothing",
			amount:   decimal.NewFromInt(1000),
			dueDate:  &due,
			asOf:     time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC),
			expected: "0",
		},
		{
			name:     "not yet due accrues nothing",
			amount:   decimal.NewFromInt(1000),
			dueDate:  &due,
			asOf:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			expected: "0",
		},
		{
			name:     "paid installment accrues nothing",
			amount:   decimal.NewFromInt(1000),
			dueDate:  &due,
			isPaid:   true,
			asOf:     time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
			expected: "0",
		},
		{
			name:     "missing due date accrues nothing",
			amount:   decimal.NewFromInt(1000),
			dueDate:  nil,
			asOf:     time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
			expected: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee := CalculateLateFee(tt.amount, tt.dueDate, tt.isPaid, tt.asOf, FlatDailyFee, DailyPercentFee)
			assert.True(t, fee.Equal(decimal.RequireFromString(tt.expected)),
				"expected %s, got %s", tt.expected, fee)
		})
	}

	t.Run("configured rates override the defaults", func(t *testing.T) {
		fee := CalculateLateFee(decimal.NewFromInt(1000), &due, false,
			time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC),
			decimal.NewFromFloat(2.00), decimal.NewFromFloat(0.01))
		// 10*2.00 + 1000*0.01*10
		assert.Equal(t, "120.00", fee.StringFixed(2))
	})
}
