package utils

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/zetacard/bnpl-engine/internal/domain"
)

// Default late fee rates: $1 flat per day late plus 0.5% of the installment
// amount per day late. Deployments tune them through configuration.
var (
	FlatDailyFee    = decimal.NewFromFloat(1.00)
	DailyPercentFee = decimal.NewFromFloat(0.005)
)

var (
	pendingCeiling = decimal.NewFromFloat(1.2)
)

// DetermineApplicationStatus decides a credit application.
// maxAllowed = income * network multiplier; ratio = requested / maxAllowed.
// ratio <= 1.0 approves, ratio <= 1.2 goes to manual review, anything above
// is rejected. A non-positive maxAllowed (zero or negative income) behaves
// like an infinite ratio and rejects.
func DetermineApplicationStatus(income decimal.Decimal, network domain.CardNetwork, requestedLimit decimal.Decimal) string {
	maxAllowed := MaxAllowedLimit(income, network)
	if !maxAllowed.IsPositive() {
		return domain.ApplicationStatusRejected
	}

	ratio := requestedLimit.Div(maxAllowed)

	switch {
	case ratio.LessThanOrEqual(decimal.NewFromInt(1)):
		return domain.ApplicationStatusApproved
	case ratio.LessThanOrEqual(pendingCeiling):
		return domain.ApplicationStatusPending
	default:
		return domain.ApplicationStatusRejected
	}
}

// MaxAllowedLimit is the income-derived ceiling for a requested limit.
func MaxAllowedLimit(income decimal.Decimal, network domain.CardNetwork) decimal.Decimal {
	return income.Mul(network.MaxLimitMultiplier())
}

// MinAllowedLimit is the floor a limit decrease may not go below.
func MinAllowedLimit(income decimal.Decimal, network domain.CardNetwork) decimal.Decimal {
	return income.Mul(network.MinLimitMultiplier())
}

// SplitInstallmentAmounts splits a transaction amount into the given number
// of installment amounts. Installments 1..n-1 carry round(total/n, 2); the
// last one carries the remainder so the sum equals the total to the cent.
func SplitInstallmentAmounts(total decimal.Decimal, months int) []decimal.Decimal {
	base := total.Div(decimal.NewFromInt(int64(months))).Round(2)

	amounts := make([]decimal.Decimal, 0, months)
	accumulated := decimal.Zero
	for i := 1; i <= months; i++ {
		amount := base
		if i == months {
			amount = total.Sub(accumulated)
		}
		accumulated = accumulated.Add(amount)
		amounts = append(amounts, amount)
	}

	return amounts
}

// InstallmentDueDate returns the due date for installment n of a plan:
// one calendar month after the transaction date for n=1, one month apart
// after that. When the target month is shorter than the transaction day,
// the day clamps to the last day of that month (Jan 31 -> Feb 28), so a
// month-end purchase never skips a month.
func InstallmentDueDate(transactionDate time.Time, installmentNumber int) time.Time {
	year, month, day := transactionDate.Date()
	hour, min, sec := transactionDate.Clock()

	target := month + time.Month(installmentNumber)
	lastDay := time.Date(year, target+1, 0, 0, 0, 0, 0, transactionDate.Location()).Day()
	if day > lastDay {
		day = lastDay
	}

	return time.Date(year, target, day, hour, min, sec, transactionDate.Nanosecond(), transactionDate.Location())
}

// DaysLate returns the whole days between a due date and an as-of date,
// ignoring time-of-day. Non-positive results mean the due date has not
// passed yet.
func DaysLate(dueDate, asOf time.Time) int64 {
	due := truncateToDay(dueDate)
	today := truncateToDay(asOf)
	return int64(today.Sub(due).Hours() / 24)
}

// CalculateLateFee computes the accrued late fee for a single installment
// as of the given date, at the given flat and percentage daily rates. Paid
// installments, installments without a due date and installments not yet
// due accrue nothing.
func CalculateLateFee(amount decimal.Decimal, dueDate *time.Time, isPaid bool, asOf time.Time, flatDaily, percentDaily decimal.Decimal) decimal.Decimal {
	if isPaid || dueDate == nil {
		return decimal.Zero
	}

	daysLate := DaysLate(*dueDate, asOf)
	if daysLate <= 0 {
		return decimal.Zero
	}

	days := decimal.NewFromInt(daysLate)
	fee := flatDaily.Mul(days).Add(amount.Mul(percentDaily).Mul(days))

	return fee.Round(2)
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
