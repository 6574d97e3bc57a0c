package billing

import (
	"github.com/shopspring/decimal"
	"github.com/tillpoint/pos/internal/domain/entity"
	"github.com/tillpoint/pos/internal/domain/enum"
	"github.com/tillpoint/pos/pkg/apperror"
)

// ErrNegativeChange is returned when a tender's change exceeds the amount
// tendered. It is reported, never silently clamped.
var ErrNegativeChange = apperror.NewBadRequestError("Change cannot exceed the tendered amount")

// Paid sums the effective contribution of every payment breakup: the amount
// tendered minus change returned. A cash tender of 120.00 with 5.00 change
// contributes 115.00.
func Paid(breakups []entity.PaymentBreakup) (decimal.Decimal, error) {
	var paid decimal.Decimal
	for _, b := range breakups {
		if b.Change.IsNegative() {
			return decimal.Zero, ErrNegativeChange
		}
		paid = paid.Add(b.Total.Sub(b.Change))
	}
	return paid, nil
}

// CompletionEligible reports whether the order may move to completed:
// payments must cover the total, compared at 2 decimal places so a
// sub-cent residue from full-precision math never blocks completion.
func CompletionEligible(summary Summary, breakups []entity.PaymentBreakup) (bool, error) {
	paid, err := Paid(breakups)
	if err != nil {
		return false, err
	}
	return paid.Round(2).GreaterThanOrEqual(summary.Total.Round(2)), nil
}

// Status derives the payment status from what has been paid against the
// total so far.
func Status(summary Summary, breakups []entity.PaymentBreakup) (enum.PaymentStatus, error) {
	paid, err := Paid(breakups)
	if err != nil {
		return enum.PaymentStatusUnpaid, err
	}
	switch {
	case paid.Round(2).GreaterThanOrEqual(summary.Total.Round(2)):
		return enum.PaymentStatusPaid, nil
	case paid.IsPositive():
		return enum.PaymentStatusPartial, nil
	default:
		return enum.PaymentStatusUnpaid, nil
	}
}

// Remaining is the outstanding balance on the order, floored at zero.
func Remaining(summary Summary, breakups []entity.PaymentBreakup) (decimal.Decimal, error) {
	paid, err := Paid(breakups)
	if err != nil {
		return decimal.Zero, err
	}
	remaining := summary.Total.Round(2).Sub(paid.Round(2))
	if remaining.IsNegative() {
		return decimal.Zero, nil
	}
	return remaining, nil
}
