package billing

import (
	"github.com/shopspring/decimal"
	"github.com/tillpoint/pos/internal/domain/entity"
	"github.com/tillpoint/pos/pkg/apperror"
)

var hundred = decimal.NewFromInt(100)

// Policy carries the tenant-configurable calculation rules.
type Policy struct {
	// DiscountCoversModifiers extends the cart discount base to modifier
	// add-ons. Off by default: discounts apply to the undiscounted line
	// amount only.
	DiscountCoversModifiers bool
}

// Line is one cart line fed into the calculation. UnitPrice, TaxPercent and
// DiscountPercent come from the product snapshot at add-to-cart time.
type Line struct {
	UnitPrice       decimal.Decimal
	Quantity        int
	TaxPercent      decimal.Decimal
	DiscountPercent decimal.Decimal
	Modifiers       []entity.Modifier
}

// DiscountCode is a single all-or-nothing cart discount. Exactly one of
// Percent or Amount is non-zero.
type DiscountCode struct {
	Code    string
	Percent decimal.Decimal
	Amount  decimal.Decimal
}

// Promotion is one stackable promotion applied to the cart.
type Promotion struct {
	Name    string
	Percent decimal.Decimal
	Amount  decimal.Decimal
}

// Charge is a flat addition to the order total, e.g. a delivery charge.
type Charge struct {
	Name   string
	Amount decimal.Decimal
}

// Adjustment selects the cart-level discount mode. Code and Promotions are
// mutually exclusive so the two paths can never double-count.
type Adjustment struct {
	Code       *DiscountCode
	Promotions []Promotion
	Charges    []Charge
}

// Summary is the payment summary of a cart. SubTotal is net of per-line
// discounts but gross of the cart-level DiscountAmount, so
// Total = SubTotal + VatAmount - DiscountAmount + charges.
type Summary struct {
	SubTotal                decimal.Decimal `json:"sub_total"`
	VatAmount               decimal.Decimal `json:"vat_amount"`
	DiscountAmount          decimal.Decimal `json:"discount_amount"`
	Total                   decimal.Decimal `json:"total"`
	SubTotalWithoutDiscount decimal.Decimal `json:"sub_total_without_discount"`
	VatWithoutDiscount      decimal.Decimal `json:"vat_without_discount"`
}

// Rounded returns a copy with every amount rounded to 2 decimal places.
// Rounding happens only here, at the persistence/display boundary;
// intermediate arithmetic keeps full precision.
func (s Summary) Rounded() Summary {
	return Summary{
		SubTotal:                s.SubTotal.Round(2),
		VatAmount:               s.VatAmount.Round(2),
		DiscountAmount:          s.DiscountAmount.Round(2),
		Total:                   s.Total.Round(2),
		SubTotalWithoutDiscount: s.SubTotalWithoutDiscount.Round(2),
		VatWithoutDiscount:      s.VatWithoutDiscount.Round(2),
	}
}

// LineTotals is the per-line result used to persist computed columns on
// order items.
type LineTotals struct {
	Amount         decimal.Decimal // unit price x qty, net of line discount
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal // line discount only
	ModifierTotal  decimal.Decimal
	ModifierVat    decimal.Decimal
	Total          decimal.Decimal // Amount + ModifierTotal + tax
}

// ErrConflictingAdjustment is returned when both a discount code and
// promotions are supplied.
var ErrConflictingAdjustment = apperror.NewBadRequestError("A discount code and promotions cannot be combined")

// ComputeLine calculates one line in isolation. VAT is computed per line as
// price x taxPercent / 100 so mixed-rate carts never collapse into a
// blended rate. Modifier price and VAT are per unit, multiplied by quantity,
// and added on top of the base line amount.
func ComputeLine(l Line) LineTotals {
	qty := decimal.NewFromInt(int64(l.Quantity))
	gross := l.UnitPrice.Mul(qty)
	lineDiscount := gross.Mul(l.DiscountPercent).Div(hundred)
	net := gross.Sub(lineDiscount)
	tax := net.Mul(l.TaxPercent).Div(hundred)

	var modTotal, modVat decimal.Decimal
	for _, m := range l.Modifiers {
		modTotal = modTotal.Add(m.Price.Mul(qty))
		modVat = modVat.Add(m.Price.Mul(m.TaxPercent).Div(hundred).Mul(qty))
	}

	return LineTotals{
		Amount:         net,
		TaxAmount:      tax.Add(modVat),
		DiscountAmount: lineDiscount,
		ModifierTotal:  modTotal,
		ModifierVat:    modVat,
		Total:          net.Add(modTotal).Add(tax).Add(modVat),
	}
}

// Calculate produces the payment summary for a cart. Recomputation is
// idempotent: the same lines and adjustment always yield the same summary,
// whether items were just added, edited or removed.
func Calculate(lines []Line, adj Adjustment, policy Policy) (Summary, error) {
	if adj.Code != nil && len(adj.Promotions) > 0 {
		return Summary{}, ErrConflictingAdjustment
	}

	var subTotal, grossSubTotal, vatNoDiscount, modifierTotal, modifierVat decimal.Decimal
	perLine := make([]LineTotals, len(lines))
	for i, l := range lines {
		lt := ComputeLine(l)
		perLine[i] = lt
		subTotal = subTotal.Add(lt.Amount)
		grossSubTotal = grossSubTotal.Add(lt.Amount).Add(lt.DiscountAmount)
		qty := decimal.NewFromInt(int64(l.Quantity))
		vatNoDiscount = vatNoDiscount.Add(l.UnitPrice.Mul(qty).Mul(l.TaxPercent).Div(hundred))
		modifierTotal = modifierTotal.Add(lt.ModifierTotal)
		modifierVat = modifierVat.Add(lt.ModifierVat)
	}

	// The cart-level discount base excludes modifier add-ons unless policy
	// says otherwise.
	base := subTotal
	if policy.DiscountCoversModifiers {
		base = base.Add(modifierTotal)
	}

	discount := cartDiscount(adj, base)
	if discount.GreaterThan(base) {
		discount = base
	}

	// VAT is reduced pro-rata by the cart discount: each line's taxable
	// amount shrinks by its share of the discount.
	var vat decimal.Decimal
	for i, l := range lines {
		taxable := perLine[i].Amount
		if base.IsPositive() && discount.IsPositive() {
			taxable = taxable.Sub(discount.Mul(perLine[i].Amount).Div(base))
		}
		vat = vat.Add(taxable.Mul(l.TaxPercent).Div(hundred))
	}
	vat = vat.Add(modifierVat)

	total := subTotal.Add(modifierTotal).Add(vat).Sub(discount)
	for _, c := range adj.Charges {
		total = total.Add(c.Amount)
	}

	return Summary{
		SubTotal:                subTotal.Add(modifierTotal),
		VatAmount:               vat,
		DiscountAmount:          discount,
		Total:                   total,
		SubTotalWithoutDiscount: grossSubTotal.Add(modifierTotal),
		VatWithoutDiscount:      vatNoDiscount.Add(modifierVat),
	}, nil
}

func cartDiscount(adj Adjustment, base decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch {
	case adj.Code != nil:
		if adj.Code.Percent.IsPositive() {
			d = base.Mul(adj.Code.Percent).Div(hundred)
		} else {
			d = adj.Code.Amount
		}
	case len(adj.Promotions) > 0:
		for _, p := range adj.Promotions {
			if p.Percent.IsPositive() {
				d = d.Add(base.Mul(p.Percent).Div(hundred))
			} else {
				d = d.Add(p.Amount)
			}
		}
	}
	return d
}

// MaxRedeemable bounds a wallet/credit redemption: the request may never
// exceed the customer's available balance nor the order's remaining balance.
func MaxRedeemable(available, remaining decimal.Decimal) decimal.Decimal {
	if available.LessThan(remaining) {
		return available
	}
	return remaining
}
