package billing

import (
	"testing"

	"github.com/tillpoint/pos/internal/domain/entity"
	"github.com/tillpoint/pos/internal/domain/enum"
)

func TestPaidSubtractsChange(t *testing.T) {
	breakups := []entity.PaymentBreakup{
		{Provider: enum.ProviderCash, Total: d("120.00"), Change: d("5.00")},
	}

	paid, err := Paid(breakups)
	if err != nil {
		t.Fatalf("Paid: %v", err)
	}
	assertAmount(t, "paid", paid, d("115.00"))
}

func TestPaidNegativeChange(t *testing.T) {
	breakups := []entity.PaymentBreakup{
		{Provider: enum.ProviderCash, Total: d("100.00"), Change: d("-1.00")},
	}

	if _, err := Paid(breakups); err == nil {
		t.Fatal("expected negative change error, got nil")
	}
}

func TestCompletionEligible(t *testing.T) {
	summary := Summary{Total: d("115.00")}

	eligible, err := CompletionEligible(summary, []entity.PaymentBreakup{
		{Provider: enum.ProviderCash, Total: d("60.00")},
		{Provider: enum.ProviderCard, Total: d("55.00")},
	})
	if err != nil {
		t.Fatalf("CompletionEligible: %v", err)
	}
	if !eligible {
		t.Error("expected fully paid order to be eligible")
	}

	eligible, err = CompletionEligible(summary, []entity.PaymentBreakup{
		{Provider: enum.ProviderCash, Total: d("114.99")},
	})
	if err != nil {
		t.Fatalf("CompletionEligible: %v", err)
	}
	if eligible {
		t.Error("expected underpaid order to be ineligible")
	}
}

func TestCompletionEligibleSubCentResidue(t *testing.T) {
	// Full-precision totals like 114.997 must compare at 2dp so a cash
	// tender of 115.00 completes the order.
	summary := Summary{Total: d("114.997")}

	eligible, err := CompletionEligible(summary, []entity.PaymentBreakup{
		{Provider: enum.ProviderCash, Total: d("115.00")},
	})
	if err != nil {
		t.Fatalf("CompletionEligible: %v", err)
	}
	if !eligible {
		t.Error("expected 2dp comparison to tolerate sub-cent residue")
	}
}

func TestStatusDerivation(t *testing.T) {
	summary := Summary{Total: d("100.00")}

	status, err := Status(summary, nil)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status != enum.PaymentStatusUnpaid {
		t.Errorf("empty breakups = %s, want unpaid", status)
	}

	status, err = Status(summary, []entity.PaymentBreakup{
		{Provider: enum.ProviderWallet, Total: d("40.00")},
	})
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status != enum.PaymentStatusPartial {
		t.Errorf("partial payment = %s, want partial", status)
	}

	status, err = Status(summary, []entity.PaymentBreakup{
		{Provider: enum.ProviderWallet, Total: d("40.00")},
		{Provider: enum.ProviderCash, Total: d("70.00"), Change: d("10.00")},
	})
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status != enum.PaymentStatusPaid {
		t.Errorf("full payment = %s, want paid", status)
	}
}

func TestRemaining(t *testing.T) {
	summary := Summary{Total: d("100.00")}

	remaining, err := Remaining(summary, []entity.PaymentBreakup{
		{Provider: enum.ProviderCash, Total: d("30.00")},
	})
	if err != nil {
		t.Fatalf("Remaining: %v", err)
	}
	assertAmount(t, "remaining", remaining, d("70.00"))

	remaining, err = Remaining(summary, []entity.PaymentBreakup{
		{Provider: enum.ProviderCash, Total: d("120.00")},
	})
	if err != nil {
		t.Fatalf("Remaining: %v", err)
	}
	assertAmount(t, "overpaid remaining", remaining, d("0.00"))
}
