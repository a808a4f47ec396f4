package enums

import "testing"

func TestPurchaseStatusValid(t *testing.T) {
	for _, status := range []PurchaseStatus{PurchaseStatusPending, PurchaseStatusPaid} {
		if !status.Valid() {
			t.Fatalf("expected %q to be valid", status)
		}
	}
	for _, status := range []PurchaseStatus{"", "bogus", "overdue"} {
		if status.Valid() {
			t.Fatalf("expected %q to be invalid", status)
		}
	}
}
