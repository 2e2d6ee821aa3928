package domain

import (
	"errors"
	"testing"
)

func TestMonthlyYearlyConversion(t *testing.T) {
	tests := []struct {
		name         string
		monthlyCents int64
		yearlyCents  int64
	}{
		{"19.99/mo plan", 1999, 19190},
		{"149/mo plan", 14900, 143040},
		{"9.99/mo plan", 999, 9590},
		{"one cent", 1, 10},
		{"free", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MonthlyToYearlyCents(tt.monthlyCents)
			if got != tt.yearlyCents {
				t.Errorf("MonthlyToYearlyCents(%d) = %d, want %d", tt.monthlyCents, got, tt.yearlyCents)
			}
			// yearly must always undercut twelve undiscounted months
			if tt.monthlyCents > 0 && got >= tt.monthlyCents*12 {
				t.Errorf("yearly price %d not below undiscounted %d", got, tt.monthlyCents*12)
			}
		})
	}
}

func TestIntervalRoundTrip(t *testing.T) {
	// With the anchor design, converting away and back must recover the
	// original price exactly, not merely within rounding tolerance.
	for _, monthly := range []int64{1, 99, 999, 1999, 14900, 123457} {
		cart := NewCart("sess")
		item, err := cart.AddItem(CartItemInput{
			ProductID:  "coaching-monthly",
			Name:       "1:1 Coaching",
			PriceCents: monthly,
			Interval:   IntervalMonth,
		})
		if err != nil {
			t.Fatalf("AddItem: %v", err)
		}

		cart.UpdateItemInterval(item.ID, IntervalYear)
		cart.UpdateItemInterval(item.ID, IntervalMonth)

		got, _ := cart.Item(item.ID)
		if got.PriceCents() != monthly {
			t.Errorf("round trip for %d returned %d", monthly, got.PriceCents())
		}

		// a second full toggle must land on the same yearly figure
		cart.UpdateItemInterval(item.ID, IntervalYear)
		first := got.PriceCents()
		cart.UpdateItemInterval(item.ID, IntervalMonth)
		cart.UpdateItemInterval(item.ID, IntervalYear)
		if got.PriceCents() != first {
			t.Errorf("repeated toggling drifted: %d vs %d", got.PriceCents(), first)
		}
	}
}

func TestAddItemDefaultsRecurringToYearly(t *testing.T) {
	cart := NewCart("sess")

	// 19.99 here is the pre-discounted yearly total supplied by the caller
	item, err := cart.AddItem(CartItemInput{
		ProductID:  "self-led-training",
		Name:       "Self-Led Training",
		PriceCents: 1999,
		Recurring:  true,
	})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	if item.Interval != IntervalYear {
		t.Errorf("interval = %q, want year", item.Interval)
	}
	if !item.YearlyDiscountApplied() {
		t.Error("YearlyDiscountApplied() = false for yearly item")
	}
	if cart.TotalCents != 1999 {
		t.Errorf("total = %d, want 1999", cart.TotalCents)
	}

	// switching to monthly derives (19.99 / 0.8) / 12 = 2.08
	cart.UpdateItemInterval(item.ID, IntervalMonth)
	got, _ := cart.Item(item.ID)
	if got.PriceCents() != 208 {
		t.Errorf("monthly price = %d, want 208", got.PriceCents())
	}
	if got.YearlyDiscountApplied() {
		t.Error("YearlyDiscountApplied() = true after switch to monthly")
	}
	if cart.TotalCents != 208 {
		t.Errorf("total = %d, want 208", cart.TotalCents)
	}

	// and back: the anchor restores the exact yearly total
	cart.UpdateItemInterval(item.ID, IntervalYear)
	if cart.TotalCents != 1999 {
		t.Errorf("total after switch back = %d, want 1999", cart.TotalCents)
	}
}

func TestAddItemValidation(t *testing.T) {
	tests := []struct {
		name  string
		input CartItemInput
	}{
		{"missing product id", CartItemInput{Name: "Plan", PriceCents: 100}},
		{"missing name", CartItemInput{ProductID: "plan", PriceCents: 100}},
		{"negative price", CartItemInput{ProductID: "plan", Name: "Plan", PriceCents: -1}},
		{"unknown interval", CartItemInput{ProductID: "plan", Name: "Plan", PriceCents: 100, Interval: "week"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart := NewCart("sess")
			if _, err := cart.AddItem(tt.input); !errors.Is(err, ErrInvalidItem) {
				t.Errorf("AddItem() error = %v, want ErrInvalidItem", err)
			}
			if len(cart.Items) != 0 || cart.TotalCents != 0 {
				t.Error("rejected AddItem mutated the cart")
			}
		})
	}
}

func TestUpdateItemIntervalNoOps(t *testing.T) {
	cart := NewCart("sess")

	sub, err := cart.AddItem(CartItemInput{
		ProductID:  "nutrition-only",
		Name:       "Nutrition Only",
		PriceCents: 4900,
		Interval:   IntervalMonth,
	})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	oneTime, err := cart.AddItem(CartItemInput{
		ProductID:  "shred-challenge",
		Name:       "6-Week Shred Challenge",
		PriceCents: 9900,
	})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	totalBefore := cart.TotalCents

	// same interval: price and interval byte-for-byte unchanged
	cart.UpdateItemInterval(sub.ID, IntervalMonth)
	got, _ := cart.Item(sub.ID)
	if got.Interval != IntervalMonth || got.PriceCents() != 4900 {
		t.Errorf("same-interval update changed item: interval=%q price=%d", got.Interval, got.PriceCents())
	}

	// one-time item: interval updates never apply
	cart.UpdateItemInterval(oneTime.ID, IntervalYear)
	got, _ = cart.Item(oneTime.ID)
	if got.Interval != IntervalNone || got.PriceCents() != 9900 {
		t.Errorf("one-time item mutated: interval=%q price=%d", got.Interval, got.PriceCents())
	}

	// unknown id: nothing happens
	cart.UpdateItemInterval("01JUNKJUNKJUNKJUNKJUNKJUNK", IntervalYear)

	if cart.TotalCents != totalBefore {
		t.Errorf("total changed by no-op updates: %d -> %d", totalBefore, cart.TotalCents)
	}
}

func TestTotalConsistency(t *testing.T) {
	cart := NewCart("sess")

	check := func(step string) {
		t.Helper()
		var want int64
		for i := range cart.Items {
			want += cart.Items[i].PriceCents()
		}
		if cart.TotalCents != want {
			t.Errorf("%s: total = %d, want sum %d", step, cart.TotalCents, want)
		}
	}

	oneTime, _ := cart.AddItem(CartItemInput{ProductID: "shred-challenge", Name: "6-Week Shred Challenge", PriceCents: 9900})
	check("add one-time")

	sub, _ := cart.AddItem(CartItemInput{ProductID: "full-coaching", Name: "Full Coaching", PriceCents: 14900, Interval: IntervalMonth})
	check("add subscription")

	cart.UpdateItemInterval(sub.ID, IntervalYear)
	check("switch to yearly")

	// scenario from the pricing sheet: 99 one-time + 149/mo billed
	// yearly (1430.40) = 1529.40
	if cart.TotalCents != 152940 {
		t.Errorf("total = %d, want 152940", cart.TotalCents)
	}

	cart.RemoveItem(oneTime.ID)
	check("remove one-time")
	if cart.TotalCents != 143040 {
		t.Errorf("total = %d, want 143040", cart.TotalCents)
	}

	cart.RemoveItem(oneTime.ID) // second remove is a safe no-op
	check("idempotent remove")
	if len(cart.Items) != 1 {
		t.Errorf("items = %d, want 1", len(cart.Items))
	}

	cart.Clear()
	check("clear")
	if len(cart.Items) != 0 || cart.TotalCents != 0 {
		t.Errorf("clear left items=%d total=%d", len(cart.Items), cart.TotalCents)
	}
}

func TestGiftMetadata(t *testing.T) {
	cart := NewCart("sess")
	item, _ := cart.AddItem(CartItemInput{ProductID: "full-coaching", Name: "Full Coaching", PriceCents: 14900, Interval: IntervalMonth})

	cart.ToggleGiftStatus(item.ID, true)
	got, _ := cart.Item(item.ID)
	if !got.IsGift {
		t.Error("ToggleGiftStatus(true) did not set IsGift")
	}

	cart.ToggleGiftStatus(item.ID, false)
	got, _ = cart.Item(item.ID)
	if got.IsGift {
		t.Error("ToggleGiftStatus(false) did not clear IsGift")
	}

	// attaching a recipient forces gift status back on
	cart.UpdateGiftRecipient(item.ID, GiftRecipient{Name: "Sam", Email: "sam@example.com"})
	got, _ = cart.Item(item.ID)
	if !got.IsGift || got.GiftRecipient == nil || got.GiftRecipient.Email != "sam@example.com" {
		t.Errorf("UpdateGiftRecipient left item in %+v", got)
	}

	// gift toggling never changes pricing
	if cart.TotalCents != 14900 {
		t.Errorf("total = %d, want 14900", cart.TotalCents)
	}
}

func TestCheckoutMode(t *testing.T) {
	cart := NewCart("sess")
	if cart.CheckoutMode() != CheckoutModePayment {
		t.Errorf("empty cart mode = %q", cart.CheckoutMode())
	}

	cart.AddItem(CartItemInput{ProductID: "shred-challenge", Name: "Challenge", PriceCents: 9900})
	if cart.CheckoutMode() != CheckoutModePayment {
		t.Errorf("one-time-only cart mode = %q", cart.CheckoutMode())
	}

	cart.AddItem(CartItemInput{ProductID: "full-coaching", Name: "Coaching", PriceCents: 14900, Interval: IntervalMonth})
	if cart.CheckoutMode() != CheckoutModeSubscription {
		t.Errorf("mixed cart mode = %q", cart.CheckoutMode())
	}
}
