package notification

import (
	"testing"
)

// FuzzParse verifies the parser never panics on arbitrary input and that
// every successful parse upholds its invariants: a positive amount, a
// non-empty merchant, and the raw text carried through.
func FuzzParse(f *testing.F) {
	f.Add("Payment of Rs. 500.00 to ABC Store successful. Transaction ID: ES123456789. via eSewa", "email")
	f.Add("Rs. 1,500.00 debited from A/C **1234 on 15-Jan-24 at Petrol Pump ABC. Avl Bal: Rs. 25,000.00", "sms")
	f.Add("Rs. 250 paid to XYZ Merchant successful via Khalti.", "sms")
	f.Add("", "email")
	f.Add("Rs. -99 to Nowhere via eSewa", "email")
	f.Add("Rs. 0.00 khalti", "sms")
	f.Add("eSewa Rs. 999999999999999999999999 to Big Spender", "email")

	f.Fuzz(func(t *testing.T, content string, channel string) {
		cand, err := Parse(content, Channel(channel))
		if err != nil {
			return
		}

		if !cand.Amount.IsPositive() {
			t.Errorf("parsed non-positive amount %s from %q", cand.Amount, content)
		}
		if cand.Merchant == "" {
			t.Errorf("parsed empty merchant from %q", content)
		}
		if cand.RawText != content {
			t.Errorf("raw text not preserved for %q", content)
		}
		if cand.Provider == ProviderNone {
			t.Errorf("successful parse with no provider for %q", content)
		}
	})
}
