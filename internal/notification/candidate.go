package notification

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// UnknownMerchant is the placeholder used when a notification carries no
// recognizable merchant.
const UnknownMerchant = "Unknown Merchant"

// dateLayout is the wire format for candidate dates.
const dateLayout = "2006-01-02"

// Date is a calendar date (no time component) that marshals as YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate builds a Date from year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

// UnmarshalJSON decodes a "YYYY-MM-DD" string.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date %s", s)
	}
	t, err := time.Parse(dateLayout, s[1:len(s)-1])
	if err != nil {
		return fmt.Errorf("invalid date %s: %w", s, err)
	}
	d.Time = t
	return nil
}

// TransactionCandidate is the normalized, ephemeral result of parsing one
// raw notification. It lives for a single parse/ingest call; a JSON
// snapshot of it is persisted on the audit record and must round-trip
// losslessly.
type TransactionCandidate struct {
	Amount        decimal.Decimal  `json:"amount"`
	Merchant      string           `json:"merchant"`
	TransactionID string           `json:"transaction_id,omitempty"`
	Date          *Date            `json:"date,omitempty"`
	Time          string           `json:"time,omitempty"`
	Balance       *decimal.Decimal `json:"balance,omitempty"`
	Account       string           `json:"account,omitempty"`
	Description   string           `json:"description"`
	Source        Channel          `json:"source"`
	Provider      Provider         `json:"notification_type"`
	RawText       string           `json:"raw_text"`
}
