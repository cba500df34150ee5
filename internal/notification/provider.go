// Package notification classifies raw payment-notification text and
// extracts normalized transaction candidates from it. It recognizes a
// closed set of provider text shapes (eSewa, Khalti, generic bank
// messaging) over the email and SMS channels, and fails closed on
// anything else.
package notification

import (
	"regexp"
	"strings"
)

// Provider identifies the financial service family a notification
// originates from.
type Provider string

// Known providers, in classification priority order.
const (
	ProviderEsewa  Provider = "esewa"
	ProviderKhalti Provider = "khalti"
	ProviderBank   Provider = "bank"
	ProviderNone   Provider = ""
)

// DisplayName returns the human-readable provider name used in generated
// descriptions.
func (p Provider) DisplayName() string {
	switch p {
	case ProviderEsewa:
		return "eSewa"
	case ProviderKhalti:
		return "Khalti"
	case ProviderBank:
		return "Bank"
	default:
		return "Unknown"
	}
}

// Channel identifies how a notification reached the system.
type Channel string

// Supported channels.
const (
	ChannelEmail   Channel = "email"
	ChannelSMS     Channel = "sms"
	ChannelWebhook Channel = "webhook"
)

// Bank signatures. Bank notifications have no single brand keyword, so a
// few vocabulary shapes are tested: known bank names, transaction
// vocabulary near account/balance vocabulary, masked account numbers, and
// an amount followed by a debit/credit verb.
var (
	bankNamePattern    = regexp.MustCompile(`\b(?:nmb|nabil|himalayan|machhapuchhre|bank)\b`)
	bankVocabPattern   = regexp.MustCompile(`\b(?:debit|credit|transaction)\b.*\b(?:account|balance)\b`)
	bankAccountPattern = regexp.MustCompile(`a/c\s*\*+\d+`)
	bankAmountPattern  = regexp.MustCompile(`rs\.?\s*[0-9,]+\.?[0-9]*\s*(?:debit|credit)`)
)

// Classify sniffs raw text and decides which provider family it belongs
// to. Signatures are tested in fixed priority order and the first match
// wins; unrecognized text yields ProviderNone.
func Classify(content string) Provider {
	content = strings.ToLower(content)

	if strings.Contains(content, "esewa") || strings.Contains(content, "e-sewa") {
		return ProviderEsewa
	}

	if strings.Contains(content, "khalti") {
		return ProviderKhalti
	}

	if bankNamePattern.MatchString(content) ||
		bankVocabPattern.MatchString(content) ||
		bankAccountPattern.MatchString(content) ||
		bankAmountPattern.MatchString(content) {
		return ProviderBank
	}

	return ProviderNone
}

// IsValidNotification reports whether the text matches any known provider
// signature.
func IsValidNotification(content string) bool {
	return Classify(content) != ProviderNone
}
