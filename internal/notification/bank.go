package notification

import "regexp"

// Bank notifications name the merchant after "at", carry a masked account
// number instead of a transaction id, and usually report the available
// balance.
var (
	bankMerchantPattern = regexp.MustCompile(`(?i)at\s+([^.]+?)(?:\s+on|\.|$)`)
	bankAccountCapture  = regexp.MustCompile(`(?i)A/C\s*\*+(\d+)`)
	bankBalancePattern  = regexp.MustCompile(`(?i)Avl\s+Bal:?\s*Rs\.?\s*([0-9,]+\.?[0-9]*)`)
)

var bankEmailParser Parser = &patternParser{
	provider: ProviderBank,
	channel:  ChannelEmail,
	patterns: fieldPatterns{
		amount:   rsAmountPattern,
		merchant: bankMerchantPattern,
		date:     datePattern,
		clock:    clockPattern,
		account:  bankAccountCapture,
		balance:  bankBalancePattern,
	},
}

var bankSMSParser Parser = &patternParser{
	provider: ProviderBank,
	channel:  ChannelSMS,
	patterns: fieldPatterns{
		amount:   rsAmountPattern,
		merchant: bankMerchantPattern,
		date:     datePattern,
		clock:    clockPattern,
		account:  bankAccountCapture,
		balance:  bankBalancePattern,
	},
}
