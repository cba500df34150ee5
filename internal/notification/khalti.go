package notification

import "regexp"

// Khalti notifications share the "to <merchant> successful" shape across
// both channels.
var (
	khaltiMerchantPattern = regexp.MustCompile(`(?i)to\s+([^.]+?)(?:\s+successful|\.|$)`)
	khaltiTxnIDPattern    = regexp.MustCompile(`(?i)(?:transaction\s*(?:id|no)|txn\s*id)\.?\s*:?\s*([A-Z0-9]+)`)
)

var khaltiEmailParser Parser = &patternParser{
	provider: ProviderKhalti,
	channel:  ChannelEmail,
	patterns: fieldPatterns{
		amount:   rsAmountPattern,
		merchant: khaltiMerchantPattern,
		txnID:    khaltiTxnIDPattern,
		date:     datePattern,
		clock:    clockPattern,
	},
}

var khaltiSMSParser Parser = &patternParser{
	provider: ProviderKhalti,
	channel:  ChannelSMS,
	patterns: fieldPatterns{
		amount:   rsAmountPattern,
		merchant: khaltiMerchantPattern,
		txnID:    regexp.MustCompile(`(?i)transaction\s*(?:id|no)\.?\s*:?\s*([A-Z0-9]+)`),
		date:     datePattern,
		clock:    clockPattern,
	},
}
