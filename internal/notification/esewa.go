package notification

import "regexp"

// Shared field patterns. The amount, date and time shapes are common to
// every provider; merchant and transaction-id shapes vary.
var (
	rsAmountPattern = regexp.MustCompile(`(?i)Rs\.?\s*([0-9,]+\.?[0-9]*)`)
	datePattern     = regexp.MustCompile(`(?i)(\d{1,2}[-/](?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[-/]\d{2,4}|\d{1,2}[-/]\d{1,2}[-/]\d{2,4}|\d{4}[-/]\d{1,2}[-/]\d{1,2})`)
	clockPattern    = regexp.MustCompile(`(?i)(\d{1,2}:\d{2}(?::\d{2})?\s*(?:AM|PM)?)`)
)

// eSewa notifications name the merchant after "to" and carry an explicit
// transaction id. Email bodies use a slightly richer phrasing ("has been
// successful") than the SMS shape.
var esewaEmailParser Parser = &patternParser{
	provider: ProviderEsewa,
	channel:  ChannelEmail,
	patterns: fieldPatterns{
		amount:   rsAmountPattern,
		merchant: regexp.MustCompile(`(?i)to\s+([A-Za-z0-9\s&\-']+?)(?:\s+has\s+been|\s+successful|\.|$)`),
		txnID:    regexp.MustCompile(`(?i)(?:transaction\s*(?:id|no)|txn\s*id)\.?\s*:?\s*([A-Z0-9]+)`),
		date:     datePattern,
		clock:    clockPattern,
	},
}

var esewaSMSParser Parser = &patternParser{
	provider: ProviderEsewa,
	channel:  ChannelSMS,
	patterns: fieldPatterns{
		amount:   rsAmountPattern,
		merchant: regexp.MustCompile(`(?i)to\s+([^.]+?)(?:\s+successful|\.|$)`),
		txnID:    regexp.MustCompile(`(?i)transaction\s*(?:id|no)\.?\s*:?\s*([A-Z0-9]+)`),
		date:     datePattern,
		clock:    clockPattern,
	},
}
