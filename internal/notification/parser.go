package notification

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Parse failure reasons. A candidate without a recognizable amount is the
// only per-field parse failure; every other missing field degrades.
var (
	ErrNoAmount        = errors.New("no recognizable amount")
	ErrUnknownProvider = errors.New("no provider recognized")
)

// Parser extracts a transaction candidate from one raw notification body.
type Parser interface {
	Parse(content string) (*TransactionCandidate, error)
}

type parserKey struct {
	provider Provider
	channel  Channel
}

// The closed set of provider × channel parser variants. Webhook payloads
// are parsed with the email or SMS variant of their declared source; there
// is no webhook-specific text shape.
var parsers = map[parserKey]Parser{
	{ProviderEsewa, ChannelEmail}:  esewaEmailParser,
	{ProviderKhalti, ChannelEmail}: khaltiEmailParser,
	{ProviderBank, ChannelEmail}:   bankEmailParser,
	{ProviderEsewa, ChannelSMS}:    esewaSMSParser,
	{ProviderKhalti, ChannelSMS}:   khaltiSMSParser,
	{ProviderBank, ChannelSMS}:     bankSMSParser,
}

// ParserFor returns the parser variant for a provider and channel.
func ParserFor(provider Provider, channel Channel) (Parser, bool) {
	p, ok := parsers[parserKey{provider, channel}]
	return p, ok
}

// Parse classifies the content and runs the matching parser variant for
// the given channel. It returns ErrUnknownProvider when no provider
// signature matches and ErrNoAmount when the matched parser finds no
// positive amount.
func Parse(content string, channel Channel) (*TransactionCandidate, error) {
	provider := Classify(content)
	if provider == ProviderNone {
		return nil, ErrUnknownProvider
	}

	parser, ok := ParserFor(provider, channel)
	if !ok {
		return nil, fmt.Errorf("no %s parser for provider %s: %w", channel, provider, ErrUnknownProvider)
	}

	return parser.Parse(content)
}

// fieldPatterns is the ordered set of extraction patterns for one parser
// variant. amount is mandatory; nil patterns mean the variant does not
// extract that field.
type fieldPatterns struct {
	amount   *regexp.Regexp
	merchant *regexp.Regexp
	txnID    *regexp.Regexp
	date     *regexp.Regexp
	clock    *regexp.Regexp
	account  *regexp.Regexp
	balance  *regexp.Regexp
}

// patternParser extracts candidate fields with a per-variant pattern set.
type patternParser struct {
	provider Provider
	channel  Channel
	patterns fieldPatterns
}

func (p *patternParser) Parse(content string) (*TransactionCandidate, error) {
	amountStr := firstGroup(p.patterns.amount, content)
	if amountStr == "" {
		return nil, ErrNoAmount
	}
	amount, err := parseAmount(amountStr)
	if err != nil {
		return nil, err
	}

	merchant := strings.TrimSpace(firstGroup(p.patterns.merchant, content))

	cand := &TransactionCandidate{
		Amount:   amount,
		Merchant: merchant,
		Source:   p.channel,
		Provider: p.provider,
		RawText:  content,
	}

	if cand.Merchant == "" {
		cand.Merchant = UnknownMerchant
	}
	if p.patterns.txnID != nil {
		cand.TransactionID = firstGroup(p.patterns.txnID, content)
	}
	if s := firstGroup(p.patterns.date, content); s != "" {
		cand.Date = parseDate(s)
	}
	if p.patterns.clock != nil {
		cand.Time = strings.TrimSpace(firstGroup(p.patterns.clock, content))
	}
	if p.patterns.account != nil {
		cand.Account = firstGroup(p.patterns.account, content)
	}
	if p.patterns.balance != nil {
		if s := firstGroup(p.patterns.balance, content); s != "" {
			if bal, err := parseDecimal(s); err == nil {
				cand.Balance = &bal
			}
		}
	}

	cand.Description = fmt.Sprintf("Payment to %s via %s", cand.Merchant, p.provider.DisplayName())

	return cand, nil
}

// firstGroup returns the first capture group of the first match, or "".
func firstGroup(re *regexp.Regexp, content string) string {
	if re == nil {
		return ""
	}
	m := re.FindStringSubmatch(content)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// parseDecimal normalizes a matched amount string: grouping commas are
// stripped and the remainder must parse as a decimal.
func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// parseAmount parses a transaction amount, which must be positive.
func parseAmount(s string) (decimal.Decimal, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return decimal.Zero, ErrNoAmount
	}
	if d.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrNoAmount
	}
	return d, nil
}

// dateLayouts are the accepted literal date formats: abbreviated-month
// day-month-year, slash- or dash-separated day/month/year, and ISO.
var dateLayouts = []string{
	"2-Jan-06",
	"2-Jan-2006",
	"2/Jan/06",
	"2/Jan/2006",
	"2/1/2006",
	"2/1/06",
	"2-1-2006",
	"2-1-06",
	"2006-1-2",
	"2006/1/2",
}

// parseDate normalizes a matched date string. Unrecognized formats yield
// nil; the ingestion step substitutes the ingestion date.
func parseDate(s string) *Date {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := Date{t}
			return &d
		}
	}
	return nil
}
