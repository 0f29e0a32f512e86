package mailparse

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"momentum/internal/core"
)

// UnknownMerchant is reported when an alert names no merchant.
const UnknownMerchant = "Unknown"

// Parser is implemented by every bank variant the Registry can dispatch to.
type Parser interface {
	Bank() string
	// CanParse reports whether the email looks like this bank's card alert.
	CanParse(e Email) bool
	// Parse extracts the transaction. It returns nil when no amount is found.
	Parse(e Email) *Result
}

// Rule is a regex-driven Parser for one bank's credit card alerts.
type Rule struct {
	Name string

	// Sender matches the From header. Keywords must all match the subject
	// and body text.
	Sender   *regexp.Regexp
	Keywords []*regexp.Regexp

	// Amount, Merchant, Card and Date each capture their value in the first
	// submatch. Only Amount is required.
	Amount   *regexp.Regexp
	Merchant *regexp.Regexp
	Card     *regexp.Regexp
	Date     *regexp.Regexp

	DateLayouts []string
}

func (r Rule) Bank() string { return r.Name }

func (r Rule) CanParse(e Email) bool {
	if r.Sender == nil || !r.Sender.MatchString(e.From) {
		return false
	}
	text := e.text()
	for _, k := range r.Keywords {
		if !k.MatchString(text) {
			return false
		}
	}
	return true
}

func (r Rule) Parse(e Email) *Result {
	text := e.text()

	amount, ok := r.amount(text)
	if !ok {
		return nil
	}

	res := &Result{
		Bank:         r.Name,
		Amount:       amount,
		MerchantName: UnknownMerchant,
	}
	if m := submatch(r.Merchant, text); m != "" {
		res.MerchantName = cleanMerchant(m)
	}
	if c := submatch(r.Card, text); c != "" {
		res.CardLast4 = c
	}
	if d := submatch(r.Date, text); d != "" {
		if t := parseDate(d, r.DateLayouts); !t.IsZero() {
			res.TransactionDate = &t
		}
	}
	return res
}

// amount returns the first positive amount in text that fits in Money.
func (r Rule) amount(text string) (decimal.Decimal, bool) {
	if r.Amount == nil {
		return decimal.Decimal{}, false
	}
	for _, m := range r.Amount.FindAllStringSubmatch(text, -1) {
		if len(m) < 2 {
			continue
		}
		d, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
		if err != nil || !d.IsPositive() {
			continue
		}
		if _, err := core.MoneyFromDecimal(d); err != nil {
			continue
		}
		return d, true
	}
	return decimal.Decimal{}, false
}

func submatch(re *regexp.Regexp, text string) string {
	if re == nil {
		return ""
	}
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func cleanMerchant(s string) string {
	s = strings.Trim(s, " .,;:-")
	if s == "" {
		return UnknownMerchant
	}
	return s
}

// parseDate tries each layout in turn; unparseable dates yield the zero time.
func parseDate(s string, layouts []string) time.Time {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

var (
	amountPattern = regexp.MustCompile(`(?i)(?:\b(?:rs\.?|inr)|₹)\s*([0-9][0-9,]{0,16}(?:\.[0-9]{1,2})?)\b`)
	cardPattern   = regexp.MustCompile(`(?i)(?:ending(?:\s+with)?|xx|\*{2,})\s*(\d{4})\b`)
	cardKeyword   = regexp.MustCompile(`(?i)\b(?:credit\s+)?card\b`)
)

func senderDomain(domain string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)@(?:[a-z0-9-]+\.)*` + regexp.QuoteMeta(domain) + `\b`)
}

func bankKeyword(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`)
}

// DefaultRules returns the supported bank rules in dispatch order.
func DefaultRules() []Parser {
	return []Parser{
		Rule{
			Name:        "HDFC",
			Sender:      senderDomain("hdfcbank.net"),
			Keywords:    []*regexp.Regexp{bankKeyword("HDFC"), cardKeyword},
			Amount:      amountPattern,
			Merchant:    regexp.MustCompile(`(?i)\btowards\s+(.+?)\s+on\s+\d`),
			Card:        cardPattern,
			Date:        regexp.MustCompile(`\b(\d{1,2}\s+[A-Za-z]{3},?\s+\d{4})\b`),
			DateLayouts: []string{"2 Jan, 2006", "2 Jan 2006"},
		},
		Rule{
			Name:        "SBI",
			Sender:      senderDomain("sbicard.com"),
			Keywords:    []*regexp.Regexp{bankKeyword("SBI"), cardKeyword},
			Amount:      amountPattern,
			Merchant:    regexp.MustCompile(`(?i)\bat\s+(.+?)\s+on\s+\d`),
			Card:        cardPattern,
			Date:        regexp.MustCompile(`\b(\d{2}[/-]\d{2}[/-]\d{2})\b`),
			DateLayouts: []string{"02/01/06", "02-01-06"},
		},
		Rule{
			Name:        "ICICI",
			Sender:      senderDomain("icicibank.com"),
			Keywords:    []*regexp.Regexp{bankKeyword("ICICI"), cardKeyword},
			Amount:      amountPattern,
			Merchant:    regexp.MustCompile(`(?i)\bInfo:\s*(.+?)\.(?:\s|$)`),
			Card:        cardPattern,
			Date:        regexp.MustCompile(`\b([A-Z][a-z]{2}\s+\d{1,2},\s+\d{4})\b`),
			DateLayouts: []string{"Jan 2, 2006"},
		},
		Rule{
			Name:        "Axis",
			Sender:      senderDomain("axisbank.com"),
			Keywords:    []*regexp.Regexp{bankKeyword("Axis"), cardKeyword},
			Amount:      amountPattern,
			Merchant:    regexp.MustCompile(`(?i)\bat\s+(.+?)\s+on\s+\d`),
			Card:        cardPattern,
			Date:        regexp.MustCompile(`\b(\d{2}-\d{2}-\d{4})\b`),
			DateLayouts: []string{"02-01-2006"},
		},
		Rule{
			Name:        "Kotak",
			Sender:      senderDomain("kotak.com"),
			Keywords:    []*regexp.Regexp{bankKeyword("Kotak"), cardKeyword},
			Amount:      amountPattern,
			Merchant:    regexp.MustCompile(`(?i)\bat\s+(.+?)\s+on\s+\d`),
			Card:        cardPattern,
			Date:        regexp.MustCompile(`\b(\d{2}-[A-Za-z]{3}-\d{4})\b`),
			DateLayouts: []string{"02-Jan-2006"},
		},
	}
}
