// Package mailparse turns bank transaction alert emails into transaction
// facts. Each supported bank is a Rule; a Registry tries the rules in order
// after screening out OTP, statement, reward and promotional mail.
package mailparse

import (
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"momentum/internal/core"
)

// Email is the provider-neutral view of a message.
type Email struct {
	ID         string // provider message id, used for dedup
	From       string
	Subject    string
	Body       string
	ReceivedAt time.Time
}

// Result holds the facts pulled out of an alert. MerchantName is "Unknown"
// when no merchant could be found; CardLast4 stays empty and
// TransactionDate nil.
type Result struct {
	Bank            string          `json:"bank"`
	Amount          decimal.Decimal `json:"amount"`
	MerchantName    string          `json:"merchant_name"`
	CardLast4       string          `json:"card_last4,omitempty"`
	TransactionDate *time.Time      `json:"transaction_date,omitempty"`
}

// Money converts the parsed amount to cents.
func (r Result) Money() (core.Money, error) {
	return core.MoneyFromDecimal(r.Amount)
}

// DateOr returns the parsed transaction day, or fallback's day when the
// alert carried no usable date.
func (r Result) DateOr(fallback time.Time) core.Date {
	if r.TransactionDate == nil || r.TransactionDate.IsZero() {
		return core.DateOf(fallback)
	}
	return core.DateOf(*r.TransactionDate)
}

var (
	tagPattern   = regexp.MustCompile(`(?s)<[^>]*>`)
	stylePattern = regexp.MustCompile(`(?is)<(style|script)[^>]*>.*?</(style|script)>`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// normalize strips markup and collapses whitespace so that patterns can be
// written against plain single-line text.
func normalize(s string) string {
	s = stylePattern.ReplaceAllString(s, " ")
	s = tagPattern.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}

// text is the searchable content of an email: subject and body on one line.
func (e Email) text() string {
	return normalize(e.Subject) + " " + normalize(e.Body)
}
