package mailparse

import "regexp"

// Outcome classifies what the registry did with an email.
type Outcome int

const (
	// OutcomeParsed: a bank rule matched and an amount was extracted.
	OutcomeParsed Outcome = iota
	// OutcomeExcluded: OTP, statement, reward or promotional mail.
	OutcomeExcluded
	// OutcomeUnsupported: no bank rule claimed the email.
	OutcomeUnsupported
	// OutcomeNoAmount: a bank rule claimed the email but found no amount.
	OutcomeNoAmount
)

func (o Outcome) String() string {
	switch o {
	case OutcomeParsed:
		return "parsed"
	case OutcomeExcluded:
		return "excluded"
	case OutcomeUnsupported:
		return "unsupported"
	case OutcomeNoAmount:
		return "no_amount"
	default:
		return "unknown"
	}
}

// DefaultExclusions match mail that is never a transaction alert.
func DefaultExclusions() []*regexp.Regexp {
	return []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bOTP\b|one[\s-]?time\s+password`),
		regexp.MustCompile(`(?i)\b(?:e-?)?statement\b`),
		regexp.MustCompile(`(?i)\breward\s+points?\b`),
		regexp.MustCompile(`(?i)\b(?:offer|cashback\s+offer|limited\s+period|pre-?approved|exclusive\s+deal|upgrade\s+your\s+card)\b`),
	}
}

// Registry dispatches an email to the first bank rule that claims it.
type Registry struct {
	parsers    []Parser
	exclusions []*regexp.Regexp
}

// NewRegistry builds a registry over parsers, tried in the given order.
func NewRegistry(parsers []Parser, exclusions []*regexp.Regexp) *Registry {
	return &Registry{parsers: parsers, exclusions: exclusions}
}

// DefaultRegistry returns the registry for all supported banks.
func DefaultRegistry() *Registry {
	return NewRegistry(DefaultRules(), DefaultExclusions())
}

// Banks lists the supported banks in dispatch order.
func (r *Registry) Banks() []string {
	out := make([]string, len(r.parsers))
	for i, p := range r.parsers {
		out[i] = p.Bank()
	}
	return out
}

// Excluded reports whether e matches any exclusion pattern.
func (r *Registry) Excluded(e Email) bool {
	text := e.text()
	for _, x := range r.exclusions {
		if x.MatchString(text) {
			return true
		}
	}
	return false
}

// Parse screens e against the exclusions and then hands it to the first
// parser whose CanParse accepts it. Later parsers are not consulted even if
// the first one finds no amount. The result is nil unless the outcome is
// OutcomeParsed.
func (r *Registry) Parse(e Email) (*Result, Outcome) {
	if r.Excluded(e) {
		return nil, OutcomeExcluded
	}
	for _, p := range r.parsers {
		if !p.CanParse(e) {
			continue
		}
		res := p.Parse(e)
		if res == nil {
			return nil, OutcomeNoAmount
		}
		return res, OutcomeParsed
	}
	return nil, OutcomeUnsupported
}
