package mailparse

import (
	"strings"
	"unicode"
)

// OtherCategory is assigned when no keyword matches.
const OtherCategory = "Other"

type categoryKeywords struct {
	category string
	keywords []string
}

// Categorizer maps merchant names to spending categories by keyword.
// Categories are checked in order and the first keyword hit wins.
type Categorizer struct {
	table []categoryKeywords
}

// NewCategorizer builds a categorizer from an ordered category table.
// Keywords are matched case-insensitively as whole words of the merchant;
// a multi-word keyword must appear as consecutive words.
func NewCategorizer(table map[string][]string, order []string) *Categorizer {
	c := &Categorizer{}
	for _, name := range order {
		kws := make([]string, 0, len(table[name]))
		for _, k := range table[name] {
			if k = strings.Join(words(k, false), " "); k != "" {
				kws = append(kws, " "+k+" ")
			}
		}
		c.table = append(c.table, categoryKeywords{category: name, keywords: kws})
	}
	return c
}

var defaultCategoryOrder = []string{"Food", "Transport", "Bills", "Entertainment", "Health", "Shopping"}

var defaultCategoryKeywords = map[string][]string{
	"Food": {
		"swiggy", "zomato", "restaurant", "cafe", "coffee", "starbucks", "dominos",
		"pizza", "mcdonald", "mcdonalds", "kfc", "bakery", "eatery", "dhaba", "food",
	},
	"Transport": {
		"uber", "ola", "rapido", "metro", "irctc", "railway", "fuel", "petrol",
		"indian oil", "hpcl", "bpcl", "fastag", "airlines", "indigo",
	},
	"Bills": {
		"electricity", "airtel", "jio", "vodafone", "broadband", "bescom",
		"insurance", "recharge", "gas", "water", "bill",
	},
	"Entertainment": {
		"netflix", "spotify", "prime video", "hotstar", "bookmyshow", "pvr",
		"inox", "youtube", "steam",
	},
	"Health": {
		"pharmacy", "apollo", "medplus", "1mg", "pharmeasy", "hospital",
		"clinic", "diagnostic", "chemist",
	},
	"Shopping": {
		"amazon", "flipkart", "myntra", "ajio", "nykaa", "meesho", "dmart",
		"bigbasket", "blinkit", "zepto", "mall", "store", "mart", "bartan", "bhandar",
	},
}

// DefaultCategorizer returns the built-in merchant table.
func DefaultCategorizer() *Categorizer {
	return NewCategorizer(defaultCategoryKeywords, defaultCategoryOrder)
}

// Categorize returns the category for merchant, or OtherCategory.
// Run-together names such as "BalajiBartanBhandar" are also tried split
// at their case changes.
func (c *Categorizer) Categorize(merchant string) string {
	if strings.TrimSpace(merchant) == "" || strings.EqualFold(merchant, UnknownMerchant) {
		return OtherCategory
	}
	plain := " " + strings.Join(words(merchant, false), " ") + " "
	split := " " + strings.Join(words(merchant, true), " ") + " "
	for _, row := range c.table {
		for _, k := range row.keywords {
			if strings.Contains(plain, k) || strings.Contains(split, k) {
				return row.category
			}
		}
	}
	return OtherCategory
}

// words lowercases s and splits it into letter/digit runs. With camel set,
// a lower-to-upper case change also starts a new word.
func words(s string, camel bool) []string {
	var (
		out  []string
		cur  []rune
		prev rune
	)
	flush := func() {
		if len(cur) > 0 {
			out = append(out, string(cur))
			cur = cur[:0]
		}
	}
	for _, r := range s {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
		case camel && unicode.IsUpper(r) && unicode.IsLower(prev):
			flush()
			cur = append(cur, unicode.ToLower(r))
		default:
			cur = append(cur, unicode.ToLower(r))
		}
		prev = r
	}
	flush()
	return out
}
