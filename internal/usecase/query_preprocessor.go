package usecase

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rjgems/backend/internal/domain"
)

// ParsedQuery is what the local fallback understands from a shopping query
type ParsedQuery struct {
	Budget     float64 // price ceiling, 0 when the query names none
	MinPrice   float64 // price floor, 0 when the query names none
	Category   domain.Category
	Keywords   []string
	Normalized string
}

// HasBudget reports whether a price ceiling was found
func (q ParsedQuery) HasBudget() bool { return q.Budget > 0 }

// HasFloor reports whether a minimum price was found
func (q ParsedQuery) HasFloor() bool { return q.MinPrice > 0 }

// HasPriceConstraint reports whether the query limits price in either direction
func (q ParsedQuery) HasPriceConstraint() bool { return q.HasBudget() || q.HasFloor() }

// HasCategory reports whether a category was found
func (q ParsedQuery) HasCategory() bool { return q.Category != "" }

// Compiled regex patterns for query preprocessing
var (
	// "$1000-$2000", "$500 to 1,500"
	dollarRangePattern = regexp.MustCompile(`\$\s*(\d[\d,]*(?:\.\d+)?)\s*(k\b)?\s*(?:-|to)\s*\$?\s*(\d[\d,]*(?:\.\d+)?)\s*(k\b)?`)

	// "between 500 and 1000", "between $1k and $2k"
	betweenPattern = regexp.MustCompile(`\bbetween\s+\$?\s*(\d[\d,]*(?:\.\d+)?)\s*(k\b)?\s*(?:and|-|to)\s*\$?\s*(\d[\d,]*(?:\.\d+)?)\s*(k\b)?`)

	// "over $2500", "above 1000", "more than 800", "at least 2k"
	floorPattern = regexp.MustCompile(`\b(?:over|above|more\s+than|at\s+least|starting\s+at|min(?:imum)?)\s+\$?\s*(\d[\d,]*(?:\.\d+)?)\s*(k\b)?`)

	// "under $500", "below 1000", "less than 800", "up to 2k"
	ceilingPattern = regexp.MustCompile(`\b(?:under|below|less\s+than|up\s+to|max(?:imum)?|within|budget(?:\s+of)?|no\s+more\s+than)\s+\$?\s*(\d[\d,]*(?:\.\d+)?)\s*(k\b)?`)

	// "$750", "$2k"
	dollarAmountPattern = regexp.MustCompile(`\$\s*(\d[\d,]*(?:\.\d+)?)\s*(k\b)?`)

	// "1,200 dollars", "500 usd", "300 bucks"
	currencyWordPattern = regexp.MustCompile(`\b(\d[\d,]*(?:\.\d+)?)\s*(k)?\s*(?:dollars?|usd|bucks)\b`)

	// Any amount in a free-text budget field: "500-1000", "$1,500"
	anyAmountPattern = regexp.MustCompile(`(\d[\d,]*(?:\.\d+)?)\s*(k\b)?`)

	// Anything that is not a letter, digit or space after budgets are removed
	queryPunctuationPattern = regexp.MustCompile(`[^a-z0-9\s]+`)

	// Multiple spaces cleanup
	multiSpacePattern = regexp.MustCompile(`\s+`)
)

// queryNoiseWords carry no product meaning in a shopping query
var queryNoiseWords = map[string]bool{
	// Basic English stop words
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"of": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "with": true, "by": true, "from": true, "is": true,
	"it": true, "as": true, "be": true, "that": true, "this": true,
	"me": true, "my": true, "i": true, "im": true, "her": true, "his": true,
	"some": true, "something": true, "any": true, "anything": true,

	// Request phrasing
	"show": true, "find": true, "looking": true, "look": true, "want": true,
	"need": true, "get": true, "buy": true, "search": true, "please": true,

	// Budget phrasing
	"under": true, "below": true, "less": true, "than": true, "up": true,
	"max": true, "maximum": true, "within": true, "budget": true,
	"around": true, "about": true, "price": true, "priced": true,
	"cost": true, "costing": true, "dollars": true, "dollar": true,
	"usd": true, "bucks": true, "cheap": true, "affordable": true,
	"over": true, "above": true, "more": true, "least": true,
	"starting": true, "min": true, "minimum": true, "between": true,

	// Generic jewelry terms that match every item
	"jewelry": true, "jewellery": true, "piece": true, "pieces": true,
	"item": true, "items": true, "product": true, "products": true,
}

// ParseShoppingQuery extracts budget, category and keywords from a
// free-text query such as "gold necklaces under $1000".
func ParseShoppingQuery(query string) ParsedQuery {
	normalized := multiSpacePattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(query)), " ")
	parsed := ParsedQuery{Normalized: normalized}
	if normalized == "" {
		return parsed
	}

	remainder := extractPrices(normalized, &parsed)

	remainder = queryPunctuationPattern.ReplaceAllString(remainder, " ")
	for _, word := range strings.Fields(remainder) {
		// The first category named wins; later ones are dropped
		if c, ok := domain.ParseCategory(word); ok {
			if parsed.Category == "" {
				parsed.Category = c
			}
			continue
		}
		if queryNoiseWords[word] || isNumeric(word) || len(word) <= 1 {
			continue
		}
		parsed.Keywords = appendUnique(parsed.Keywords, word)
	}

	return parsed
}

type priceKind int

const (
	priceRange priceKind = iota
	priceFloor
	priceCeiling
)

// pricePatterns are tried in order. A range settles both bounds; otherwise
// at most one floor and one ceiling are taken.
var pricePatterns = []struct {
	re   *regexp.Regexp
	kind priceKind
}{
	{dollarRangePattern, priceRange},
	{betweenPattern, priceRange},
	{floorPattern, priceFloor},
	{ceilingPattern, priceCeiling},
	{dollarAmountPattern, priceCeiling},
	{currencyWordPattern, priceCeiling},
}

// extractPrices fills the price bounds of parsed and returns query with the
// matched price phrases removed.
func extractPrices(query string, parsed *ParsedQuery) string {
	for _, p := range pricePatterns {
		if p.kind == priceFloor && parsed.HasFloor() {
			continue
		}
		if p.kind == priceCeiling && parsed.HasBudget() {
			continue
		}

		loc := p.re.FindStringSubmatchIndex(query)
		if loc == nil {
			continue
		}
		amount, ok := parseAmount(query[loc[2]:loc[3]], loc[4] >= 0)
		if !ok {
			continue
		}

		switch p.kind {
		case priceRange:
			upper, ok := parseAmount(query[loc[6]:loc[7]], loc[8] >= 0)
			if !ok {
				continue
			}
			parsed.MinPrice, parsed.Budget = min(amount, upper), max(amount, upper)
		case priceFloor:
			parsed.MinPrice = amount
		default:
			parsed.Budget = amount
		}
		query = query[:loc[0]] + " " + query[loc[1]:]

		if p.kind == priceRange {
			break
		}
	}
	return query
}

// ParseBudgetField reads a free-text budget form field ("$500", "500-1000",
// "under 2k") and returns the highest amount mentioned, or 0.
func ParseBudgetField(budget string) float64 {
	var best float64
	for _, m := range anyAmountPattern.FindAllStringSubmatch(strings.ToLower(budget), -1) {
		if amount, ok := parseAmount(m[1], m[2] != ""); ok && amount > best {
			best = amount
		}
	}
	return best
}

func parseAmount(digits string, thousands bool) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(digits, ",", ""), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	if thousands {
		v *= 1000
	}
	return v, true
}

// isNumeric checks if a string contains only digits
func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}
