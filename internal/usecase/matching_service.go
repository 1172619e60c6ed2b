package usecase

import (
	"regexp"
	"sort"
	"strings"

	"github.com/rjgems/backend/internal/domain"
)

// Package-level compiled regex pattern for performance
var punctuationRegex = regexp.MustCompile(`[^\w\s]`)

// Field weights for relevance scoring
const (
	weightName        = 3.0 // keyword appears in the product name
	weightSpec        = 2.0 // keyword appears in a specification value
	weightDefault     = 1.0 // category or description only
	fuzzyWeightFactor = 0.8 // typo matches get 80% of normal weight
	fuzzyEditDistance = 1
	fuzzyMinLength    = 5
)

// MatchingService decides whether catalog items satisfy a parsed query
// and orders the survivors by relevance. It holds no state.
type MatchingService struct{}

// NewMatchingService creates a new matching service
func NewMatchingService() *MatchingService {
	return &MatchingService{}
}

// Filter keeps the items that honour every constraint in q: category,
// price at most budget plus headroom and at least the floor, and every keyword present somewhere
// in the item text. The result is ranked by relevance; ties keep catalog
// order so the output is deterministic.
func (s *MatchingService) Filter(items []domain.CatalogItem, q ParsedQuery, budgetHeadroom float64) []domain.CatalogItem {
	type scored struct {
		item  domain.CatalogItem
		score float64
	}

	var kept []scored
	for _, item := range items {
		if q.HasCategory() && item.Category != q.Category {
			continue
		}
		if q.HasBudget() && item.Price > q.Budget*budgetHeadroom {
			continue
		}
		if q.HasFloor() && item.Price < q.MinPrice {
			continue
		}

		score, ok := s.score(item, q.Keywords)
		if !ok {
			continue
		}
		kept = append(kept, scored{item: item, score: score})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].score > kept[j].score
	})

	result := make([]domain.CatalogItem, 0, len(kept))
	for _, k := range kept {
		result = append(result, k.item)
	}
	return result
}

// RankSimilar orders candidates by how many name and specification tokens
// they share with target. Ties keep the input order.
func (s *MatchingService) RankSimilar(target domain.CatalogItem, candidates []domain.CatalogItem) []domain.CatalogItem {
	targetTokens := tokenize(target.Name + " " + specValues(target))

	shared := make(map[string]int, len(candidates))
	for _, c := range candidates {
		n, _ := findIntersection(targetTokens, tokenize(c.Name+" "+specValues(c)))
		shared[c.ID] = n
	}

	ranked := append([]domain.CatalogItem(nil), candidates...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return shared[ranked[i].ID] > shared[ranked[j].ID]
	})
	return ranked
}

// score returns the weighted keyword score for item, or false when any
// keyword is missing from it entirely.
func (s *MatchingService) score(item domain.CatalogItem, keywords []string) (float64, bool) {
	fields := []struct {
		text   string
		weight float64
	}{
		{strings.ToLower(item.Name), weightName},
		{strings.ToLower(specValues(item)), weightSpec},
		{strings.ToLower(string(item.Category)), weightDefault},
		{strings.ToLower(item.Description), weightDefault},
	}

	total := 0.0
	for _, keyword := range keywords {
		best := 0.0
		for _, f := range fields {
			if w := keywordWeight(keyword, f.text) * f.weight; w > best {
				best = w
			}
		}
		if best == 0 {
			return 0, false
		}
		total += best
	}
	return total, true
}

// keywordWeight is 1 when keyword (or its singular) is a substring of text,
// fuzzyWeightFactor when it is one edit away from a word in text, else 0.
func keywordWeight(keyword, text string) float64 {
	for _, variant := range keywordVariants(keyword) {
		if strings.Contains(text, variant) {
			return 1
		}
	}
	if len(keyword) < fuzzyMinLength {
		return 0
	}
	for _, token := range tokenize(text) {
		if fuzzyTokenMatch(keyword, token, fuzzyEditDistance) {
			return fuzzyWeightFactor
		}
	}
	return 0
}

// keywordVariants returns the keyword plus its likely singular forms so
// "pearls" matches "pearl" and "watches" matches "watch".
func keywordVariants(keyword string) []string {
	variants := []string{keyword}
	if len(keyword) <= 3 {
		return variants
	}
	if strings.HasSuffix(keyword, "ies") {
		variants = append(variants, strings.TrimSuffix(keyword, "ies")+"y")
	}
	if strings.HasSuffix(keyword, "es") {
		variants = append(variants, strings.TrimSuffix(keyword, "es"))
	}
	if strings.HasSuffix(keyword, "s") && !strings.HasSuffix(keyword, "ss") {
		variants = append(variants, strings.TrimSuffix(keyword, "s"))
	}
	return variants
}

func specValues(item domain.CatalogItem) string {
	if len(item.Specifications) == 0 {
		return ""
	}
	keys := make([]string, 0, len(item.Specifications))
	for k := range item.Specifications {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([]string, 0, len(keys))
	for _, k := range keys {
		values = append(values, item.Specifications[k])
	}
	return strings.Join(values, " ")
}

// tokenize splits a string into normalized lowercase tokens.
// Removes punctuation, noise words, and pure numeric tokens.
func tokenize(s string) []string {
	cleaned := punctuationRegex.ReplaceAllString(strings.ToLower(s), " ")

	var tokens []string
	for _, word := range strings.Fields(cleaned) {
		if len(word) <= 1 || queryNoiseWords[word] || isNumeric(word) {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// fuzzyTokenMatch checks if two tokens are similar within the edit distance threshold
func fuzzyTokenMatch(token1, token2 string, threshold int) bool {
	if token1 == token2 {
		return true
	}

	// Only apply fuzzy matching to longer tokens to avoid false positives
	if len(token1) < fuzzyMinLength || len(token2) < fuzzyMinLength {
		return false
	}

	lenDiff := len(token1) - len(token2)
	if lenDiff < 0 {
		lenDiff = -lenDiff
	}
	if lenDiff > threshold {
		return false
	}

	return levenshteinDistance(token1, token2) <= threshold
}

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	r1 := []rune(s1)
	r2 := []rune(s2)
	m := len(r1)
	n := len(r2)

	// Two rows instead of the full matrix
	prev := make([]int, n+1)
	curr := make([]int, n+1)

	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}

// findIntersection returns the count of common tokens and the list of matched tokens
func findIntersection(tokens1, tokens2 []string) (int, []string) {
	set := make(map[string]bool)
	for _, t := range tokens1 {
		set[t] = true
	}

	var matched []string
	seen := make(map[string]bool)
	for _, t := range tokens2 {
		if set[t] && !seen[t] {
			matched = append(matched, t)
			seen[t] = true
		}
	}

	return len(matched), matched
}
