package usecase

import (
	"fmt"
	"strings"

	"github.com/rjgems/backend/internal/domain"
)

// budgetHeadroom lets fallback results run up to 20% over a stated budget
const budgetHeadroom = 1.2

// Fallback confidence levels
const (
	confidenceSubstring      = 0.3 // keywords only
	confidenceOneConstraint  = 0.5 // price or category honoured
	confidenceBothConstraint = 0.6 // price and category honoured
)

const (
	fallbackGiftCount           = 3
	fallbackRecommendationCount = 3
	fallbackRecommendationScore = 0.5
)

const (
	fallbackGiftReason     = "Elegant choice that makes a memorable gift"
	fallbackOccasionFit    = "Suitable for special occasions"
	fallbackRecommendation = "Popular choice with excellent craftsmanship"
)

// fallbackSearch filters catalog locally. It is pure: the same query and
// catalog always produce the same items and confidence.
func (i *Interpreter) fallbackSearch(query string, catalog []domain.CatalogItem) domain.InterpretedQueryResult {
	parsed := ParseShoppingQuery(query)

	// With nothing to go on, match the whole query as one phrase
	if len(parsed.Keywords) == 0 && !parsed.HasPriceConstraint() && !parsed.HasCategory() {
		parsed.Keywords = []string{parsed.Normalized}
	}

	confidence := confidenceSubstring
	switch {
	case parsed.HasPriceConstraint() && parsed.HasCategory():
		confidence = confidenceBothConstraint
	case parsed.HasPriceConstraint() || parsed.HasCategory():
		confidence = confidenceOneConstraint
	}

	return domain.InterpretedQueryResult{
		Query:          query,
		Interpretation: fmt.Sprintf("Searching for products matching %q", strings.TrimSpace(query)),
		Items:          i.matcher.Filter(catalog, parsed, budgetHeadroom),
		Confidence:     confidence,
		Source:         domain.SourceFallback,
	}
}

// fallbackGifts returns the first few items within budget. A request
// without a readable budget is not price filtered.
func (i *Interpreter) fallbackGifts(req domain.GiftRequest, catalog []domain.CatalogItem) []domain.GiftSuggestion {
	budget := ParseBudgetField(req.Budget)

	suggestions := []domain.GiftSuggestion{}
	for _, item := range catalog {
		if len(suggestions) == fallbackGiftCount {
			break
		}
		if budget > 0 && item.Price > budget*budgetHeadroom {
			continue
		}
		suggestions = append(suggestions, domain.GiftSuggestion{
			ProductID:   item.ID,
			Item:        item,
			Reason:      fallbackGiftReason,
			OccasionFit: fallbackOccasionFit,
		})
	}
	return suggestions
}

// fallbackRecommendations prefers items in the requested categories and
// otherwise takes the head of the catalog.
func (i *Interpreter) fallbackRecommendations(prefs domain.Preferences, catalog []domain.CatalogItem) []domain.Recommendation {
	pool := catalog
	if len(prefs.Categories) > 0 {
		var preferred []domain.CatalogItem
		for _, item := range catalog {
			for _, c := range prefs.Categories {
				if item.Category == c {
					preferred = append(preferred, item)
					break
				}
			}
		}
		if len(preferred) > 0 {
			pool = preferred
		}
	}

	recs := []domain.Recommendation{}
	for _, item := range pool {
		if len(recs) == fallbackRecommendationCount {
			break
		}
		recs = append(recs, domain.Recommendation{
			ProductID:  item.ID,
			Item:       item,
			Reason:     fallbackRecommendation,
			Confidence: fallbackRecommendationScore,
		})
	}
	return recs
}

func fallbackDescription(item domain.CatalogItem) string {
	category := string(item.Category)
	if category == "" {
		category = "jewelry"
	}
	return fmt.Sprintf("Exquisite %s crafted with attention to detail. Features premium materials and timeless design perfect for any occasion.", category)
}

// fallbackStoredDescription is returned when a stored product's copy could
// not be regenerated. It names the product so it reads as a preview.
func fallbackStoredDescription(item domain.CatalogItem) string {
	category := strings.ToLower(string(item.Category))
	if category == "" {
		category = "piece"
	}
	name := strings.ToLower(strings.TrimSpace(item.Name))
	if name == "" {
		name = "design"
	}
	return fmt.Sprintf("Experience the exquisite craftsmanship of this stunning %s. "+
		"Meticulously designed with attention to every detail, this %s represents the perfect fusion of traditional artistry and contemporary elegance. "+
		"Crafted from premium materials, this piece is ideal for special occasions and makes a timeless addition to any jewelry collection. "+
		"Each element has been carefully selected to ensure lasting beauty and exceptional quality.", category, name)
}

func fallbackStyleAdvice(req domain.StyleRequest) string {
	occasion := strings.TrimSpace(req.Occasion)
	if occasion == "" {
		occasion = "any occasion"
	}
	style := strings.TrimSpace(req.Style)
	if style == "" {
		style = "classic"
	}
	return fmt.Sprintf("For %s with %s style, consider pieces that complement your outfit. Focus on balance - if wearing statement clothing, choose subtle jewelry, and vice versa.", occasion, style)
}

// fallbackChatReply answers from a few canned topics keyed on the message
func fallbackChatReply(message string) string {
	m := strings.ToLower(message)
	switch {
	case strings.Contains(m, "gift") || strings.Contains(m, "present"):
		return "For gifts, I'd recommend classic pieces like diamond stud earrings, a delicate gold necklace, or a pearl bracelet. What's the occasion and your budget range? I can suggest more specific options from our RJ Gems collection!"
	case strings.Contains(m, "budget") || strings.Contains(m, "price") || strings.Contains(m, "$"):
		return "I'd be happy to help you find beautiful jewelry within your budget! Could you let me know your price range and what type of jewelry you're looking for? Our collection has stunning pieces across all price points."
	case strings.Contains(m, "ring") || strings.Contains(m, "engagement"):
		return "Rings are such a special choice! Are you looking for an engagement ring, wedding band, or fashion ring? I can help you explore our diamond, gold, and gemstone options based on your preferences."
	case strings.Contains(m, "trend") || strings.Contains(m, "popular"):
		return "Current jewelry trends include layered necklaces, stackable rings, and statement earrings. Gold jewelry and colored gemstones are particularly popular right now. What style appeals to you most?"
	default:
		return "I'm here to help you find the perfect jewelry! I can assist with gift suggestions, budget recommendations, style advice, and more. What would you like to know about our RJ Gems collection?"
	}
}

var quickQuestions = []string{
	"What's trending in jewelry right now?",
	"Help me find a gift under $500",
	"What's the difference between 14k and 18k gold?",
	"Show me engagement ring styles",
	"How do I care for my jewelry?",
	"What jewelry goes with formal wear?",
}
