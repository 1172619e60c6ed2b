package usecase

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rjgems/backend/internal/domain"
)

// Catalog slice sizes embedded in each prompt
const (
	searchPromptItems         = 20
	giftPromptItems           = 15
	recommendationPromptItems = 10
)

// promptItem is the compact product shape sent to the model. Images are
// left out to keep prompts small.
type promptItem struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Category       domain.Category   `json:"category"`
	Price          float64           `json:"price"`
	Description    string            `json:"description,omitempty"`
	Specifications map[string]string `json:"specifications,omitempty"`
	Featured       bool              `json:"featured,omitempty"`
	InStock        bool              `json:"inStock"`
}

const assistantPersona = `You are RJ Gems' AI jewelry shopping assistant, an expert consultant for luxury jewelry. You help customers:

1. Find perfect jewelry for occasions (weddings, anniversaries, gifts)
2. Suggest pieces within specific budgets
3. Explain jewelry trends, styles, and materials
4. Provide care and maintenance advice
5. Help with sizing and fit questions

GUIDELINES:
- Be helpful, friendly, and professional
- Focus on luxury jewelry: rings, necklaces, earrings, bracelets
- Mention RJ Gems products when relevant
- Ask clarifying questions to better assist customers
- Give specific, actionable advice
- Keep responses conversational but informative
- If asked about prices, suggest budget ranges rather than exact prices
- Encourage viewing our collections for specific pieces

AVAILABLE CATEGORIES:
- Engagement Rings & Wedding Bands
- Diamond Jewelry
- Gold Jewelry (14k, 18k)
- Precious Stone Jewelry (Emerald, Ruby, Sapphire)
- Pearl Jewelry
- Fashion Jewelry
- Men's Jewelry

End every response with a helpful suggestion or question to continue the conversation.`

// buildSearchPrompt asks the model to interpret a natural language query
// against the first searchPromptItems products.
func buildSearchPrompt(query string, items []domain.CatalogItem) string {
	return fmt.Sprintf(`Interpret this natural language jewelry search query and find matching products.

Search Query: %q

Available Products: %s

Work out the intent behind the search (style, occasion, price, material, and so on) and return the ids of matching products ranked by relevance. Only use ids from the list above.
Respond with a single JSON object and nothing else:
{"interpretation": "what the user is looking for", "productIds": ["id1", "id2"], "confidence": 0.8}`,
		query, serializeItems(items, searchPromptItems))
}

func buildGiftPrompt(req domain.GiftRequest, items []domain.CatalogItem) string {
	style := ""
	if req.Style != "" {
		style = "\nStyle: " + req.Style
	}
	return fmt.Sprintf(`Suggest perfect jewelry gifts for this scenario:

Occasion: %s
Recipient: %s
Budget: %s%s

Available Products: %s

Recommend 3-5 pieces that would make perfect gifts, considering the occasion, the recipient's likely preferences, and the budget. Only use ids from the list above.
Respond with a JSON array and nothing else:
[{"productId": "id", "giftReason": "why this makes a great gift", "occasionFit": "how it suits the occasion"}]`,
		req.Occasion, req.Recipient, req.Budget, style, serializeItems(items, giftPromptItems))
}

func buildRecommendationPrompt(prefs domain.Preferences, items []domain.CatalogItem) string {
	return fmt.Sprintf(`As a luxury jewelry expert, recommend the best pieces from this collection based on the customer's preferences.

Customer Preferences: %s

Available Products: %s

Recommend 3-5 products with a brief explanation of why each piece suits these preferences. Focus on style, occasion, price range, and material. Only use ids from the list above.
Respond with a JSON array and nothing else:
[{"productId": "id", "reason": "why this piece is perfect", "confidence": 0.9}]`,
		mustJSON(prefs), serializeItems(items, recommendationPromptItems))
}

func buildDescriptionPrompt(item domain.CatalogItem) string {
	material := item.Spec("material")
	if material == "" {
		material = "Premium materials"
	}
	stone := item.Spec("stone")
	if stone == "" {
		stone = "Fine gemstones"
	}
	return fmt.Sprintf(`Create an elegant, compelling product description for this luxury jewelry piece:

Name: %s
Category: %s
Material: %s
Stone: %s
Price: $%.2f

Write a sophisticated description that highlights:
- Craftsmanship and materials
- Design inspiration
- Suitable occasions
- Emotional appeal

Keep it elegant and luxury-focused, 100-150 words. Return only the description text.`,
		item.Name, item.Category, material, stone, item.Price)
}

func buildStyleAdvicePrompt(req domain.StyleRequest) string {
	return fmt.Sprintf(`As a jewelry styling expert, provide advice for:

Occasion: %s
Style Preference: %s
Metal Preference: %s

Include:
- Recommended jewelry types
- Styling tips
- What to avoid
- How to mix and match

Return practical, actionable advice in 150-200 words as plain text.`,
		req.Occasion, req.Style, req.MetalPreference)
}

// buildChatPrompt renders the persona followed by the conversation
// transcript, ending with an open assistant turn.
func buildChatPrompt(history []domain.ChatMessage) string {
	var sb strings.Builder
	sb.WriteString(assistantPersona)
	sb.WriteString("\n\nConversation:\n")
	for i, msg := range history {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		speaker := "Customer"
		if msg.Role == domain.RoleAssistant {
			speaker = "Assistant"
		}
		sb.WriteString(speaker)
		sb.WriteString(": ")
		sb.WriteString(msg.Content)
	}
	sb.WriteString("\n\nAssistant:")
	return sb.String()
}

// serializeItems renders at most limit items as a compact JSON array
func serializeItems(items []domain.CatalogItem, limit int) string {
	if len(items) > limit {
		items = items[:limit]
	}
	out := make([]promptItem, 0, len(items))
	for _, item := range items {
		out = append(out, promptItem{
			ID:             item.ID,
			Name:           item.Name,
			Category:       item.Category,
			Price:          item.Price,
			Description:    item.Description,
			Specifications: item.Specifications,
			Featured:       item.Featured,
			InStock:        item.InStock,
		})
	}
	return mustJSON(out)
}

// mustJSON marshals values that cannot fail to encode (plain structs,
// strings, maps with string keys).
func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
