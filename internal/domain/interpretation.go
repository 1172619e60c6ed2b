package domain

import "time"

// ResultSource tells callers whether a result came from the model or the local filter
type ResultSource string

const (
	SourceAI       ResultSource = "ai"
	SourceFallback ResultSource = "fallback"
)

// InterpretedQueryResult is the outcome of one search interpretation.
// Transient: built per request and never persisted.
type InterpretedQueryResult struct {
	Query          string        `json:"query"`
	Interpretation string        `json:"interpretation"`
	Items          []CatalogItem `json:"products"`
	Confidence     float64       `json:"confidence"` // coarse 0-1 signal, not a probability
	Source         ResultSource  `json:"source"`
}

// ProductIDs returns the identifiers of the matched items in order
func (r InterpretedQueryResult) ProductIDs() []string {
	ids := make([]string, 0, len(r.Items))
	for _, item := range r.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

// GiftRequest is the gift advisor form
type GiftRequest struct {
	Occasion  string `json:"occasion"`
	Recipient string `json:"recipient"`
	Budget    string `json:"budget"` // free text, e.g. "$500" or "under 1000"
	Style     string `json:"style,omitempty"`
}

// GiftSuggestion pairs a catalog item with the reason it makes a good gift
type GiftSuggestion struct {
	ProductID   string      `json:"productId"`
	Item        CatalogItem `json:"product"`
	Reason      string      `json:"giftReason"`
	OccasionFit string      `json:"occasionFit"`
}

// Preferences drives personalised recommendations
type Preferences struct {
	Style      string     `json:"style,omitempty"`
	Occasion   string     `json:"occasion,omitempty"`
	Metal      string     `json:"metal,omitempty"`
	Budget     string     `json:"budget,omitempty"`
	Categories []Category `json:"categories,omitempty"`
}

// Recommendation is a single recommended item with a short explanation
type Recommendation struct {
	ProductID  string      `json:"productId"`
	Item       CatalogItem `json:"product"`
	Reason     string      `json:"reason"`
	Confidence float64     `json:"confidence"`
}

// StyleRequest asks for styling advice
type StyleRequest struct {
	Occasion        string `json:"occasion"`
	Style           string `json:"style"`
	MetalPreference string `json:"metalPreference"`
}

// Chat roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// MaxChatHistory is the rolling window of messages kept per conversation
const MaxChatHistory = 10

// ChatMessage is one turn of the shopping assistant conversation
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatReply is returned for every chat call, successful or not.
// History is the updated window the caller must send back next time.
type ChatReply struct {
	Message   string        `json:"message"`
	Succeeded bool          `json:"success"`
	History   []ChatMessage `json:"history"`
	Timestamp time.Time     `json:"timestamp"`
}

// GenerationOptions tunes a single text generation call.
// Zero values mean "provider default".
type GenerationOptions struct {
	Temperature float32
	MaxTokens   int32
}
