package usecase

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/rjgems/backend/internal/domain"
	"go.uber.org/zap"
)

// Model confidence handling for search results
const (
	defaultModelConfidence = 0.8
	minModelConfidence     = 0.5
)

// Generation settings for the conversational tasks
const (
	chatTemperature     float32 = 0.7
	chatMaxTokens       int32   = 1024
	freeTextTemperature float32 = 0.7
)

// InterpreterConfig holds generation defaults for the structured tasks
type InterpreterConfig struct {
	Temperature float32
	MaxTokens   int32
}

// Interpreter turns shopper input into structured results with one model
// call, falling back to local logic whenever the call or its parsing fails.
// None of its methods return errors.
type Interpreter struct {
	generator domain.TextGenerator
	matcher   *MatchingService
	opts      domain.GenerationOptions
	logger    *zap.Logger
	now       func() time.Time
}

// NewInterpreter creates an interpreter around a text generator
func NewInterpreter(generator domain.TextGenerator, config InterpreterConfig, logger *zap.Logger) *Interpreter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interpreter{
		generator: generator,
		matcher:   NewMatchingService(),
		opts: domain.GenerationOptions{
			Temperature: config.Temperature,
			MaxTokens:   config.MaxTokens,
		},
		logger: logger,
		now:    time.Now,
	}
}

// InterpretSearch interprets a free-text query against a catalog snapshot.
// Matched items are always a subset of catalog.
func (i *Interpreter) InterpretSearch(ctx context.Context, query string, catalog []domain.CatalogItem) domain.InterpretedQueryResult {
	if strings.TrimSpace(query) == "" {
		return domain.InterpretedQueryResult{
			Query:  query,
			Items:  []domain.CatalogItem{},
			Source: domain.SourceFallback,
		}
	}

	text, err := i.generator.Generate(ctx, buildSearchPrompt(query, catalog), i.opts)
	if err != nil {
		i.logFailure("search", err)
		return i.fallbackSearch(query, catalog)
	}

	parsed, err := parseSearchResponse(text)
	if err != nil {
		i.logFailure("search", err)
		return i.fallbackSearch(query, catalog)
	}

	items := selectKnown(parsed.ProductIDs, indexCatalog(catalog))
	if len(items) == 0 {
		i.logger.Info("model matched no known products, using fallback",
			zap.String("task", "search"),
			zap.Strings("product_ids", parsed.ProductIDs),
		)
		return i.fallbackSearch(query, catalog)
	}

	confidence := defaultModelConfidence
	if parsed.Confidence.Set {
		confidence = clamp(parsed.Confidence.Value, minModelConfidence, 1)
	}

	return domain.InterpretedQueryResult{
		Query:          query,
		Interpretation: parsed.Interpretation,
		Items:          items,
		Confidence:     confidence,
		Source:         domain.SourceAI,
	}
}

// InterpretGiftRequest suggests gifts from catalog for a gift advisor form
func (i *Interpreter) InterpretGiftRequest(ctx context.Context, req domain.GiftRequest, catalog []domain.CatalogItem) []domain.GiftSuggestion {
	text, err := i.generator.Generate(ctx, buildGiftPrompt(req, catalog), i.opts)
	if err != nil {
		i.logFailure("gifts", err)
		return i.fallbackGifts(req, catalog)
	}

	parsed, err := parseGiftResponse(text)
	if err != nil {
		i.logFailure("gifts", err)
		return i.fallbackGifts(req, catalog)
	}

	index := indexCatalog(catalog)
	seen := make(map[string]bool, len(parsed))
	suggestions := []domain.GiftSuggestion{}
	for _, p := range parsed {
		item, ok := index[p.ProductID]
		if !ok || seen[p.ProductID] {
			continue
		}
		seen[p.ProductID] = true

		reason := p.Reason
		if reason == "" {
			reason = fallbackGiftReason
		}
		fit := p.OccasionFit
		if fit == "" {
			fit = fallbackOccasionFit
		}
		suggestions = append(suggestions, domain.GiftSuggestion{
			ProductID:   item.ID,
			Item:        item,
			Reason:      reason,
			OccasionFit: fit,
		})
	}

	if len(suggestions) == 0 {
		return i.fallbackGifts(req, catalog)
	}
	return suggestions
}

// Recommend picks items from catalog that fit the shopper's preferences
func (i *Interpreter) Recommend(ctx context.Context, prefs domain.Preferences, catalog []domain.CatalogItem) []domain.Recommendation {
	text, err := i.generator.Generate(ctx, buildRecommendationPrompt(prefs, catalog), i.opts)
	if err != nil {
		i.logFailure("recommendations", err)
		return i.fallbackRecommendations(prefs, catalog)
	}

	parsed, err := parseRecommendationResponse(text)
	if err != nil {
		i.logFailure("recommendations", err)
		return i.fallbackRecommendations(prefs, catalog)
	}

	index := indexCatalog(catalog)
	seen := make(map[string]bool, len(parsed))
	recs := []domain.Recommendation{}
	for _, p := range parsed {
		item, ok := index[p.ProductID]
		if !ok || seen[p.ProductID] {
			continue
		}
		seen[p.ProductID] = true

		confidence := defaultModelConfidence
		if p.Confidence.Set {
			confidence = clamp(p.Confidence.Value, 0, 1)
		}
		reason := p.Reason
		if reason == "" {
			reason = fallbackRecommendation
		}
		recs = append(recs, domain.Recommendation{
			ProductID:  item.ID,
			Item:       item,
			Reason:     reason,
			Confidence: confidence,
		})
	}

	if len(recs) == 0 {
		return i.fallbackRecommendations(prefs, catalog)
	}
	return recs
}

// GenerateDescription writes marketing copy for a product
func (i *Interpreter) GenerateDescription(ctx context.Context, item domain.CatalogItem) string {
	return i.freeText(ctx, "description", buildDescriptionPrompt(item), func() string {
		return fallbackDescription(item)
	})
}

// describeStored writes new copy for a stored product. The bool is false when
// text is the fallback and must not replace the stored description.
func (i *Interpreter) describeStored(ctx context.Context, item domain.CatalogItem) (string, bool) {
	if text, ok := i.modelText(ctx, "regenerate_description", buildDescriptionPrompt(item)); ok {
		return text, true
	}
	return fallbackStoredDescription(item), false
}

// StyleAdvice gives styling tips for an occasion
func (i *Interpreter) StyleAdvice(ctx context.Context, req domain.StyleRequest) string {
	return i.freeText(ctx, "style_advice", buildStyleAdvicePrompt(req), func() string {
		return fallbackStyleAdvice(req)
	})
}

// Chat answers one shopper message. history is the window returned by the
// previous call; the reply carries the updated window, at most
// domain.MaxChatHistory entries long.
func (i *Interpreter) Chat(ctx context.Context, message string, history []domain.ChatMessage) domain.ChatReply {
	window := normalizeHistory(history)
	window = append(window, domain.ChatMessage{Role: domain.RoleUser, Content: strings.TrimSpace(message)})
	window = lastMessages(window, domain.MaxChatHistory)

	text, err := i.generator.Generate(ctx, buildChatPrompt(window), domain.GenerationOptions{
		Temperature: chatTemperature,
		MaxTokens:   chatMaxTokens,
	})
	if err == nil {
		text = strings.TrimSpace(text)
	}
	if err != nil || text == "" {
		if err != nil {
			i.logFailure("chat", err)
		}
		return domain.ChatReply{
			Message:   fallbackChatReply(message),
			Succeeded: false,
			History:   window,
			Timestamp: i.now().UTC(),
		}
	}

	window = append(window, domain.ChatMessage{Role: domain.RoleAssistant, Content: text})
	return domain.ChatReply{
		Message:   text,
		Succeeded: true,
		History:   lastMessages(window, domain.MaxChatHistory),
		Timestamp: i.now().UTC(),
	}
}

// QuickQuestions returns suggested conversation starters
func (i *Interpreter) QuickQuestions() []string {
	return append([]string(nil), quickQuestions...)
}

func (i *Interpreter) freeText(ctx context.Context, task, prompt string, fallback func() string) string {
	if text, ok := i.modelText(ctx, task, prompt); ok {
		return text
	}
	return fallback()
}

// modelText returns cleaned model output, or false when the call failed
// or produced nothing usable.
func (i *Interpreter) modelText(ctx context.Context, task, prompt string) (string, bool) {
	text, err := i.generator.Generate(ctx, prompt, domain.GenerationOptions{
		Temperature: freeTextTemperature,
		MaxTokens:   i.opts.MaxTokens,
	})
	if err != nil {
		i.logFailure(task, err)
		return "", false
	}

	cleaned := cleanFreeText(text)
	if cleaned == "" {
		i.logger.Warn("model returned empty text, using fallback", zap.String("task", task))
		return "", false
	}
	return cleaned, true
}

func (i *Interpreter) logFailure(task string, err error) {
	i.logger.Warn("ai call failed, using fallback", zap.String("task", task), zap.Error(err))
}

func indexCatalog(catalog []domain.CatalogItem) map[string]domain.CatalogItem {
	index := make(map[string]domain.CatalogItem, len(catalog))
	for _, item := range catalog {
		index[item.ID] = item
	}
	return index
}

// selectKnown keeps ids present in index, in the given order, without duplicates
func selectKnown(ids []string, index map[string]domain.CatalogItem) []domain.CatalogItem {
	seen := make(map[string]bool, len(ids))
	items := []domain.CatalogItem{}
	for _, id := range ids {
		item, ok := index[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		items = append(items, item)
	}
	return items
}

// normalizeHistory drops empty turns and maps unknown roles to the user
func normalizeHistory(history []domain.ChatMessage) []domain.ChatMessage {
	out := make([]domain.ChatMessage, 0, len(history)+2)
	for _, msg := range history {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		role := domain.RoleUser
		if msg.Role == domain.RoleAssistant {
			role = domain.RoleAssistant
		}
		out = append(out, domain.ChatMessage{Role: role, Content: content})
	}
	return out
}

func lastMessages(history []domain.ChatMessage, n int) []domain.ChatMessage {
	if len(history) <= n {
		return history
	}
	return append([]domain.ChatMessage(nil), history[len(history)-n:]...)
}

// clamp bounds v to [lo, hi]; NaN maps to lo
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return max(lo, min(hi, v))
}
