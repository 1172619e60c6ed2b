package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rjgems/backend/internal/domain"
)

// testCatalog mirrors the seed catalog shipped with the store
func testCatalog() []domain.CatalogItem {
	return []domain.CatalogItem{
		{
			ID: "1", Name: "Diamond Solitaire Engagement Ring", Category: domain.CategoryRings, Price: 2999,
			Description:    "Exquisite diamond solitaire ring featuring a brilliant cut diamond set in 18k white gold.",
			Specifications: map[string]string{"material": "18k White Gold", "stone": "1.5ct Diamond"},
			Featured:       true, InStock: true,
		},
		{
			ID: "2", Name: "Vintage Pearl Drop Necklace", Category: domain.CategoryNecklaces, Price: 1599,
			Description:    "Lustrous Akoya pearls suspended from a delicate gold chain.",
			Specifications: map[string]string{"material": "14k Yellow Gold", "stone": "Akoya Pearls"},
			Featured:       true, InStock: true,
		},
		{
			ID: "3", Name: "Emerald Cut Tennis Bracelet", Category: domain.CategoryBracelets, Price: 3499,
			Description:    "Tennis bracelet featuring emerald cut diamonds set in platinum.",
			Specifications: map[string]string{"material": "Platinum", "stone": "5ct Total Diamond Weight"},
			InStock:        true,
		},
		{
			ID: "4", Name: "Rose Gold Diamond Studs", Category: domain.CategoryEarrings, Price: 899,
			Description:    "Classic diamond stud earrings in warm rose gold setting.",
			Specifications: map[string]string{"material": "14k Rose Gold", "stone": "0.75ct Total Diamond Weight"},
			InStock:        true,
		},
		{
			ID: "5", Name: "Sapphire Halo Engagement Ring", Category: domain.CategoryRings, Price: 2299,
			Description:    "Breathtaking sapphire engagement ring surrounded by a halo of brilliant diamonds.",
			Specifications: map[string]string{"material": "14k White Gold", "stone": "2ct Blue Sapphire + Diamond Halo"},
			Featured:       true, InStock: true,
		},
		{
			ID: "6", Name: "Gold Chain Necklace", Category: domain.CategoryNecklaces, Price: 799,
			Description:    "Elegant gold chain necklace, perfect for layering or wearing alone.",
			Specifications: map[string]string{"material": "18k Yellow Gold", "stone": "None"},
			InStock:        true,
		},
	}
}

func itemIDs(items []domain.CatalogItem) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

func equalIDs(a, b []string) bool {
	return strings.Join(a, ",") == strings.Join(b, ",")
}

// MockTextGenerator is a mock implementation of domain.TextGenerator
type MockTextGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	calls   int
	prompts []string
	opts    []domain.GenerationOptions
	delay   time.Duration
}

func (m *MockTextGenerator) Generate(ctx context.Context, prompt string, opts domain.GenerationOptions) (string, error) {
	m.mu.Lock()
	m.calls++
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	reply, err, delay := m.reply, m.err, m.delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return reply, err
}

func (m *MockTextGenerator) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockTextGenerator) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

func failingGenerator() *MockTextGenerator {
	return &MockTextGenerator{err: domain.ErrGateway}
}
