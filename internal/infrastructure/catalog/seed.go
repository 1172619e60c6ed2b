package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/rjgems/backend/internal/domain"
)

//go:embed seed/products.json
var seedJSON []byte

// SeedProducts returns the built-in starter catalog
func SeedProducts() ([]domain.CatalogItem, error) {
	var items []domain.CatalogItem
	if err := json.Unmarshal(seedJSON, &items); err != nil {
		return nil, fmt.Errorf("decoding seed catalog: %w", err)
	}
	return items, nil
}
