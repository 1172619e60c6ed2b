package usecase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/rjgems/backend/internal/domain"
)

// flexibleID accepts "1", 1, or an object carrying productId/id/_id
type flexibleID string

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexibleID(strings.TrimSpace(s))
	case '{':
		var obj struct {
			ProductID flexibleID `json:"productId"`
			ID        flexibleID `json:"id"`
			MongoID   flexibleID `json:"_id"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		for _, candidate := range []flexibleID{obj.ProductID, obj.ID, obj.MongoID} {
			if candidate != "" {
				*f = candidate
				break
			}
		}
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*f = flexibleID(n.String())
	}
	return nil
}

// flexibleFloat accepts 0.8 or "0.8"
type flexibleFloat struct {
	Value float64
	Set   bool
}

func (f *flexibleFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("non-finite number %q", s)
	}
	f.Value, f.Set = v, true
	return nil
}

// parsedSearch is the validated model answer to a search prompt
type parsedSearch struct {
	Interpretation string
	ProductIDs     []string
	Confidence     flexibleFloat
}

type parsedGift struct {
	ProductID   string
	Reason      string
	OccasionFit string
}

type parsedRecommendation struct {
	ProductID  string
	Reason     string
	Confidence flexibleFloat
}

// parseSearchResponse extracts {"interpretation", "productIds"|"results",
// "confidence"} from model text.
func parseSearchResponse(text string) (parsedSearch, error) {
	raw, ok := extractJSON(text, '{')
	if !ok {
		return parsedSearch{}, fmt.Errorf("%w: no JSON object in search response", domain.ErrParse)
	}

	var wire struct {
		Interpretation *string       `json:"interpretation"`
		ProductIDs     []flexibleID  `json:"productIds"`
		Results        []flexibleID  `json:"results"`
		Confidence     flexibleFloat `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return parsedSearch{}, fmt.Errorf("%w: search response: %v", domain.ErrParse, err)
	}

	if wire.Interpretation == nil {
		return parsedSearch{}, fmt.Errorf("%w: search response missing interpretation", domain.ErrParse)
	}
	ids := wire.ProductIDs
	if ids == nil {
		ids = wire.Results
	}
	if ids == nil {
		return parsedSearch{}, fmt.Errorf("%w: search response missing productIds", domain.ErrParse)
	}

	return parsedSearch{
		Interpretation: strings.TrimSpace(*wire.Interpretation),
		ProductIDs:     idsToStrings(ids),
		Confidence:     wire.Confidence,
	}, nil
}

// parseGiftResponse extracts [{"productId","giftReason","occasionFit"}]
func parseGiftResponse(text string) ([]parsedGift, error) {
	raw, ok := extractJSON(text, '[')
	if !ok {
		return nil, fmt.Errorf("%w: no JSON array in gift response", domain.ErrParse)
	}

	var wire []struct {
		ProductID   flexibleID `json:"productId"`
		GiftReason  string     `json:"giftReason"`
		OccasionFit string     `json:"occasionFit"`
	}
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, fmt.Errorf("%w: gift response: %v", domain.ErrParse, err)
	}

	gifts := make([]parsedGift, 0, len(wire))
	for _, w := range wire {
		if w.ProductID == "" {
			continue
		}
		gifts = append(gifts, parsedGift{
			ProductID:   string(w.ProductID),
			Reason:      strings.TrimSpace(w.GiftReason),
			OccasionFit: strings.TrimSpace(w.OccasionFit),
		})
	}
	return gifts, nil
}

// parseRecommendationResponse extracts [{"productId","reason","confidence"}]
func parseRecommendationResponse(text string) ([]parsedRecommendation, error) {
	raw, ok := extractJSON(text, '[')
	if !ok {
		return nil, fmt.Errorf("%w: no JSON array in recommendation response", domain.ErrParse)
	}

	var wire []struct {
		ProductID  flexibleID    `json:"productId"`
		Reason     string        `json:"reason"`
		Confidence flexibleFloat `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, fmt.Errorf("%w: recommendation response: %v", domain.ErrParse, err)
	}

	recs := make([]parsedRecommendation, 0, len(wire))
	for _, w := range wire {
		if w.ProductID == "" {
			continue
		}
		recs = append(recs, parsedRecommendation{
			ProductID:  string(w.ProductID),
			Reason:     strings.TrimSpace(w.Reason),
			Confidence: w.Confidence,
		})
	}
	return recs, nil
}

// extractJSON returns the first balanced substring starting with opener
// ('{' or '[') that is valid JSON. Brackets inside JSON strings are ignored,
// so prose like "I found {2} rings" before the payload does not confuse it.
func extractJSON(text string, opener byte) (string, bool) {
	var closer byte = '}'
	if opener == '[' {
		closer = ']'
	}

	for start := strings.IndexByte(text, opener); start >= 0; {
		if end := matchingBracket(text, start, opener, closer); end > 0 {
			candidate := text[start : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate, true
			}
		}

		next := strings.IndexByte(text[start+1:], opener)
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

// matchingBracket returns the index of the bracket closing text[start],
// or -1 when the text ends first.
func matchingBracket(text string, start int, opener, closer byte) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case opener:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

var codeFencePattern = regexp.MustCompile("(?m)^\\s*```[a-zA-Z]*\\s*$")

// cleanFreeText strips code fences, quotes and square brackets from a
// free-text answer. An empty result means the model gave nothing usable.
func cleanFreeText(text string) string {
	text = codeFencePattern.ReplaceAllString(text, "")
	text = strings.NewReplacer(`"`, "", "[", "", "]", "").Replace(text)
	return strings.TrimSpace(text)
}

func idsToStrings(ids []flexibleID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			out = append(out, string(id))
		}
	}
	return out
}
