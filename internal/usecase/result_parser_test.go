package usecase

import (
	"errors"
	"testing"

	"github.com/rjgems/backend/internal/domain"
)

func TestExtractJSON(t *testing.T) {
	testCases := []struct {
		name   string
		text   string
		opener byte
		want   string
		wantOK bool
	}{
		{
			name:   "bare object",
			text:   `{"a":1}`,
			opener: '{',
			want:   `{"a":1}`,
			wantOK: true,
		},
		{
			name:   "object wrapped in prose and a code fence",
			text:   "Sure! Here you go:\n```json\n{\"interpretation\":\"rings\",\"productIds\":[\"1\"]}\n```\nHope that helps.",
			opener: '{',
			want:   `{"interpretation":"rings","productIds":["1"]}`,
			wantOK: true,
		},
		{
			name:   "nested braces",
			text:   `result: {"a":{"b":{"c":[1,2]}}} trailing }`,
			opener: '{',
			want:   `{"a":{"b":{"c":[1,2]}}}`,
			wantOK: true,
		},
		{
			name:   "braces inside strings are ignored",
			text:   `{"interpretation":"rings {like} these \"}\"","productIds":[]}`,
			opener: '{',
			want:   `{"interpretation":"rings {like} these \"}\"","productIds":[]}`,
			wantOK: true,
		},
		{
			name:   "skips invalid brace group in prose",
			text:   `I matched {2} items: {"productIds":["2"]}`,
			opener: '{',
			want:   `{"productIds":["2"]}`,
			wantOK: true,
		},
		{
			name:   "array inside an object",
			text:   `{"suggestions":[{"productId":"1"}]}`,
			opener: '[',
			want:   `[{"productId":"1"}]`,
			wantOK: true,
		},
		{
			name:   "unterminated",
			text:   `{"productIds":["1"`,
			opener: '{',
		},
		{
			name:   "no json at all",
			text:   "I'm sorry, I can't help with that.",
			opener: '{',
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := extractJSON(tc.text, tc.opener)
			if ok != tc.wantOK {
				t.Fatalf("extractJSON() ok = %v, want %v", ok, tc.wantOK)
			}
			if got != tc.want {
				t.Errorf("extractJSON() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParseSearchResponse(t *testing.T) {
	t.Run("full response", func(t *testing.T) {
		got, err := parseSearchResponse(`{"interpretation":"diamond rings","productIds":["1","5"],"confidence":0.85}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Interpretation != "diamond rings" {
			t.Errorf("Interpretation = %q", got.Interpretation)
		}
		if !equalIDs(got.ProductIDs, []string{"1", "5"}) {
			t.Errorf("ProductIDs = %v", got.ProductIDs)
		}
		if !got.Confidence.Set || got.Confidence.Value != 0.85 {
			t.Errorf("Confidence = %+v, want 0.85", got.Confidence)
		}
	})

	t.Run("numeric ids, results key and no confidence", func(t *testing.T) {
		got, err := parseSearchResponse(`{"interpretation":"","results":[3, {"id":"4"}, {"_id":6}]}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !equalIDs(got.ProductIDs, []string{"3", "4", "6"}) {
			t.Errorf("ProductIDs = %v", got.ProductIDs)
		}
		if got.Confidence.Set {
			t.Error("Confidence should be unset")
		}
	})

	t.Run("confidence given as a string", func(t *testing.T) {
		got, err := parseSearchResponse(`{"interpretation":"x","productIds":[],"confidence":"0.7"}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Confidence.Value != 0.7 {
			t.Errorf("Confidence = %v, want 0.7", got.Confidence.Value)
		}
	})

	failures := map[string]string{
		"no json":                "The rings you want are 1 and 5.",
		"missing interpretation": `{"productIds":["1"]}`,
		"missing ids":            `{"interpretation":"rings"}`,
		"ids wrong type":         `{"interpretation":"rings","productIds":"1,5"}`,
		"bad confidence":         `{"interpretation":"rings","productIds":["1"],"confidence":"high"}`,
		"NaN confidence":         `{"interpretation":"rings","productIds":["1"],"confidence":"NaN"}`,
		"infinite confidence":    `{"interpretation":"rings","productIds":["1"],"confidence":"Infinity"}`,
		"overflowing confidence": `{"interpretation":"rings","productIds":["1"],"confidence":1e999}`,
	}
	for name, text := range failures {
		t.Run(name, func(t *testing.T) {
			_, err := parseSearchResponse(text)
			if !errors.Is(err, domain.ErrParse) {
				t.Errorf("error = %v, want ErrParse", err)
			}
		})
	}
}

func TestParseGiftResponse(t *testing.T) {
	text := "Here are my picks:\n" +
		`[{"productId":"4","giftReason":" Timeless studs ","occasionFit":"Birthday"},{"giftReason":"no id"},{"productId":2}]`

	got, err := parseGiftResponse(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ProductID != "4" || got[0].Reason != "Timeless studs" || got[0].OccasionFit != "Birthday" {
		t.Errorf("got[0] = %+v", got[0])
	}
	if got[1].ProductID != "2" {
		t.Errorf("got[1].ProductID = %q, want 2", got[1].ProductID)
	}

	if _, err := parseGiftResponse(`{"productId":"4"}`); !errors.Is(err, domain.ErrParse) {
		t.Errorf("object instead of array: error = %v, want ErrParse", err)
	}
}

func TestParseRecommendationResponse(t *testing.T) {
	got, err := parseRecommendationResponse(`[{"productId":"1","reason":"Classic","confidence":0.9},{"productId":"3","reason":"Bold"}]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if !got[0].Confidence.Set || got[0].Confidence.Value != 0.9 {
		t.Errorf("got[0].Confidence = %+v", got[0].Confidence)
	}
	if got[1].Confidence.Set {
		t.Error("got[1].Confidence should be unset")
	}

	if _, err := parseRecommendationResponse("no idea"); !errors.Is(err, domain.ErrParse) {
		t.Errorf("error = %v, want ErrParse", err)
	}
}

func TestCleanFreeText(t *testing.T) {
	testCases := []struct {
		name string
		text string
		want string
	}{
		{"plain", "  A radiant ring.  ", "A radiant ring."},
		{"quotes and brackets", `"A [radiant] ring."`, "A radiant ring."},
		{"code fence", "```text\nA radiant ring.\n```", "A radiant ring."},
		{"only artifacts", "```\n\"\"\n```", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := cleanFreeText(tc.text); got != tc.want {
				t.Errorf("cleanFreeText() = %q, want %q", got, tc.want)
			}
		})
	}
}
