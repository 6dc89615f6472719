package nlp

import (
	"errors"
	"reflect"
	"testing"
)

func TestChunkNounPhrases(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		tokens   []taggedToken
		expected []string
	}{
		{
			name: "determiner adjective noun",
			text: "Plants absorb the bright light energy.",
			tokens: []taggedToken{
				{"Plants", "NNS"}, {"absorb", "VBP"}, {"the", "DT"},
				{"bright", "JJ"}, {"light", "NN"}, {"energy", "NN"}, {".", "."},
			},
			expected: []string{"Plants", "the bright light energy"},
		},
		{
			name: "preposition splits phrases",
			text: "The process of photosynthesis",
			tokens: []taggedToken{
				{"The", "DT"}, {"process", "NN"}, {"of", "IN"}, {"photosynthesis", "NN"},
			},
			expected: []string{"The process", "photosynthesis"},
		},
		{
			name: "modifier without noun is dropped",
			text: "It is very green",
			tokens: []taggedToken{
				{"It", "PRP"}, {"is", "VBZ"}, {"very", "RB"}, {"green", "JJ"},
			},
			expected: nil,
		},
		{
			name: "keeps original spacing",
			text: "two  large   cells divide",
			tokens: []taggedToken{
				{"two", "CD"}, {"large", "JJ"}, {"cells", "NNS"}, {"divide", "VBP"},
			},
			expected: []string{"two  large   cells"},
		},
		{
			name: "rewritten tokens fall back to joined text",
			text: "the cell ``membrane''",
			tokens: []taggedToken{
				{"the", "DT"}, {"cell", "NN"}, {"\"membrane\"", "NN"},
			},
			expected: []string{"the cell \"membrane\""},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := chunkNounPhrases(tc.text, tc.tokens)
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("Expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestModel_AnalyzeEmpty(t *testing.T) {
	m := &Model{}
	got, err := m.Analyze("   ")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(got.Entities) != 0 || len(got.NounPhrases) != 0 {
		t.Errorf("Expected empty analysis, got %+v", got)
	}
}

func TestLoadAndAnalyze(t *testing.T) {
	if testing.Short() {
		t.Skip("model load skipped in short mode")
	}

	m, err := Load()
	if err != nil {
		if errors.Is(err, ErrModelUnavailable) {
			t.Skipf("model unavailable: %v", err)
		}
		t.Fatalf("Unexpected error type: %v", err)
	}

	got, err := m.Analyze("Photosynthesis is the process by which green plants use sunlight to make food.")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(got.NounPhrases) == 0 {
		t.Error("Expected at least one noun phrase")
	}
}
