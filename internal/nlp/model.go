package nlp

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jdkato/prose/v2"
)

var (
	ErrModelUnavailable = errors.New("nlp model unavailable")
	ErrAnalysis         = errors.New("nlp analysis failed")
)

type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

type Analysis struct {
	Entities    []Entity
	NounPhrases []string
}

// Model holds the loaded tagger and entity extractor. It is never mutated
// after Load, so one instance serves concurrent Analyze calls.
type Model struct {
	model *prose.Model
}

// Load builds the model by running a throwaway document through the full
// pipeline. Startup should abort when this fails.
func Load() (m *Model, err error) {
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("%w: %v", ErrModelUnavailable, r)
		}
	}()

	doc, err := prose.NewDocument("The model is warming up.", prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	if doc.Model == nil {
		return nil, fmt.Errorf("%w: no model attached to document", ErrModelUnavailable)
	}
	return &Model{model: doc.Model}, nil
}

func (m *Model) Analyze(text string) (analysis Analysis, err error) {
	if strings.TrimSpace(text) == "" {
		return Analysis{}, nil
	}

	defer func() {
		if r := recover(); r != nil {
			analysis, err = Analysis{}, fmt.Errorf("%w: %v", ErrAnalysis, r)
		}
	}()

	doc, err := prose.NewDocument(text,
		prose.UsingModel(m.model),
		prose.WithSegmentation(false),
	)
	if err != nil {
		return Analysis{}, fmt.Errorf("%w: %v", ErrAnalysis, err)
	}

	for _, ent := range doc.Entities() {
		name := strings.TrimSpace(ent.Text)
		if name == "" {
			continue
		}
		analysis.Entities = append(analysis.Entities, Entity{Text: name, Label: ent.Label})
	}

	tokens := doc.Tokens()
	tagged := make([]taggedToken, len(tokens))
	for i, tok := range tokens {
		tagged[i] = taggedToken{text: tok.Text, tag: tok.Tag}
	}
	analysis.NounPhrases = chunkNounPhrases(text, tagged)

	return analysis, nil
}
