package flashcards

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"eduvoice-backend/internal/nlp"
)

const (
	DefaultConceptLimit = 20
	contextMaxLen       = 220

	minTermLen       = 2
	maxTermLen       = 60
	minDefinitionLen = 10
	maxDefinitionLen = 300
)

type ConceptKind string

const (
	KindEntity     ConceptKind = "entity"
	KindConcept    ConceptKind = "concept"
	KindDefinition ConceptKind = "definition"
)

type Concept struct {
	Term       string      `json:"term"`
	Kind       ConceptKind `json:"kind"`
	Context    string      `json:"context"`
	Definition string      `json:"definition,omitempty"`
}

// Analyzer finds named entities and noun phrases. *nlp.Model satisfies it.
type Analyzer interface {
	Analyze(text string) (nlp.Analysis, error)
}

// Checked in order; the first pattern to capture a subject owns it.
var definitionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(.+?)\s+is\s+(.+?)[.\n]`),
	regexp.MustCompile(`(?i)(.+?)\s+means\s+(.+?)[.\n]`),
	regexp.MustCompile(`(?i)(.+?)\s+refers to\s+(.+?)[.\n]`),
	regexp.MustCompile(`(?i)define\s+(.+?)\s*:\s*(.+?)[.\n]`),
}

var (
	sentenceUnit = regexp.MustCompile(`[^.\n]*[.\n]`)
	asciiWord    = regexp.MustCompile(`[A-Za-z]+`)
)

type ConceptMiner struct {
	analyzer Analyzer
}

// NewConceptMiner builds a miner. A nil analyzer limits mining to
// definition patterns.
func NewConceptMiner(analyzer Analyzer) *ConceptMiner {
	return &ConceptMiner{analyzer: analyzer}
}

// Extract returns up to limit concepts in discovery order: entities, then
// noun phrases, then definitions. Terms are unique ignoring case. When the
// analyzer fails the definitions are still returned together with an error
// wrapping nlp.ErrAnalysis.
func (m *ConceptMiner) Extract(text string, limit int) ([]Concept, error) {
	if limit <= 0 {
		limit = DefaultConceptLimit
	}
	if strings.TrimSpace(text) == "" {
		return []Concept{}, nil
	}

	var (
		concepts   []Concept
		index      = make(map[string]int)
		analyzeErr error
	)

	add := func(c Concept) {
		index[strings.ToLower(c.Term)] = len(concepts)
		concepts = append(concepts, c)
	}

	if m.analyzer != nil {
		analysis, err := m.analyzer.Analyze(text)
		if err != nil {
			analyzeErr = err
			if !errors.Is(err, nlp.ErrAnalysis) {
				analyzeErr = fmt.Errorf("%w: %v", nlp.ErrAnalysis, err)
			}
		} else {
			for _, ent := range analysis.Entities {
				term := strings.TrimSpace(ent.Text)
				if term == "" {
					continue
				}
				if _, seen := index[strings.ToLower(term)]; seen {
					continue
				}
				add(Concept{Term: term, Kind: KindEntity, Context: contextFor(text, term, contextMaxLen)})
			}

			var keywords map[string]bool
			for _, phrase := range analysis.NounPhrases {
				term := strings.TrimSpace(phrase)
				if utf8.RuneCountInString(term) < 3 {
					continue
				}
				if _, seen := index[strings.ToLower(term)]; seen {
					continue
				}
				if keywords == nil {
					keywords = make(map[string]bool)
					for _, kw := range ExtractKeywords(text, DefaultMaxKeywords) {
						keywords[kw] = true
					}
				}
				if !relevantPhrase(term, keywords) {
					continue
				}
				add(Concept{Term: term, Kind: KindConcept, Context: contextFor(text, term, contextMaxLen)})
			}
		}
	}

	for _, def := range mineDefinitions(text) {
		if i, seen := index[strings.ToLower(def.Term)]; seen {
			// A subject already found as an entity or noun phrase is
			// promoted so its definition is not lost.
			if concepts[i].Kind != KindDefinition {
				concepts[i].Kind = KindDefinition
				concepts[i].Definition = def.Definition
			}
			continue
		}
		add(def)
	}

	if len(concepts) > limit {
		concepts = concepts[:limit]
	}
	if concepts == nil {
		concepts = []Concept{}
	}
	return concepts, analyzeErr
}

// relevantPhrase keeps noun phrases with two or more content words, or whose
// words overlap the document keywords.
func relevantPhrase(phrase string, keywords map[string]bool) bool {
	var words []string
	for _, w := range asciiWord.FindAllString(strings.ToLower(phrase), -1) {
		if !isStopWord(w) {
			words = append(words, w)
		}
	}
	if len(words) >= 2 {
		return true
	}
	if len(words) > 0 && keywords[strings.Join(words, " ")] {
		return true
	}
	for _, w := range words {
		if keywords[w] {
			return true
		}
	}
	return false
}

// mineDefinitions applies each pattern to every sentence, pattern by pattern.
// A sentence ends at a period or newline; trailing text without one is not
// considered.
func mineDefinitions(text string) []Concept {
	sentences := sentenceUnit.FindAllString(text, -1)

	var (
		out  []Concept
		seen = make(map[string]bool)
	)
	for _, pattern := range definitionPatterns {
		for _, sentence := range sentences {
			match := pattern.FindStringSubmatch(sentence)
			if match == nil {
				continue
			}
			term := strings.TrimSpace(match[1])
			definition := strings.TrimSpace(match[2])
			if !withinBounds(term, minTermLen, maxTermLen) || !withinBounds(definition, minDefinitionLen, maxDefinitionLen) {
				continue
			}
			key := strings.ToLower(term)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, Concept{
				Term:       term,
				Kind:       KindDefinition,
				Context:    truncateRunes(strings.TrimSpace(sentence), contextMaxLen),
				Definition: definition,
			})
		}
	}
	return out
}

func withinBounds(s string, lo, hi int) bool {
	n := utf8.RuneCountInString(s)
	return n >= lo && n <= hi
}
