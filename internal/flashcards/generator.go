package flashcards

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
)

const (
	MaxCards          = 10
	maxKeywordCards   = 6
	reversePromptRune = 120
)

type CardType string

const (
	CardDefinition CardType = "definition"
	CardReverse    CardType = "reverse_definition"
	CardContext    CardType = "context"
	CardKeyword    CardType = "keyword"
	CardAnalytical CardType = "analytical"
)

type Flashcard struct {
	Question   string     `json:"question"`
	Answer     string     `json:"answer"`
	Type       CardType   `json:"type"`
	Difficulty Difficulty `json:"difficulty"`
}

type Source string

const (
	SourceConcepts   Source = "concepts"
	SourceKeywords   Source = "keywords"
	SourceAnalytical Source = "analytical"
	SourceEmpty      Source = "empty"
)

type Result struct {
	Cards  []Flashcard `json:"flashcards"`
	Source Source      `json:"source"`
	// Degraded is set when entity and noun-phrase mining failed and the
	// cards come from definition patterns and keywords only.
	Degraded bool `json:"degraded"`
}

var analyticalCards = []struct{ question, answer string }{
	{"What are the main themes in this content?", "Identify the major ideas and summarize each in one sentence."},
	{"How do the key concepts relate to each other?", "Describe relationships, cause-effect, or contrasts among ideas."},
}

type Generator struct {
	miner *ConceptMiner

	mu  sync.Mutex
	rng *rand.Rand
}

type Option func(*Generator)

// WithRand makes card sampling draw from r.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) { g.rng = r }
}

// WithSeed makes card sampling reproducible. A zero seed keeps the
// runtime's randomly seeded source.
func WithSeed(seed uint64) Option {
	return func(g *Generator) {
		if seed != 0 {
			g.rng = rand.New(rand.NewPCG(seed, seed>>1|1))
		}
	}
}

func NewGenerator(miner *ConceptMiner, opts ...Option) *Generator {
	if miner == nil {
		miner = NewConceptMiner(nil)
	}
	g := &Generator{miner: miner}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate turns text into at most MaxCards flashcards. Unknown difficulty
// values are treated as Medium.
func (g *Generator) Generate(text string, difficulty Difficulty) Result {
	if strings.TrimSpace(text) == "" {
		return Result{Cards: []Flashcard{}, Source: SourceEmpty}
	}
	difficulty = difficulty.OrDefault()

	concepts, err := g.miner.Extract(text, DefaultConceptLimit)
	result := Result{Source: SourceConcepts, Degraded: err != nil}

	var cards []Flashcard
	for _, c := range concepts {
		if c.Kind == KindDefinition && c.Definition != "" {
			cards = append(cards, Flashcard{
				Question:   fmt.Sprintf("What is %s?", c.Term),
				Answer:     c.Definition,
				Type:       CardDefinition,
				Difficulty: difficulty,
			})
			if difficulty != Easy {
				cards = append(cards, Flashcard{
					Question:   fmt.Sprintf("Which term matches: %s ...?", truncateRunes(c.Definition, reversePromptRune)),
					Answer:     c.Term,
					Type:       CardReverse,
					Difficulty: difficulty,
				})
			}
			continue
		}

		answer := c.Context
		if answer == "" {
			answer = contextFor(text, c.Term, contextMaxLen)
		}
		cards = append(cards, Flashcard{
			Question:   fmt.Sprintf("Explain: %s", c.Term),
			Answer:     answer,
			Type:       CardContext,
			Difficulty: difficulty,
		})
	}

	// Analytical prompts apply to any text, so at Hard the deck is never
	// empty and the keyword fallback does not run.
	if difficulty == Hard {
		if len(cards) == 0 {
			result.Source = SourceAnalytical
		}
		for _, a := range analyticalCards {
			cards = append(cards, Flashcard{
				Question:   a.question,
				Answer:     a.answer,
				Type:       CardAnalytical,
				Difficulty: difficulty,
			})
		}
	}

	if len(cards) == 0 {
		result.Source = SourceKeywords
		cards = keywordCards(text, difficulty)
	}
	if len(cards) == 0 {
		return Result{Cards: []Flashcard{}, Source: SourceEmpty, Degraded: result.Degraded}
	}

	result.Cards = g.sample(cards, MaxCards)
	return result
}

func keywordCards(text string, difficulty Difficulty) []Flashcard {
	keywords := ExtractKeywords(text, maxKeywordCards)

	cards := make([]Flashcard, 0, len(keywords))
	for _, kw := range keywords {
		answer := contextFor(text, kw, contextMaxLen)
		if answer == "" {
			continue
		}
		cards = append(cards, Flashcard{
			Question:   fmt.Sprintf("Define: %s", kw),
			Answer:     answer,
			Type:       CardKeyword,
			Difficulty: difficulty,
		})
	}
	return cards
}

// sample keeps k cards chosen uniformly at random, preserving their
// original relative order.
func (g *Generator) sample(cards []Flashcard, k int) []Flashcard {
	if len(cards) <= k {
		return cards
	}

	var perm []int
	if g.rng != nil {
		g.mu.Lock()
		perm = g.rng.Perm(len(cards))
		g.mu.Unlock()
	} else {
		perm = rand.Perm(len(cards))
	}

	picked := perm[:k]
	sort.Ints(picked)

	out := make([]Flashcard, k)
	for i, idx := range picked {
		out[i] = cards[idx]
	}
	return out
}
