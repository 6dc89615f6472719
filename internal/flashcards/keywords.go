package flashcards

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

const DefaultMaxKeywords = 15

var (
	sentenceSplitter = regexp.MustCompile(`[.\n]`)
	wordPattern      = regexp.MustCompile(`[\p{L}\p{N}\p{Mn}_]{2,}`)
)

type Keyword struct {
	Term      string  `json:"term"`
	Frequency int     `json:"frequency"`
	Weight    float64 `json:"weight"`
}

// SplitSentences breaks text on periods and newlines and drops blank pieces.
func SplitSentences(text string) []string {
	var out []string
	for _, part := range sentenceSplitter.Split(text, -1) {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ExtractKeywords returns up to maxTerms unigrams and bigrams, sorted
// alphabetically. The order carries no relevance information.
func ExtractKeywords(text string, maxTerms int) []string {
	ranked := RankKeywords(text, maxTerms)
	terms := make([]string, len(ranked))
	for i, kw := range ranked {
		terms[i] = kw.Term
	}
	return terms
}

// RankKeywords is ExtractKeywords with the corpus statistics attached.
// Terms are chosen by total frequency, ties going to the larger summed
// tf-idf weight and then to alphabetical order.
func RankKeywords(text string, maxTerms int) []Keyword {
	if maxTerms <= 0 {
		maxTerms = DefaultMaxKeywords
	}

	docs := SplitSentences(text)
	if len(docs) < 2 {
		docs = []string{text}
	}

	counts := make([]map[string]int, len(docs))
	docFreq := make(map[string]int)
	for i, doc := range docs {
		counts[i] = termCounts(doc)
		for term := range counts[i] {
			docFreq[term]++
		}
	}
	if len(docFreq) == 0 {
		return []Keyword{}
	}

	n := float64(len(docs))
	idf := make(map[string]float64, len(docFreq))
	for term, df := range docFreq {
		idf[term] = math.Log((1+n)/(1+float64(df))) + 1
	}

	stats := make(map[string]*Keyword, len(docFreq))
	for _, tc := range counts {
		var norm float64
		for term, c := range tc {
			w := float64(c) * idf[term]
			norm += w * w
		}
		norm = math.Sqrt(norm)

		for term, c := range tc {
			kw, ok := stats[term]
			if !ok {
				kw = &Keyword{Term: term}
				stats[term] = kw
			}
			kw.Frequency += c
			if norm > 0 {
				kw.Weight += float64(c) * idf[term] / norm
			}
		}
	}

	ranked := make([]Keyword, 0, len(stats))
	for _, kw := range stats {
		ranked = append(ranked, *kw)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Frequency != ranked[j].Frequency {
			return ranked[i].Frequency > ranked[j].Frequency
		}
		if ranked[i].Weight != ranked[j].Weight {
			return ranked[i].Weight > ranked[j].Weight
		}
		return ranked[i].Term < ranked[j].Term
	})
	if len(ranked) > maxTerms {
		ranked = ranked[:maxTerms]
	}

	sort.Slice(ranked, func(i, j int) bool { return ranked[i].Term < ranked[j].Term })
	return ranked
}

// termCounts counts unigrams and bigrams of one document. Stop words are
// removed before bigrams are formed, so "rate of growth" yields
// "rate growth".
func termCounts(doc string) map[string]int {
	var tokens []string
	for _, tok := range wordPattern.FindAllString(strings.ToLower(doc), -1) {
		if !isStopWord(tok) {
			tokens = append(tokens, tok)
		}
	}

	counts := make(map[string]int, 2*len(tokens))
	for i, tok := range tokens {
		counts[tok]++
		if i > 0 {
			counts[tokens[i-1]+" "+tok]++
		}
	}
	return counts
}

// contextFor returns the first sentence mentioning term, or the start of
// the text when no sentence does.
func contextFor(text, term string, maxLen int) string {
	needle := strings.ToLower(term)
	for _, sentence := range sentenceSplitter.Split(text, -1) {
		if needle != "" && strings.Contains(strings.ToLower(sentence), needle) {
			return truncateRunes(strings.TrimSpace(sentence), maxLen)
		}
	}
	return truncateRunes(strings.TrimSpace(text), maxLen)
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
