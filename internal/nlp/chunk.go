package nlp

import "strings"

type taggedToken struct {
	text string
	tag  string
}

// Penn Treebank tags that can open a noun phrase but not continue one.
var determinerTags = map[string]bool{
	"DT":   true,
	"PDT":  true,
	"PRP$": true,
	"WP$":  true,
}

var modifierTags = map[string]bool{
	"JJ":  true,
	"JJR": true,
	"JJS": true,
	"CD":  true,
	"VBG": true,
}

func isNounTag(tag string) bool {
	return strings.HasPrefix(tag, "NN")
}

// chunkNounPhrases groups tagged tokens into base noun phrases: an optional
// determiner, any adjectives or numbers, then one or more nouns. Phrases
// keep the surface form they have in text whenever the tokens can be
// located there.
func chunkNounPhrases(text string, tokens []taggedToken) []string {
	offsets := locateTokens(text, tokens)

	var phrases []string
	start := -1
	lastNoun := -1

	flush := func() {
		if start >= 0 && lastNoun >= start {
			phrases = append(phrases, surface(text, tokens, offsets, start, lastNoun))
		}
		start, lastNoun = -1, -1
	}

	for i, tok := range tokens {
		switch {
		case determinerTags[tok.tag]:
			flush()
			start = i
		case modifierTags[tok.tag]:
			// A modifier after a noun starts a new phrase ("rate 5 times").
			if lastNoun >= 0 {
				flush()
			}
			if start < 0 {
				start = i
			}
		case isNounTag(tok.tag):
			if start < 0 {
				start = i
			}
			lastNoun = i
		default:
			flush()
		}
	}
	flush()

	return phrases
}

// locateTokens returns the byte offset of every token in text, or -1 when
// the tokenizer rewrote it.
func locateTokens(text string, tokens []taggedToken) []int {
	offsets := make([]int, len(tokens))
	cursor := 0
	for i, tok := range tokens {
		idx := strings.Index(text[cursor:], tok.text)
		if tok.text == "" || idx < 0 {
			offsets[i] = -1
			continue
		}
		offsets[i] = cursor + idx
		cursor += idx + len(tok.text)
	}
	return offsets
}

func surface(text string, tokens []taggedToken, offsets []int, from, to int) string {
	if offsets[from] >= 0 && offsets[to] >= 0 {
		end := offsets[to] + len(tokens[to].text)
		if end > offsets[from] {
			return strings.TrimSpace(text[offsets[from]:end])
		}
	}
	parts := make([]string, 0, to-from+1)
	for _, tok := range tokens[from : to+1] {
		parts = append(parts, tok.text)
	}
	return strings.Join(parts, " ")
}
