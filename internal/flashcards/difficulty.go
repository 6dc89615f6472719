package flashcards

import (
	"errors"
	"strings"
)

type Difficulty string

const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"
)

// Adaptive is accepted by the API in place of a level and resolved from the
// user's review history before generation.
const Adaptive = "Adaptive"

var Levels = []Difficulty{Easy, Medium, Hard}

var ErrUnknownDifficulty = errors.New("unknown difficulty")

func ParseDifficulty(s string) (Difficulty, error) {
	for _, d := range Levels {
		if strings.EqualFold(strings.TrimSpace(s), string(d)) {
			return d, nil
		}
	}
	return "", ErrUnknownDifficulty
}

func (d Difficulty) Valid() bool {
	return d == Easy || d == Medium || d == Hard
}

// OrDefault maps anything that is not a known level to Medium.
func (d Difficulty) OrDefault() Difficulty {
	if parsed, err := ParseDifficulty(string(d)); err == nil {
		return parsed
	}
	return Medium
}
