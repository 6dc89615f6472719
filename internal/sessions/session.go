package sessions

import (
	"context"
	"errors"
	"time"

	"eduvoice-backend/internal/flashcards"
)

var (
	ErrNotFound      = errors.New("review session not found")
	ErrCardIndex     = errors.New("card index out of range")
	ErrAlreadyAnswer = errors.New("card already answered")
)

type Answer struct {
	CardIndex    int       `json:"card_index"`
	Correct      bool      `json:"correct"`
	ResponseTime float64   `json:"response_time"`
	AnsweredAt   time.Time `json:"answered_at"`
}

// Session is one pass through a generated deck.
type Session struct {
	ID             string                 `json:"id"`
	UserID         string                 `json:"user_id"`
	Difficulty     flashcards.Difficulty  `json:"difficulty"`
	Source         flashcards.Source      `json:"source"`
	Cards          []flashcards.Flashcard `json:"cards"`
	Answers        []Answer               `json:"answers"`
	StartedAt      time.Time              `json:"started_at"`
	LastActivityAt time.Time              `json:"last_activity_at"`
	ExpiresAt      time.Time              `json:"expires_at"`
}

type Status struct {
	TotalCards int  `json:"total_cards"`
	Answered   int  `json:"answered"`
	Correct    int  `json:"correct"`
	Remaining  int  `json:"remaining"`
	Complete   bool `json:"complete"`
}

func (s *Session) Status() Status {
	st := Status{TotalCards: len(s.Cards), Answered: len(s.Answers)}
	for _, a := range s.Answers {
		if a.Correct {
			st.Correct++
		}
	}
	st.Remaining = st.TotalCards - st.Answered
	st.Complete = st.Remaining <= 0
	return st
}

// AddAnswer validates the card index and appends the outcome.
func (s *Session) AddAnswer(a Answer) (flashcards.Flashcard, error) {
	if a.CardIndex < 0 || a.CardIndex >= len(s.Cards) {
		return flashcards.Flashcard{}, ErrCardIndex
	}
	for _, prev := range s.Answers {
		if prev.CardIndex == a.CardIndex {
			return flashcards.Flashcard{}, ErrAlreadyAnswer
		}
	}
	s.Answers = append(s.Answers, a)
	s.LastActivityAt = a.AnsweredAt
	return s.Cards[a.CardIndex], nil
}

func (s *Session) clone() *Session {
	cp := *s
	cp.Cards = append([]flashcards.Flashcard(nil), s.Cards...)
	cp.Answers = append([]Answer(nil), s.Answers...)
	return &cp
}

// Store holds live sessions. Put (re)writes a session and resets its time to
// live; Get returns ErrNotFound for missing or expired sessions.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Put(ctx context.Context, s *Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}
