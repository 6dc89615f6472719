package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"eduvoice-backend/internal/flashcards"
	"eduvoice-backend/internal/performance"
	"eduvoice-backend/internal/sessions"
)

// ReviewService walks a user through one generated deck and feeds every
// answer into performance tracking.
type ReviewService struct {
	flashcards *FlashcardService
	store      sessions.Store
	locker     performance.Locker
	ttl        time.Duration
	now        func() time.Time
}

func NewReviewService(fs *FlashcardService, store sessions.Store, locker performance.Locker, ttl time.Duration) *ReviewService {
	if locker == nil {
		locker = performance.NewMemoryLocker()
	}
	return &ReviewService{flashcards: fs, store: store, locker: locker, ttl: ttl, now: time.Now}
}

func (s *ReviewService) Start(ctx context.Context, userID, content, difficulty string) (*sessions.Session, error) {
	gen, err := s.flashcards.Generate(ctx, userID, content, difficulty)
	if err != nil {
		return nil, err
	}
	if len(gen.Cards) == 0 {
		return nil, fieldError("content", "No flashcards could be generated from this content")
	}

	now := s.now()
	session := &sessions.Session{
		ID:             uuid.NewString(),
		UserID:         userID,
		Difficulty:     gen.Difficulty,
		Source:         gen.Source,
		Cards:          gen.Cards,
		Answers:        []sessions.Answer{},
		StartedAt:      now,
		LastActivityAt: now,
	}
	if err := s.store.Put(ctx, session, s.ttl); err != nil {
		return nil, fmt.Errorf("failed to start review session: %w", err)
	}
	return session, nil
}

func (s *ReviewService) Get(ctx context.Context, userID, id string) (*sessions.Session, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			return nil, &NotFoundError{Message: "Review session not found"}
		}
		return nil, err
	}
	if session.UserID != userID {
		return nil, &ForbiddenError{Message: "Review session belongs to another user"}
	}
	return session, nil
}

type AnswerResult struct {
	Card           flashcards.Flashcard       `json:"card"`
	Status         sessions.Status            `json:"status"`
	Recommendation performance.Recommendation `json:"recommendation"`
}

func (s *ReviewService) Answer(ctx context.Context, userID, id string, cardIndex int, correct bool, responseTime float64) (*AnswerResult, error) {
	if responseTime < 0 {
		return nil, fieldError("response_time", "response_time must be a non-negative number")
	}

	unlock, err := s.locker.Lock(ctx, "review:"+id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	session, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	card, err := session.AddAnswer(sessions.Answer{
		CardIndex:    cardIndex,
		Correct:      correct,
		ResponseTime: responseTime,
		AnsweredAt:   s.now(),
	})
	switch {
	case errors.Is(err, sessions.ErrCardIndex):
		return nil, fieldError("card_index", fmt.Sprintf("card_index must be between 0 and %d", len(session.Cards)-1))
	case errors.Is(err, sessions.ErrAlreadyAnswer):
		return nil, &ConflictError{Message: "Card has already been answered in this session"}
	case err != nil:
		return nil, err
	}

	// The session is saved before the outcome is logged, so a failed save
	// leaves nothing behind and the client can retry the same answer.
	if err := s.store.Put(ctx, session, s.ttl); err != nil {
		return nil, fmt.Errorf("failed to update review session: %w", err)
	}

	outcome, err := s.flashcards.RecordOutcome(ctx, userID, card, correct, responseTime)
	if err != nil {
		session.Answers = session.Answers[:len(session.Answers)-1]
		if putErr := s.store.Put(ctx, session, s.ttl); putErr != nil {
			return nil, fmt.Errorf("%w (session rollback failed: %v)", err, putErr)
		}
		return nil, err
	}

	return &AnswerResult{
		Card:           card,
		Status:         session.Status(),
		Recommendation: outcome.Recommendation,
	}, nil
}

// End closes the session and returns its final tally.
func (s *ReviewService) End(ctx context.Context, userID, id string) (sessions.Status, error) {
	session, err := s.Get(ctx, userID, id)
	if err != nil {
		return sessions.Status{}, err
	}
	if err := s.store.Delete(ctx, id); err != nil && !errors.Is(err, sessions.ErrNotFound) {
		return sessions.Status{}, err
	}
	return session.Status(), nil
}
