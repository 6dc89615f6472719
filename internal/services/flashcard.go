package services

import (
	"context"
	"errors"
	"strings"

	"eduvoice-backend/internal/flashcards"
	"eduvoice-backend/internal/logger"
	"eduvoice-backend/internal/models"
	"eduvoice-backend/internal/performance"
)

type CardGenerator interface {
	Generate(text string, difficulty flashcards.Difficulty) flashcards.Result
}

type PerformanceTracker interface {
	Record(ctx context.Context, userID string, card flashcards.Flashcard, correct bool, responseTime float64) (performance.RecordResult, error)
	Recommend(ctx context.Context, userID string) (performance.Recommendation, error)
	History(ctx context.Context, userID string, limit int) ([]performance.Record, error)
}

type FlashcardService struct {
	generator CardGenerator
	tracker   PerformanceTracker
	events    Publisher
	log       *logger.Logger
}

func NewFlashcardService(generator CardGenerator, tracker PerformanceTracker, events Publisher, log *logger.Logger) *FlashcardService {
	return &FlashcardService{generator: generator, tracker: tracker, events: events, log: log}
}

type GenerateResult struct {
	flashcards.Result
	Difficulty flashcards.Difficulty `json:"difficulty"`
	Adaptive   bool                  `json:"adaptive"`
}

// Generate builds a deck from content. An empty or "Adaptive" difficulty is
// resolved from the user's review history.
func (s *FlashcardService) Generate(ctx context.Context, userID, content, difficulty string) (*GenerateResult, error) {
	level, adaptive, err := s.resolveDifficulty(ctx, userID, difficulty)
	if err != nil {
		return nil, err
	}

	res := s.generator.Generate(content, level)
	if res.Degraded {
		s.log.Warn("flashcards generated without entity analysis", "user_id", userID)
	}
	s.log.Debug("flashcards generated", "user_id", userID, "cards", len(res.Cards), "source", res.Source, "difficulty", level)

	return &GenerateResult{Result: res, Difficulty: level, Adaptive: adaptive}, nil
}

func (s *FlashcardService) resolveDifficulty(ctx context.Context, userID, raw string) (flashcards.Difficulty, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, flashcards.Adaptive) {
		rec, err := s.tracker.Recommend(ctx, userID)
		if err != nil {
			return "", false, mapTrackerError(err)
		}
		return rec.Difficulty, true, nil
	}

	level, err := flashcards.ParseDifficulty(raw)
	if err != nil {
		return "", false, fieldError("difficulty", "difficulty must be Easy, Medium, Hard or Adaptive")
	}
	return level, false, nil
}

type OutcomeResult struct {
	performance.RecordResult
	Recommendation performance.Recommendation `json:"recommendation"`
}

// RecordOutcome stores one review answer and pushes the updated difficulty
// recommendation to the user's live connections.
func (s *FlashcardService) RecordOutcome(ctx context.Context, userID string, card flashcards.Flashcard, correct bool, responseTime float64) (*OutcomeResult, error) {
	recorded, err := s.tracker.Record(ctx, userID, card, correct, responseTime)
	if err != nil {
		return nil, mapTrackerError(err)
	}
	if recorded.HistoryReset {
		s.log.Warn("performance history was reset", "user_id", userID)
	}

	rec, err := s.tracker.Recommend(ctx, userID)
	if err != nil {
		return nil, mapTrackerError(err)
	}

	if s.events != nil && recorded.Recorded {
		msg := models.WSMessage{
			Type: models.WSDifficultyUpdated,
			Payload: models.DifficultyUpdate{
				Difficulty:      string(rec.Difficulty),
				Samples:         rec.Samples,
				Accuracy:        rec.Accuracy,
				AvgResponseTime: rec.AvgResponseTime,
			},
		}
		if err := s.events.Publish(ctx, userID, msg); err != nil {
			s.log.Warn("failed to publish difficulty update", "user_id", userID, "error", err)
		}
	}

	return &OutcomeResult{RecordResult: recorded, Recommendation: rec}, nil
}

func (s *FlashcardService) Recommend(ctx context.Context, userID string) (performance.Recommendation, error) {
	rec, err := s.tracker.Recommend(ctx, userID)
	if err != nil {
		return performance.Recommendation{}, mapTrackerError(err)
	}
	return rec, nil
}

func (s *FlashcardService) History(ctx context.Context, userID string, limit int) ([]performance.Record, error) {
	records, err := s.tracker.History(ctx, userID, limit)
	if err != nil {
		if errors.Is(err, performance.ErrCorruptLog) {
			return []performance.Record{}, nil
		}
		return nil, mapTrackerError(err)
	}
	return records, nil
}

func mapTrackerError(err error) error {
	switch {
	case errors.Is(err, performance.ErrInvalidUserID):
		return &ForbiddenError{Message: "User id cannot be used for performance tracking"}
	case errors.Is(err, performance.ErrInvalidResponseTime):
		return fieldError("response_time", "response_time must be a non-negative number")
	default:
		return err
	}
}
