package performance

import (
	"context"
	"errors"
	"regexp"
	"time"

	"eduvoice-backend/internal/flashcards"
)

// TimestampLayout matches the ISO-8601 local timestamps already present in
// existing performance logs.
const TimestampLayout = "2006-01-02T15:04:05.000000"

const (
	minSamples      = 5
	recentWindow    = 10
	fastResponse    = 5.0
	slowResponse    = 15.0
	highAccuracy    = 0.8
	lowAccuracy     = 0.5
	defaultHistory  = 50
	maxUserIDLength = 128
)

var (
	ErrInvalidUserID       = errors.New("invalid user id")
	ErrInvalidResponseTime = errors.New("response time must be a non-negative number")
	ErrCorruptLog          = errors.New("performance log is corrupt")
)

var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9._@-]+$`)

type Record struct {
	Timestamp    string  `json:"timestamp"`
	Question     string  `json:"question"`
	Type         string  `json:"type"`
	Difficulty   string  `json:"difficulty"`
	Correct      bool    `json:"correct"`
	ResponseTime float64 `json:"response_time"`
}

func newRecord(card flashcards.Flashcard, correct bool, responseTime float64, at time.Time) Record {
	return Record{
		Timestamp:    at.Format(TimestampLayout),
		Question:     card.Question,
		Type:         string(card.Type),
		Difficulty:   string(card.Difficulty),
		Correct:      correct,
		ResponseTime: responseTime,
	}
}

type AppendResult struct {
	Total int
	// Reset reports that an unreadable log was discarded before appending.
	Reset bool
}

// Store persists append-only review logs keyed by user id.
// Load returns (nil, nil) for a user with no log and an error wrapping
// ErrCorruptLog when the log cannot be decoded.
type Store interface {
	Load(ctx context.Context, userID string) ([]Record, error)
	Append(ctx context.Context, userID string, rec Record) (AppendResult, error)
}

// ValidateUserID rejects ids that could escape the data directory or collide
// with other users' files.
func ValidateUserID(userID string) error {
	if len(userID) > maxUserIDLength || !userIDPattern.MatchString(userID) || userID == "." || userID == ".." {
		return ErrInvalidUserID
	}
	return nil
}

type Recommendation struct {
	Difficulty      flashcards.Difficulty `json:"difficulty"`
	Samples         int                   `json:"samples"`
	Window          int                   `json:"window"`
	Accuracy        float64               `json:"accuracy"`
	AvgResponseTime float64               `json:"avg_response_time"`
	Degraded        bool                  `json:"degraded"`
}

// RecommendFromRecords derives the next difficulty from the latest outcomes.
// Fewer than five records give Medium.
func RecommendFromRecords(records []Record) Recommendation {
	rec := Recommendation{Difficulty: flashcards.Medium, Samples: len(records)}
	if len(records) < minSamples {
		return rec
	}

	recent := records
	if len(recent) > recentWindow {
		recent = recent[len(recent)-recentWindow:]
	}

	var correct int
	var total float64
	for _, r := range recent {
		if r.Correct {
			correct++
		}
		total += r.ResponseTime
	}
	rec.Window = len(recent)
	rec.Accuracy = float64(correct) / float64(len(recent))
	rec.AvgResponseTime = total / float64(len(recent))

	switch {
	case rec.Accuracy > highAccuracy && rec.AvgResponseTime < fastResponse:
		rec.Difficulty = flashcards.Hard
	case rec.Accuracy < lowAccuracy || rec.AvgResponseTime > slowResponse:
		rec.Difficulty = flashcards.Easy
	}
	return rec
}
