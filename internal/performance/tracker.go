package performance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"eduvoice-backend/internal/flashcards"
	"eduvoice-backend/internal/logger"
)

type Tracker struct {
	store  Store
	locker Locker
	log    *logger.Logger
	now    func() time.Time
}

func NewTracker(store Store, locker Locker, log *logger.Logger) *Tracker {
	if locker == nil {
		locker = NewMemoryLocker()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Tracker{store: store, locker: locker, log: log, now: time.Now}
}

type RecordResult struct {
	Recorded     bool   `json:"recorded"`
	Total        int    `json:"total"`
	HistoryReset bool   `json:"history_reset"`
	Record       Record `json:"record"`
}

// Record appends one review outcome to the user's log. An empty user id is
// accepted and ignored.
func (t *Tracker) Record(ctx context.Context, userID string, card flashcards.Flashcard, correct bool, responseTime float64) (RecordResult, error) {
	if userID == "" {
		return RecordResult{}, nil
	}
	if err := ValidateUserID(userID); err != nil {
		return RecordResult{}, err
	}
	if responseTime < 0 || math.IsNaN(responseTime) || math.IsInf(responseTime, 0) {
		return RecordResult{}, ErrInvalidResponseTime
	}

	unlock, err := t.locker.Lock(ctx, userID)
	if err != nil {
		return RecordResult{}, fmt.Errorf("failed to lock performance log: %w", err)
	}
	defer unlock()

	rec := newRecord(card, correct, responseTime, t.now())
	appended, err := t.store.Append(ctx, userID, rec)
	if err != nil {
		return RecordResult{}, fmt.Errorf("failed to save performance: %w", err)
	}
	if appended.Reset {
		t.log.Warn("discarded unreadable performance log", "user_id", userID)
	}

	return RecordResult{
		Recorded:     true,
		Total:        appended.Total,
		HistoryReset: appended.Reset,
		Record:       rec,
	}, nil
}

// Recommend never fails on storage problems: an unreadable log yields Medium
// with Degraded set.
func (t *Tracker) Recommend(ctx context.Context, userID string) (Recommendation, error) {
	if userID == "" {
		return RecommendFromRecords(nil), nil
	}
	if err := ValidateUserID(userID); err != nil {
		return Recommendation{}, err
	}

	records, err := t.store.Load(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrCorruptLog) {
			t.log.Warn("performance log unreadable, using default difficulty", "user_id", userID, "error", err)
		} else {
			t.log.Error("failed to load performance log", "user_id", userID, "error", err)
		}
		rec := RecommendFromRecords(nil)
		rec.Degraded = true
		return rec, nil
	}
	return RecommendFromRecords(records), nil
}

// History returns up to limit of the user's most recent records, oldest
// first.
func (t *Tracker) History(ctx context.Context, userID string, limit int) ([]Record, error) {
	if err := ValidateUserID(userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistory
	}

	records, err := t.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(records) > limit {
		records = records[len(records)-limit:]
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}
