package handlers

import (
	"net/http"
	"time"

	"eduvoice-backend/internal/flashcards"
)

type SystemHandler struct {
	version   string
	startedAt time.Time
	features  map[string]bool
}

func NewSystemHandler(version string, features map[string]bool) *SystemHandler {
	return &SystemHandler{version: version, startedAt: time.Now(), features: features}
}

func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "healthy",
		"version":        h.version,
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
	})
}

// Config describes what clients may ask for.
func (h *SystemHandler) Config(w http.ResponseWriter, r *http.Request) {
	levels := make([]string, 0, len(flashcards.Levels)+1)
	for _, d := range flashcards.Levels {
		levels = append(levels, string(d))
	}
	levels = append(levels, flashcards.Adaptive)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"difficulty_levels":  levels,
		"default_difficulty": string(flashcards.Medium),
		"max_flashcards":     flashcards.MaxCards,
		"card_types": []flashcards.CardType{
			flashcards.CardDefinition,
			flashcards.CardReverse,
			flashcards.CardContext,
			flashcards.CardKeyword,
			flashcards.CardAnalytical,
		},
		"features": h.features,
	})
}
