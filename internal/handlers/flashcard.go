package handlers

import (
	"context"
	"net/http"
	"strconv"

	"eduvoice-backend/internal/flashcards"
	"eduvoice-backend/internal/logger"
	"eduvoice-backend/internal/middleware"
	"eduvoice-backend/internal/performance"
	"eduvoice-backend/internal/services"
)

type FlashcardAPI interface {
	Generate(ctx context.Context, userID, content, difficulty string) (*services.GenerateResult, error)
	RecordOutcome(ctx context.Context, userID string, card flashcards.Flashcard, correct bool, responseTime float64) (*services.OutcomeResult, error)
	Recommend(ctx context.Context, userID string) (performance.Recommendation, error)
	History(ctx context.Context, userID string, limit int) ([]performance.Record, error)
}

type FlashcardHandler struct {
	svc FlashcardAPI
	log *logger.Logger
}

func NewFlashcardHandler(svc FlashcardAPI, log *logger.Logger) *FlashcardHandler {
	return &FlashcardHandler{svc: svc, log: log}
}

type generateRequest struct {
	Content    string `json:"content" validate:"max=200000"`
	Difficulty string `json:"difficulty" validate:"max=16"`
}

// Generate handles POST /flashcards/generate. Empty content is not an error
// and yields an empty deck.
func (h *FlashcardHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req generateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.svc.Generate(r.Context(), userID, req.Content, req.Difficulty)
	if err != nil {
		if _, ok := err.(*services.ValidationError); !ok {
			h.log.Error("flashcard generation failed", "user_id", userID, "error", err)
		}
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

type performanceRequest struct {
	Question     string   `json:"question" validate:"required,max=2000"`
	Type         string   `json:"type" validate:"required,oneof=definition reverse_definition context keyword analytical"`
	Difficulty   string   `json:"difficulty" validate:"omitempty,oneof=Easy Medium Hard"`
	Correct      *bool    `json:"correct" validate:"required"`
	ResponseTime *float64 `json:"response_time" validate:"required,gte=0"`
}

func (h *FlashcardHandler) RecordPerformance(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req performanceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	card := flashcards.Flashcard{
		Question:   req.Question,
		Type:       flashcards.CardType(req.Type),
		Difficulty: flashcards.Difficulty(req.Difficulty),
	}
	res, err := h.svc.RecordOutcome(r.Context(), userID, card, *req.Correct, *req.ResponseTime)
	if err != nil {
		h.log.Error("failed to record performance", "user_id", userID, "error", err)
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

func (h *FlashcardHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "limit must be between 1 and 500", r))
			return
		}
		limit = n
	}

	records, err := h.svc.History(r.Context(), userID, limit)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"records": records,
		"count":   len(records),
	})
}

func (h *FlashcardHandler) Difficulty(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	rec, err := h.svc.Recommend(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}
