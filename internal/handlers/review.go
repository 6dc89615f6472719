package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"eduvoice-backend/internal/middleware"
	"eduvoice-backend/internal/services"
	"eduvoice-backend/internal/sessions"
)

type ReviewAPI interface {
	Start(ctx context.Context, userID, content, difficulty string) (*sessions.Session, error)
	Get(ctx context.Context, userID, id string) (*sessions.Session, error)
	Answer(ctx context.Context, userID, id string, cardIndex int, correct bool, responseTime float64) (*services.AnswerResult, error)
	End(ctx context.Context, userID, id string) (sessions.Status, error)
}

type ReviewHandler struct {
	svc ReviewAPI
}

func NewReviewHandler(svc ReviewAPI) *ReviewHandler {
	return &ReviewHandler{svc: svc}
}

type startReviewRequest struct {
	Content    string `json:"content" validate:"required,max=200000"`
	Difficulty string `json:"difficulty" validate:"max=16"`
}

func (h *ReviewHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req startReviewRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	session, err := h.svc.Start(r.Context(), userID, req.Content, req.Difficulty)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"session": session,
		"status":  session.Status(),
	})
}

func (h *ReviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	sessionID, ok := sessionIDParam(w, r)
	if !ok {
		return
	}

	session, err := h.svc.Get(r.Context(), userID, sessionID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session": session,
		"status":  session.Status(),
	})
}

type answerRequest struct {
	CardIndex    *int     `json:"card_index" validate:"required,gte=0"`
	Correct      *bool    `json:"correct" validate:"required"`
	ResponseTime *float64 `json:"response_time" validate:"required,gte=0"`
}

func (h *ReviewHandler) Answer(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	sessionID, ok := sessionIDParam(w, r)
	if !ok {
		return
	}

	var req answerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.svc.Answer(r.Context(), userID, sessionID, *req.CardIndex, *req.Correct, *req.ResponseTime)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (h *ReviewHandler) End(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	sessionID, ok := sessionIDParam(w, r)
	if !ok {
		return
	}

	status, err := h.svc.End(r.Context(), userID, sessionID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Review session ended",
		"status":  status,
	})
}

func sessionIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return "", false
	}
	return id.String(), true
}
