package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"eduvoice-backend/internal/flashcards"
	"eduvoice-backend/internal/logger"
	"eduvoice-backend/internal/middleware"
	"eduvoice-backend/internal/performance"
	"eduvoice-backend/internal/services"
	"eduvoice-backend/internal/sessions"
)

// ─── Stubs ───

type stubFlashcardAPI struct {
	generateErr error
	recordErr   error

	lastUserID     string
	lastDifficulty string
	lastCard       flashcards.Flashcard
	lastLimit      int
	recorded       bool
}

func (s *stubFlashcardAPI) Generate(ctx context.Context, userID, content, difficulty string) (*services.GenerateResult, error) {
	s.lastUserID = userID
	s.lastDifficulty = difficulty
	if s.generateErr != nil {
		return nil, s.generateErr
	}
	res := &services.GenerateResult{Difficulty: flashcards.Medium}
	if content == "" {
		res.Source = flashcards.SourceEmpty
		res.Cards = []flashcards.Flashcard{}
		return res, nil
	}
	res.Source = flashcards.SourceConcepts
	res.Cards = []flashcards.Flashcard{{Question: "What is a cell?", Answer: "a unit", Type: flashcards.CardDefinition, Difficulty: flashcards.Medium}}
	return res, nil
}

func (s *stubFlashcardAPI) RecordOutcome(ctx context.Context, userID string, card flashcards.Flashcard, correct bool, responseTime float64) (*services.OutcomeResult, error) {
	s.lastUserID = userID
	s.lastCard = card
	if s.recordErr != nil {
		return nil, s.recordErr
	}
	s.recorded = true
	return &services.OutcomeResult{
		RecordResult:   performance.RecordResult{Recorded: true, Total: 1},
		Recommendation: performance.Recommendation{Difficulty: flashcards.Medium, Samples: 1},
	}, nil
}

func (s *stubFlashcardAPI) Recommend(ctx context.Context, userID string) (performance.Recommendation, error) {
	s.lastUserID = userID
	return performance.Recommendation{Difficulty: flashcards.Hard, Samples: 12, Window: 10, Accuracy: 0.9}, nil
}

func (s *stubFlashcardAPI) History(ctx context.Context, userID string, limit int) ([]performance.Record, error) {
	s.lastLimit = limit
	return []performance.Record{{Question: "What is a cell?", Correct: true}}, nil
}

type stubReviewAPI struct {
	session *sessions.Session
	err     error
	lastID  string
}

func (s *stubReviewAPI) Start(ctx context.Context, userID, content, difficulty string) (*sessions.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.session, nil
}

func (s *stubReviewAPI) Get(ctx context.Context, userID, id string) (*sessions.Session, error) {
	s.lastID = id
	if s.err != nil {
		return nil, s.err
	}
	return s.session, nil
}

func (s *stubReviewAPI) Answer(ctx context.Context, userID, id string, cardIndex int, correct bool, responseTime float64) (*services.AnswerResult, error) {
	s.lastID = id
	if s.err != nil {
		return nil, s.err
	}
	return &services.AnswerResult{Card: s.session.Cards[cardIndex], Status: sessions.Status{TotalCards: 1, Answered: 1, Complete: true}}, nil
}

func (s *stubReviewAPI) End(ctx context.Context, userID, id string) (sessions.Status, error) {
	s.lastID = id
	if s.err != nil {
		return sessions.Status{}, s.err
	}
	return s.session.Status(), nil
}

func authed(req *http.Request, userID string) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, userID))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return body
}

// ─── Flashcard Handler Tests ───

func TestFlashcardHandler_Generate(t *testing.T) {
	api := &stubFlashcardAPI{}
	h := NewFlashcardHandler(api, logger.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/flashcards/generate", strings.NewReader(`{"content":"A cell is a unit.","difficulty":"Adaptive"}`))
	req = authed(req, "alice")
	rr := httptest.NewRecorder()
	h.Generate(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	cards, ok := body["flashcards"].([]interface{})
	if !ok || len(cards) != 1 {
		t.Errorf("Expected one flashcard, got %v", body["flashcards"])
	}
	if body["source"] != string(flashcards.SourceConcepts) {
		t.Errorf("Expected source concepts, got %v", body["source"])
	}
	if api.lastUserID != "alice" || api.lastDifficulty != "Adaptive" {
		t.Errorf("Expected alice/Adaptive passed through, got %q/%q", api.lastUserID, api.lastDifficulty)
	}
}

func TestFlashcardHandler_Generate_EmptyContent(t *testing.T) {
	h := NewFlashcardHandler(&stubFlashcardAPI{}, logger.Nop())

	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/flashcards/generate", strings.NewReader(`{"content":""}`)), "alice")
	rr := httptest.NewRecorder()
	h.Generate(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200 for empty content, got %d", rr.Code)
	}
	body := decodeBody(t, rr)
	if cards, _ := body["flashcards"].([]interface{}); len(cards) != 0 {
		t.Errorf("Expected empty deck, got %v", cards)
	}
}

func TestFlashcardHandler_Generate_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"malformed json", `{"content":`, nil, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"difficulty too long", `{"content":"x","difficulty":"` + strings.Repeat("a", 17) + `"}`, nil, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"service validation", `{"content":"x","difficulty":"Extreme"}`, &services.ValidationError{Fields: map[string]string{"difficulty": "unknown"}}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"internal", `{"content":"x"}`, errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewFlashcardHandler(&stubFlashcardAPI{generateErr: tc.err}, logger.Nop())
			req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/flashcards/generate", strings.NewReader(tc.body)), "alice")
			rr := httptest.NewRecorder()
			h.Generate(rr, req)

			if rr.Code != tc.wantCode {
				t.Fatalf("Expected %d, got %d: %s", tc.wantCode, rr.Code, rr.Body.String())
			}
			body := decodeBody(t, rr)
			apiErr, _ := body["error"].(map[string]interface{})
			if apiErr["code"] != tc.wantErr {
				t.Errorf("Expected code %q, got %v", tc.wantErr, apiErr["code"])
			}
		})
	}
}

func TestFlashcardHandler_Generate_BodyTooLarge(t *testing.T) {
	h := NewFlashcardHandler(&stubFlashcardAPI{}, logger.Nop())

	big := `{"content":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/flashcards/generate", strings.NewReader(big)), "alice")
	rr := httptest.NewRecorder()
	h.Generate(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected 413, got %d", rr.Code)
	}
}

func TestFlashcardHandler_RecordPerformance(t *testing.T) {
	api := &stubFlashcardAPI{}
	h := NewFlashcardHandler(api, logger.Nop())

	body := `{"question":"What is a cell?","type":"definition","difficulty":"Medium","correct":false,"response_time":4.2}`
	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/flashcards/performance", strings.NewReader(body)), "alice")
	rr := httptest.NewRecorder()
	h.RecordPerformance(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if !api.recorded {
		t.Fatal("Expected outcome to be recorded")
	}
	if api.lastCard.Type != flashcards.CardDefinition || api.lastCard.Difficulty != flashcards.Medium {
		t.Errorf("Unexpected card passed to service: %+v", api.lastCard)
	}
	res := decodeBody(t, rr)
	if res["recorded"] != true {
		t.Errorf("Expected recorded=true, got %v", res["recorded"])
	}
}

func TestFlashcardHandler_RecordPerformance_Validation(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"missing question", `{"type":"definition","correct":true,"response_time":1}`, "question"},
		{"unknown type", `{"question":"q","type":"essay","correct":true,"response_time":1}`, "type"},
		{"missing correct", `{"question":"q","type":"keyword","response_time":1}`, "correct"},
		{"missing response time", `{"question":"q","type":"keyword","correct":true}`, "response_time"},
		{"negative response time", `{"question":"q","type":"keyword","correct":true,"response_time":-1}`, "response_time"},
		{"bad difficulty", `{"question":"q","type":"keyword","difficulty":"Extreme","correct":true,"response_time":1}`, "difficulty"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			api := &stubFlashcardAPI{}
			h := NewFlashcardHandler(api, logger.Nop())
			req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/flashcards/performance", strings.NewReader(tc.body)), "alice")
			rr := httptest.NewRecorder()
			h.RecordPerformance(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("Expected 400, got %d", rr.Code)
			}
			if api.recorded {
				t.Error("Expected nothing to be recorded")
			}
			body := decodeBody(t, rr)
			apiErr, _ := body["error"].(map[string]interface{})
			fields, _ := apiErr["fields"].(map[string]interface{})
			if _, ok := fields[tc.wantField]; !ok {
				t.Errorf("Expected field error for %q, got %v", tc.wantField, fields)
			}
		})
	}
}

func TestFlashcardHandler_RecordPerformance_Forbidden(t *testing.T) {
	api := &stubFlashcardAPI{recordErr: &services.ForbiddenError{Message: "Invalid user id"}}
	h := NewFlashcardHandler(api, logger.Nop())

	body := `{"question":"q","type":"keyword","correct":true,"response_time":1}`
	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/flashcards/performance", strings.NewReader(body)), "../etc")
	rr := httptest.NewRecorder()
	h.RecordPerformance(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("Expected 403, got %d", rr.Code)
	}
}

func TestFlashcardHandler_History(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantLimit int
	}{
		{"default limit", "", http.StatusOK, 50},
		{"explicit limit", "?limit=5", http.StatusOK, 5},
		{"zero", "?limit=0", http.StatusBadRequest, 0},
		{"too large", "?limit=501", http.StatusBadRequest, 0},
		{"not a number", "?limit=ten", http.StatusBadRequest, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			api := &stubFlashcardAPI{}
			h := NewFlashcardHandler(api, logger.Nop())
			req := authed(httptest.NewRequest(http.MethodGet, "/api/v1/flashcards/performance"+tc.query, nil), "alice")
			rr := httptest.NewRecorder()
			h.History(rr, req)

			if rr.Code != tc.wantCode {
				t.Fatalf("Expected %d, got %d", tc.wantCode, rr.Code)
			}
			if api.lastLimit != tc.wantLimit {
				t.Errorf("Expected limit %d, got %d", tc.wantLimit, api.lastLimit)
			}
			if tc.wantCode == http.StatusOK {
				body := decodeBody(t, rr)
				if body["count"] != float64(1) {
					t.Errorf("Expected count 1, got %v", body["count"])
				}
			}
		})
	}
}

func TestFlashcardHandler_Difficulty(t *testing.T) {
	h := NewFlashcardHandler(&stubFlashcardAPI{}, logger.Nop())

	req := authed(httptest.NewRequest(http.MethodGet, "/api/v1/flashcards/difficulty", nil), "alice")
	rr := httptest.NewRecorder()
	h.Difficulty(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["difficulty"] != "Hard" {
		t.Errorf("Expected Hard, got %v", body["difficulty"])
	}
}

// ─── Review Handler Tests ───

const testSessionID = "7d444840-9dc0-11d1-b245-5ffdce74fad2"

func testSession() *sessions.Session {
	return &sessions.Session{
		ID:         testSessionID,
		UserID:     "alice",
		Difficulty: flashcards.Medium,
		Cards:      []flashcards.Flashcard{{Question: "What is a cell?", Answer: "a unit", Type: flashcards.CardDefinition}},
	}
}

func TestReviewHandler_Start(t *testing.T) {
	h := NewReviewHandler(&stubReviewAPI{session: testSession()})

	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/review-sessions", strings.NewReader(`{"content":"A cell is a unit."}`)), "alice")
	rr := httptest.NewRecorder()
	h.Start(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	status, _ := body["status"].(map[string]interface{})
	if status["total_cards"] != float64(1) || status["remaining"] != float64(1) {
		t.Errorf("Unexpected status: %v", status)
	}
}

func TestReviewHandler_Start_RequiresContent(t *testing.T) {
	h := NewReviewHandler(&stubReviewAPI{session: testSession()})

	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/review-sessions", strings.NewReader(`{}`)), "alice")
	rr := httptest.NewRecorder()
	h.Start(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rr.Code)
	}
}

func TestReviewHandler_InvalidSessionID(t *testing.T) {
	api := &stubReviewAPI{session: testSession()}
	h := NewReviewHandler(api)

	req := authed(httptest.NewRequest(http.MethodGet, "/api/v1/review-sessions/not-a-uuid", nil), "alice")
	req = withURLParam(req, "id", "not-a-uuid")
	rr := httptest.NewRecorder()
	h.Get(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rr.Code)
	}
	if api.lastID != "" {
		t.Error("Service should not be called for an invalid id")
	}
}

func TestReviewHandler_ServiceErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"not found", &services.NotFoundError{Message: "Review session not found"}, http.StatusNotFound},
		{"forbidden", &services.ForbiddenError{Message: "Not your session"}, http.StatusForbidden},
		{"conflict", &services.ConflictError{Message: "Card already answered"}, http.StatusConflict},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewReviewHandler(&stubReviewAPI{session: testSession(), err: tc.err})
			req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/review-sessions/"+testSessionID+"/answers",
				strings.NewReader(`{"card_index":0,"correct":true,"response_time":2}`)), "alice")
			req = withURLParam(req, "id", testSessionID)
			rr := httptest.NewRecorder()
			h.Answer(rr, req)

			if rr.Code != tc.wantCode {
				t.Errorf("Expected %d, got %d", tc.wantCode, rr.Code)
			}
		})
	}
}

func TestReviewHandler_AnswerAndEnd(t *testing.T) {
	api := &stubReviewAPI{session: testSession()}
	h := NewReviewHandler(api)

	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/review-sessions/"+testSessionID+"/answers",
		strings.NewReader(`{"card_index":0,"correct":true,"response_time":2}`)), "alice")
	req = withURLParam(req, "id", testSessionID)
	rr := httptest.NewRecorder()
	h.Answer(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if api.lastID != testSessionID {
		t.Errorf("Expected id %s, got %s", testSessionID, api.lastID)
	}

	req = authed(httptest.NewRequest(http.MethodDelete, "/api/v1/review-sessions/"+testSessionID, nil), "alice")
	req = withURLParam(req, "id", testSessionID)
	rr = httptest.NewRecorder()
	h.End(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["message"] != "Review session ended" {
		t.Errorf("Unexpected body: %v", body)
	}
}

func TestReviewHandler_Answer_MissingCardIndex(t *testing.T) {
	api := &stubReviewAPI{session: testSession()}
	h := NewReviewHandler(api)

	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/review-sessions/"+testSessionID+"/answers",
		strings.NewReader(`{"correct":true,"response_time":2}`)), "alice")
	req = withURLParam(req, "id", testSessionID)
	rr := httptest.NewRecorder()
	h.Answer(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rr.Code)
	}
}

// ─── System Handler Tests ───

func TestSystemHandler_Config(t *testing.T) {
	h := NewSystemHandler("test", map[string]bool{"adaptive": true})

	rr := httptest.NewRecorder()
	h.Config(rr, httptest.NewRequest(http.MethodGet, "/api/v1/config", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	body := decodeBody(t, rr)
	levels, _ := body["difficulty_levels"].([]interface{})
	want := []string{"Easy", "Medium", "Hard", "Adaptive"}
	if len(levels) != len(want) {
		t.Fatalf("Expected %v, got %v", want, levels)
	}
	for i, l := range levels {
		if l != want[i] {
			t.Errorf("Expected level %q at %d, got %v", want[i], i, l)
		}
	}
	if body["max_flashcards"] != float64(flashcards.MaxCards) {
		t.Errorf("Expected max_flashcards %d, got %v", flashcards.MaxCards, body["max_flashcards"])
	}
}

func TestSystemHandler_Health(t *testing.T) {
	h := NewSystemHandler("1.2.3", nil)

	rr := httptest.NewRecorder()
	h.Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	body := decodeBody(t, rr)
	if body["status"] != "healthy" || body["version"] != "1.2.3" {
		t.Errorf("Unexpected health body: %v", body)
	}
}
