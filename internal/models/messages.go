package models

// WebSocket message types
const (
	WSPing                = "ping"
	WSPong                = "pong"
	WSGenerateFlashcards  = "generate_flashcards"
	WSFlashcards          = "flashcards"
	WSRecordPerformance   = "record_performance"
	WSPerformanceRecorded = "performance_recorded"
	WSDifficultyUpdated   = "difficulty_updated"
	WSError               = "error"
)

type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type DifficultyUpdate struct {
	Difficulty      string  `json:"difficulty"`
	Samples         int     `json:"samples"`
	Accuracy        float64 `json:"accuracy"`
	AvgResponseTime float64 `json:"avg_response_time"`
}

type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
