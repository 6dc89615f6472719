package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"eduvoice-backend/internal/flashcards"
	"eduvoice-backend/internal/logger"
	"eduvoice-backend/internal/models"
	"eduvoice-backend/internal/services"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 512 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type TokenParser interface {
	ParseToken(token string) (string, error)
}

type FlashcardAPI interface {
	Generate(ctx context.Context, userID, content, difficulty string) (*services.GenerateResult, error)
	RecordOutcome(ctx context.Context, userID string, card flashcards.Flashcard, correct bool, responseTime float64) (*services.OutcomeResult, error)
}

// client serializes writes; gorilla connections allow one concurrent writer.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

type Hub struct {
	mu          sync.RWMutex
	connections map[string][]*client
	cancelFuncs map[string]context.CancelFunc
	redisClient *redis.Client
	auth        TokenParser
	flashcards  FlashcardAPI
	log         *logger.Logger
}

// NewHub creates a hub. With a nil redis client, events are delivered only to
// connections held by this process.
func NewHub(redisClient *redis.Client, auth TokenParser, log *logger.Logger) *Hub {
	return &Hub{
		connections: make(map[string][]*client),
		cancelFuncs: make(map[string]context.CancelFunc),
		redisClient: redisClient,
		auth:        auth,
		log:         log,
	}
}

// SetFlashcards wires the service used for request messages. The service in
// turn publishes through the hub, so the two are connected after creation.
func (h *Hub) SetFlashcards(api FlashcardAPI) {
	h.flashcards = api
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Authenticate via token query param
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	userID, err := h.auth.ParseToken(tokenStr)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(maxMessageSize)

	c := &client{conn: conn}
	h.registerConnection(userID, c)

	go func() {
		defer h.unregisterConnection(userID, c)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				break
			}
			h.handleMessage(userID, c, data)
		}
	}()
}

type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type generatePayload struct {
	Content    string `json:"content"`
	Difficulty string `json:"difficulty"`
}

type performancePayload struct {
	Question     string   `json:"question"`
	Type         string   `json:"type"`
	Difficulty   string   `json:"difficulty"`
	Correct      *bool    `json:"correct"`
	ResponseTime *float64 `json:"response_time"`
}

// Each message gets its own context; the upgrade request's context ends
// when HandleWebSocket returns.
func (h *Hub) handleMessage(userID string, c *client, data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var msg inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		h.reply(c, errorMessage("INVALID_MESSAGE", "Message must be JSON with a type"))
		return
	}

	if h.flashcards == nil && msg.Type != models.WSPing {
		h.reply(c, errorMessage("UNAVAILABLE", "Flashcard service is not available"))
		return
	}

	switch msg.Type {
	case models.WSPing:
		h.reply(c, models.WSMessage{Type: models.WSPong, Payload: map[string]int64{"timestamp": time.Now().Unix()}})

	case models.WSGenerateFlashcards:
		var p generatePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			h.reply(c, errorMessage("VALIDATION_ERROR", "Invalid generate_flashcards payload"))
			return
		}
		res, err := h.flashcards.Generate(ctx, userID, p.Content, p.Difficulty)
		if err != nil {
			h.reply(c, serviceErrorMessage(err))
			return
		}
		h.reply(c, models.WSMessage{Type: models.WSFlashcards, Payload: res})

	case models.WSRecordPerformance:
		var p performancePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil || p.Question == "" || p.Correct == nil || p.ResponseTime == nil {
			h.reply(c, errorMessage("VALIDATION_ERROR", "question, correct and response_time are required"))
			return
		}
		card := flashcards.Flashcard{
			Question:   p.Question,
			Type:       flashcards.CardType(p.Type),
			Difficulty: flashcards.Difficulty(p.Difficulty),
		}
		res, err := h.flashcards.RecordOutcome(ctx, userID, card, *p.Correct, *p.ResponseTime)
		if err != nil {
			h.reply(c, serviceErrorMessage(err))
			return
		}
		h.reply(c, models.WSMessage{Type: models.WSPerformanceRecorded, Payload: res})

	default:
		h.reply(c, errorMessage("UNKNOWN_TYPE", "Unsupported message type: "+msg.Type))
	}
}

func errorMessage(code, message string) models.WSMessage {
	return models.WSMessage{Type: models.WSError, Payload: models.ErrorEvent{Code: code, Message: message}}
}

func serviceErrorMessage(err error) models.WSMessage {
	var ve *services.ValidationError
	var fe *services.ForbiddenError
	switch {
	case errors.As(err, &ve):
		for field, msg := range ve.Fields {
			return errorMessage("VALIDATION_ERROR", field+": "+msg)
		}
		return errorMessage("VALIDATION_ERROR", "Validation failed")
	case errors.As(err, &fe):
		return errorMessage("FORBIDDEN", fe.Message)
	default:
		return errorMessage("INTERNAL_ERROR", "An unexpected error occurred")
	}
}

func (h *Hub) reply(c *client, msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := c.write(data); err != nil {
		h.log.Debug("websocket write failed", "error", err)
	}
}

func (h *Hub) registerConnection(userID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[userID] = append(h.connections[userID], c)

	// Start pub/sub subscription if this is the first connection for this user
	if h.redisClient != nil && len(h.connections[userID]) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancelFuncs[userID] = cancel
		go h.subscribeToPubSub(ctx, userID)
	}

	h.log.Info("websocket connected", "user_id", userID, "connections", len(h.connections[userID]))
}

func (h *Hub) unregisterConnection(userID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c.conn.Close()

	conns := h.connections[userID]
	for i, existing := range conns {
		if existing == c {
			h.connections[userID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}

	// If no more connections, cancel pub/sub
	if len(h.connections[userID]) == 0 {
		delete(h.connections, userID)
		if cancel, ok := h.cancelFuncs[userID]; ok {
			cancel()
			delete(h.cancelFuncs, userID)
		}
	}

	h.log.Info("websocket disconnected", "user_id", userID)
}

func (h *Hub) subscribeToPubSub(ctx context.Context, userID string) {
	pubsub := h.redisClient.Subscribe(ctx, services.UserChannel(userID))
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(userID, []byte(msg.Payload))
		}
	}
}

func (h *Hub) broadcast(userID string, data []byte) {
	h.mu.RLock()
	conns := append([]*client(nil), h.connections[userID]...)
	h.mu.RUnlock()

	for _, c := range conns {
		c.write(data)
	}
}

// Publish delivers msg to the user's connections on this instance.
func (h *Hub) Publish(_ context.Context, userID string, msg models.WSMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	h.broadcast(userID, data)
	return nil
}

// ConnectionCount reports live sockets for a user.
func (h *Hub) ConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[userID])
}
