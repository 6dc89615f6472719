package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"eduvoice-backend/internal/models"
)

// Publisher pushes server events to a user's live connections.
type Publisher interface {
	Publish(ctx context.Context, userID string, msg models.WSMessage) error
}

func UserChannel(userID string) string {
	return fmt.Sprintf("user_updates:%s", userID)
}

// RedisPublisher fans events out through Redis pub/sub so any server
// instance holding the user's socket can deliver them.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, userID string, msg models.WSMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, UserChannel(userID), string(data)).Err()
}
