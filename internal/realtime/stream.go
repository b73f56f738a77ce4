package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

var ErrNoRedis = errors.New("redis client is not configured")

func UserNotificationChannel(userID string) string {
	return fmt.Sprintf("user_notifications:%s", userID)
}

func UserProgressionChannel(userID string) string {
	return fmt.Sprintf("user_progression:%s", userID)
}

func NewUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true // origin is enforced by CORS and the bearer token
		},
	}
}

// Forward relays every message published on channel to conn until the client
// disconnects, ctx ends, or a write fails.
func Forward(ctx context.Context, conn *websocket.Conn, rdb *redis.Client, channel string) error {
	if rdb == nil {
		return ErrNoRedis
	}

	pubsub := rdb.Subscribe(ctx, channel)
	defer pubsub.Close()

	// Wait for confirmation that subscription is created
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}

	ch := pubsub.Channel()

	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			// Payloads are already JSON
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				return fmt.Errorf("write websocket: %w", err)
			}
		case <-clientClosed:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}
