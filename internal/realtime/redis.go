package realtime

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// NewRedis creates a new Redis client
func NewRedis() *redis.Client {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	log.Printf("Redis client created (addr: %s)\n", redisAddr)
	return rdb
}

const notifyChannelPrefix = "notifications:"

// PublishToUser fans a payload out through Redis so users connected to any
// instance receive it.
func PublishToUser(ctx context.Context, rdb *redis.Client, userID uuid.UUID, payload []byte) {
	if err := rdb.Publish(ctx, notifyChannelPrefix+userID.String(), payload).Err(); err != nil {
		log.Printf("Redis publish failed for user %s: %v", userID, err)
	}
}

// Bridge subscribes to the notification channels and forwards messages to
// this instance's hub. Run in its own goroutine.
func Bridge(ctx context.Context, rdb *redis.Client, hub *Hub) {
	sub := rdb.PSubscribe(ctx, notifyChannelPrefix+"*")
	defer sub.Close()

	for msg := range sub.Channel() {
		raw := strings.TrimPrefix(msg.Channel, notifyChannelPrefix)
		userID, err := uuid.Parse(raw)
		if err != nil {
			log.Printf("Bridge: bad channel %s: %v", msg.Channel, err)
			continue
		}
		hub.sendRaw(userID, []byte(msg.Payload))
	}
}
