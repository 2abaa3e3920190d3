package notify

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/ThalesYuji/tcc-2025-sub000/internal/models"
	"github.com/ThalesYuji/tcc-2025-sub000/internal/realtime"
	"github.com/ThalesYuji/tcc-2025-sub000/internal/workflow"
)

// Service delivers notifications: persists the row, pushes to local
// websocket clients and fans out through Redis for other instances.
// Delivery is fire-and-forget: failures are logged, never propagated, so a
// broken notification never rolls back the transaction that produced it.
type Service struct {
	DB  *gorm.DB
	Hub *realtime.Hub
	RDB *redis.Client
}

func NewService(db *gorm.DB, hub *realtime.Hub, rdb *redis.Client) *Service {
	return &Service{DB: db, Hub: hub, RDB: rdb}
}

func (s *Service) Send(userID uuid.UUID, message, link string) {
	n := models.Notification{
		UserID:  userID,
		Message: message,
		Link:    link,
	}
	if err := s.DB.Create(&n).Error; err != nil {
		log.Printf("Failed to persist notification for user %s: %v", userID, err)
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"type":         "notification",
		"notification": n,
	})
	if err != nil {
		log.Printf("Failed to marshal notification payload: %v", err)
		return
	}

	s.Hub.SendToUser(userID, json.RawMessage(payload))
	if s.RDB != nil {
		realtime.PublishToUser(context.Background(), s.RDB, userID, payload)
	}
}

// Dispatch sends the notices produced by a workflow transition. Called
// after the transaction commits.
func (s *Service) Dispatch(notices []workflow.Notice) {
	for _, n := range notices {
		s.Send(n.UserID, n.Message, n.Link)
	}
}
