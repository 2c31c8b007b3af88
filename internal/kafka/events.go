package kafka

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"ms-scanner/internal/config"
	"ms-scanner/internal/models"
)

// Envelope wraps every published event with a unique id so consumers can
// deduplicate on redelivery.
type Envelope struct {
	EventID string      `json:"event_id"`
	Payload interface{} `json:"payload"`
}

// EventPublisher streams domain events to the configured topics. Messages
// are keyed by user id so one attendee's events stay in order.
type EventPublisher struct {
	Producer *Producer
	Topics   config.TopicConfig
}

func NewEventPublisher(producer *Producer, topics config.TopicConfig) *EventPublisher {
	return &EventPublisher{Producer: producer, Topics: topics}
}

// PublishScanRecorded streams a recorded scan to Kafka
func (e *EventPublisher) PublishScanRecorded(view models.ScanView) error {
	msgBytes, err := json.Marshal(Envelope{EventID: uuid.New().String(), Payload: view})
	if err != nil {
		return err
	}

	fmt.Printf("Publishing to Kafka [%s]: %s\n", e.Topics.ScanRecorded, string(msgBytes))

	return e.Producer.Publish(e.Topics.ScanRecorded, strconv.FormatInt(view.UserID, 10), msgBytes)
}

// PublishUserUpdated streams a user profile update to Kafka
func (e *EventPublisher) PublishUserUpdated(user models.User) error {
	msgBytes, err := json.Marshal(Envelope{EventID: uuid.New().String(), Payload: user})
	if err != nil {
		return err
	}

	fmt.Printf("Publishing to Kafka [%s]: %s\n", e.Topics.UserUpdated, string(msgBytes))

	return e.Producer.Publish(e.Topics.UserUpdated, strconv.FormatInt(user.ID, 10), msgBytes)
}
