package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/stan.go"
)

// Subjects for booking lifecycle events. Invalidate is what peers act on;
// the lifecycle subjects exist for audit consumers.
const (
	SubjectBookingCreated    = "booking.created"
	SubjectBookingExtended   = "booking.extended"
	SubjectBookingCancelled  = "booking.cancelled"
	SubjectCacheInvalidation = "booking.invalidate"
)

// InvalidationEvent tells every gateway instance to drop a user's cached
// read models. Without it, a booking confirmed through one instance would
// stay stale on the others until that user mutated something there too.
type InvalidationEvent struct {
	UserID    string    `json:"user_id"`
	Origin    string    `json:"origin"`
	Timestamp time.Time `json:"timestamp"`
}

type BookingEvent struct {
	BookingID int64     `json:"booking_id"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

type Client struct {
	conn     stan.Conn
	clientID string
}

type Config struct {
	URL       string
	ClusterID string
	ClientID  string
}

func NewClient(cfg Config) (*Client, error) {
	// Unique client ID so replicas of the same deployment don't collide.
	clientID := fmt.Sprintf("%s-%s", cfg.ClientID, uuid.New().String()[:8])

	conn, err := stan.Connect(cfg.ClusterID, clientID, stan.NatsURL(cfg.URL))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS Streaming: %w", err)
	}

	return &Client{conn: conn, clientID: clientID}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := c.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("failed to publish to subject %s: %w", subject, err)
	}
	return nil
}

// PublishInvalidation broadcasts that a user's read models changed.
func (c *Client) PublishInvalidation(userID string) error {
	return c.Publish(SubjectCacheInvalidation, InvalidationEvent{
		UserID:    userID,
		Origin:    c.clientID,
		Timestamp: time.Now(),
	})
}

// SubscribeInvalidations delivers peers' invalidation events to handler.
// Events published by this instance are filtered out; the local cache was
// already dropped synchronously.
func (c *Client) SubscribeInvalidations(handler func(InvalidationEvent)) (stan.Subscription, error) {
	sub, err := c.conn.Subscribe(SubjectCacheInvalidation, func(msg *stan.Msg) {
		var event InvalidationEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			return
		}
		if event.Origin == c.clientID {
			return
		}
		handler(event)
	}, stan.AckWait(30*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", SubjectCacheInvalidation, err)
	}
	return sub, nil
}

func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
