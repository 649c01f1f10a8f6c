// Package events publishes user activity (uploads, likes, comments,
// messages, shares) for consumers outside the API process.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	VideoUploaded  = "video.uploaded"
	VideoLiked     = "video.liked"
	VideoUnliked   = "video.unliked"
	CommentCreated = "comment.created"
	MessageSent    = "message.sent"
	VideoShared    = "video.shared"
)

// Event is one user action. It is JSON encoded as the Kafka message value.
type Event struct {
	Type    string `json:"type"`
	ActorID int64  `json:"actor_id"`
	// VideoID is zero for direct messages.
	VideoID int64 `json:"video_id,omitempty"`
	// TargetID is the receiving user for messages and shares.
	TargetID   int64     `json:"target_id,omitempty"`
	LikesCount *int      `json:"likes_count,omitempty"`
	At         time.Time `json:"at"`
}

// key keeps every event about one video, or else one actor, in a single
// partition so consumers see them in order.
func (e Event) key() string {
	if e.VideoID != 0 {
		return "video:" + strconv.FormatInt(e.VideoID, 10)
	}
	return "user:" + strconv.FormatInt(e.ActorID, 10)
}

// Publisher hands events to whatever consumes activity. Handlers treat it
// as best effort.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to one topic, keyed so that all events
// about a video land on the same partition.
type KafkaPublisher struct {
	writer messageWriter
	now    func() time.Time
}

// NewKafkaPublisher writes asynchronously: Publish only fails on encoding
// errors and delivery failures are logged from the writer's callback.
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Warn("failed to deliver activity events",
					zap.Int("count", len(messages)),
					zap.Error(err),
				)
			}
		},
	}
	return &KafkaPublisher{writer: w, now: time.Now}
}

// Publish queues e. With an async writer the error only covers encoding
// and a closed writer; delivery failures are logged on completion.
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	if e.At.IsZero() {
		e.At = p.now().UTC()
	}
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", e.Type, err)
	}
	msg := kafka.Message{
		Key:   []byte(e.key()),
		Value: b,
		Time:  e.At,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s event: %w", e.Type, err)
	}
	return nil
}

// Close flushes pending messages.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Nop drops every event. It is used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error { return nil }
