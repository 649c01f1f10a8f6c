package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisherEncodesEvent(t *testing.T) {
	w := &recordingWriter{}
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	p := &KafkaPublisher{writer: w, now: func() time.Time { return at }}

	count := 3
	if err := p.Publish(context.Background(), Event{Type: VideoLiked, ActorID: 4, VideoID: 9, LikesCount: &count}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := p.Publish(context.Background(), Event{Type: MessageSent, ActorID: 4, TargetID: 5}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if len(w.msgs) != 2 {
		t.Fatalf("got %d messages", len(w.msgs))
	}
	if string(w.msgs[0].Key) != "video:9" || string(w.msgs[1].Key) != "user:4" {
		t.Errorf("keys = %q, %q", w.msgs[0].Key, w.msgs[1].Key)
	}
	if !w.msgs[0].Time.Equal(at) {
		t.Errorf("time = %v", w.msgs[0].Time)
	}

	var got map[string]any
	if err := json.Unmarshal(w.msgs[0].Value, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["type"] != VideoLiked || got["likes_count"] != float64(3) || got["video_id"] != float64(9) {
		t.Errorf("payload = %v", got)
	}
	if _, ok := got["target_id"]; ok {
		t.Errorf("empty target_id should be omitted: %v", got)
	}
}

func TestKafkaPublisherWrapsWriteError(t *testing.T) {
	boom := errors.New("broker down")
	p := &KafkaPublisher{writer: &recordingWriter{err: boom}, now: time.Now}

	err := p.Publish(context.Background(), Event{Type: VideoShared, ActorID: 1, VideoID: 2})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestKafkaPublisherClose(t *testing.T) {
	w := &recordingWriter{}
	p := &KafkaPublisher{writer: w, now: time.Now}
	if err := p.Close(); err != nil || !w.closed {
		t.Fatalf("Close: %v closed=%v", err, w.closed)
	}
}
