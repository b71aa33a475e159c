package proctoring

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/quizraft/quizraft/internal/storage"
)

// Store is the append-only persistence behind the sink.
type Store interface {
	AppendLog(ctx context.Context, l Log) error
	InsertImage(ctx context.Context, img Image) (Image, error)
	ListLogs(ctx context.Context, attemptID string) ([]Log, error)
	CountImages(ctx context.Context, attemptID string) (int, error)
}

// Sink ingests telemetry from the client. It deliberately never reads the
// attempt's completion state: snapshots and events trailing in after
// completion (clock skew, network delay) are stored like any other.
type Sink struct {
	store Store
	blobs storage.BlobStore
	now   func() time.Time
}

func NewSink(store Store, blobs storage.BlobStore) *Sink {
	return &Sink{store: store, blobs: blobs, now: time.Now}
}

// WithClock overrides the capture timestamp source, for tests.
func (s *Sink) WithClock(now func() time.Time) *Sink {
	s.now = now
	return s
}

// LogEvent appends one discrete event. Errors are reported only to this
// call; they never touch the attempt or grading path.
func (s *Sink) LogEvent(ctx context.Context, attemptID, userID, eventType, logData string) (Log, error) {
	if attemptID == "" {
		return Log{}, errors.New("attempt_id is required")
	}
	if eventType == "" {
		return Log{}, errors.New("event_type is required")
	}
	l := Log{
		AttemptID: attemptID,
		UserID:    userID,
		EventType: eventType,
		LogData:   logData,
		CreatedAt: s.now().Unix(),
	}
	if err := s.store.AppendLog(ctx, l); err != nil {
		return Log{}, err
	}
	return l, nil
}

// SaveSnapshot decodes a base64 webcam frame (with or without a data-URL
// prefix), stores the bytes in the blob store and records the capture.
func (s *Sink) SaveSnapshot(ctx context.Context, attemptID, userID, quizID, imageData string) (Image, error) {
	if attemptID == "" {
		return Image{}, errors.New("attempt_id is required")
	}
	raw, err := decodeImage(imageData)
	if err != nil {
		return Image{}, err
	}
	captured := s.now()
	key := fmt.Sprintf("proctoring/%s/%s/%d.jpg", quizID, attemptID, captured.UnixNano())
	if _, err := s.blobs.Put(key, bytes.NewReader(raw)); err != nil {
		return Image{}, err
	}
	img := Image{
		AttemptID:  attemptID,
		UserID:     userID,
		QuizID:     quizID,
		ImageKey:   key,
		CapturedAt: captured.Unix(),
	}
	return s.store.InsertImage(ctx, img)
}

func decodeImage(data string) ([]byte, error) {
	if data == "" {
		return nil, errors.New("image_data is required")
	}
	// "data:image/jpeg;base64,...." from canvas.toDataURL
	if i := strings.Index(data, ","); i >= 0 && strings.HasPrefix(data, "data:") {
		data = data[i+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 image: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("empty image")
	}
	return raw, nil
}
