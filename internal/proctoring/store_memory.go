package proctoring

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu     sync.Mutex
	logs   []Log
	images []Image
	nextID int64
}

// NewInMemoryStore backs sink tests and single-process dev runs.
func NewInMemoryStore() Store {
	return &memoryStore{nextID: 1}
}

func (m *memoryStore) AppendLog(_ context.Context, l Log) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = m.nextID
	m.nextID++
	m.logs = append(m.logs, l)
	return nil
}

func (m *memoryStore) InsertImage(_ context.Context, img Image) (Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	img.ID = m.nextID
	m.nextID++
	m.images = append(m.images, img)
	return img, nil
}

func (m *memoryStore) ListLogs(_ context.Context, attemptID string) ([]Log, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Log
	for _, l := range m.logs {
		if l.AttemptID == attemptID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memoryStore) CountImages(_ context.Context, attemptID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, img := range m.images {
		if img.AttemptID == attemptID {
			n++
		}
	}
	return n, nil
}
