package quiz

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// memoryStore backs tests and single-process dev runs. The completion guard
// holds the same exactly-once semantics as the SQL store, enforced under the
// store mutex instead of a row guard.
type memoryStore struct {
	mu       sync.RWMutex
	quizzes  map[string]Quiz
	attempts map[string]Attempt
	answers  map[string][]Answer // attemptID -> batch
}

func NewInMemoryStore() Store {
	return &memoryStore{
		quizzes:  map[string]Quiz{},
		attempts: map[string]Attempt{},
		answers:  map[string][]Answer{},
	}
}

var _ Store = (*memoryStore)(nil)

func (m *memoryStore) PutQuiz(_ context.Context, qz Quiz) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quizzes[qz.ID] = qz
	return nil
}

func (m *memoryStore) GetQuiz(_ context.Context, id string) (Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	qz, ok := m.quizzes[id]
	if !ok {
		return Quiz{}, errNotFound("quiz", id)
	}
	return qz, nil
}

func (m *memoryStore) CountUserAttempts(_ context.Context, quizID, userID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, a := range m.attempts {
		if a.QuizID == quizID && a.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) CreateAttempt(_ context.Context, a Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[a.ID] = a
	return nil
}

func (m *memoryStore) GetAttempt(_ context.Context, id string) (Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[id]
	if !ok {
		return Attempt{}, errNotFound("attempt", id)
	}
	return a, nil
}

func (m *memoryStore) ListAttempts(_ context.Context, opts AttemptListOpts) ([]Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Attempt
	for _, a := range m.attempts {
		if opts.QuizID != "" && a.QuizID != opts.QuizID {
			continue
		}
		if opts.UserID != "" && a.UserID != opts.UserID {
			continue
		}
		if opts.Completed != nil && a.Completed != *opts.Completed {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt > out[j].StartedAt })
	return out, nil
}

func (m *memoryStore) CompleteAttempt(_ context.Context, rec CompletionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[rec.AttemptID]
	if !ok {
		return errNotFound("attempt", rec.AttemptID)
	}
	if a.Completed || a.UserID != rec.UserID || a.QuizID != rec.QuizID {
		return errState("attempt %s already completed or not owned by caller", rec.AttemptID)
	}
	score := rec.Score
	submittedAt := rec.SubmittedAt
	a.Completed = true
	a.Score = &score
	a.SubmittedAt = &submittedAt
	m.attempts[rec.AttemptID] = a

	batch := make([]Answer, len(rec.Answers))
	copy(batch, rec.Answers)
	for i := range batch {
		if batch[i].ID == "" {
			batch[i].ID = uuid.NewString()
		}
		batch[i].AttemptID = rec.AttemptID
	}
	m.answers[rec.AttemptID] = batch
	return nil
}

func (m *memoryStore) GetAnswers(_ context.Context, attemptID string) ([]Answer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Answer, len(m.answers[attemptID]))
	copy(out, m.answers[attemptID])
	return out, nil
}

func (m *memoryStore) ApplyManualGrades(_ context.Context, attemptID string, updates map[string]ManualGrade, _ string) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return Attempt{}, errNotFound("attempt", attemptID)
	}
	if !a.Completed {
		return Attempt{}, errState("attempt %s not completed; nothing to review", attemptID)
	}
	batch := m.answers[attemptID]
	for qid, g := range updates {
		found := false
		for i := range batch {
			if batch[i].QuestionID == qid {
				c := g.Correct
				batch[i].Correct = &c
				batch[i].Awarded = g.Awarded
				found = true
			}
		}
		if !found {
			return Attempt{}, errNotFound("answer for question", qid)
		}
	}
	var score float64
	for _, ans := range batch {
		score += ans.Awarded
	}
	a.Score = &score
	m.attempts[attemptID] = a
	m.answers[attemptID] = batch
	return a, nil
}
