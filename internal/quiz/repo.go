package quiz

import "context"

type AttemptListOpts struct {
	QuizID string
	UserID string
	// Completed filters by completion state when non-nil.
	Completed *bool
	Limit     int
	Offset    int
}

// ManualGrade is one teacher-resolved answer, keyed by question id.
type ManualGrade struct {
	Correct bool    `json:"correct"`
	Awarded float64 `json:"awarded"`
}

// CompletionRecord carries everything the exactly-once completion writes:
// the attempt update and the full answer batch, committed atomically.
type CompletionRecord struct {
	AttemptID   string
	UserID      string
	QuizID      string
	Score       float64
	SubmittedAt int64
	Answers     []Answer
}

type Store interface {
	PutQuiz(ctx context.Context, qz Quiz) error
	// GetQuiz returns the full quiz including answer keys. Callers serving
	// students must go through Randomize or strip correctness themselves.
	GetQuiz(ctx context.Context, id string) (Quiz, error)

	CountUserAttempts(ctx context.Context, quizID, userID string) (int, error)
	CreateAttempt(ctx context.Context, a Attempt) error
	GetAttempt(ctx context.Context, id string) (Attempt, error)
	ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error)

	// CompleteAttempt is the exactly-once transition. In a single atomic
	// unit it must verify the attempt exists, belongs to rec.UserID and
	// rec.QuizID and is not completed, then write the attempt update and
	// every answer row. A failed guard returns StateError with nothing
	// written; concurrent callers see exactly one winner.
	CompleteAttempt(ctx context.Context, rec CompletionRecord) error

	GetAnswers(ctx context.Context, attemptID string) ([]Answer, error)

	// ApplyManualGrades resolves reviewed answers (essays) on a completed
	// attempt and recomputes its score, atomically.
	ApplyManualGrades(ctx context.Context, attemptID string, updates map[string]ManualGrade, gradedBy string) (Attempt, error)
}
