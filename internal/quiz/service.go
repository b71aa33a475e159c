package quiz

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/quizraft/quizraft/internal/grading"
	"github.com/quizraft/quizraft/internal/notify"
	"github.com/quizraft/quizraft/internal/pacing"
)

// PaymentVerifier is the external payment collaborator consulted for
// fee-gated quizzes. The default implementation lets everyone through.
type PaymentVerifier interface {
	HasPaid(ctx context.Context, quizID, userID string) (bool, error)
}

type allowAllPayments struct{}

func (allowAllPayments) HasPaid(context.Context, string, string) (bool, error) { return true, nil }

// StartResult is what a student gets back from starting an attempt: the
// attempt id (empty in ephemeral mode) and the randomized presentation.
type StartResult struct {
	AttemptID           string        `json:"attempt_id,omitempty"`
	Mode                string        `json:"mode"`
	Quiz                PresentedQuiz `json:"quiz"`
	SnapshotIntervalSec int           `json:"snapshot_interval_sec,omitempty"`
}

// CompleteRequest is one submission: quiz id, the attempt being closed
// (empty for public/ephemeral runs), and the collected answers keyed by
// question id. Duplicate keys in the wire payload collapse to the last
// value during JSON decoding, which is the documented last-wins behavior.
type CompleteRequest struct {
	QuizID    string            `json:"quiz_id"`
	AttemptID string            `json:"attempt_id,omitempty"`
	Public    bool              `json:"is_public_quiz,omitempty"`
	Answers   map[string]string `json:"answers"`
}

// QuestionOutcome is the per-question line of the graded summary.
type QuestionOutcome struct {
	QuestionID string  `json:"question_id"`
	Correct    *bool   `json:"correct"` // nil = awaiting manual review
	Awarded    float64 `json:"awarded"`
	Possible   float64 `json:"possible"`
}

// Result is the graded summary returned to the submitter.
type Result struct {
	AttemptID  string            `json:"attempt_id,omitempty"`
	Score      float64           `json:"score"`
	Possible   float64           `json:"total_possible"`
	Percentage float64           `json:"percentage"`
	Breakdown  []QuestionOutcome `json:"breakdown"`
	// Notified is false when the result email could not be sent; grading
	// itself committed regardless.
	Notified bool `json:"notified"`
}

// Service is the attempt manager: it owns eligibility, the persisted vs
// ephemeral branch, and the exactly-once completion flow. Grading stays in
// the pure engine.
type Service struct {
	store    Store
	grader   *grading.Grader
	mailer   notify.Mailer
	payments PaymentVerifier
	timers   *pacing.Registry

	mailSubject      string
	enforceDuration  bool
	onExpiry         func(attemptID string)
	snapshotInterval time.Duration
	now              func() time.Time
}

type ServiceOption func(*Service)

func WithMailer(m notify.Mailer, subject string) ServiceOption {
	return func(s *Service) {
		s.mailer = m
		s.mailSubject = subject
	}
}

func WithPayments(p PaymentVerifier) ServiceOption {
	return func(s *Service) { s.payments = p }
}

func WithTimers(r *pacing.Registry, onExpiry func(attemptID string)) ServiceOption {
	return func(s *Service) {
		s.timers = r
		s.onExpiry = onExpiry
	}
}

// WithDurationEnforcement turns on server-side rejection of submissions past
// the quiz duration. The default trusts the client timer, so this stays off
// unless deliberately enabled.
func WithDurationEnforcement(on bool) ServiceOption {
	return func(s *Service) { s.enforceDuration = on }
}

// WithSnapshotInterval sets the webcam capture cadence advertised to the
// client when a persisted attempt starts.
func WithSnapshotInterval(d time.Duration) ServiceOption {
	return func(s *Service) { s.snapshotInterval = d }
}

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{
		store:    store,
		grader:   grading.NewGrader(),
		payments: allowAllPayments{},
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// lateGrace pads duration enforcement so a client submitting at the buzzer
// is not rejected for network latency.
const lateGrace = 30 * time.Second

// StartAttempt validates eligibility and opens an attempt. Authenticated
// callers get a persisted attempt row; anonymous callers may only take
// public quizzes and get an ephemeral run with no row and no proctoring.
func (s *Service) StartAttempt(ctx context.Context, quizID string, id Identity) (StartResult, error) {
	qz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return StartResult{}, err
	}
	if len(qz.Questions) == 0 {
		return StartResult{}, &EligibilityError{Msg: "quiz has no questions"}
	}
	now := s.now()
	if qz.OpenAt != 0 && now.Unix() < qz.OpenAt {
		return StartResult{}, &EligibilityError{Msg: "quiz is not open yet"}
	}

	if id.Anonymous() {
		if !qz.Public {
			return StartResult{}, &EligibilityError{Msg: "quiz requires sign-in"}
		}
		return StartResult{Mode: ModeEphemeral.String(), Quiz: Randomize(qz)}, nil
	}

	if qz.MaxAttempts > 0 {
		n, err := s.store.CountUserAttempts(ctx, quizID, id.UserID)
		if err != nil {
			return StartResult{}, err
		}
		if n >= qz.MaxAttempts {
			return StartResult{}, &EligibilityError{Msg: "maximum attempts reached"}
		}
	}
	if qz.AccessFee > 0 {
		paid, err := s.payments.HasPaid(ctx, quizID, id.UserID)
		if err != nil {
			return StartResult{}, errStorage("verify payment", err)
		}
		if !paid {
			return StartResult{}, &EligibilityError{Msg: "quiz fee not paid"}
		}
	}

	a := Attempt{
		ID:        uuid.NewString(),
		QuizID:    quizID,
		UserID:    id.UserID,
		StartedAt: now.Unix(),
	}
	if err := s.store.CreateAttempt(ctx, a); err != nil {
		return StartResult{}, err
	}

	if s.timers != nil && qz.DurationMinutes > 0 && s.onExpiry != nil {
		d := time.Duration(qz.DurationMinutes)*time.Minute + lateGrace
		s.timers.StartCountdown(a.ID, d, s.onExpiry)
	}

	return StartResult{
		AttemptID:           a.ID,
		Mode:                ModePersisted.String(),
		Quiz:                Randomize(qz),
		SnapshotIntervalSec: int(s.snapshotInterval / time.Second),
	}, nil
}

// CompleteAttempt grades a submission and, for persisted attempts, performs
// the exactly-once finalization. A second call for the same attempt returns
// StateError with no additional writes and no second notification.
func (s *Service) CompleteAttempt(ctx context.Context, req CompleteRequest, id Identity) (Result, error) {
	if req.QuizID == "" {
		return Result{}, &ValidationError{Msg: "quiz_id is required"}
	}
	qz, err := s.store.GetQuiz(ctx, req.QuizID)
	if err != nil {
		return Result{}, err
	}

	results := s.grader.GradeAll(GradingInputs(qz), req.Answers)
	sum := grading.Summarize(results)
	res := Result{
		Score:      sum.Total,
		Possible:   sum.Possible,
		Percentage: sum.Percentage,
		Breakdown:  make([]QuestionOutcome, 0, len(results)),
	}
	for _, r := range results {
		res.Breakdown = append(res.Breakdown, QuestionOutcome{
			QuestionID: r.QuestionID,
			Correct:    r.Correct,
			Awarded:    r.Awarded,
			Possible:   r.MaxPoints,
		})
	}

	// Ephemeral branch: grade and return, write nothing.
	if req.Public || req.AttemptID == "" {
		if id.Anonymous() && !qz.Public {
			return Result{}, &EligibilityError{Msg: "quiz requires sign-in"}
		}
		return res, nil
	}

	if s.enforceDuration && qz.DurationMinutes > 0 {
		a, err := s.store.GetAttempt(ctx, req.AttemptID)
		if err != nil {
			return Result{}, err
		}
		deadline := time.Unix(a.StartedAt, 0).Add(time.Duration(qz.DurationMinutes)*time.Minute + lateGrace)
		if s.now().After(deadline) {
			return Result{}, errState("attempt %s submitted after the time limit", req.AttemptID)
		}
	}

	answers := make([]Answer, 0, len(results))
	for _, r := range results {
		answers = append(answers, Answer{
			AttemptID:  req.AttemptID,
			QuestionID: r.QuestionID,
			Value:      r.Submitted,
			Correct:    r.Correct,
			Awarded:    r.Awarded,
		})
	}
	err = s.store.CompleteAttempt(ctx, CompletionRecord{
		AttemptID:   req.AttemptID,
		UserID:      id.UserID,
		QuizID:      req.QuizID,
		Score:       sum.Total,
		SubmittedAt: s.now().Unix(),
		Answers:     answers,
	})
	if err != nil {
		return Result{}, err
	}
	res.AttemptID = req.AttemptID

	if s.timers != nil {
		s.timers.Stop(req.AttemptID)
	}

	// Notification is best-effort: the grading transaction is already
	// committed, so a send failure is logged and surfaced as a soft
	// warning, never as a grading failure.
	if s.mailer != nil && id.Email != "" {
		msg := notify.ResultMessage(id.Email, "", s.mailSubject, qz.Title, sum.Total, sum.Possible, sum.Percentage)
		if err := s.mailer.Send(ctx, msg); err != nil {
			nerr := &NotificationError{Err: err}
			log.Printf("attempt %s: %v", req.AttemptID, nerr)
		} else {
			res.Notified = true
		}
	}
	return res, nil
}

func (s *Service) GetAttempt(ctx context.Context, attemptID string) (Attempt, []Answer, error) {
	a, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return Attempt{}, nil, err
	}
	answers, err := s.store.GetAnswers(ctx, attemptID)
	if err != nil {
		return Attempt{}, nil, err
	}
	return a, answers, nil
}

func (s *Service) ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error) {
	return s.store.ListAttempts(ctx, opts)
}

// ApplyManualGrades resolves reviewed answers and recomputes the attempt
// score.
func (s *Service) ApplyManualGrades(ctx context.Context, attemptID string, updates map[string]ManualGrade, gradedBy string) (Attempt, error) {
	if len(updates) == 0 {
		return Attempt{}, &ValidationError{Msg: "no grades supplied"}
	}
	return s.store.ApplyManualGrades(ctx, attemptID, updates, gradedBy)
}
