package quiz

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	ShortAnswer    QuestionType = "short_answer"
	Essay          QuestionType = "essay"
)

// IsChoice reports whether the type carries options.
func (t QuestionType) IsChoice() bool {
	return t == MultipleChoice || t == TrueFalse
}

type Option struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Correct  bool   `json:"is_correct,omitempty"`
	Position int    `json:"position,omitempty"`
}

type Question struct {
	ID       string       `json:"id"`
	QuizID   string       `json:"quiz_id,omitempty"`
	Type     QuestionType `json:"type"`
	Text     string       `json:"text"`
	Points   float64      `json:"points"`
	ImageKey string       `json:"image_key,omitempty"`
	// AnswerKey holds the canonical answer for short_answer questions.
	AnswerKey string   `json:"answer_key,omitempty"`
	Options   []Option `json:"options,omitempty"`
	Position  int      `json:"position,omitempty"`
}

type Quiz struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	// OpenAt is unix seconds; 0 means no scheduling window.
	OpenAt int64 `json:"open_at,omitempty"`
	// DurationMinutes 0 means untimed.
	DurationMinutes int `json:"duration_minutes,omitempty"`
	// MaxAttempts 0 means unlimited.
	MaxAttempts int        `json:"max_attempts"`
	Public      bool       `json:"is_public"`
	AccessFee   float64    `json:"access_fee,omitempty"`
	Questions   []Question `json:"questions,omitempty"`
	CreatedAt   int64      `json:"created_at,omitempty"`
}

// TotalPossible sums every question's points, answered or not.
func (q Quiz) TotalPossible() float64 {
	var sum float64
	for _, qu := range q.Questions {
		sum += qu.Points
	}
	return sum
}

type Attempt struct {
	ID          string   `json:"id"`
	QuizID      string   `json:"quiz_id"`
	UserID      string   `json:"user_id"`
	StartedAt   int64    `json:"started_at"`
	SubmittedAt *int64   `json:"submitted_at,omitempty"`
	Completed   bool     `json:"completed"`
	Score       *float64 `json:"score,omitempty"`
}

type Answer struct {
	ID         string `json:"id"`
	AttemptID  string `json:"attempt_id"`
	QuestionID string `json:"question_id"`
	Value      string `json:"value"`
	// Correct is nil while the answer awaits manual review (essays).
	Correct *bool   `json:"correct"`
	Awarded float64 `json:"awarded"`
}

// Mode distinguishes the persisted attempt lifecycle from the ephemeral one
// used by anonymous runs of public quizzes, which are graded but never
// written.
type Mode int

const (
	ModePersisted Mode = iota
	ModeEphemeral
)

func (m Mode) String() string {
	if m == ModeEphemeral {
		return "ephemeral"
	}
	return "persisted"
}

// Identity is the request-scoped caller identity, passed explicitly into
// every operation. A zero UserID marks an anonymous caller.
type Identity struct {
	UserID string
	Email  string
}

func (id Identity) Anonymous() bool { return id.UserID == "" }
