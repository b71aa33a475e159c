package grading

// Q is the minimal view of a question the engine needs. AnswerKey content
// depends on the type: correct option ids for multiple_choice, the canonical
// "true"/"false" text for true_false, the canonical answer for short_answer,
// empty for essay.
type Q struct {
	ID        string
	Type      string
	Points    float64
	AnswerKey []string
}

// Result is the outcome of grading a single question.
type Result struct {
	QuestionID string
	Submitted  string
	Answered   bool
	// Correct is nil when the question awaits manual review.
	Correct     *bool
	Awarded     float64
	MaxPoints   float64
	NeedsManual bool
}

// Strategy grades one question type.
type Strategy interface {
	Grade(q Q, submitted string, answered bool) Result
}

// Grader routes by question type to the matching Strategy. It is pure: no
// storage, no mode awareness, deterministic for a fixed input.
type Grader struct {
	strategies map[string]Strategy
}

// NewGrader installs the built-in strategies.
func NewGrader() *Grader {
	return &Grader{
		strategies: map[string]Strategy{
			"multiple_choice": choiceStrategy{},
			"true_false":      trueFalseStrategy{},
			"short_answer":    shortAnswerStrategy{},
			"essay":           essayStrategy{},
		},
	}
}

// Grade never fails on malformed input; the worst outcome is a wrong answer.
func (g *Grader) Grade(q Q, submitted string, answered bool) Result {
	s, ok := g.strategies[q.Type]
	if !ok {
		// Unknown type: park for manual review rather than guessing.
		return Result{QuestionID: q.ID, Submitted: submitted, Answered: answered, MaxPoints: q.Points, NeedsManual: true}
	}
	return s.Grade(q, submitted, answered)
}

// GradeAll grades every question in qs against the submitted answers map.
// Questions with no submitted value are graded as present-but-wrong; keys in
// answers that match no question are ignored.
func (g *Grader) GradeAll(qs []Q, answers map[string]string) []Result {
	out := make([]Result, 0, len(qs))
	for _, q := range qs {
		v, ok := answers[q.ID]
		out = append(out, g.Grade(q, v, ok))
	}
	return out
}

type choiceStrategy struct{}

func (choiceStrategy) Grade(q Q, submitted string, answered bool) Result {
	res := wrong(q, submitted, answered)
	if !answered {
		return res
	}
	for _, k := range q.AnswerKey {
		if submitted == k {
			return right(q, submitted)
		}
	}
	return res
}

type trueFalseStrategy struct{}

func (trueFalseStrategy) Grade(q Q, submitted string, answered bool) Result {
	res := wrong(q, submitted, answered)
	if !answered || len(q.AnswerKey) == 0 {
		return res
	}
	if foldBool(submitted) == foldBool(q.AnswerKey[0]) && foldBool(submitted) != "" {
		return right(q, submitted)
	}
	return res
}

type shortAnswerStrategy struct{}

func (shortAnswerStrategy) Grade(q Q, submitted string, answered bool) Result {
	res := wrong(q, submitted, answered)
	if !answered || len(q.AnswerKey) == 0 {
		return res
	}
	// Exact match after trim+casefold. No fuzzy or partial credit.
	if fold(submitted) == fold(q.AnswerKey[0]) {
		return right(q, submitted)
	}
	return res
}

type essayStrategy struct{}

// Essays are never auto-graded: correctness stays nil and the awarded score
// is 0, while the question still counts toward the possible total.
func (essayStrategy) Grade(q Q, submitted string, answered bool) Result {
	return Result{
		QuestionID:  q.ID,
		Submitted:   submitted,
		Answered:    answered,
		MaxPoints:   q.Points,
		NeedsManual: true,
	}
}

func right(q Q, submitted string) Result {
	t := true
	return Result{QuestionID: q.ID, Submitted: submitted, Answered: true, Correct: &t, Awarded: q.Points, MaxPoints: q.Points}
}

func wrong(q Q, submitted string, answered bool) Result {
	f := false
	return Result{QuestionID: q.ID, Submitted: submitted, Answered: answered, Correct: &f, MaxPoints: q.Points}
}
