package grading

import "testing"

func boolPtr(b bool) *bool { return &b }

func assertResult(t *testing.T, got Result, correct *bool, awarded float64, needsManual bool) {
	t.Helper()
	if (got.Correct == nil) != (correct == nil) {
		t.Fatalf("correct: got %v, want %v", got.Correct, correct)
	}
	if got.Correct != nil && *got.Correct != *correct {
		t.Fatalf("correct: got %v, want %v", *got.Correct, *correct)
	}
	if got.Awarded != awarded {
		t.Fatalf("awarded: got %v, want %v", got.Awarded, awarded)
	}
	if got.NeedsManual != needsManual {
		t.Fatalf("needsManual: got %v, want %v", got.NeedsManual, needsManual)
	}
}

func TestGradeMultipleChoice(t *testing.T) {
	q := Q{ID: "q1", Type: "multiple_choice", Points: 5, AnswerKey: []string{"opt-b"}}
	tests := []struct {
		name      string
		submitted string
		answered  bool
		correct   *bool
		awarded   float64
	}{
		{name: "correct option", submitted: "opt-b", answered: true, correct: boolPtr(true), awarded: 5},
		{name: "wrong option", submitted: "opt-a", answered: true, correct: boolPtr(false), awarded: 0},
		{name: "unknown option id", submitted: "nope", answered: true, correct: boolPtr(false), awarded: 0},
		{name: "unanswered is wrong not error", submitted: "", answered: false, correct: boolPtr(false), awarded: 0},
	}
	g := NewGrader()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assertResult(t, g.Grade(q, tc.submitted, tc.answered), tc.correct, tc.awarded, false)
		})
	}
}

func TestGradeMultipleChoiceMultipleCorrectOptions(t *testing.T) {
	g := NewGrader()
	q := Q{ID: "q1", Type: "multiple_choice", Points: 3, AnswerKey: []string{"a", "c"}}
	for _, sel := range []string{"a", "c"} {
		got := g.Grade(q, sel, true)
		if got.Correct == nil || !*got.Correct || got.Awarded != 3 {
			t.Fatalf("selecting %q: got %+v, want full credit", sel, got)
		}
	}
}

func TestGradeTrueFalse(t *testing.T) {
	q := Q{ID: "q1", Type: "true_false", Points: 10, AnswerKey: []string{"True"}}
	tests := []struct {
		name      string
		submitted string
		correct   bool
	}{
		{name: "exact", submitted: "true", correct: true},
		{name: "case folded", submitted: "TRUE", correct: true},
		{name: "padded", submitted: " true ", correct: true},
		{name: "wrong", submitted: "false", correct: false},
		{name: "garbage", submitted: "yes", correct: false},
	}
	g := NewGrader()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var awarded float64
			if tc.correct {
				awarded = 10
			}
			assertResult(t, g.Grade(q, tc.submitted, true), boolPtr(tc.correct), awarded, false)
		})
	}
}

func TestGradeShortAnswer(t *testing.T) {
	q := Q{ID: "q1", Type: "short_answer", Points: 4, AnswerKey: []string{"Paris"}}
	tests := []struct {
		name      string
		submitted string
		correct   bool
	}{
		{name: "exact", submitted: "Paris", correct: true},
		{name: "padded lowercase", submitted: " paris ", correct: true},
		{name: "wrong city", submitted: "London", correct: false},
		{name: "no fuzzy credit", submitted: "Pariss", correct: false},
		{name: "empty", submitted: "", correct: false},
	}
	g := NewGrader()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var awarded float64
			if tc.correct {
				awarded = 4
			}
			assertResult(t, g.Grade(q, tc.submitted, true), boolPtr(tc.correct), awarded, false)
		})
	}
}

func TestGradeEssayAwaitsManualReview(t *testing.T) {
	g := NewGrader()
	got := g.Grade(Q{ID: "q1", Type: "essay", Points: 10}, "my long answer", true)
	assertResult(t, got, nil, 0, true)
	if got.MaxPoints != 10 {
		t.Fatalf("essay must keep contributing its points to the possible total, got %v", got.MaxPoints)
	}
}

func TestGradeUnknownTypeNeedsManual(t *testing.T) {
	g := NewGrader()
	got := g.Grade(Q{ID: "q1", Type: "matching", Points: 2}, "x", true)
	assertResult(t, got, nil, 0, true)
}

func TestGradeAllIgnoresUnknownQuestionIDs(t *testing.T) {
	g := NewGrader()
	qs := []Q{
		{ID: "q1", Type: "multiple_choice", Points: 5, AnswerKey: []string{"a"}},
		{ID: "q2", Type: "short_answer", Points: 5, AnswerKey: []string{"x"}},
	}
	answers := map[string]string{"q1": "a", "ghost": "whatever"}
	results := g.GradeAll(qs, answers)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	sum := Summarize(results)
	if sum.Total != 5 || sum.Possible != 10 {
		t.Fatalf("got total=%v possible=%v, want 5/10", sum.Total, sum.Possible)
	}
}

func TestGradeAllMissingAnswerIsWrong(t *testing.T) {
	g := NewGrader()
	qs := []Q{{ID: "q1", Type: "true_false", Points: 10, AnswerKey: []string{"true"}}}
	results := g.GradeAll(qs, map[string]string{})
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	assertResult(t, results[0], boolPtr(false), 0, false)
	if results[0].Answered {
		t.Fatal("missing answer must be marked unanswered")
	}
}
