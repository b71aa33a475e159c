package quiz

import "github.com/quizraft/quizraft/internal/grading"

// GradingInputs projects a quiz's questions into the engine's view,
// extracting the answer key appropriate to each type.
func GradingInputs(qz Quiz) []grading.Q {
	out := make([]grading.Q, 0, len(qz.Questions))
	for _, q := range qz.Questions {
		gq := grading.Q{ID: q.ID, Type: string(q.Type), Points: q.Points}
		switch q.Type {
		case MultipleChoice:
			for _, o := range q.Options {
				if o.Correct {
					gq.AnswerKey = append(gq.AnswerKey, o.ID)
				}
			}
		case TrueFalse:
			for _, o := range q.Options {
				if o.Correct {
					gq.AnswerKey = []string{o.Text}
					break
				}
			}
		case ShortAnswer:
			if q.AnswerKey != "" {
				gq.AnswerKey = []string{q.AnswerKey}
			}
		case Essay:
			// no key; manual review
		}
		out = append(out, gq)
	}
	return out
}
