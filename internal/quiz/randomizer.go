package quiz

import "math/rand"

// PresentedQuiz is the per-attempt view handed to the client: questions and
// options in a fresh random order, with every correctness marker stripped.
type PresentedQuiz struct {
	QuizID          string              `json:"quiz_id"`
	Title           string              `json:"title"`
	DurationMinutes int                 `json:"duration_minutes,omitempty"`
	Questions       []PresentedQuestion `json:"questions"`
}

type PresentedQuestion struct {
	ID       string            `json:"id"`
	Type     QuestionType      `json:"type"`
	Text     string            `json:"text"`
	Points   float64           `json:"points"`
	ImageKey string            `json:"image_key,omitempty"`
	Options  []PresentedOption `json:"options,omitempty"`
	// Ungradable flags a choice question with no correct option stored.
	// It is still shown, but auto-grading will award 0.
	Ungradable bool `json:"ungradable,omitempty"`
}

type PresentedOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Randomize builds the presentation order for one attempt. Question order and
// each choice question's option order are shuffled independently with uniform
// permutations. Correctness flags are never read for ordering and never
// leave this function.
func Randomize(qz Quiz) PresentedQuiz {
	out := PresentedQuiz{
		QuizID:          qz.ID,
		Title:           qz.Title,
		DurationMinutes: qz.DurationMinutes,
		Questions:       make([]PresentedQuestion, 0, len(qz.Questions)),
	}
	for _, q := range qz.Questions {
		out.Questions = append(out.Questions, presentQuestion(q))
	}
	rand.Shuffle(len(out.Questions), func(i, j int) {
		out.Questions[i], out.Questions[j] = out.Questions[j], out.Questions[i]
	})
	return out
}

func presentQuestion(q Question) PresentedQuestion {
	pq := PresentedQuestion{
		ID:       q.ID,
		Type:     q.Type,
		Text:     q.Text,
		Points:   q.Points,
		ImageKey: q.ImageKey,
	}
	if !q.Type.IsChoice() {
		return pq
	}
	pq.Options = make([]PresentedOption, 0, len(q.Options))
	anyCorrect := false
	for _, o := range q.Options {
		pq.Options = append(pq.Options, PresentedOption{ID: o.ID, Text: o.Text})
		if o.Correct {
			anyCorrect = true
		}
	}
	pq.Ungradable = !anyCorrect
	rand.Shuffle(len(pq.Options), func(i, j int) {
		pq.Options[i], pq.Options[j] = pq.Options[j], pq.Options[i]
	})
	return pq
}
