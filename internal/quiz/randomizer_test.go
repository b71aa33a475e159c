package quiz

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestRandomizeIsAPermutation(t *testing.T) {
	qz := twentyPointQuiz()
	for i := 0; i < 20; i++ {
		p := Randomize(qz)
		if len(p.Questions) != len(qz.Questions) {
			t.Fatalf("got %d questions, want %d", len(p.Questions), len(qz.Questions))
		}
		seen := map[string]bool{}
		for _, q := range p.Questions {
			if seen[q.ID] {
				t.Fatalf("question %s presented twice", q.ID)
			}
			seen[q.ID] = true
		}
		for _, q := range qz.Questions {
			if !seen[q.ID] {
				t.Fatalf("question %s missing from presentation", q.ID)
			}
		}
	}
}

func TestRandomizeShufflesOptionsPerQuestion(t *testing.T) {
	qz := twentyPointQuiz()
	for i := 0; i < 20; i++ {
		p := Randomize(qz)
		for _, pq := range p.Questions {
			var src Question
			for _, q := range qz.Questions {
				if q.ID == pq.ID {
					src = q
				}
			}
			if !pq.Type.IsChoice() {
				if len(pq.Options) != 0 {
					t.Fatalf("%s: non-choice question carries options", pq.ID)
				}
				continue
			}
			if len(pq.Options) != len(src.Options) {
				t.Fatalf("%s: got %d options, want %d", pq.ID, len(pq.Options), len(src.Options))
			}
			ids := map[string]bool{}
			for _, o := range pq.Options {
				ids[o.ID] = true
			}
			for _, o := range src.Options {
				if !ids[o.ID] {
					t.Fatalf("%s: option %s dropped by shuffle", pq.ID, o.ID)
				}
			}
		}
	}
}

func TestRandomizeNeverLeaksCorrectness(t *testing.T) {
	qz := twentyPointQuiz()
	qz.Questions = append(qz.Questions, Question{
		ID: "sa1", Type: ShortAnswer, Text: "Capital of Italy?", Points: 2, AnswerKey: "Rome",
	})
	p := Randomize(qz)
	for _, q := range p.Questions {
		if q.Type == ShortAnswer && q.Ungradable {
			t.Fatalf("short answer wrongly flagged ungradable")
		}
	}
	raw, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, leak := range []string{"is_correct", "answer_key", "Rome"} {
		if strings.Contains(string(raw), leak) {
			t.Fatalf("presentation payload leaks %q: %s", leak, raw)
		}
	}
}

func TestRandomizeFlagsChoiceQuestionWithoutCorrectOption(t *testing.T) {
	qz := Quiz{
		ID: "q", Title: "broken",
		Questions: []Question{
			{ID: "mc1", Type: MultipleChoice, Points: 5, Options: []Option{
				{ID: "a", Text: "A"}, {ID: "b", Text: "B"},
			}},
			{ID: "mc2", Type: MultipleChoice, Points: 5},
		},
	}
	p := Randomize(qz)
	for _, q := range p.Questions {
		if !q.Ungradable {
			t.Fatalf("%s: choice question with no correct option must be flagged", q.ID)
		}
	}
}
