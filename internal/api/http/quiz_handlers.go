package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/quizraft/quizraft/internal/quiz"
)

var validate = validator.New()

type optionPayload struct {
	ID      string `json:"id"`
	Text    string `json:"text" validate:"required"`
	Correct bool   `json:"is_correct"`
}

type questionPayload struct {
	ID        string          `json:"id"`
	Type      string          `json:"type" validate:"required,oneof=multiple_choice true_false short_answer essay"`
	Text      string          `json:"text" validate:"required"`
	Points    float64         `json:"points" validate:"gte=0"`
	ImageKey  string          `json:"image_key"`
	AnswerKey string          `json:"answer_key"`
	Options   []optionPayload `json:"options" validate:"dive"`
}

type quizPayload struct {
	ID              string            `json:"id"`
	Title           string            `json:"title" validate:"required"`
	OpenAt          int64             `json:"open_at"`
	DurationMinutes int               `json:"duration_minutes" validate:"gte=0"`
	MaxAttempts     int               `json:"max_attempts" validate:"gte=0"`
	Public          bool              `json:"is_public"`
	AccessFee       float64           `json:"access_fee" validate:"gte=0"`
	Questions       []questionPayload `json:"questions" validate:"required,min=1,dive"`
}

// POST /quizzes
func CreateQuizHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req quizPayload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "bad json: "+err.Error())
			return
		}
		if err := validate.Struct(req); err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		qz := quiz.Quiz{
			ID:              req.ID,
			Title:           req.Title,
			OpenAt:          req.OpenAt,
			DurationMinutes: req.DurationMinutes,
			MaxAttempts:     req.MaxAttempts,
			Public:          req.Public,
			AccessFee:       req.AccessFee,
			CreatedAt:       time.Now().Unix(),
		}
		if qz.ID == "" {
			qz.ID = uuid.NewString()
		}
		for i, qp := range req.Questions {
			q := quiz.Question{
				ID:        qp.ID,
				QuizID:    qz.ID,
				Type:      quiz.QuestionType(qp.Type),
				Text:      qp.Text,
				Points:    qp.Points,
				ImageKey:  qp.ImageKey,
				AnswerKey: qp.AnswerKey,
				Position:  i,
			}
			if q.ID == "" {
				q.ID = uuid.NewString()
			}
			for j, op := range qp.Options {
				o := quiz.Option{ID: op.ID, Text: op.Text, Correct: op.Correct, Position: j}
				if o.ID == "" {
					o.ID = uuid.NewString()
				}
				q.Options = append(q.Options, o)
			}
			qz.Questions = append(qz.Questions, q)
		}
		if err := store.PutQuiz(r.Context(), qz); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": qz.ID})
	}
}

// quizSummary is the student-safe quiz view: metadata only, no questions
// and no answer keys. Questions come back randomized when an attempt is
// started.
type quizSummary struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	OpenAt          int64   `json:"open_at,omitempty"`
	DurationMinutes int     `json:"duration_minutes,omitempty"`
	MaxAttempts     int     `json:"max_attempts"`
	Public          bool    `json:"is_public"`
	AccessFee       float64 `json:"access_fee,omitempty"`
	QuestionCount   int     `json:"question_count"`
}

// GET /quizzes/{quizID}
func GetQuizHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qz, err := store.GetQuiz(r.Context(), chi.URLParam(r, "quizID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, quizSummary{
			ID:              qz.ID,
			Title:           qz.Title,
			OpenAt:          qz.OpenAt,
			DurationMinutes: qz.DurationMinutes,
			MaxAttempts:     qz.MaxAttempts,
			Public:          qz.Public,
			AccessFee:       qz.AccessFee,
			QuestionCount:   len(qz.Questions),
		})
	}
}
