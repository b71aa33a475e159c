package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	authmw "github.com/quizraft/quizraft/internal/auth/middleware"
	"github.com/quizraft/quizraft/internal/quiz"
	"github.com/quizraft/quizraft/internal/rbac"
)

func callerIdentity(r *http.Request) quiz.Identity {
	return quiz.Identity{
		UserID: authmw.SubjectFromContext(r.Context()),
		Email:  authmw.EmailFromContext(r.Context()),
	}
}

// POST /attempts  { "quiz_id": "..." }
func StartAttemptHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			QuizID string `json:"quiz_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "bad json")
			return
		}
		if req.QuizID == "" {
			writeJSONError(w, http.StatusBadRequest, "quiz_id required")
			return
		}
		res, err := svc.StartAttempt(r.Context(), req.QuizID, callerIdentity(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	}
}

// POST /public/attempts  { "quiz_id": "..." }
//
// Anonymous entry point: only public quizzes qualify, and the run is
// ephemeral, so no attempt row exists afterwards.
func PublicStartHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			QuizID string `json:"quiz_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "bad json")
			return
		}
		if req.QuizID == "" {
			writeJSONError(w, http.StatusBadRequest, "quiz_id required")
			return
		}
		res, err := svc.StartAttempt(r.Context(), req.QuizID, quiz.Identity{})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// POST /attempts/{attemptID}/submit  { "quiz_id": "...", "answers": {...} }
func SubmitAttemptHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req quiz.CompleteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "bad json")
			return
		}
		req.AttemptID = chi.URLParam(r, "attemptID")
		req.Public = false
		res, err := svc.CompleteAttempt(r.Context(), req, callerIdentity(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// POST /public/submissions  { "quiz_id": "...", "answers": {...} }
func PublicSubmitHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req quiz.CompleteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "bad json")
			return
		}
		req.AttemptID = ""
		req.Public = true
		res, err := svc.CompleteAttempt(r.Context(), req, quiz.Identity{})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

type attemptView struct {
	Attempt quiz.Attempt  `json:"attempt"`
	Answers []quiz.Answer `json:"answers"`
}

// GET /attempts/{attemptID}
//
// Students may only read their own attempts; reviewers with
// attempt:view-all may read any.
func GetAttemptHandler(svc *quiz.Service, checker *rbac.Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, answers, err := svc.GetAttempt(r.Context(), chi.URLParam(r, "attemptID"))
		if err != nil {
			writeError(w, err)
			return
		}
		role := rbac.RoleFromContext(r.Context())
		if !checker.Has(role, "attempt:view-all") && a.UserID != authmw.SubjectFromContext(r.Context()) {
			writeJSONError(w, http.StatusForbidden, "not your attempt")
			return
		}
		writeJSON(w, http.StatusOK, attemptView{Attempt: a, Answers: answers})
	}
}

// GET /attempts?quiz_id=&user_id=&completed=&limit=&offset=
func ListAttemptsHandler(svc *quiz.Service, checker *rbac.Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		opts := quiz.AttemptListOpts{
			QuizID: q.Get("quiz_id"),
			UserID: q.Get("user_id"),
		}
		if v := q.Get("completed"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				writeJSONError(w, http.StatusBadRequest, "bad completed filter")
				return
			}
			opts.Completed = &b
		}
		opts.Limit, _ = strconv.Atoi(q.Get("limit"))
		opts.Offset, _ = strconv.Atoi(q.Get("offset"))

		role := rbac.RoleFromContext(r.Context())
		if !checker.Has(role, "attempt:view-all") {
			opts.UserID = authmw.SubjectFromContext(r.Context())
		}
		attempts, err := svc.ListAttempts(r.Context(), opts)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, attempts)
	}
}

// POST /attempts/{attemptID}/grades  { "grades": { "<question_id>": {...} } }
func ApplyGradesHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Grades map[string]quiz.ManualGrade `json:"grades"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "bad json")
			return
		}
		gradedBy := authmw.SubjectFromContext(r.Context())
		a, err := svc.ApplyManualGrades(r.Context(), chi.URLParam(r, "attemptID"), req.Grades, gradedBy)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}
