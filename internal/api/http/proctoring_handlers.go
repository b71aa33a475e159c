package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	authmw "github.com/quizraft/quizraft/internal/auth/middleware"
	"github.com/quizraft/quizraft/internal/proctoring"
	"github.com/quizraft/quizraft/internal/quiz"
	"github.com/quizraft/quizraft/internal/storage"
)

// POST /proctoring/events  { "attempt_id": "...", "event_type": "...", "log_data": "..." }
//
// Telemetry ingest is append-only and independent of attempt state, so a
// submit racing its last tab-hidden event never loses either write.
func LogEventHandler(sink *proctoring.Sink) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			AttemptID string `json:"attempt_id"`
			EventType string `json:"event_type"`
			LogData   string `json:"log_data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "bad json")
			return
		}
		userID := authmw.SubjectFromContext(r.Context())
		l, err := sink.LogEvent(r.Context(), req.AttemptID, userID, req.EventType, req.LogData)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, l)
	}
}

// POST /proctoring/snapshots  { "attempt_id": "...", "quiz_id": "...", "image_data": "..." }
func SnapshotHandler(sink *proctoring.Sink) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			AttemptID string `json:"attempt_id"`
			QuizID    string `json:"quiz_id"`
			ImageData string `json:"image_data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "bad json")
			return
		}
		userID := authmw.SubjectFromContext(r.Context())
		img, err := sink.SaveSnapshot(r.Context(), req.AttemptID, userID, req.QuizID, req.ImageData)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, img)
	}
}

// GET /proctoring/report/{attemptID}
//
// The completion flag feeding the heuristic comes from the attempt
// record, not from the sink.
func ReportHandler(sink *proctoring.Sink, store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attemptID := chi.URLParam(r, "attemptID")
		a, err := store.GetAttempt(r.Context(), attemptID)
		if err != nil {
			writeError(w, err)
			return
		}
		rep, err := sink.BuildReport(r.Context(), attemptID, a.Completed)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, rep)
	}
}

// MountSnapshotAssets serves stored webcam frames back to reviewers.
// GET /proctoring/assets/* streams the blob at the trailing key.
func MountSnapshotAssets(r chi.Router, bs storage.BlobStore) {
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		rc, err := bs.Get(key)
		if err != nil {
			writeJSONError(w, http.StatusNotFound, "not found")
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = io.Copy(w, rc)
	})
}
