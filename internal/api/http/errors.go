package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/quizraft/quizraft/internal/quiz"
)

// writeError maps the domain error taxonomy onto HTTP status codes:
// validation -> 400 (404 when the subject does not exist), eligibility
// -> 403, invalid state transitions -> 409, storage failures -> 500.
func writeError(w http.ResponseWriter, err error) {
	var (
		ve *quiz.ValidationError
		ee *quiz.EligibilityError
		se *quiz.StateError
		pe *quiz.PersistenceError
	)
	switch {
	case errors.As(err, &ve):
		if ve.NotFound {
			writeJSONError(w, http.StatusNotFound, ve.Msg)
			return
		}
		writeJSONError(w, http.StatusBadRequest, ve.Msg)
	case errors.As(err, &ee):
		writeJSONError(w, http.StatusForbidden, ee.Msg)
	case errors.As(err, &se):
		writeJSONError(w, http.StatusConflict, se.Msg)
	case errors.As(err, &pe):
		log.Printf("storage: %v", pe)
		writeJSONError(w, http.StatusInternalServerError, "storage failure")
	default:
		log.Printf("unhandled: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
