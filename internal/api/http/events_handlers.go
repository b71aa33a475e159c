package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quizraft/quizraft/internal/events"
)

// GET /audit/{key}
//
// Returns the append-only audit trail for one key (attempt id for
// completion and grading events), oldest first.
func AuditTrailHandler(repo *events.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		evs, err := repo.List(r.Context(), chi.URLParam(r, "key"))
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "audit lookup failed")
			return
		}
		writeJSON(w, http.StatusOK, evs)
	}
}
