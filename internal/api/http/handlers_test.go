package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	authmw "github.com/quizraft/quizraft/internal/auth/middleware"
	"github.com/quizraft/quizraft/internal/proctoring"
	"github.com/quizraft/quizraft/internal/quiz"
	"github.com/quizraft/quizraft/internal/rbac"
)

// asUser injects an authenticated identity the way JWTMiddleware would.
func asUser(userID, role, email string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := authmw.WithSubject(r.Context(), userID)
		ctx = authmw.WithEmail(ctx, email)
		ctx = rbac.WithRole(ctx, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type mapBlobs struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapBlobs() *mapBlobs { return &mapBlobs{data: map[string][]byte{}} }

func (m *mapBlobs) Put(key string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = b
	return key, nil
}

func (m *mapBlobs) Get(key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	if !ok {
		return nil, fmt.Errorf("no blob %q", key)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m *mapBlobs) SignedURL(key string) (string, error) { return "mem://" + key, nil }

func seedQuiz(t *testing.T, store quiz.Store, public bool) quiz.Quiz {
	t.Helper()
	qz := quiz.Quiz{
		ID:     "q-http",
		Title:  "Geography",
		Public: public,
		Questions: []quiz.Question{
			{ID: "mc1", Type: quiz.MultipleChoice, Text: "Capital of France?", Points: 5, Options: []quiz.Option{
				{ID: "mc1-a", Text: "Rome"},
				{ID: "mc1-b", Text: "Paris", Correct: true},
			}},
			{ID: "tf1", Type: quiz.TrueFalse, Text: "The Nile is in Africa.", Points: 5, Options: []quiz.Option{
				{ID: "tf1-t", Text: "True", Correct: true},
				{ID: "tf1-f", Text: "False"},
			}},
		},
	}
	if err := store.PutQuiz(context.Background(), qz); err != nil {
		t.Fatalf("seed quiz: %v", err)
	}
	return qz
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestCreateQuizValidation(t *testing.T) {
	store := quiz.NewInMemoryStore()
	h := CreateQuizHandler(store)

	w := postJSON(t, h, "/quizzes", map[string]any{"title": "empty"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("quiz without questions: got %d, want 400", w.Code)
	}

	w = postJSON(t, h, "/quizzes", map[string]any{
		"title": "ok",
		"questions": []map[string]any{
			{"type": "short_answer", "text": "2+2?", "points": 1, "answer_key": "4"},
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("valid quiz: got %d body %s", w.Code, w.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	if created.ID == "" {
		t.Fatal("expected a generated quiz id")
	}
	if _, err := store.GetQuiz(context.Background(), created.ID); err != nil {
		t.Fatalf("created quiz not stored: %v", err)
	}
}

func TestGetQuizHidesAnswers(t *testing.T) {
	store := quiz.NewInMemoryStore()
	seedQuiz(t, store, false)

	r := chi.NewRouter()
	r.Get("/quizzes/{quizID}", GetQuizHandler(store))

	req := httptest.NewRequest(http.MethodGet, "/quizzes/q-http", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("got %d", w.Code)
	}
	body := w.Body.String()
	if strings.Contains(body, "is_correct") || strings.Contains(body, "Paris") {
		t.Fatalf("quiz summary leaks answer material: %s", body)
	}

	req = httptest.NewRequest(http.MethodGet, "/quizzes/missing", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown quiz: got %d, want 404", w.Code)
	}
}

func TestPublicFlow(t *testing.T) {
	store := quiz.NewInMemoryStore()
	seedQuiz(t, store, true)
	svc := quiz.NewService(store)

	r := chi.NewRouter()
	r.Post("/public/attempts", PublicStartHandler(svc))
	r.Post("/public/submissions", PublicSubmitHandler(svc))

	w := postJSON(t, r, "/public/attempts", map[string]string{"quiz_id": "q-http"})
	if w.Code != http.StatusOK {
		t.Fatalf("public start: got %d body %s", w.Code, w.Body.String())
	}
	var start quiz.StartResult
	_ = json.Unmarshal(w.Body.Bytes(), &start)
	if start.AttemptID != "" || start.Mode != "ephemeral" {
		t.Fatalf("public start should be ephemeral without an attempt id, got %+v", start)
	}

	w = postJSON(t, r, "/public/submissions", map[string]any{
		"quiz_id": "q-http",
		"answers": map[string]string{"mc1": "mc1-b", "tf1": "false"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("public submit: got %d body %s", w.Code, w.Body.String())
	}
	var res quiz.Result
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.Score != 5 || res.Percentage != 50 {
		t.Fatalf("got score=%v pct=%v, want 5 / 50", res.Score, res.Percentage)
	}
	attempts, err := store.ListAttempts(context.Background(), quiz.AttemptListOpts{QuizID: "q-http"})
	if err != nil || len(attempts) != 0 {
		t.Fatalf("ephemeral run must not persist attempts: %v %v", attempts, err)
	}
}

func TestPublicStartPrivateQuizForbidden(t *testing.T) {
	store := quiz.NewInMemoryStore()
	seedQuiz(t, store, false)
	svc := quiz.NewService(store)

	w := postJSON(t, PublicStartHandler(svc), "/public/attempts", map[string]string{"quiz_id": "q-http"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("anonymous private start: got %d, want 403", w.Code)
	}
}

func TestSubmitTwiceConflicts(t *testing.T) {
	store := quiz.NewInMemoryStore()
	seedQuiz(t, store, false)
	svc := quiz.NewService(store)

	r := chi.NewRouter()
	r.Post("/attempts", StartAttemptHandler(svc))
	r.Post("/attempts/{attemptID}/submit", SubmitAttemptHandler(svc))
	h := asUser("alice", "student", "alice@example.com", r)

	w := postJSON(t, h, "/attempts", map[string]string{"quiz_id": "q-http"})
	if w.Code != http.StatusCreated {
		t.Fatalf("start: got %d body %s", w.Code, w.Body.String())
	}
	var start quiz.StartResult
	_ = json.Unmarshal(w.Body.Bytes(), &start)

	sub := map[string]any{"quiz_id": "q-http", "answers": map[string]string{"mc1": "mc1-b"}}
	w = postJSON(t, h, "/attempts/"+start.AttemptID+"/submit", sub)
	if w.Code != http.StatusOK {
		t.Fatalf("first submit: got %d body %s", w.Code, w.Body.String())
	}
	w = postJSON(t, h, "/attempts/"+start.AttemptID+"/submit", sub)
	if w.Code != http.StatusConflict {
		t.Fatalf("second submit: got %d, want 409", w.Code)
	}
}

func TestAttemptOwnership(t *testing.T) {
	store := quiz.NewInMemoryStore()
	seedQuiz(t, store, false)
	svc := quiz.NewService(store)
	checker := rbac.NewChecker(nil)

	r := chi.NewRouter()
	r.Post("/attempts", StartAttemptHandler(svc))
	r.Get("/attempts/{attemptID}", GetAttemptHandler(svc, checker))

	w := postJSON(t, asUser("alice", "student", "", r), "/attempts", map[string]string{"quiz_id": "q-http"})
	var start quiz.StartResult
	_ = json.Unmarshal(w.Body.Bytes(), &start)

	get := func(userID, role string) int {
		req := httptest.NewRequest(http.MethodGet, "/attempts/"+start.AttemptID, nil)
		rec := httptest.NewRecorder()
		asUser(userID, role, "", r).ServeHTTP(rec, req)
		return rec.Code
	}
	if code := get("alice", "student"); code != http.StatusOK {
		t.Fatalf("owner read: got %d", code)
	}
	if code := get("mallory", "student"); code != http.StatusForbidden {
		t.Fatalf("stranger read: got %d, want 403", code)
	}
	if code := get("prof", "teacher"); code != http.StatusOK {
		t.Fatalf("teacher read: got %d", code)
	}
}

func TestListAttemptsScopedForStudents(t *testing.T) {
	store := quiz.NewInMemoryStore()
	seedQuiz(t, store, false)
	svc := quiz.NewService(store)
	checker := rbac.NewChecker(nil)

	r := chi.NewRouter()
	r.Post("/attempts", StartAttemptHandler(svc))
	r.Get("/attempts", ListAttemptsHandler(svc, checker))

	for _, u := range []string{"alice", "bob"} {
		w := postJSON(t, asUser(u, "student", "", r), "/attempts", map[string]string{"quiz_id": "q-http"})
		if w.Code != http.StatusCreated {
			t.Fatalf("start for %s: %d", u, w.Code)
		}
	}

	list := func(userID, role, query string) []quiz.Attempt {
		req := httptest.NewRequest(http.MethodGet, "/attempts"+query, nil)
		rec := httptest.NewRecorder()
		asUser(userID, role, "", r).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("list as %s: %d", userID, rec.Code)
		}
		var out []quiz.Attempt
		_ = json.Unmarshal(rec.Body.Bytes(), &out)
		return out
	}

	// A student asking for someone else's attempts still only sees their own.
	got := list("alice", "student", "?user_id=bob")
	if len(got) != 1 || got[0].UserID != "alice" {
		t.Fatalf("student list not scoped to self: %+v", got)
	}
	if got := list("prof", "teacher", ""); len(got) != 2 {
		t.Fatalf("teacher should see both attempts, got %d", len(got))
	}
}

func TestProctoringIngestAndReport(t *testing.T) {
	qstore := quiz.NewInMemoryStore()
	seedQuiz(t, qstore, false)
	svc := quiz.NewService(qstore)
	blobs := newMapBlobs()
	sink := proctoring.NewSink(proctoring.NewInMemoryStore(), blobs)

	r := chi.NewRouter()
	r.Post("/attempts", StartAttemptHandler(svc))
	r.Post("/attempts/{attemptID}/submit", SubmitAttemptHandler(svc))
	r.Post("/proctoring/events", LogEventHandler(sink))
	r.Post("/proctoring/snapshots", SnapshotHandler(sink))
	r.Get("/proctoring/report/{attemptID}", ReportHandler(sink, qstore))
	r.Route("/proctoring/assets", func(ar chi.Router) { MountSnapshotAssets(ar, blobs) })
	h := asUser("alice", "student", "", r)

	w := postJSON(t, h, "/attempts", map[string]string{"quiz_id": "q-http"})
	var start quiz.StartResult
	_ = json.Unmarshal(w.Body.Bytes(), &start)

	w = postJSON(t, h, "/proctoring/events", map[string]string{
		"attempt_id": start.AttemptID,
		"event_type": proctoring.EventTabHidden,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("event: got %d body %s", w.Code, w.Body.String())
	}

	frame := base64.StdEncoding.EncodeToString([]byte("jpegbytes"))
	w = postJSON(t, h, "/proctoring/snapshots", map[string]string{
		"attempt_id": start.AttemptID,
		"quiz_id":    "q-http",
		"image_data": "data:image/jpeg;base64," + frame,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("snapshot: got %d body %s", w.Code, w.Body.String())
	}
	var img proctoring.Image
	_ = json.Unmarshal(w.Body.Bytes(), &img)

	req := httptest.NewRequest(http.MethodGet, "/proctoring/assets/"+img.ImageKey, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "jpegbytes" {
		t.Fatalf("asset fetch: %d %q", rec.Code, rec.Body.String())
	}

	w = postJSON(t, h, "/attempts/"+start.AttemptID+"/submit",
		map[string]any{"quiz_id": "q-http", "answers": map[string]string{"mc1": "mc1-b"}})
	if w.Code != http.StatusOK {
		t.Fatalf("submit: %d", w.Code)
	}

	// Telemetry trailing in after completion is still accepted.
	w = postJSON(t, h, "/proctoring/events", map[string]string{
		"attempt_id": start.AttemptID,
		"event_type": proctoring.EventTabVisible,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("late event: got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/proctoring/report/"+start.AttemptID, nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("report: %d", rec.Code)
	}
	var rep proctoring.Report
	_ = json.Unmarshal(rec.Body.Bytes(), &rep)
	if rep.Suspected {
		t.Fatalf("one snapshot, no critical events: should not be suspected: %+v", rep)
	}
	if rep.EventCount != 2 || rep.HiddenEvents != 1 || rep.ImageCount != 1 {
		t.Fatalf("report counts wrong: %+v", rep)
	}
}
