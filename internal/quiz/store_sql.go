package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/quizraft/quizraft/internal/events"
)

// SQLStore persists quizzes, attempts and answers on database/sql, with the
// same statements serving the sqlite and postgres drivers.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

var _ Store = (*SQLStore)(nil)

func (s *SQLStore) PutQuiz(ctx context.Context, qz Quiz) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errStorage("put quiz", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO quizzes (id,title,open_at,duration_minutes,max_attempts,is_public,access_fee,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, open_at=EXCLUDED.open_at,
			duration_minutes=EXCLUDED.duration_minutes, max_attempts=EXCLUDED.max_attempts,
			is_public=EXCLUDED.is_public, access_fee=EXCLUDED.access_fee`,
		qz.ID, qz.Title, nullInt64(qz.OpenAt), nullInt(qz.DurationMinutes), qz.MaxAttempts, qz.Public, qz.AccessFee, qz.CreatedAt)
	if err != nil {
		return errStorage("put quiz", err)
	}

	// Replace the question set wholesale; quizzes are immutable during an
	// in-progress attempt, so edits only happen between attempts.
	if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE quiz_id=$1`, qz.ID); err != nil {
		return errStorage("put quiz", err)
	}
	for i, q := range qz.Questions {
		_, err := tx.ExecContext(ctx, `INSERT INTO questions (id,quiz_id,qtype,text,points,image_key,answer_key,position)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			q.ID, qz.ID, string(q.Type), q.Text, q.Points, nullStr(q.ImageKey), nullStr(q.AnswerKey), i)
		if err != nil {
			return errStorage("put question", err)
		}
		for j, o := range q.Options {
			_, err := tx.ExecContext(ctx, `INSERT INTO options (id,question_id,text,is_correct,position)
				VALUES ($1,$2,$3,$4,$5)`,
				o.ID, q.ID, o.Text, o.Correct, j)
			if err != nil {
				return errStorage("put option", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return errStorage("put quiz", err)
	}
	return nil
}

func (s *SQLStore) GetQuiz(ctx context.Context, id string) (Quiz, error) {
	var (
		qz       Quiz
		openAt   sql.NullInt64
		duration sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id,title,open_at,duration_minutes,max_attempts,is_public,access_fee,created_at FROM quizzes WHERE id=$1`, id).
		Scan(&qz.ID, &qz.Title, &openAt, &duration, &qz.MaxAttempts, &qz.Public, &qz.AccessFee, &qz.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Quiz{}, errNotFound("quiz", id)
	}
	if err != nil {
		return Quiz{}, errStorage("get quiz", err)
	}
	qz.OpenAt = openAt.Int64
	qz.DurationMinutes = int(duration.Int64)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id,qtype,text,points,image_key,answer_key,position FROM questions WHERE quiz_id=$1 ORDER BY position`, id)
	if err != nil {
		return Quiz{}, errStorage("get questions", err)
	}
	defer rows.Close()
	byID := map[string]int{}
	for rows.Next() {
		var (
			q         Question
			imageKey  sql.NullString
			answerKey sql.NullString
		)
		if err := rows.Scan(&q.ID, &q.Type, &q.Text, &q.Points, &imageKey, &answerKey, &q.Position); err != nil {
			return Quiz{}, errStorage("get questions", err)
		}
		q.QuizID = id
		q.ImageKey = imageKey.String
		q.AnswerKey = answerKey.String
		byID[q.ID] = len(qz.Questions)
		qz.Questions = append(qz.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return Quiz{}, errStorage("get questions", err)
	}

	orows, err := s.db.QueryContext(ctx,
		`SELECT o.id,o.question_id,o.text,o.is_correct,o.position FROM options o
		 JOIN questions q ON q.id=o.question_id WHERE q.quiz_id=$1 ORDER BY o.position`, id)
	if err != nil {
		return Quiz{}, errStorage("get options", err)
	}
	defer orows.Close()
	for orows.Next() {
		var (
			o   Option
			qid string
		)
		if err := orows.Scan(&o.ID, &qid, &o.Text, &o.Correct, &o.Position); err != nil {
			return Quiz{}, errStorage("get options", err)
		}
		if i, ok := byID[qid]; ok {
			qz.Questions[i].Options = append(qz.Questions[i].Options, o)
		}
	}
	if err := orows.Err(); err != nil {
		return Quiz{}, errStorage("get options", err)
	}
	return qz, nil
}

func (s *SQLStore) CountUserAttempts(ctx context.Context, quizID, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM quiz_attempts WHERE quiz_id=$1 AND user_id=$2`, quizID, userID).Scan(&n)
	if err != nil {
		return 0, errStorage("count attempts", err)
	}
	return n, nil
}

func (s *SQLStore) CreateAttempt(ctx context.Context, a Attempt) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO quiz_attempts (id,quiz_id,user_id,started_at,completed) VALUES ($1,$2,$3,$4,$5)`,
		a.ID, a.QuizID, a.UserID, a.StartedAt, false)
	if err != nil {
		return errStorage("create attempt", err)
	}
	return nil
}

func (s *SQLStore) GetAttempt(ctx context.Context, id string) (Attempt, error) {
	var (
		a           Attempt
		submittedAt sql.NullInt64
		score       sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id,quiz_id,user_id,started_at,submitted_at,completed,score FROM quiz_attempts WHERE id=$1`, id).
		Scan(&a.ID, &a.QuizID, &a.UserID, &a.StartedAt, &submittedAt, &a.Completed, &score)
	if errors.Is(err, sql.ErrNoRows) {
		return Attempt{}, errNotFound("attempt", id)
	}
	if err != nil {
		return Attempt{}, errStorage("get attempt", err)
	}
	if submittedAt.Valid {
		a.SubmittedAt = &submittedAt.Int64
	}
	if score.Valid {
		a.Score = &score.Float64
	}
	return a, nil
}

func (s *SQLStore) ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error) {
	q := `SELECT id,quiz_id,user_id,started_at,submitted_at,completed,score FROM quiz_attempts WHERE 1=1`
	args := []any{}
	n := 0
	add := func(cond string, v any) {
		n++
		q += fmt.Sprintf(" AND %s=$%d", cond, n)
		args = append(args, v)
	}
	if opts.QuizID != "" {
		add("quiz_id", opts.QuizID)
	}
	if opts.UserID != "" {
		add("user_id", opts.UserID)
	}
	if opts.Completed != nil {
		add("completed", *opts.Completed)
	}
	q += " ORDER BY started_at DESC"
	limit := opts.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, max(opts.Offset, 0))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errStorage("list attempts", err)
	}
	defer rows.Close()
	var out []Attempt
	for rows.Next() {
		var (
			a           Attempt
			submittedAt sql.NullInt64
			score       sql.NullFloat64
		)
		if err := rows.Scan(&a.ID, &a.QuizID, &a.UserID, &a.StartedAt, &submittedAt, &a.Completed, &score); err != nil {
			return nil, errStorage("list attempts", err)
		}
		if submittedAt.Valid {
			a.SubmittedAt = &submittedAt.Int64
		}
		if score.Valid {
			a.Score = &score.Float64
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CompleteAttempt runs the check-then-act sequence as one transaction with a
// row guard on the completion flag: the UPDATE matches only an incomplete
// attempt owned by this user and quiz, so of two racing submissions exactly
// one sees a row change and the other gets StateError.
func (s *SQLStore) CompleteAttempt(ctx context.Context, rec CompletionRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errStorage("complete attempt", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE quiz_attempts SET completed=$1, score=$2, submitted_at=$3
		 WHERE id=$4 AND user_id=$5 AND quiz_id=$6 AND completed=$7`,
		true, rec.Score, rec.SubmittedAt, rec.AttemptID, rec.UserID, rec.QuizID, false)
	if err != nil {
		return errStorage("complete attempt", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errStorage("complete attempt", err)
	}
	if affected == 0 {
		// Either already completed, or the attempt/user/quiz don't line up.
		// Distinguish only for the error message; nothing was written. The
		// lookup must run on this transaction: a pool connection would block
		// on the write lock the UPDATE took (sqlite shared cache).
		var one int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM quiz_attempts WHERE id=$1`, rec.AttemptID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return errNotFound("attempt", rec.AttemptID)
		}
		if err != nil {
			return errStorage("complete attempt", err)
		}
		return errState("attempt %s already completed or not owned by caller", rec.AttemptID)
	}

	for _, ans := range rec.Answers {
		id := ans.ID
		if id == "" {
			id = uuid.NewString()
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO answers (id,attempt_id,question_id,value,correct,awarded) VALUES ($1,$2,$3,$4,$5,$6)`,
			id, rec.AttemptID, ans.QuestionID, ans.Value, nullBool(ans.Correct), ans.Awarded)
		if err != nil {
			return errStorage("write answers", err)
		}
	}

	data, _ := json.Marshal(map[string]any{"quiz_id": rec.QuizID, "user_id": rec.UserID, "score": rec.Score})
	if err := events.AppendTx(ctx, tx, events.Event{
		Type:     events.TypeAttemptCompleted,
		Key:      rec.AttemptID,
		DataJSON: string(data),
	}); err != nil {
		return errStorage("append event", err)
	}

	if err := tx.Commit(); err != nil {
		return errStorage("complete attempt", err)
	}
	return nil
}

func (s *SQLStore) GetAnswers(ctx context.Context, attemptID string) ([]Answer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,attempt_id,question_id,value,correct,awarded FROM answers WHERE attempt_id=$1`, attemptID)
	if err != nil {
		return nil, errStorage("get answers", err)
	}
	defer rows.Close()
	var out []Answer
	for rows.Next() {
		var (
			a       Answer
			correct sql.NullBool
		)
		if err := rows.Scan(&a.ID, &a.AttemptID, &a.QuestionID, &a.Value, &correct, &a.Awarded); err != nil {
			return nil, errStorage("get answers", err)
		}
		if correct.Valid {
			a.Correct = &correct.Bool
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) ApplyManualGrades(ctx context.Context, attemptID string, updates map[string]ManualGrade, gradedBy string) (Attempt, error) {
	a, err := s.GetAttempt(ctx, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	if !a.Completed {
		return Attempt{}, errState("attempt %s not completed; nothing to review", attemptID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Attempt{}, errStorage("manual grades", err)
	}
	defer tx.Rollback()

	for qid, g := range updates {
		res, err := tx.ExecContext(ctx,
			`UPDATE answers SET correct=$1, awarded=$2 WHERE attempt_id=$3 AND question_id=$4`,
			g.Correct, g.Awarded, attemptID, qid)
		if err != nil {
			return Attempt{}, errStorage("manual grades", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return Attempt{}, errNotFound("answer for question", qid)
		}
	}

	var score float64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(awarded),0) FROM answers WHERE attempt_id=$1`, attemptID).Scan(&score); err != nil {
		return Attempt{}, errStorage("manual grades", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE quiz_attempts SET score=$1 WHERE id=$2`, score, attemptID); err != nil {
		return Attempt{}, errStorage("manual grades", err)
	}

	data, _ := json.Marshal(map[string]any{"graded_by": gradedBy, "score": score})
	if err := events.AppendTx(ctx, tx, events.Event{
		Type:     events.TypeManualGraded,
		Key:      attemptID,
		DataJSON: string(data),
	}); err != nil {
		return Attempt{}, errStorage("manual grades", err)
	}

	if err := tx.Commit(); err != nil {
		return Attempt{}, errStorage("manual grades", err)
	}
	return s.GetAttempt(ctx, attemptID)
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt64(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}

func nullInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}

func nullBool(b *bool) any {
	if b == nil {
		return nil
	}
	return *b
}
