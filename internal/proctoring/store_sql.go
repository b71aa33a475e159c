package proctoring

import (
	"context"
	"database/sql"
)

// SQLStore persists telemetry rows. No foreign key ties these tables to
// quiz_attempts: rows for unknown or finished attempts must still land.
type SQLStore struct{ db *sql.DB }

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

var _ Store = (*SQLStore)(nil)

func (s *SQLStore) AppendLog(ctx context.Context, l Log) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO proctoring_logs (attempt_id,user_id,event_type,log_data,created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		l.AttemptID, l.UserID, l.EventType, l.LogData, l.CreatedAt)
	return err
}

func (s *SQLStore) InsertImage(ctx context.Context, img Image) (Image, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO proctoring_images (attempt_id,user_id,quiz_id,image_key,captured_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		img.AttemptID, img.UserID, img.QuizID, img.ImageKey, img.CapturedAt)
	if err != nil {
		return Image{}, err
	}
	return img, nil
}

func (s *SQLStore) ListLogs(ctx context.Context, attemptID string) ([]Log, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,attempt_id,user_id,event_type,log_data,created_at
		 FROM proctoring_logs WHERE attempt_id=$1 ORDER BY id`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Log
	for rows.Next() {
		var l Log
		if err := rows.Scan(&l.ID, &l.AttemptID, &l.UserID, &l.EventType, &l.LogData, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *SQLStore) CountImages(ctx context.Context, attemptID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM proctoring_images WHERE attempt_id=$1`, attemptID).Scan(&n)
	return n, err
}
