package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"signbot/internal/domain"
)

const (
	ddlSubmissions = `CREATE TABLE IF NOT EXISTS submissions (
		id BIGSERIAL PRIMARY KEY,
		chat_id BIGINT NOT NULL,
		user_id BIGINT NOT NULL DEFAULT 0,
		username TEXT NOT NULL DEFAULT '',
		signer_name TEXT NOT NULL,
		filename TEXT NOT NULL,
		drive_file_id TEXT NOT NULL,
		size BIGINT NOT NULL DEFAULT 0,
		source TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`
	ddlSubmissionsIndex = `CREATE INDEX IF NOT EXISTS idx_submissions_created_at ON submissions (created_at);`

	insertSubmission = `INSERT INTO submissions
		(chat_id, user_id, username, signer_name, filename, drive_file_id, size, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at;`
	selectRecent = `SELECT id, chat_id, user_id, username, signer_name, filename, drive_file_id, size, source, created_at
		FROM submissions ORDER BY created_at DESC, id DESC LIMIT $1;`
)

// SubmissionRepository persists accepted submissions.
type SubmissionRepository struct {
	DB  *DB
	DSN string

	schemaMu    sync.Mutex
	schemaReady bool
}

// NewSubmissionRepository binds a repository to a DSN.
func NewSubmissionRepository(db *DB, dsn string) *SubmissionRepository {
	return &SubmissionRepository{DB: db, DSN: dsn}
}

func (r *SubmissionRepository) conn(ctx context.Context) (*sql.DB, error) {
	db, err := r.DB.Get(r.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := r.ensureSchema(ctx, db); err != nil {
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the submissions table once per repository.
func (r *SubmissionRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.conn(ctx)
	return err
}

func (r *SubmissionRepository) ensureSchema(ctx context.Context, db *sql.DB) error {
	r.schemaMu.Lock()
	defer r.schemaMu.Unlock()
	if r.schemaReady {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, ddlSubmissions); err != nil {
		return fmt.Errorf("create submissions table: %w", err)
	}
	if _, err := db.ExecContext(ctx, ddlSubmissionsIndex); err != nil {
		return fmt.Errorf("create submissions index: %w", err)
	}
	r.schemaReady = true
	return nil
}

// Record stores s and returns it with ID and CreatedAt filled in.
func (r *SubmissionRepository) Record(ctx context.Context, s domain.Submission) (domain.Submission, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return s, err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	row := db.QueryRowContext(ctx, insertSubmission,
		s.ChatID, s.UserID, s.Username, s.SignerName, s.Filename, s.DriveFileID, s.Size, string(s.Source))
	if err := row.Scan(&s.ID, &s.CreatedAt); err != nil {
		return s, fmt.Errorf("insert submission: %w", err)
	}
	return s, nil
}

// ListRecent returns up to limit submissions, newest first.
func (r *SubmissionRepository) ListRecent(ctx context.Context, limit int) ([]domain.Submission, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := db.QueryContext(ctx, selectRecent, limit)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Submission, 0, limit)
	for rows.Next() {
		var s domain.Submission
		var source string
		if err := rows.Scan(&s.ID, &s.ChatID, &s.UserID, &s.Username, &s.SignerName,
			&s.Filename, &s.DriveFileID, &s.Size, &source, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		s.Source = domain.Source(source)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
