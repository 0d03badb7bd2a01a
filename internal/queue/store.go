package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store manages dub job persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the job database at dbPath.
func Open(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, errors.New("queue: database path required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the on-disk location of the job database.
func (s *Store) Path() string {
	return s.path
}

// NewJob inserts a pending job for the given video and diarization document.
func (s *Store) NewJob(ctx context.Context, jobKey, videoPath, diarizationPath, sourceLang, targetLang string) (*Job, error) {
	if strings.TrimSpace(jobKey) == "" {
		return nil, errors.New("queue: job key required")
	}
	if strings.TrimSpace(videoPath) == "" {
		return nil, errors.New("queue: video path required")
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO dub_jobs (
            job_key, video_path, diarization_path, status,
            source_language, target_language, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		jobKey, videoPath, diarizationPath, StatusPending,
		sourceLang, targetLang, timestamp, timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a single job; returns nil when it does not exist.
func (s *Store) GetByID(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" FROM dub_jobs WHERE id = ?", id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return job, err
}

// GetByKey fetches a job by its unique key; returns nil when absent.
func (s *Store) GetByKey(ctx context.Context, jobKey string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" FROM dub_jobs WHERE job_key = ?", jobKey)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return job, err
}

// Update persists the mutable fields of a job.
func (s *Store) Update(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("queue: nil job")
	}
	if !ValidStatus(job.Status) {
		return fmt.Errorf("queue: invalid status %q", job.Status)
	}
	job.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`UPDATE dub_jobs SET
            status = ?, diarization_path = ?, output_path = ?, error_message = ?,
            progress_percent = ?, progress_message = ?,
            segments_total = ?, segments_skipped = ?, updated_at = ?
         WHERE id = ?`,
		job.Status, job.DiarizationPath, job.OutputPath, job.ErrorMessage,
		job.ProgressPercent, job.ProgressMessage,
		job.SegmentsTotal, job.SegmentsSkipped, job.UpdatedAt.Format(time.RFC3339Nano),
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("update job %d: %w", job.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("queue: job %d not found", job.ID)
	}
	return nil
}

// SetProgress updates only the progress columns; cheap enough for callbacks.
func (s *Store) SetProgress(ctx context.Context, id int64, percent int, message string) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	_, err := s.db.ExecContext(ctx,
		"UPDATE dub_jobs SET progress_percent = ?, progress_message = ?, updated_at = ? WHERE id = ?",
		percent, message, time.Now().UTC().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return fmt.Errorf("update progress for job %d: %w", id, err)
	}
	return nil
}

// List returns jobs ordered by creation time, optionally filtered by status.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	query := selectColumns + " FROM dub_jobs"
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		query += " WHERE status IN (" + strings.Join(placeholders, ", ") + ")"
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// ResetStuckProcessing returns in-flight jobs left by a crashed run to
// pending so they can be retried.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	placeholders := make([]string, 0, len(processingStatuses))
	args := make([]any, 0, len(processingStatuses)+1)
	args = append(args, StatusPending)
	for status := range processingStatuses {
		placeholders = append(placeholders, "?")
		args = append(args, status)
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE dub_jobs SET status = ?, progress_percent = 0, progress_message = '' WHERE status IN ("+strings.Join(placeholders, ", ")+")",
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck jobs: %w", err)
	}
	return res.RowsAffected()
}

// Health aggregates job counts for status output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(1) FROM dub_jobs GROUP BY status")
	if err != nil {
		return HealthSummary{}, fmt.Errorf("health query: %w", err)
	}
	defer rows.Close()

	summary := HealthSummary{}
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return HealthSummary{}, fmt.Errorf("scan health row: %w", err)
		}
		summary.Total += count
		switch {
		case status == StatusPending:
			summary.Pending += count
		case status.Processing():
			summary.Processing += count
		case status == StatusCompleted:
			summary.Completed += count
		case status == StatusFailed || status == StatusReview:
			summary.Failed += count
		}
	}
	return summary, rows.Err()
}

// Remove deletes a job row; reports whether anything was deleted.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM dub_jobs WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("remove job %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ClearCompleted deletes finished jobs and returns the number removed.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM dub_jobs WHERE status = ?", StatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("clear completed: %w", err)
	}
	return res.RowsAffected()
}

const selectColumns = `SELECT id, job_key, video_path, diarization_path, status,
    source_language, target_language, output_path, error_message,
    progress_percent, progress_message, segments_total, segments_skipped,
    created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var job Job
	var createdAt, updatedAt string
	err := row.Scan(
		&job.ID, &job.JobKey, &job.VideoPath, &job.DiarizationPath, &job.Status,
		&job.SourceLanguage, &job.TargetLanguage, &job.OutputPath, &job.ErrorMessage,
		&job.ProgressPercent, &job.ProgressMessage, &job.SegmentsTotal, &job.SegmentsSkipped,
		&createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan job: %w", err)
	}
	if ts, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
		job.CreatedAt = ts
	}
	if ts, parseErr := time.Parse(time.RFC3339Nano, updatedAt); parseErr == nil {
		job.UpdatedAt = ts
	}
	return &job, nil
}
