package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a submission id does not exist.
var ErrNotFound = errors.New("submission not found")

const submissionColumns = "id, request_id, name, email, phone, subject, message, remote_addr, status, attempts, last_error, created_at, updated_at, sent_at"

func scanSubmission(scanner interface{ Scan(dest ...any) error }) (*Submission, error) {
	var (
		sub        Submission
		status     string
		phone      sql.NullString
		subject    sql.NullString
		remoteAddr sql.NullString
		lastError  sql.NullString
		createdRaw sql.NullString
		updatedRaw sql.NullString
		sentRaw    sql.NullString
	)
	if err := scanner.Scan(
		&sub.ID,
		&sub.RequestID,
		&sub.Name,
		&sub.Email,
		&phone,
		&subject,
		&sub.Message,
		&remoteAddr,
		&status,
		&sub.Attempts,
		&lastError,
		&createdRaw,
		&updatedRaw,
		&sentRaw,
	); err != nil {
		return nil, err
	}
	sub.Phone = phone.String
	sub.Subject = subject.String
	sub.RemoteAddr = remoteAddr.String
	sub.Status = Status(status)
	sub.LastError = lastError.String
	sub.CreatedAt = parseTime(createdRaw)
	sub.UpdatedAt = parseTime(updatedRaw)
	sub.SentAt = parseTime(sentRaw)
	return &sub, nil
}

func nullable(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

// Record inserts a new pending submission.
func (s *Store) Record(ctx context.Context, in NewSubmission) (*Submission, error) {
	if strings.TrimSpace(in.RequestID) == "" {
		return nil, errors.New("record submission: request id is required")
	}
	now := s.timestamp()
	res, err := s.exec(ctx,
		`INSERT INTO contact_submissions
            (request_id, name, email, phone, subject, message, remote_addr, status, attempts, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		in.RequestID, in.Name, in.Email, nullable(in.Phone), nullable(in.Subject), in.Message, nullable(in.RemoteAddr),
		StatusPending, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert submission: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("submission id: %w", err)
	}
	return s.Get(ctx, id)
}

// Get fetches one submission by id.
func (s *Store) Get(ctx context.Context, id int64) (*Submission, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+submissionColumns+" FROM contact_submissions WHERE id = ?", id)
	sub, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get submission %d: %w", id, err)
	}
	return sub, nil
}

// List returns submissions newest first, optionally filtered by status.
// A limit of zero or less returns every match.
func (s *Store) List(ctx context.Context, limit int, statuses ...Status) ([]*Submission, error) {
	query := "SELECT " + submissionColumns + " FROM contact_submissions"
	args := make([]any, 0, len(statuses)+1)
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		query += " WHERE status IN (" + strings.Join(placeholders, ", ") + ")"
	}
	query += " ORDER BY id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var out []*Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// MarkSending moves a submission into sending and bumps its attempt counter.
func (s *Store) MarkSending(ctx context.Context, id int64) error {
	return s.transition(ctx, id,
		`UPDATE contact_submissions SET status = ?, attempts = attempts + 1, updated_at = ? WHERE id = ?`,
		StatusSending, s.timestamp(), id)
}

// MarkSent records successful delivery.
func (s *Store) MarkSent(ctx context.Context, id int64) error {
	now := s.timestamp()
	return s.transition(ctx, id,
		`UPDATE contact_submissions SET status = ?, last_error = NULL, sent_at = ?, updated_at = ? WHERE id = ?`,
		StatusSent, now, now, id)
}

// MarkFailed records a delivery failure and its reason.
func (s *Store) MarkFailed(ctx context.Context, id int64, reason string) error {
	return s.transition(ctx, id,
		`UPDATE contact_submissions SET status = ?, last_error = ?, updated_at = ? WHERE id = ?`,
		StatusFailed, strings.TrimSpace(reason), s.timestamp(), id)
}

func (s *Store) transition(ctx context.Context, id int64, query string, args ...any) error {
	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update submission %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update submission %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}

// ResetInterrupted fails submissions left in sending by a previous daemon run.
// Resending automatically could deliver the same message twice.
func (s *Store) ResetInterrupted(ctx context.Context) (int64, error) {
	res, err := s.exec(ctx,
		`UPDATE contact_submissions SET status = ?, last_error = ?, updated_at = ? WHERE status = ?`,
		StatusFailed, InterruptedReason, s.timestamp(), StatusSending)
	if err != nil {
		return 0, fmt.Errorf("reset interrupted submissions: %w", err)
	}
	return res.RowsAffected()
}

// PurgeSent deletes delivered submissions created before the cutoff.
func (s *Store) PurgeSent(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.exec(ctx,
		`DELETE FROM contact_submissions WHERE status = ? AND created_at < ?`,
		StatusSent, before.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("purge sent submissions: %w", err)
	}
	return res.RowsAffected()
}

// Stats counts submissions per status.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM contact_submissions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("submission stats: %w", err)
	}
	defer rows.Close()

	stats := make(Stats, len(allStatuses))
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats[Status(status)] = count
	}
	return stats, rows.Err()
}
