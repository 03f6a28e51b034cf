package api

import (
	"context"
	"errors"

	"clapper/internal/queue"
)

// SubmissionReader abstracts the store queries needed by the API.
type SubmissionReader interface {
	List(ctx context.Context, limit int, statuses ...queue.Status) ([]*queue.Submission, error)
	Stats(ctx context.Context) (queue.Stats, error)
	Get(ctx context.Context, id int64) (*queue.Submission, error)
}

// SubmissionService exposes read-only submission queries returning API DTOs.
type SubmissionService struct {
	store SubmissionReader
}

// NewSubmissionService constructs a SubmissionService around the provided reader.
func NewSubmissionService(store SubmissionReader) *SubmissionService {
	if store == nil {
		return nil
	}
	return &SubmissionService{store: store}
}

// List returns submissions newest first, filtered by status.
func (s *SubmissionService) List(ctx context.Context, limit int, statuses ...queue.Status) ([]Submission, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	subs, err := s.store.List(ctx, limit, statuses...)
	if err != nil {
		return nil, err
	}
	return FromSubmissions(subs), nil
}

// Stats returns submission counts keyed by status string.
func (s *SubmissionService) Stats(ctx context.Context) (map[string]int, error) {
	if s == nil || s.store == nil {
		return MergeStats(nil), nil
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return MergeStats(stats), nil
}

// Describe fetches a single submission. A missing id returns nil, nil.
func (s *SubmissionService) Describe(ctx context.Context, id int64) (*Submission, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	sub, err := s.store.Get(ctx, id)
	if errors.Is(err, queue.ErrNotFound) {
		return nil, nil
	}
	if err != nil || sub == nil {
		return nil, err
	}
	dto := FromSubmission(sub)
	return &dto, nil
}
