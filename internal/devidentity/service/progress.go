package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/samimwebdev/jsninja/internal/devidentity/domain"
	"github.com/samimwebdev/jsninja/internal/devidentity/store"
)

// ProgressService stores per-course progress documents. It is the sample
// content API behind the web front end's proxy.
type ProgressService struct {
	Store store.Store
}

func (s *ProgressService) Get(ctx context.Context, userID, course string) (domain.Progress, error) {
	p, err := s.Store.Progress().GetProgress(ctx, userID, course)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Progress{}, ErrProgressMissing
	}
	return p, err
}

func (s *ProgressService) Put(ctx context.Context, userID, course string, data json.RawMessage) (domain.Progress, error) {
	if len(data) == 0 || !json.Valid(data) {
		return domain.Progress{}, ErrInvalidProgress
	}

	p := domain.Progress{
		UserID:    userID,
		Course:    course,
		Data:      data,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.Store.Progress().PutProgress(ctx, p); err != nil {
		return domain.Progress{}, err
	}
	return p, nil
}
