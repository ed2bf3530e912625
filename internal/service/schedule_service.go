package service

import (
	"context"

	"github.com/stemsi/cohortsched-backend/internal/cohort"
	"github.com/stemsi/cohortsched-backend/internal/model"
)

// ScheduleService serves read-only schedule lookups.
type ScheduleService struct {
	store ScheduleStore
}

// NewScheduleService creates a new ScheduleService.
func NewScheduleService(store ScheduleStore) *ScheduleService {
	return &ScheduleService{store: store}
}

// ListSessions returns the ordered sessions of a cohort.
func (s *ScheduleService) ListSessions(ctx context.Context, p cohort.Partition) ([]model.Session, error) {
	sessions, err := s.store.ListSessions(ctx, p)
	if err != nil {
		return nil, classify("ListSessions", "load sessions", err)
	}
	if sessions == nil {
		sessions = []model.Session{}
	}
	return sessions, nil
}
