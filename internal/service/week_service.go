package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stemsi/cohortsched-backend/internal/batch"
	"github.com/stemsi/cohortsched-backend/internal/cohort"
	"github.com/stemsi/cohortsched-backend/internal/lock"
	"github.com/stemsi/cohortsched-backend/internal/model"
)

const daysPerWeek = 7

// SessionMove is the repair applied to one session that follows a deleted week.
type SessionMove struct {
	SessionID     int       `json:"session_id"`
	SessionNumber int       `json:"session_number"`
	FromWeek      int       `json:"from_week"`
	ToWeek        int       `json:"to_week"`
	FromDate      time.Time `json:"from_date"`
	ToDate        time.Time `json:"to_date"`
	Day           string    `json:"day"`
}

// WeekPlan is everything a week deletion will do, computed from one snapshot.
type WeekPlan struct {
	Week        int
	Target      []model.Session
	Moves       []SessionMove
	DaysShifted int
}

// DeleteWeekResult reports the outcome of a week deletion.
type DeleteWeekResult struct {
	Partition      string          `json:"partition"`
	WeekNumber     int             `json:"week_number"`
	DeletedCount   int             `json:"deleted_count"`
	UpdatedCount   int             `json:"updated_count"`
	FailedCount    int             `json:"failed_count"`
	DaysShifted    int             `json:"days_shifted"`
	PartialFailure bool            `json:"partial_failure"`
	Failures       []batch.Failure `json:"failures,omitempty"`
}

// PlanWeekDeletion splits sessions around week and computes the new week number and
// date of every later session. It fails with ErrNotFound when week has no sessions.
func PlanWeekDeletion(sessions []model.Session, week int) (WeekPlan, error) {
	ordered := append([]model.Session(nil), sessions...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].WeekNumber != ordered[j].WeekNumber {
			return ordered[i].WeekNumber < ordered[j].WeekNumber
		}
		return ordered[i].SessionNumber < ordered[j].SessionNumber
	})

	plan := WeekPlan{Week: week}
	var after []model.Session
	for _, s := range ordered {
		switch {
		case s.WeekNumber == week:
			plan.Target = append(plan.Target, s)
		case s.WeekNumber > week:
			after = append(after, s)
		}
	}
	if len(plan.Target) == 0 {
		return WeekPlan{}, opErr("DeleteWeek", ErrNotFound, fmt.Sprintf("week %d has no sessions", week), nil)
	}

	plan.DaysShifted = DayShift(plan.Target)
	for _, s := range after {
		to := model.DateOnly(s.Date).AddDate(0, 0, -plan.DaysShifted)
		plan.Moves = append(plan.Moves, SessionMove{
			SessionID:     s.ID,
			SessionNumber: s.SessionNumber,
			FromWeek:      s.WeekNumber,
			ToWeek:        s.WeekNumber - 1,
			FromDate:      model.DateOnly(s.Date),
			ToDate:        to,
			Day:           model.WeekdayName(to),
		})
	}
	return plan, nil
}

// DayShift is how far later sessions move back when week is removed: the span from
// the week's first to its last session, rounded up to whole weeks so weekdays are
// preserved. Weeks with fewer than two sessions shift by exactly one week.
func DayShift(week []model.Session) int {
	if len(week) < 2 {
		return daysPerWeek
	}
	first, last := week[0].Date, week[0].Date
	for _, s := range week[1:] {
		if s.Date.Before(first) {
			first = s.Date
		}
		if s.Date.After(last) {
			last = s.Date
		}
	}
	span := model.DaysBetween(first, last)
	weeks := (span + daysPerWeek - 1) / daysPerWeek
	if weeks < 1 {
		weeks = 1
	}
	return weeks * daysPerWeek
}

// WeekService deletes weeks and repairs the sequence that follows them.
type WeekService struct {
	store     ScheduleStore
	locker    lock.Locker
	publisher EventPublisher
	log       zerolog.Logger
}

// NewWeekService creates a new WeekService. publisher may be nil.
func NewWeekService(store ScheduleStore, locker lock.Locker, publisher EventPublisher, log zerolog.Logger) *WeekService {
	if locker == nil {
		locker = lock.Nop{}
	}
	return &WeekService{
		store:     store,
		locker:    locker,
		publisher: publisher,
		log:       log.With().Str("component", "week_service").Logger(),
	}
}

// DeleteWeek removes every session of week and moves each later session one week
// earlier, re-dating it by the plan's day shift. Later sessions are repaired one by
// one; a failed repair is reported, never rolled back.
func (s *WeekService) DeleteWeek(ctx context.Context, p cohort.Partition, week int) (*DeleteWeekResult, error) {
	const op = "DeleteWeek"
	if p == "" {
		return nil, opErr(op, ErrValidation, "cohort partition is required", nil)
	}
	if week < 1 {
		return nil, opErr(op, ErrValidation, "week number must be positive", nil)
	}

	lease, err := s.locker.Acquire(ctx, string(p))
	if err != nil {
		return nil, classify(op, "acquire cohort lease", err)
	}
	defer s.release(lease)

	sessions, err := s.store.ListSessions(ctx, p)
	if err != nil {
		return nil, classify(op, "load sessions", err)
	}

	plan, err := PlanWeekDeletion(sessions, week)
	if err != nil {
		return nil, err
	}

	deleted, err := s.store.DeleteWeek(ctx, p, week)
	if err != nil {
		return nil, opErr(op, ErrStorage, fmt.Sprintf("delete week %d", week), err)
	}

	log := s.log.With().Str("partition", string(p)).Int("week", week).Logger()
	report := batch.Run(ctx, log, plan.Moves,
		func(m SessionMove) string { return fmt.Sprintf("session:%d", m.SessionID) },
		func(ctx context.Context, m SessionMove) error {
			toWeek, toDate, day := m.ToWeek, m.ToDate, m.Day
			return s.store.UpdateSessionFields(ctx, p, m.SessionID, model.SessionUpdate{
				WeekNumber: &toWeek,
				Date:       &toDate,
				Day:        &day,
			})
		})

	s.release(lease)

	result := &DeleteWeekResult{
		Partition:      string(p),
		WeekNumber:     week,
		DeletedCount:   int(deleted),
		UpdatedCount:   report.Succeeded,
		FailedCount:    report.Failed(),
		DaysShifted:    plan.DaysShifted,
		PartialFailure: report.Partial(),
		Failures:       report.Failures,
	}

	log.Info().
		Int("deleted", result.DeletedCount).
		Int("updated", result.UpdatedCount).
		Int("failed", result.FailedCount).
		Int("days_shifted", result.DaysShifted).
		Msg("Week deleted")

	name, _, _ := cohort.DisplayName(p)
	s.publish(ctx, model.ScheduleEvent{
		Kind:        model.EventWeekDeleted,
		Partition:   string(p),
		CohortName:  name,
		WeekNumber:  week,
		Deleted:     result.DeletedCount,
		Updated:     result.UpdatedCount,
		DaysShifted: result.DaysShifted,
	})

	return result, nil
}

func (s *WeekService) release(lease lock.Lease) {
	if err := lease.Release(context.Background()); err != nil {
		s.log.Warn().Err(err).Msg("Failed to release cohort lease")
	}
}

func (s *WeekService) publish(ctx context.Context, ev model.ScheduleEvent) {
	publishEvent(ctx, s.publisher, s.log, ev)
}

func publishEvent(ctx context.Context, publisher EventPublisher, log zerolog.Logger, ev model.ScheduleEvent) {
	if publisher == nil {
		return
	}
	ev.ID = uuid.NewString()
	ev.OccurredAt = time.Now().UTC()
	if err := publisher.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).Str("kind", string(ev.Kind)).Msg("Failed to publish schedule event")
	}
}

// Err is ErrPartialFailure when some later sessions could not be moved, nil otherwise.
func (r *DeleteWeekResult) Err() error {
	return partialErr("DeleteWeek", r.FailedCount)
}
