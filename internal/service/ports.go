package service

import (
	"context"

	"github.com/stemsi/cohortsched-backend/internal/cohort"
	"github.com/stemsi/cohortsched-backend/internal/model"
	"github.com/stemsi/cohortsched-backend/internal/notify"
)

// ScheduleStore is the per-cohort session storage.
type ScheduleStore interface {
	ListSessions(ctx context.Context, p cohort.Partition) ([]model.Session, error)
	GetSession(ctx context.Context, p cohort.Partition, id int) (*model.Session, error)
	UpdateSessionFields(ctx context.Context, p cohort.Partition, id int, u model.SessionUpdate) error
	DeleteWeek(ctx context.Context, p cohort.Partition, week int) (int64, error)
	ListRecordedByMentor(ctx context.Context, p cohort.Partition, mentorID int) ([]model.Session, error)
	ListRecordedBySubstitute(ctx context.Context, p cohort.Partition, mentorID int) ([]model.Session, error)
}

// Directory looks up cohorts and the people attached to them.
type Directory interface {
	ListCohorts(ctx context.Context) ([]model.Cohort, error)
	GetMentor(ctx context.Context, id int) (*model.Mentor, error)
	ListMentorIDs(ctx context.Context) ([]int, error)
	ListCoordinators(ctx context.Context) ([]model.Recipient, error)
	ListStudents(ctx context.Context, cohortType, cohortNumber string) ([]model.Recipient, error)
}

// LedgerStore persists attendance ledger rows.
type LedgerStore interface {
	Upsert(ctx context.Context, e *model.AttendanceLedgerEntry) error
	GetByMentor(ctx context.Context, mentorID int) (*model.AttendanceLedgerEntry, error)
}

// EventPublisher announces committed schedule mutations.
type EventPublisher interface {
	Publish(ctx context.Context, event model.ScheduleEvent) error
}

// RecomputeQueue schedules background attendance recomputation.
type RecomputeQueue interface {
	Enqueue(ctx context.Context, mentorIDs ...int) error
}

// Broadcaster fans a notice out to a list of recipients.
type Broadcaster interface {
	Broadcast(ctx context.Context, recipients []model.Recipient, pacer notify.Pacer, compose func(model.Recipient) notify.RescheduleNotice) notify.Tally
}
