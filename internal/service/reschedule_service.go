package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/cohortsched-backend/internal/batch"
	"github.com/stemsi/cohortsched-backend/internal/cohort"
	"github.com/stemsi/cohortsched-backend/internal/lock"
	"github.com/stemsi/cohortsched-backend/internal/model"
	"github.com/stemsi/cohortsched-backend/internal/notify"
)

// RescheduleInput identifies the session to move and where to move it.
type RescheduleInput struct {
	Partition  cohort.Partition
	SessionID  int
	NewDate    string
	NewTime    *string
	Action     model.RescheduleAction
	MentorName string
}

// RescheduleResult reports the mutation and the per-audience delivery counts.
type RescheduleResult struct {
	SessionID           int             `json:"session_id"`
	CohortName          string          `json:"cohort_name"`
	Previous            notify.Slot     `json:"previous"`
	Next                notify.Slot     `json:"next"`
	FieldsUpdated       []string        `json:"fields_updated"`
	FieldFailures       []batch.Failure `json:"field_failures,omitempty"`
	SuperMentorNotified notify.Tally    `json:"super_mentor_notified"`
	StudentNotified     notify.Tally    `json:"student_notified"`
	StudentsResolved    bool            `json:"students_resolved"`
	PartialFailure      bool            `json:"partial_failure"`
	Warnings            []string        `json:"warnings,omitempty"`
}

// RescheduleService moves single sessions and tells everyone affected.
type RescheduleService struct {
	store     ScheduleStore
	directory Directory
	notifier  Broadcaster
	pacing    notify.PacingPolicy
	locker    lock.Locker
	publisher EventPublisher
	sender    string
	log       zerolog.Logger
}

// NewRescheduleService creates a new RescheduleService. sender signs outgoing notices.
func NewRescheduleService(
	store ScheduleStore,
	directory Directory,
	notifier Broadcaster,
	pacing notify.PacingPolicy,
	locker lock.Locker,
	publisher EventPublisher,
	sender string,
	log zerolog.Logger,
) *RescheduleService {
	if locker == nil {
		locker = lock.Nop{}
	}
	return &RescheduleService{
		store:     store,
		directory: directory,
		notifier:  notifier,
		pacing:    pacing,
		locker:    locker,
		publisher: publisher,
		sender:    sender,
		log:       log.With().Str("component", "reschedule_service").Logger(),
	}
}

type fieldUpdate struct {
	name   string
	update model.SessionUpdate
}

// Reschedule moves a session to a new date (and optionally time), clears its meeting
// link, then notifies every coordinator and the cohort's students. Notification
// failures are tallied; they never fail the call once the session has changed.
func (s *RescheduleService) Reschedule(ctx context.Context, in RescheduleInput) (*RescheduleResult, error) {
	const op = "Reschedule"

	newDate, newTime, err := validateReschedule(in)
	if err != nil {
		return nil, opErr(op, ErrValidation, err.Error(), nil)
	}
	newDay := model.WeekdayName(newDate)

	lease, err := s.locker.Acquire(ctx, string(in.Partition))
	if err != nil {
		return nil, classify(op, "acquire cohort lease", err)
	}
	defer s.release(lease)

	session, err := s.store.GetSession(ctx, in.Partition, in.SessionID)
	if err != nil {
		return nil, classify(op, fmt.Sprintf("load session %d", in.SessionID), err)
	}

	updates := []fieldUpdate{
		{name: "date", update: model.SessionUpdate{Date: &newDate, Day: &newDay}},
		{name: "meeting_link", update: model.SessionUpdate{ClearMeetingLink: true}},
	}
	if newTime != nil {
		updates = append(updates, fieldUpdate{name: "time", update: model.SessionUpdate{Time: newTime}})
	}

	log := s.log.With().Str("partition", string(in.Partition)).Int("session_id", in.SessionID).Logger()
	var applied []string
	report := batch.Run(ctx, log, updates,
		func(f fieldUpdate) string { return f.name },
		func(ctx context.Context, f fieldUpdate) error {
			if err := s.store.UpdateSessionFields(ctx, in.Partition, in.SessionID, f.update); err != nil {
				return err
			}
			applied = append(applied, f.name)
			return nil
		})
	if report.Succeeded == 0 {
		return nil, opErr(op, ErrStorage, fmt.Sprintf("update session %d", in.SessionID), errors.New(report.Failures[0].Error))
	}
	s.release(lease)

	name, key, resolvable := cohort.DisplayName(in.Partition)
	result := &RescheduleResult{
		SessionID:        in.SessionID,
		CohortName:       name,
		Previous:         slotOf(session.Date, session.Day, session.Time),
		FieldsUpdated:    applied,
		FieldFailures:    report.Failures,
		StudentsResolved: resolvable,
	}
	nextTime := session.Time
	if newTime != nil {
		nextTime = newTime
	}
	result.Next = slotOf(newDate, newDay, nextTime)

	publishEvent(ctx, s.publisher, s.log, model.ScheduleEvent{
		Kind:       model.EventSessionRescheduled,
		Partition:  string(in.Partition),
		CohortName: name,
		WeekNumber: session.WeekNumber,
		SessionID:  in.SessionID,
		Action:     string(in.Action),
		NewDate:    result.Next.Date,
		NewTime:    result.Next.Time,
	})

	compose := func(r model.Recipient) notify.RescheduleNotice {
		return notify.RescheduleNotice{
			Sender:        s.sender,
			RecipientName: r.Name,
			Coordinator:   r.Kind == model.RecipientCoordinator,
			CohortName:    name,
			Action:        string(in.Action),
			ActionPast:    in.Action.PastTense(),
			MentorName:    strings.TrimSpace(in.MentorName),
			WeekNumber:    session.WeekNumber,
			SessionNumber: session.SessionNumber,
			Previous:      result.Previous,
			Next:          result.Next,
		}
	}

	coordinators, err := s.directory.ListCoordinators(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list coordinators")
		result.Warnings = append(result.Warnings, "coordinators could not be loaded: "+err.Error())
	} else {
		result.SuperMentorNotified = s.notifier.Broadcast(ctx, coordinators, s.pacing.Coordinators(), compose)
	}

	if resolvable {
		students, err := s.directory.ListStudents(ctx, key.Type, key.Number)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list students")
			result.Warnings = append(result.Warnings, "students could not be loaded: "+err.Error())
		} else {
			result.StudentNotified = s.notifier.Broadcast(ctx, students, s.pacing.Students(), compose)
		}
	} else {
		result.Warnings = append(result.Warnings, fmt.Sprintf("cohort of %s could not be resolved; students were not notified", in.Partition))
	}

	result.PartialFailure = report.Partial() ||
		len(result.Warnings) > 0 ||
		result.SuperMentorNotified.Degraded() ||
		result.StudentNotified.Degraded()

	log.Info().
		Str("action", string(in.Action)).
		Str("new_date", result.Next.Date).
		Int("coordinator_email", result.SuperMentorNotified.Email).
		Int("coordinator_whatsapp", result.SuperMentorNotified.WhatsApp).
		Int("student_email", result.StudentNotified.Email).
		Int("student_whatsapp", result.StudentNotified.WhatsApp).
		Int("not_attempted", result.SuperMentorNotified.NotAttempted+result.StudentNotified.NotAttempted).
		Bool("partial_failure", result.PartialFailure).
		Msg("Session rescheduled")

	return result, nil
}

func (s *RescheduleService) release(lease lock.Lease) {
	if err := lease.Release(context.Background()); err != nil {
		s.log.Warn().Err(err).Msg("Failed to release cohort lease")
	}
}

func validateReschedule(in RescheduleInput) (time.Time, *string, error) {
	if in.Partition == "" {
		return time.Time{}, nil, errors.New("cohort partition is required")
	}
	if in.SessionID < 1 {
		return time.Time{}, nil, errors.New("session id must be positive")
	}
	if strings.TrimSpace(in.NewDate) == "" {
		return time.Time{}, nil, errors.New("new date is required")
	}
	date, err := model.ParseDate(in.NewDate)
	if err != nil {
		return time.Time{}, nil, errors.New("new date must be YYYY-MM-DD")
	}
	if !in.Action.Valid() {
		return time.Time{}, nil, fmt.Errorf("action type must be %q or %q", model.ActionPrepone, model.ActionPostpone)
	}
	if strings.TrimSpace(in.MentorName) == "" {
		return time.Time{}, nil, errors.New("mentor name is required")
	}

	var clock *string
	if in.NewTime != nil && strings.TrimSpace(*in.NewTime) != "" {
		t, err := model.ParseClock(*in.NewTime)
		if err != nil {
			return time.Time{}, nil, errors.New("new time must be HH:MM")
		}
		clock = &t
	}
	return date, clock, nil
}

func slotOf(date time.Time, day string, clock *string) notify.Slot {
	slot := notify.Slot{Date: date.Format(model.DateLayout), Day: day}
	if clock != nil {
		slot.Time = *clock
	}
	return slot
}

// Err is ErrPartialFailure when a field update, a lookup or a delivery failed, or when
// the fan-out stopped before every recipient was tried.
func (r *RescheduleResult) Err() error {
	if !r.PartialFailure {
		return nil
	}
	failed := len(r.FieldFailures) + len(r.Warnings) +
		r.SuperMentorNotified.EmailFailed + r.SuperMentorNotified.WhatsAppFailed + r.SuperMentorNotified.NotAttempted +
		r.StudentNotified.EmailFailed + r.StudentNotified.WhatsAppFailed + r.StudentNotified.NotAttempted
	return partialErr("Reschedule", failed)
}
