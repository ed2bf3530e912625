package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stemsi/cohortsched-backend/internal/cohort"
	"github.com/stemsi/cohortsched-backend/internal/model"
)

const sessionColumns = `id, week_number, session_number, "date", "day", "time", mentor_id, swapped_mentor_id,
	session_recording, meeting_link, materials, created_at, updated_at`

const recordedPredicate = `session_recording IS NOT NULL AND btrim(session_recording) <> ''`

// ScheduleRepository reads and mutates sessions. Every cohort owns its own table.
type ScheduleRepository struct {
	pool *pgxpool.Pool
}

// NewScheduleRepository creates a new ScheduleRepository.
func NewScheduleRepository(pool *pgxpool.Pool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool}
}

func table(p cohort.Partition) string {
	return pgx.Identifier{string(p)}.Sanitize()
}

// ListSessions returns every session of the partition ordered by week and session number.
func (r *ScheduleRepository) ListSessions(ctx context.Context, p cohort.Partition) ([]model.Session, error) {
	return r.query(ctx,
		`SELECT `+sessionColumns+` FROM `+table(p)+`
		 ORDER BY week_number, session_number, id`)
}

// GetSession retrieves one session by id.
func (r *ScheduleRepository) GetSession(ctx context.Context, p cohort.Partition, id int) (*model.Session, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM `+table(p)+` WHERE id = $1`, id)
	s, err := scanSession(row)
	if err != nil {
		return nil, translate(err)
	}
	return s, nil
}

// UpdateSessionFields applies a partial update. Only the fields set in u are written.
func (r *ScheduleRepository) UpdateSessionFields(ctx context.Context, p cohort.Partition, id int, u model.SessionUpdate) error {
	if u.Empty() {
		return nil
	}

	var (
		sets []string
		args []any
	)
	add := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if u.WeekNumber != nil {
		add("week_number", *u.WeekNumber)
	}
	if u.Date != nil {
		add(`"date"`, model.DateOnly(*u.Date))
	}
	if u.Day != nil {
		add(`"day"`, *u.Day)
	}
	if u.Time != nil {
		add(`"time"`, *u.Time)
	}
	if u.ClearMeetingLink {
		sets = append(sets, "meeting_link = NULL")
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	tag, err := r.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET %s WHERE id = $%d`, table(p), strings.Join(sets, ", "), len(args)),
		args...,
	)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteWeek removes every session of a week and returns how many were deleted.
func (r *ScheduleRepository) DeleteWeek(ctx context.Context, p cohort.Partition, week int) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM `+table(p)+` WHERE week_number = $1`, week)
	if err != nil {
		return 0, translate(err)
	}
	return tag.RowsAffected(), nil
}

// ListRecordedByMentor returns the held sessions originally assigned to mentorID.
func (r *ScheduleRepository) ListRecordedByMentor(ctx context.Context, p cohort.Partition, mentorID int) ([]model.Session, error) {
	return r.query(ctx,
		`SELECT `+sessionColumns+` FROM `+table(p)+`
		 WHERE mentor_id = $1 AND `+recordedPredicate+`
		 ORDER BY week_number, session_number`, mentorID)
}

// ListRecordedBySubstitute returns the held sessions mentorID covered for someone else.
func (r *ScheduleRepository) ListRecordedBySubstitute(ctx context.Context, p cohort.Partition, mentorID int) ([]model.Session, error) {
	return r.query(ctx,
		`SELECT `+sessionColumns+` FROM `+table(p)+`
		 WHERE swapped_mentor_id = $1 AND `+recordedPredicate+`
		 ORDER BY week_number, session_number`, mentorID)
}

func (r *ScheduleRepository) query(ctx context.Context, sql string, args ...any) ([]model.Session, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, translate(rows.Err())
}

func scanSession(row pgx.Row) (*model.Session, error) {
	var (
		s         model.Session
		materials *string
	)
	err := row.Scan(
		&s.ID, &s.WeekNumber, &s.SessionNumber, &s.Date, &s.Day, &s.Time,
		&s.MentorID, &s.SwappedMentorID, &s.SessionRecording, &s.MeetingLink,
		&materials, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Materials = model.ParseMaterials("")
	if materials != nil {
		s.Materials = model.ParseMaterials(*materials)
	}
	return &s, nil
}
