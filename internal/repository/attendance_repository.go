package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stemsi/cohortsched-backend/internal/model"
)

// AttendanceRepository persists the mentor attendance ledger.
type AttendanceRepository struct {
	pool *pgxpool.Pool
}

// NewAttendanceRepository creates a new AttendanceRepository.
func NewAttendanceRepository(pool *pgxpool.Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// Upsert writes the whole ledger row of a mentor, replacing any previous values.
func (r *AttendanceRepository) Upsert(ctx context.Context, e *model.AttendanceLedgerEntry) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO mentor_attendance
		   (mentor_id, total_classes, present, absent, special_attendance, attendance_percent, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP)
		 ON CONFLICT (mentor_id) DO UPDATE SET
		   total_classes      = EXCLUDED.total_classes,
		   present            = EXCLUDED.present,
		   absent             = EXCLUDED.absent,
		   special_attendance = EXCLUDED.special_attendance,
		   attendance_percent = EXCLUDED.attendance_percent,
		   updated_at         = EXCLUDED.updated_at
		 RETURNING updated_at`,
		e.MentorID, e.TotalClasses, e.Present, e.Absent, e.SpecialAttendance, e.AttendancePercent,
	).Scan(&e.UpdatedAt)
}

// GetByMentor retrieves the stored ledger row of a mentor.
func (r *AttendanceRepository) GetByMentor(ctx context.Context, mentorID int) (*model.AttendanceLedgerEntry, error) {
	e := &model.AttendanceLedgerEntry{}
	err := r.pool.QueryRow(ctx,
		`SELECT mentor_id, total_classes, present, absent, special_attendance, attendance_percent::float8, updated_at
		 FROM mentor_attendance WHERE mentor_id = $1`, mentorID,
	).Scan(&e.MentorID, &e.TotalClasses, &e.Present, &e.Absent, &e.SpecialAttendance, &e.AttendancePercent, &e.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return e, nil
}
