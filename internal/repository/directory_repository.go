package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stemsi/cohortsched-backend/internal/model"
)

// DirectoryRepository is the read-only lookup of cohorts, mentors, coordinators and students.
type DirectoryRepository struct {
	pool *pgxpool.Pool
}

// NewDirectoryRepository creates a new DirectoryRepository.
func NewDirectoryRepository(pool *pgxpool.Pool) *DirectoryRepository {
	return &DirectoryRepository{pool: pool}
}

// ListCohorts returns every registered cohort.
func (r *DirectoryRepository) ListCohorts(ctx context.Context) ([]model.Cohort, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, type, number, created_at FROM cohorts ORDER BY type, number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cohorts []model.Cohort
	for rows.Next() {
		var c model.Cohort
		if err := rows.Scan(&c.ID, &c.Type, &c.Number, &c.CreatedAt); err != nil {
			return nil, err
		}
		cohorts = append(cohorts, c)
	}
	return cohorts, rows.Err()
}

// GetMentor retrieves a mentor by id.
func (r *DirectoryRepository) GetMentor(ctx context.Context, id int) (*model.Mentor, error) {
	m := &model.Mentor{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, COALESCE(email, ''), COALESCE(phone, '') FROM mentors WHERE id = $1`, id,
	).Scan(&m.ID, &m.Name, &m.Email, &m.Phone)
	if err != nil {
		return nil, translate(err)
	}
	return m, nil
}

// ListMentorIDs returns the ids of every mentor.
func (r *DirectoryRepository) ListMentorIDs(ctx context.Context) ([]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM mentors ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListCoordinators returns every registered coordinator regardless of cohort.
func (r *DirectoryRepository) ListCoordinators(ctx context.Context) ([]model.Recipient, error) {
	return r.recipients(ctx, model.RecipientCoordinator,
		`SELECT id, name, COALESCE(email, ''), COALESCE(phone, '') FROM coordinators ORDER BY id`)
}

// ListStudents returns the students enrolled in one cohort. Type matching is case-insensitive.
func (r *DirectoryRepository) ListStudents(ctx context.Context, cohortType, cohortNumber string) ([]model.Recipient, error) {
	return r.recipients(ctx, model.RecipientStudent,
		`SELECT id, name, COALESCE(email, ''), COALESCE(phone, '')
		 FROM students
		 WHERE lower(cohort_type) = lower($1) AND cohort_number = $2
		 ORDER BY id`,
		cohortType, cohortNumber)
}

func (r *DirectoryRepository) recipients(ctx context.Context, kind model.RecipientKind, sql string, args ...any) ([]model.Recipient, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Recipient
	for rows.Next() {
		rc := model.Recipient{Kind: kind}
		if err := rows.Scan(&rc.ID, &rc.Name, &rc.Email, &rc.Phone); err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}
