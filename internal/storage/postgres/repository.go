// Package postgres is the PostgreSQL storage backend.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-webinar/workshops/internal/models"
	"github.com/aura-webinar/workshops/internal/storage"
)

const (
	codeUniqueViolation       = "23505"
	codeInsufficientPrivilege = "42501"

	selectColumns = `id, student_name, student_email, student_grade, student_experience, parent_name, parent_email,
		parent_phone, workshop_level, workshop_event_id, motivation, status, created_at`
)

// Repository persists registrations in the workshop_registrations table.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a registrations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CheckExistingRegistration returns the registration for email+event, or nil.
func (r *Repository) CheckExistingRegistration(ctx context.Context, studentEmail, eventID string) (*models.Registration, error) {
	const q = `SELECT ` + selectColumns + ` FROM workshop_registrations
		WHERE student_email = $1 AND workshop_event_id = $2`
	reg, err := scanRegistration(r.pool.QueryRow(ctx, q, studentEmail, eventID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err)
	}
	return reg, nil
}

// GetRegistrationCount counts registered (non-waitlisted) rows for an event.
func (r *Repository) GetRegistrationCount(ctx context.Context, eventID string) (int, error) {
	const q = `SELECT COUNT(*) FROM workshop_registrations WHERE workshop_event_id = $1 AND status = 'registered'`
	var n int
	if err := r.pool.QueryRow(ctx, q, eventID).Scan(&n); err != nil {
		return 0, mapError(err)
	}
	return n, nil
}

// InsertRegistration inserts rec; the unique (student_email, workshop_event_id)
// constraint surfaces as storage.ErrDuplicate.
func (r *Repository) InsertRegistration(ctx context.Context, rec models.Registration) (*models.Registration, error) {
	const q = `INSERT INTO workshop_registrations (student_name, student_email, student_grade, student_experience,
		parent_name, parent_email, parent_phone, workshop_level, workshop_event_id, motivation, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, q,
		rec.StudentName, rec.StudentEmail, string(rec.StudentGrade), rec.StudentExperience,
		rec.ParentName, rec.ParentEmail, rec.ParentPhone, rec.WorkshopLevel, rec.EventID, rec.Motivation, string(rec.Status),
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &rec, nil
}

// GetRegistrations returns all registrations for an event, newest first.
func (r *Repository) GetRegistrations(ctx context.Context, eventID string) ([]models.Registration, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+selectColumns+` FROM workshop_registrations
		WHERE workshop_event_id = $1 ORDER BY created_at DESC`, eventID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	var list []models.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, mapError(err)
		}
		list = append(list, *reg)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return list, nil
}

func scanRegistration(row pgx.Row) (*models.Registration, error) {
	var reg models.Registration
	var grade, status string
	err := row.Scan(&reg.ID, &reg.StudentName, &reg.StudentEmail, &grade, &reg.StudentExperience,
		&reg.ParentName, &reg.ParentEmail, &reg.ParentPhone, &reg.WorkshopLevel, &reg.EventID,
		&reg.Motivation, &status, &reg.CreatedAt)
	if err != nil {
		return nil, err
	}
	reg.StudentGrade = models.Grade(grade)
	reg.Status = models.RegistrationStatus(status)
	return &reg, nil
}

// mapError translates driver errors into the storage sentinel errors.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%w: %s", storage.ErrDuplicate, pgErr.ConstraintName)
		case codeInsufficientPrivilege:
			return fmt.Errorf("%w: %s", storage.ErrPermissionDenied, pgErr.Message)
		}
		return err
	}
	var connErr *pgconn.ConnectError
	var netErr net.Error
	if errors.As(err, &connErr) || errors.As(err, &netErr) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %w", storage.ErrTransport, err)
	}
	return err
}
