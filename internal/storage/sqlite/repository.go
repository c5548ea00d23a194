// Package sqlite is a single-file storage backend built on modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/aura-webinar/workshops/internal/models"
	"github.com/aura-webinar/workshops/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS workshop_registrations (
	id                 TEXT PRIMARY KEY,
	student_name       TEXT NOT NULL,
	student_email      TEXT NOT NULL,
	student_grade      TEXT NOT NULL,
	student_experience TEXT NOT NULL DEFAULT '',
	parent_name        TEXT NOT NULL,
	parent_email       TEXT NOT NULL,
	parent_phone       TEXT NOT NULL,
	workshop_level     TEXT NOT NULL DEFAULT '',
	workshop_event_id  TEXT NOT NULL,
	motivation         TEXT NOT NULL DEFAULT '',
	status             TEXT NOT NULL DEFAULT 'registered' CHECK (status IN ('registered', 'waitlisted')),
	created_at         INTEGER NOT NULL,
	UNIQUE (student_email, workshop_event_id),
	CHECK (LOWER(student_email) <> LOWER(parent_email))
);
CREATE INDEX IF NOT EXISTS workshop_registrations_event_created_idx
	ON workshop_registrations (workshop_event_id, created_at DESC);
`

const selectColumns = `id, student_name, student_email, student_grade, student_experience, parent_name, parent_email,
	parent_phone, workshop_level, workshop_event_id, motivation, status, created_at`

// DB is a SQLite-backed registrations store.
type DB struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at dsn and applies the schema.
func Open(ctx context.Context, dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer avoids "database is locked" under concurrent submissions
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return &DB{db: db, now: time.Now}, nil
}

// Close closes the database.
func (d *DB) Close() error { return d.db.Close() }

func (d *DB) CheckExistingRegistration(ctx context.Context, studentEmail, eventID string) (*models.Registration, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM workshop_registrations
		WHERE student_email = ? AND workshop_event_id = ?`, studentEmail, eventID)
	reg, err := scanRegistration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("check existing registration: %w", err)
	}
	return reg, nil
}

func (d *DB) GetRegistrationCount(ctx context.Context, eventID string) (int, error) {
	var n int
	err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM workshop_registrations
		WHERE workshop_event_id = ? AND status = 'registered'`, eventID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return n, nil
}

func (d *DB) InsertRegistration(ctx context.Context, rec models.Registration) (*models.Registration, error) {
	rec.ID = uuid.New()
	rec.CreatedAt = d.now().UTC()
	_, err := d.db.ExecContext(ctx, `INSERT INTO workshop_registrations (id, student_name, student_email, student_grade,
		student_experience, parent_name, parent_email, parent_phone, workshop_level, workshop_event_id, motivation, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.StudentName, rec.StudentEmail, string(rec.StudentGrade), rec.StudentExperience,
		rec.ParentName, rec.ParentEmail, rec.ParentPhone, rec.WorkshopLevel, rec.EventID, rec.Motivation,
		string(rec.Status), rec.CreatedAt.UnixNano())
	if err != nil {
		var sqliteErr *sqlite.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return nil, storage.ErrDuplicate
		}
		return nil, fmt.Errorf("insert registration: %w", err)
	}
	return &rec, nil
}

func (d *DB) GetRegistrations(ctx context.Context, eventID string) ([]models.Registration, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM workshop_registrations
		WHERE workshop_event_id = ? ORDER BY created_at DESC, rowid DESC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()
	var list []models.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		list = append(list, *reg)
	}
	return list, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRegistration(row scanner) (*models.Registration, error) {
	var (
		reg               models.Registration
		id, grade, status string
		createdAt         int64
	)
	err := row.Scan(&id, &reg.StudentName, &reg.StudentEmail, &grade, &reg.StudentExperience,
		&reg.ParentName, &reg.ParentEmail, &reg.ParentPhone, &reg.WorkshopLevel, &reg.EventID,
		&reg.Motivation, &status, &createdAt)
	if err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse id %q: %w", id, err)
	}
	reg.ID = parsed
	reg.StudentGrade = models.Grade(grade)
	reg.Status = models.RegistrationStatus(status)
	reg.CreatedAt = time.Unix(0, createdAt).UTC()
	return &reg, nil
}
