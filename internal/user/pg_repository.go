package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sailcare/clinic-api/internal/risk"
)

const userColumns = `uid, first_name, last_name, email, phone, role, status, password_hash,
	assessment_record, created_at, updated_at`

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanUser(row pgx.Row) (*User, error) {
	var (
		u          User
		assessment []byte
	)

	err := row.Scan(
		&u.UID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.Phone,
		&u.Role,
		&u.Status,
		&u.PasswordHash,
		&assessment,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if len(assessment) > 0 {
		if err := json.Unmarshal(assessment, &u.Assessment); err != nil {
			return nil, fmt.Errorf("decode assessment record: %w", err)
		}
	}

	return &u, nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrEmailTaken
	}
	return err
}

func (r *PgRepository) Create(ctx context.Context, u User) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (uid, first_name, last_name, email, phone, role, status, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING `+userColumns,
		u.UID, u.FirstName, u.LastName, u.Email, u.Phone, u.Role, u.Status, u.PasswordHash)

	created, err := scanUser(row)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return created, nil
}

func (r *PgRepository) GetByUID(ctx context.Context, uid string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE uid = $1`, uid)
	return scanUser(row)
}

func (r *PgRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	return scanUser(row)
}

func (r *PgRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (r *PgRepository) Update(ctx context.Context, u User) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET first_name = $2,
		    last_name = $3,
		    email = $4,
		    phone = $5,
		    role = $6,
		    status = $7,
		    updated_at = now()
		WHERE uid = $1
		RETURNING `+userColumns,
		u.UID, u.FirstName, u.LastName, u.Email, u.Phone, u.Role, u.Status)

	updated, err := scanUser(row)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return updated, nil
}

func (r *PgRepository) UpdatePassword(ctx context.Context, uid, hash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = now() WHERE uid = $1`, uid, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *PgRepository) SaveAssessment(ctx context.Context, uid string, rec risk.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode assessment record: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `UPDATE users SET assessment_record = $2, updated_at = now() WHERE uid = $1`, uid, payload)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *PgRepository) Delete(ctx context.Context, uid string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM patients WHERE uid = $1`, uid); err != nil {
		return fmt.Errorf("delete patient profile: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM users WHERE uid = $1`, uid)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return tx.Commit(ctx)
}
