package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const patientColumns = `id, uid, first_name, last_name, birth_date, sex, gender, address,
	contact_numbers, email_address, emergency_contact, insurance_provider, registration_date`

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient

	err := row.Scan(
		&p.ID,
		&p.UID,
		&p.FirstName,
		&p.LastName,
		&p.BirthDate,
		&p.Sex,
		&p.Gender,
		&p.Address,
		&p.ContactNumbers,
		&p.EmailAddress,
		&p.EmergencyContact,
		&p.InsuranceProvider,
		&p.RegistrationDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	return &p, nil
}

func collectPatients(rows pgx.Rows) ([]Patient, error) {
	defer rows.Close()

	var out []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *PgRepository) Create(ctx context.Context, p Patient) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO patients (id, uid, first_name, last_name, birth_date, sex, gender, address,
			contact_numbers, email_address, emergency_contact, insurance_provider, registration_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+patientColumns,
		p.ID, p.UID, p.FirstName, p.LastName, p.BirthDate, p.Sex, p.Gender, p.Address,
		p.ContactNumbers, p.EmailAddress, p.EmergencyContact, p.InsuranceProvider, p.RegistrationDate)

	created, err := scanPatient(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateID
		}
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id string) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, id)
	return scanPatient(row)
}

func (r *PgRepository) GetByUID(ctx context.Context, uid string) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE uid = $1
		ORDER BY registration_date
		LIMIT 1
	`, uid)
	return scanPatient(row)
}

func (r *PgRepository) FindByName(ctx context.Context, firstName, lastName string) ([]Patient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE ($1 = '' OR first_name = $1)
		  AND ($2 = '' OR last_name = $2)
		ORDER BY registration_date DESC
	`, firstName, lastName)
	if err != nil {
		return nil, err
	}
	return collectPatients(rows)
}

func (r *PgRepository) List(ctx context.Context) ([]Patient, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+patientColumns+` FROM patients ORDER BY registration_date DESC`)
	if err != nil {
		return nil, err
	}
	return collectPatients(rows)
}

func (r *PgRepository) Update(ctx context.Context, p Patient) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE patients
		SET first_name = $2,
		    last_name = $3,
		    birth_date = $4,
		    sex = $5,
		    gender = $6,
		    address = $7,
		    contact_numbers = $8,
		    email_address = $9,
		    emergency_contact = $10,
		    insurance_provider = $11
		WHERE id = $1
		RETURNING `+patientColumns,
		p.ID, p.FirstName, p.LastName, p.BirthDate, p.Sex, p.Gender, p.Address,
		p.ContactNumbers, p.EmailAddress, p.EmergencyContact, p.InsuranceProvider)

	return scanPatient(row)
}

func (r *PgRepository) DeleteByUID(ctx context.Context, uid string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM patients WHERE uid = $1`, uid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

func (r *PgRepository) MaxNumericID(ctx context.Context) (int64, error) {
	var max int64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(MAX(CASE WHEN id ~ '^[0-9]+$' THEN id::bigint END), 0)
		FROM patients
	`).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max patient id: %w", err)
	}
	return max, nil
}
