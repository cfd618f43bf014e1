package healthrecord

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const recordColumns = `id::text, patient_uid, patient_name, service_type, record_type, result,
	clinician, encoder, attachment, test_date, created_at, updated_at`

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanRecord(row pgx.Row) (*Record, error) {
	var r Record

	err := row.Scan(
		&r.ID,
		&r.PatientUID,
		&r.PatientName,
		&r.ServiceType,
		&r.RecordType,
		&r.Result,
		&r.Clinician,
		&r.Encoder,
		&r.Attachment,
		&r.TestDate,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	return &r, nil
}

func (p *PgRepository) Create(ctx context.Context, r Record) (*Record, error) {
	row := p.pool.QueryRow(ctx, `
		INSERT INTO health_records (id, patient_uid, patient_name, service_type, record_type, result,
			clinician, encoder, attachment, test_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
		RETURNING `+recordColumns,
		r.ID, r.PatientUID, r.PatientName, r.ServiceType, r.RecordType, r.Result,
		r.Clinician, r.Encoder, r.Attachment, r.TestDate)

	return scanRecord(row)
}

func (p *PgRepository) GetByID(ctx context.Context, id string) (*Record, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+recordColumns+` FROM health_records WHERE id = $1`, id)
	return scanRecord(row)
}

func (p *PgRepository) ListByPatient(ctx context.Context, uid string) ([]Record, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+recordColumns+`
		FROM health_records
		WHERE patient_uid = $1
		ORDER BY test_date DESC
	`, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (p *PgRepository) Update(ctx context.Context, r Record) (*Record, error) {
	row := p.pool.QueryRow(ctx, `
		UPDATE health_records
		SET service_type = $2,
		    record_type = $3,
		    result = $4,
		    clinician = $5,
		    encoder = $6,
		    attachment = $7,
		    test_date = $8,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+recordColumns,
		r.ID, r.ServiceType, r.RecordType, r.Result, r.Clinician, r.Encoder, r.Attachment, r.TestDate)

	return scanRecord(row)
}

func (p *PgRepository) Delete(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM health_records WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}
