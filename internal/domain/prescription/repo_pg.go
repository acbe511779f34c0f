package prescription

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cliniq/cliniq/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

// =========== Prescription Repository ===========

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const prescriptionCols = `id, patient_id, weight, height, temperature, blood_pressure,
	symptoms, extra_doctor_charge, status, created_at, updated_at`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.PatientID, &p.Weight, &p.Height, &p.Temperature, &p.BloodPressure,
		&p.Symptoms, &p.ExtraDoctorCharge, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO prescription (id, patient_id, weight, height, temperature, blood_pressure,
			symptoms, extra_doctor_charge, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at`,
		p.ID, p.PatientID, p.Weight, p.Height, p.Temperature, p.BloodPressure,
		p.Symptoms, p.ExtraDoctorCharge, p.Status).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return scanPrescription(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+prescriptionCols+` FROM prescription WHERE id = $1`, id))
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM prescription WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT `+prescriptionCols+` FROM prescription
		WHERE patient_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *repoPG) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE prescription SET status=$3, updated_at=NOW()
		WHERE id = $1 AND status = $2`,
		id, StatusPending, StatusCompleted)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// =========== Issue Repository ===========

type issueRepoPG struct{ pool *pgxpool.Pool }

func NewIssueRepoPG(pool *pgxpool.Pool) IssueRepository {
	return &issueRepoPG{pool: pool}
}

const issueCols = `id, prescription_id, drug_id, brand_id, strategy, dose, quantity, batch_id, created_at`

func scanIssue(row pgx.Row) (*Issue, error) {
	var i Issue
	err := row.Scan(&i.ID, &i.PrescriptionID, &i.DrugID, &i.BrandID, &i.Strategy,
		&i.Dose, &i.Quantity, &i.BatchID, &i.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &i, err
}

func (r *issueRepoPG) Create(ctx context.Context, i *Issue) error {
	i.ID = uuid.New()
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO issue (id, prescription_id, drug_id, brand_id, strategy, dose, quantity, batch_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at`,
		i.ID, i.PrescriptionID, i.DrugID, i.BrandID, i.Strategy, i.Dose, i.Quantity, i.BatchID).
		Scan(&i.CreatedAt)
}

func (r *issueRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Issue, error) {
	return scanIssue(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+issueCols+` FROM issue WHERE id = $1`, id))
}

func (r *issueRepoPG) ListByPrescription(ctx context.Context, prescriptionID uuid.UUID) ([]*Issue, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+issueCols+` FROM issue WHERE prescription_id = $1 ORDER BY created_at`, prescriptionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Issue
	for rows.Next() {
		i, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

func (r *issueRepoPG) SetBatch(ctx context.Context, issueID, batchID uuid.UUID) error {
	tag, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE issue SET batch_id=$2 WHERE id = $1`, issueID, batchID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// =========== Off-record Med Repository ===========

type offRecordRepoPG struct{ pool *pgxpool.Pool }

func NewOffRecordRepoPG(pool *pgxpool.Pool) OffRecordRepository {
	return &offRecordRepoPG{pool: pool}
}

func (r *offRecordRepoPG) Create(ctx context.Context, m *OffRecordMed) error {
	m.ID = uuid.New()
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO off_record_med (id, prescription_id, name, description)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at`,
		m.ID, m.PrescriptionID, m.Name, m.Description).Scan(&m.CreatedAt)
}

func (r *offRecordRepoPG) ListByPrescription(ctx context.Context, prescriptionID uuid.UUID) ([]*OffRecordMed, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, prescription_id, name, description, created_at
		FROM off_record_med WHERE prescription_id = $1 ORDER BY created_at`, prescriptionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*OffRecordMed
	for rows.Next() {
		var m OffRecordMed
		if err := rows.Scan(&m.ID, &m.PrescriptionID, &m.Name, &m.Description, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}
