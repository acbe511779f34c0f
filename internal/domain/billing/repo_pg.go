package billing

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

// =========== Charge Repository ===========

type chargeRepoPG struct{ pool *pgxpool.Pool }

func NewChargeRepoPG(pool *pgxpool.Pool) ChargeRepository {
	return &chargeRepoPG{pool: pool}
}

const chargeCols = `id, name, type, value, created_at, updated_at`

func scanCharge(row pgx.Row) (*Charge, error) {
	var c Charge
	err := row.Scan(&c.ID, &c.Name, &c.Type, &c.Value, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &c, err
}

func (r *chargeRepoPG) Create(ctx context.Context, c *Charge) error {
	c.ID = uuid.New()
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO charge (id, name, type, value) VALUES ($1,$2,$3,$4)
		RETURNING created_at, updated_at`,
		c.ID, c.Name, c.Type, c.Value).Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *chargeRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Charge, error) {
	return scanCharge(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+chargeCols+` FROM charge WHERE id = $1`, id))
}

func (r *chargeRepoPG) GetByName(ctx context.Context, name string) (*Charge, error) {
	return scanCharge(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+chargeCols+` FROM charge WHERE name = $1`, name))
}

func (r *chargeRepoPG) Update(ctx context.Context, c *Charge) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE charge SET name=$2, type=$3, value=$4, updated_at=NOW() WHERE id = $1`,
		c.ID, c.Name, c.Type, c.Value)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *chargeRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM charge WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *chargeRepoPG) List(ctx context.Context) ([]*Charge, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT `+chargeCols+` FROM charge ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Charge
	for rows.Next() {
		c, err := scanCharge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// =========== Bill Repository ===========

type billRepoPG struct{ pool *pgxpool.Pool }

func NewBillRepoPG(pool *pgxpool.Pool) BillRepository {
	return &billRepoPG{pool: pool}
}

func (r *billRepoPG) Upsert(ctx context.Context, b *Bill) error {
	id := uuid.New()
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO bill (id, prescription_id, doctor_charge, dispensary_charge, medicines_charge)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (prescription_id) DO UPDATE SET
			doctor_charge = $3, dispensary_charge = $4, medicines_charge = $5, updated_at = NOW()
		RETURNING id, created_at, updated_at`,
		id, b.PrescriptionID, b.DoctorCharge, b.DispensaryCharge, b.MedicinesCharge).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

func (r *billRepoPG) GetByPrescription(ctx context.Context, prescriptionID uuid.UUID) (*Bill, error) {
	var b Bill
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, prescription_id, doctor_charge, dispensary_charge, medicines_charge, created_at, updated_at
		FROM bill WHERE prescription_id = $1`, prescriptionID).
		Scan(&b.ID, &b.PrescriptionID, &b.DoctorCharge, &b.DispensaryCharge, &b.MedicinesCharge,
			&b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *billRepoPG) UpdateMedicinesCharge(ctx context.Context, id uuid.UUID, amount float64) error {
	tag, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE bill SET medicines_charge=$2, updated_at=NOW() WHERE id = $1`, id, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *billRepoPG) ExistsForPrescription(ctx context.Context, prescriptionID uuid.UUID) (bool, error) {
	var exists bool
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM bill WHERE prescription_id = $1)`, prescriptionID).Scan(&exists)
	return exists, err
}
