package patient

import (
	"context"
	"errors"
	"time"

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

// =========== Patient Repository ===========

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const patientCols = `id, name, nic, phone, gender, date_of_birth, address, allergies, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.NIC, &p.Phone, &p.Gender, &p.DateOfBirth,
		&p.Address, &p.Allergies, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO patient (id, name, nic, phone, gender, date_of_birth, address, allergies)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.NIC, p.Phone, p.Gender, p.DateOfBirth, p.Address, p.Allergies).
		Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE patient SET name=$2, nic=$3, phone=$4, gender=$5, date_of_birth=$6,
			address=$7, allergies=$8, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Name, p.NIC, p.Phone, p.Gender, p.DateOfBirth, p.Address, p.Allergies)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM patient WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Search(ctx context.Context, name string, limit, offset int) ([]*Patient, int, error) {
	pattern := "%" + name + "%"

	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM patient WHERE $1 = '%%' OR name ILIKE $1`, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT `+patientCols+` FROM patient
		WHERE $1 = '%%' OR name ILIKE $1
		ORDER BY name LIMIT $2 OFFSET $3`, pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// =========== Queue Repository ===========

type queueRepoPG struct{ pool *pgxpool.Pool }

func NewQueueRepoPG(pool *pgxpool.Pool) QueueRepository {
	return &queueRepoPG{pool: pool}
}

const queueCols = `q.id, q.patient_id, p.name, q.ticket_number, q.queue_date, q.status, q.created_at, q.updated_at`

func scanQueueEntry(row pgx.Row) (*QueueEntry, error) {
	var e QueueEntry
	err := row.Scan(&e.ID, &e.PatientID, &e.PatientName, &e.TicketNumber,
		&e.QueueDate, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &e, err
}

func (r *queueRepoPG) Create(ctx context.Context, e *QueueEntry) error {
	e.ID = uuid.New()
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO queue_entry (id, patient_id, ticket_number, queue_date, status)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at, updated_at`,
		e.ID, e.PatientID, e.TicketNumber, e.QueueDate, e.Status).
		Scan(&e.CreatedAt, &e.UpdatedAt)
}

func (r *queueRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*QueueEntry, error) {
	return scanQueueEntry(conn(ctx, r.pool).QueryRow(ctx, `
		SELECT `+queueCols+` FROM queue_entry q
		JOIN patient p ON p.id = q.patient_id
		WHERE q.id = $1`, id))
}

func (r *queueRepoPG) NextTicketNumber(ctx context.Context, day time.Time) (int, error) {
	var next int
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT COALESCE(MAX(ticket_number), 0) + 1 FROM queue_entry WHERE queue_date = $1`,
		day).Scan(&next)
	return next, err
}

func (r *queueRepoPG) ActiveEntryForPatient(ctx context.Context, patientID uuid.UUID, day time.Time) (*QueueEntry, error) {
	return scanQueueEntry(conn(ctx, r.pool).QueryRow(ctx, `
		SELECT `+queueCols+` FROM queue_entry q
		JOIN patient p ON p.id = q.patient_id
		WHERE q.patient_id = $1 AND q.queue_date = $2 AND q.status IN ($3, $4)
		ORDER BY q.ticket_number LIMIT 1`,
		patientID, day, QueueWaiting, QueueInProgress))
}

func (r *queueRepoPG) FirstWaiting(ctx context.Context, day time.Time) (*QueueEntry, error) {
	return scanQueueEntry(conn(ctx, r.pool).QueryRow(ctx, `
		SELECT `+queueCols+` FROM queue_entry q
		JOIN patient p ON p.id = q.patient_id
		WHERE q.queue_date = $1 AND q.status = $2
		ORDER BY q.ticket_number LIMIT 1`,
		day, QueueWaiting))
}

func (r *queueRepoPG) ListForDay(ctx context.Context, day time.Time, status string) ([]*QueueEntry, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT `+queueCols+` FROM queue_entry q
		JOIN patient p ON p.id = q.patient_id
		WHERE q.queue_date = $1 AND ($2 = '' OR q.status = $2)
		ORDER BY q.ticket_number`, day, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*QueueEntry
	for rows.Next() {
		e, err := scanQueueEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *queueRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE queue_entry SET status=$2, updated_at=NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
