package inventory

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

// =========== Drug Repository ===========

type drugRepoPG struct{ pool *pgxpool.Pool }

func NewDrugRepoPG(pool *pgxpool.Pool) DrugRepository {
	return &drugRepoPG{pool: pool}
}

const drugCols = `id, name, description, created_at, updated_at`

func scanDrug(row pgx.Row) (*Drug, error) {
	var d Drug
	err := row.Scan(&d.ID, &d.Name, &d.Description, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &d, err
}

func (r *drugRepoPG) Create(ctx context.Context, d *Drug) error {
	d.ID = uuid.New()
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO drug (id, name, description) VALUES ($1,$2,$3)
		RETURNING created_at, updated_at`,
		d.ID, d.Name, d.Description).Scan(&d.CreatedAt, &d.UpdatedAt)
}

func (r *drugRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Drug, error) {
	return scanDrug(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+drugCols+` FROM drug WHERE id = $1`, id))
}

func (r *drugRepoPG) Update(ctx context.Context, d *Drug) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE drug SET name=$2, description=$3, updated_at=NOW() WHERE id = $1`,
		d.ID, d.Name, d.Description)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *drugRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM drug WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *drugRepoPG) Search(ctx context.Context, name string, limit, offset int) ([]*Drug, int, error) {
	pattern := "%" + name + "%"

	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM drug WHERE $1 = '%%' OR name ILIKE $1`, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT `+drugCols+` FROM drug
		WHERE $1 = '%%' OR name ILIKE $1
		ORDER BY name LIMIT $2 OFFSET $3`, pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Drug
	for rows.Next() {
		d, err := scanDrug(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

// =========== Brand Repository ===========

type brandRepoPG struct{ pool *pgxpool.Pool }

func NewBrandRepoPG(pool *pgxpool.Pool) BrandRepository {
	return &brandRepoPG{pool: pool}
}

const brandCols = `id, drug_id, name, unit_concentration, type, created_at, updated_at`

func scanBrand(row pgx.Row) (*DrugBrand, error) {
	var b DrugBrand
	err := row.Scan(&b.ID, &b.DrugID, &b.Name, &b.UnitConcentration, &b.Type, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &b, err
}

func (r *brandRepoPG) Create(ctx context.Context, b *DrugBrand) error {
	b.ID = uuid.New()
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO drug_brand (id, drug_id, name, unit_concentration, type)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at, updated_at`,
		b.ID, b.DrugID, b.Name, b.UnitConcentration, b.Type).Scan(&b.CreatedAt, &b.UpdatedAt)
}

func (r *brandRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*DrugBrand, error) {
	return scanBrand(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+brandCols+` FROM drug_brand WHERE id = $1`, id))
}

func (r *brandRepoPG) Update(ctx context.Context, b *DrugBrand) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE drug_brand SET name=$2, unit_concentration=$3, type=$4, updated_at=NOW()
		WHERE id = $1`, b.ID, b.Name, b.UnitConcentration, b.Type)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *brandRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM drug_brand WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *brandRepoPG) ListByDrug(ctx context.Context, drugID uuid.UUID) ([]*DrugBrand, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+brandCols+` FROM drug_brand WHERE drug_id = $1 ORDER BY name`, drugID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*DrugBrand
	for rows.Next() {
		b, err := scanBrand(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// =========== Batch Repository ===========

type batchRepoPG struct{ pool *pgxpool.Pool }

func NewBatchRepoPG(pool *pgxpool.Pool) BatchRepository {
	return &batchRepoPG{pool: pool}
}

const batchCols = `id, brand_id, batch_number, full_amount, remaining_quantity,
	retail_price, wholesale_price, expiry, status, created_at, updated_at`

func scanBatch(row pgx.Row) (*Batch, error) {
	var b Batch
	err := row.Scan(&b.ID, &b.BrandID, &b.BatchNumber, &b.FullAmount, &b.RemainingQuantity,
		&b.RetailPrice, &b.WholesalePrice, &b.Expiry, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &b, err
}

func (r *batchRepoPG) Create(ctx context.Context, b *Batch) error {
	b.ID = uuid.New()
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO batch (id, brand_id, batch_number, full_amount, remaining_quantity,
			retail_price, wholesale_price, expiry, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at`,
		b.ID, b.BrandID, b.BatchNumber, b.FullAmount, b.RemainingQuantity,
		b.RetailPrice, b.WholesalePrice, b.Expiry, b.Status).Scan(&b.CreatedAt, &b.UpdatedAt)
}

func (r *batchRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Batch, error) {
	return scanBatch(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+batchCols+` FROM batch WHERE id = $1`, id))
}

func (r *batchRepoPG) GetDetail(ctx context.Context, id uuid.UUID) (*BatchDetail, error) {
	var d BatchDetail
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT b.id, b.brand_id, b.batch_number, b.full_amount, b.remaining_quantity,
			b.retail_price, b.wholesale_price, b.expiry, b.status, b.created_at, b.updated_at,
			dr.id, dr.name, br.name
		FROM batch b
		JOIN drug_brand br ON br.id = b.brand_id
		JOIN drug dr ON dr.id = br.drug_id
		WHERE b.id = $1`, id).
		Scan(&d.ID, &d.BrandID, &d.BatchNumber, &d.FullAmount, &d.RemainingQuantity,
			&d.RetailPrice, &d.WholesalePrice, &d.Expiry, &d.Status, &d.CreatedAt, &d.UpdatedAt,
			&d.DrugID, &d.DrugName, &d.BrandName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *batchRepoPG) ListByBrand(ctx context.Context, brandID uuid.UUID, status string) ([]*Batch, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT `+batchCols+` FROM batch
		WHERE brand_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY expiry`, brandID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *batchRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string, zeroRemaining bool) error {
	var tag pgconn.CommandTag
	var err error
	if zeroRemaining {
		tag, err = conn(ctx, r.pool).Exec(ctx,
			`UPDATE batch SET status=$2, remaining_quantity=0, updated_at=NOW() WHERE id = $1`, id, status)
	} else {
		tag, err = conn(ctx, r.pool).Exec(ctx,
			`UPDATE batch SET status=$2, updated_at=NOW() WHERE id = $1`, id, status)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *batchRepoPG) DecrementRemaining(ctx context.Context, id uuid.UUID, qty float64) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE batch SET remaining_quantity = remaining_quantity - $2, updated_at=NOW()
		WHERE id = $1 AND remaining_quantity >= $2`, id, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing batch from one without enough stock.
		if _, err := r.GetByID(ctx, id); errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return ErrInsufficientStock
	}
	return nil
}

func (r *batchRepoPG) RetireExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE batch SET status=$2, updated_at=NOW()
		WHERE status = $1 AND expiry <= $3`,
		BatchAvailable, BatchExpired, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// =========== Batch History Repository ===========

type batchHistoryRepoPG struct{ pool *pgxpool.Pool }

func NewBatchHistoryRepoPG(pool *pgxpool.Pool) BatchHistoryRepository {
	return &batchHistoryRepoPG{pool: pool}
}

func (r *batchHistoryRepoPG) Get(ctx context.Context, drugID, brandID uuid.UUID) (uuid.UUID, error) {
	var batchID uuid.UUID
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT batch_id FROM batch_history WHERE drug_id = $1 AND brand_id = $2`,
		drugID, brandID).Scan(&batchID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrNotFound
	}
	return batchID, err
}

func (r *batchHistoryRepoPG) Put(ctx context.Context, drugID, brandID, batchID uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO batch_history (drug_id, brand_id, batch_id, updated_at)
		VALUES ($1,$2,$3,NOW())
		ON CONFLICT (drug_id, brand_id) DO UPDATE SET batch_id = $3, updated_at = NOW()`,
		drugID, brandID, batchID)
	return err
}
