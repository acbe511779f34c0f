package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned by repositories when no row matches.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientStock is returned when a draw-down would push a
	// batch's remaining quantity below zero.
	ErrInsufficientStock = errors.New("insufficient stock remaining in batch")
)

type DrugRepository interface {
	Create(ctx context.Context, d *Drug) error
	GetByID(ctx context.Context, id uuid.UUID) (*Drug, error)
	Update(ctx context.Context, d *Drug) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, name string, limit, offset int) ([]*Drug, int, error)
}

type BrandRepository interface {
	Create(ctx context.Context, b *DrugBrand) error
	GetByID(ctx context.Context, id uuid.UUID) (*DrugBrand, error)
	Update(ctx context.Context, b *DrugBrand) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByDrug(ctx context.Context, drugID uuid.UUID) ([]*DrugBrand, error)
}

type BatchRepository interface {
	Create(ctx context.Context, b *Batch) error
	GetByID(ctx context.Context, id uuid.UUID) (*Batch, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*BatchDetail, error)
	ListByBrand(ctx context.Context, brandID uuid.UUID, status string) ([]*Batch, error)
	// UpdateStatus sets the batch status; zeroRemaining also clears the
	// remaining quantity in the same statement.
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, zeroRemaining bool) error
	// DecrementRemaining atomically draws qty from the batch, failing with
	// ErrInsufficientStock rather than going negative.
	DecrementRemaining(ctx context.Context, id uuid.UUID, qty float64) error
	// RetireExpired moves past-expiry AVAILABLE batches to EXPIRED and
	// returns how many were retired.
	RetireExpired(ctx context.Context, now time.Time) (int64, error)
}

// BatchHistoryRepository is the (drug, brand) -> last batch memo store.
type BatchHistoryRepository interface {
	Get(ctx context.Context, drugID, brandID uuid.UUID) (uuid.UUID, error)
	Put(ctx context.Context, drugID, brandID, batchID uuid.UUID) error
}
