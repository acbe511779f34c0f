package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrUnknownAction = errors.New("unknown batch action")

// ErrInvalidTransition rejects a status action that is not legal from the
// batch's current status.
var ErrInvalidTransition = errors.New("invalid batch status transition")

// actionTarget maps a status action to the status it produces.
var actionTarget = map[string]string{
	ActionCompleted:     BatchCompleted,
	ActionDisposed:      BatchTrashed,
	ActionQualityFailed: BatchQualityFailed,
	ActionAvailable:     BatchAvailable,
}

// retiredStatuses are the states a batch can be revoked back to AVAILABLE from.
var retiredStatuses = map[string]bool{
	BatchCompleted:     true,
	BatchTrashed:       true,
	BatchExpired:       true,
	BatchQualityFailed: true,
}

type Service struct {
	drugs   DrugRepository
	brands  BrandRepository
	batches BatchRepository
	history BatchHistoryRepository
	now     func() time.Time
}

func NewService(drugs DrugRepository, brands BrandRepository, batches BatchRepository, history BatchHistoryRepository) *Service {
	return &Service{drugs: drugs, brands: brands, batches: batches, history: history, now: time.Now}
}

// -- Drugs --

func (s *Service) CreateDrug(ctx context.Context, d *Drug) error {
	if d.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.drugs.Create(ctx, d)
}

func (s *Service) GetDrug(ctx context.Context, id uuid.UUID) (*Drug, error) {
	return s.drugs.GetByID(ctx, id)
}

func (s *Service) UpdateDrug(ctx context.Context, d *Drug) error {
	if d.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.drugs.Update(ctx, d)
}

func (s *Service) DeleteDrug(ctx context.Context, id uuid.UUID) error {
	return s.drugs.Delete(ctx, id)
}

func (s *Service) SearchDrugs(ctx context.Context, name string, limit, offset int) ([]*Drug, int, error) {
	return s.drugs.Search(ctx, name, limit, offset)
}

// -- Brands --

func (s *Service) CreateBrand(ctx context.Context, b *DrugBrand) error {
	if b.Name == "" {
		return fmt.Errorf("name is required")
	}
	if _, err := s.drugs.GetByID(ctx, b.DrugID); err != nil {
		return err
	}
	return s.brands.Create(ctx, b)
}

func (s *Service) GetBrand(ctx context.Context, id uuid.UUID) (*DrugBrand, error) {
	return s.brands.GetByID(ctx, id)
}

func (s *Service) UpdateBrand(ctx context.Context, b *DrugBrand) error {
	if b.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.brands.Update(ctx, b)
}

func (s *Service) DeleteBrand(ctx context.Context, id uuid.UUID) error {
	return s.brands.Delete(ctx, id)
}

func (s *Service) ListBrands(ctx context.Context, drugID uuid.UUID) ([]*DrugBrand, error) {
	return s.brands.ListByDrug(ctx, drugID)
}

// -- Batches --

// CreateBatch registers a new stock lot. The batch starts AVAILABLE with
// its full amount remaining.
func (s *Service) CreateBatch(ctx context.Context, b *Batch) error {
	// batch_number is NOT NULL in the schema; reject it here so the
	// caller sees a validation error instead of a constraint violation.
	if b.BatchNumber == nil || *b.BatchNumber == "" {
		return fmt.Errorf("batch_number is required")
	}
	if b.FullAmount <= 0 {
		return fmt.Errorf("full_amount must be positive")
	}
	if b.RetailPrice < 0 || b.WholesalePrice < 0 {
		return fmt.Errorf("prices must not be negative")
	}
	if b.Expiry.IsZero() {
		return fmt.Errorf("expiry is required")
	}
	if _, err := s.brands.GetByID(ctx, b.BrandID); err != nil {
		return err
	}
	b.RemainingQuantity = b.FullAmount
	b.Status = BatchAvailable
	return s.batches.Create(ctx, b)
}

func (s *Service) GetBatch(ctx context.Context, id uuid.UUID) (*BatchDetail, error) {
	return s.batches.GetDetail(ctx, id)
}

func (s *Service) ListBatches(ctx context.Context, brandID uuid.UUID, status string) ([]*Batch, error) {
	return s.batches.ListByBrand(ctx, brandID, status)
}

// ChangeBatchStatus applies a retirement or revoke action. Retirement
// actions are legal only from AVAILABLE; the revoke action is legal only
// from a retired status. The completed action also zeroes the remaining
// quantity so status and stock stay consistent.
func (s *Service) ChangeBatchStatus(ctx context.Context, id uuid.UUID, action string) (*Batch, error) {
	target, ok := actionTarget[action]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}

	b, err := s.batches.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if action == ActionAvailable {
		if !retiredStatuses[b.Status] {
			return nil, fmt.Errorf("%w: cannot revoke a batch that is %s", ErrInvalidTransition, b.Status)
		}
	} else if b.Status != BatchAvailable {
		return nil, fmt.Errorf("%w: batch is %s, not AVAILABLE", ErrInvalidTransition, b.Status)
	}

	zeroRemaining := action == ActionCompleted
	if err := s.batches.UpdateStatus(ctx, id, target, zeroRemaining); err != nil {
		return nil, err
	}
	b.Status = target
	if zeroRemaining {
		b.RemainingQuantity = 0
	}
	return b, nil
}

// DrawDown removes qty units from the batch's remaining quantity. Called
// from prescription completion; honors an ambient transaction.
func (s *Service) DrawDown(ctx context.Context, batchID uuid.UUID, qty float64) error {
	if qty <= 0 {
		return fmt.Errorf("draw-down quantity must be positive")
	}
	return s.batches.DecrementRemaining(ctx, batchID, qty)
}

// RetireExpired sweeps past-expiry AVAILABLE batches to EXPIRED.
func (s *Service) RetireExpired(ctx context.Context) (int64, error) {
	return s.batches.RetireExpired(ctx, s.now())
}

// -- Suggestion cache --

// SuggestBatch returns the batch last assigned for the (drug, brand) pair,
// but only while that batch is still an AVAILABLE, unexpired lot of the
// same brand. Advisory only; callers may override freely.
func (s *Service) SuggestBatch(ctx context.Context, drugID, brandID uuid.UUID) (*Batch, error) {
	batchID, err := s.history.Get(ctx, drugID, brandID)
	if err != nil {
		return nil, err
	}

	b, err := s.batches.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if b.BrandID != brandID || b.Status != BatchAvailable || b.Expired(s.now()) || b.RemainingQuantity <= 0 {
		return nil, ErrNotFound
	}
	return b, nil
}

// RememberBatch records the batch chosen for a (drug, brand) pair. Invoked
// as a side effect of bill calculation.
func (s *Service) RememberBatch(ctx context.Context, drugID, brandID, batchID uuid.UUID) error {
	return s.history.Put(ctx, drugID, brandID, batchID)
}
