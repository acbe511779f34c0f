package inventory

import (
	"time"

	"github.com/google/uuid"
)

// Drug is a generic medicine (e.g. Paracetamol).
type Drug struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// DrugBrand is a marketed preparation of a drug at a fixed unit
// concentration.
type DrugBrand struct {
	ID                uuid.UUID `db:"id" json:"id"`
	DrugID            uuid.UUID `db:"drug_id" json:"drug_id"`
	Name              string    `db:"name" json:"name"`
	UnitConcentration *float64  `db:"unit_concentration" json:"unit_concentration,omitempty"`
	Type              *string   `db:"type" json:"type,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// Batch statuses. AVAILABLE is the only live state; the others record why
// a batch was retired.
const (
	BatchAvailable     = "AVAILABLE"
	BatchCompleted     = "COMPLETED"
	BatchTrashed       = "TRASHED"
	BatchExpired       = "EXPIRED"
	BatchQualityFailed = "QUALITY_FAILED"
)

// Batch status actions accepted by ChangeBatchStatus.
const (
	ActionCompleted     = "completed"
	ActionDisposed      = "disposed"
	ActionQualityFailed = "quality_failed"
	ActionAvailable     = "available"
)

// Batch is a physical stock lot of a drug brand.
type Batch struct {
	ID                uuid.UUID `db:"id" json:"id"`
	BrandID           uuid.UUID `db:"brand_id" json:"brand_id"`
	BatchNumber       *string   `db:"batch_number" json:"batch_number,omitempty"`
	FullAmount        float64   `db:"full_amount" json:"full_amount"`
	RemainingQuantity float64   `db:"remaining_quantity" json:"remaining_quantity"`
	RetailPrice       float64   `db:"retail_price" json:"retail_price"`
	WholesalePrice    float64   `db:"wholesale_price" json:"wholesale_price"`
	Expiry            time.Time `db:"expiry" json:"expiry"`
	Status            string    `db:"status" json:"status"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// Expired reports whether the batch is past its expiry at the given time.
func (b *Batch) Expired(now time.Time) bool {
	return !b.Expiry.After(now)
}

// BatchDetail joins a batch with its drug and brand names for display.
type BatchDetail struct {
	Batch
	DrugID    uuid.UUID `db:"drug_id" json:"drug_id"`
	DrugName  string    `db:"drug_name" json:"drug_name"`
	BrandName string    `db:"brand_name" json:"brand_name"`
}

// BatchHistory is the last-assigned-batch memo per (drug, brand) pair.
// One row per key, overwritten on every successful bill calculation.
type BatchHistory struct {
	DrugID    uuid.UUID `db:"drug_id" json:"drug_id"`
	BrandID   uuid.UUID `db:"brand_id" json:"brand_id"`
	BatchID   uuid.UUID `db:"batch_id" json:"batch_id"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
