package prescription

import (
	"time"

	"github.com/google/uuid"
)

// Prescription statuses. COMPLETED is terminal.
const (
	StatusPending   = "PENDING"
	StatusCompleted = "COMPLETED"
)

// Prescription is the record a doctor writes for a queued patient.
type Prescription struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	PatientID         uuid.UUID  `db:"patient_id" json:"patient_id"`
	Weight            *float64   `db:"weight" json:"weight,omitempty"`
	Height            *float64   `db:"height" json:"height,omitempty"`
	Temperature       *float64   `db:"temperature" json:"temperature,omitempty"`
	BloodPressure     *string    `db:"blood_pressure" json:"blood_pressure,omitempty"`
	Symptoms          *string    `db:"symptoms" json:"symptoms,omitempty"`
	ExtraDoctorCharge *float64   `db:"extra_doctor_charge" json:"extra_doctor_charge,omitempty"`
	Status            string     `db:"status" json:"status"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`

	Issues        []*Issue        `db:"-" json:"issues,omitempty"`
	OffRecordMeds []*OffRecordMed `db:"-" json:"off_record_meds,omitempty"`
}

// Issue is one prescribed drug-brand line. BatchID stays nil until bill
// calculation assigns a stock batch.
type Issue struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PrescriptionID uuid.UUID  `db:"prescription_id" json:"prescription_id"`
	DrugID         uuid.UUID  `db:"drug_id" json:"drug_id"`
	BrandID        uuid.UUID  `db:"brand_id" json:"brand_id"`
	Strategy       string     `db:"strategy" json:"strategy"`
	Dose           float64    `db:"dose" json:"dose"`
	Quantity       float64    `db:"quantity" json:"quantity"`
	BatchID        *uuid.UUID `db:"batch_id" json:"batch_id,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// OffRecordMed is a medicine noted on the prescription but not issued from
// the clinic's own stock.
type OffRecordMed struct {
	ID             uuid.UUID `db:"id" json:"id"`
	PrescriptionID uuid.UUID `db:"prescription_id" json:"prescription_id"`
	Name           string    `db:"name" json:"name"`
	Description    *string   `db:"description" json:"description,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
