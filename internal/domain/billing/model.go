package billing

import (
	"time"

	"github.com/google/uuid"
)

// Charge types, in the vocabulary of the fee rule table. A charge row's
// type decides how its value is applied to a bill total.
const (
	ChargeMedicine   = "MEDICINE"
	ChargeProcedure  = "PROCEDURE"
	ChargeFixed      = "FIXED"
	ChargePercentage = "PERCENTAGE"
	ChargeDiscount   = "DISCOUNT"
)

// Well-known charge names resolved during bill calculation.
const (
	ChargeNameDoctor     = "DOCTOR"
	ChargeNameDispensary = "DISPENSARY"
)

// Charge is a named configurable fee, managed by admins.
type Charge struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Type      string    `db:"type" json:"type"`
	Value     float64   `db:"value" json:"value"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Bill is the monetary summary for a prescription, one row per
// prescription, upserted on every calculation until completion.
type Bill struct {
	ID               uuid.UUID `db:"id" json:"id"`
	PrescriptionID   uuid.UUID `db:"prescription_id" json:"prescription_id"`
	DoctorCharge     float64   `db:"doctor_charge" json:"doctor_charge"`
	DispensaryCharge float64   `db:"dispensary_charge" json:"dispensary_charge"`
	MedicinesCharge  float64   `db:"medicines_charge" json:"medicines_charge"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// BatchAssignment pairs an issue with the batch chosen to fill it.
// BatchID is a pointer so an unassigned selection is detectable before
// any write happens.
type BatchAssignment struct {
	IssueID uuid.UUID  `json:"issue_id"`
	BatchID *uuid.UUID `json:"batch_id"`
}

// CalculateBillRequest is the payload from the batch assignment screen.
type CalculateBillRequest struct {
	PrescriptionID uuid.UUID         `json:"prescription_id"`
	PatientID      uuid.UUID         `json:"patient_id"`
	BatchAssigns   []BatchAssignment `json:"batch_assigns"`
}

// BillEntry is one itemized medicine line on the rendered bill.
type BillEntry struct {
	DrugName  string  `json:"drug_name"`
	BrandName string  `json:"brand_name"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// BillView is the bill as presented to the billing screen.
type BillView struct {
	BillID           uuid.UUID   `json:"bill_id"`
	PrescriptionID   uuid.UUID   `json:"prescription_id"`
	PatientID        uuid.UUID   `json:"patient_id"`
	PatientName      string      `json:"patient_name"`
	Cost             float64     `json:"cost"`
	DoctorCharge     float64     `json:"doctor_charge"`
	DispensaryCharge float64     `json:"dispensary_charge"`
	MedicinesCharge  float64     `json:"medicines_charge"`
	Entries          []BillEntry `json:"entries"`
}
