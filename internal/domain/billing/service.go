package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cliniq/cliniq/internal/domain/inventory"
	"github.com/cliniq/cliniq/internal/domain/patient"
	"github.com/cliniq/cliniq/internal/domain/prescription"
)

var (
	// ErrMissingBatchAssignment is caught before the transaction starts;
	// no writes have happened when it is returned.
	ErrMissingBatchAssignment = errors.New("please assign all batches before submitting")
	ErrPrescriptionNotFound   = errors.New("prescription not found")
	ErrAlreadyCompleted       = errors.New("prescription is already completed")
	ErrBatchNotFound          = errors.New("batch not found")
	ErrIssueNotFound          = errors.New("issue not found")
	// ErrBillCalculationFailed masks unexpected database errors; the
	// real cause is logged server-side.
	ErrBillCalculationFailed = errors.New("bill calculation failed")
)

// TxRunner is the unit-of-work boundary; satisfied by db.TxRunner.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// BatchMemo records which batch was last issued for a drug/brand pair so
// later suggestions can lead with it. Satisfied by inventory.Service.
type BatchMemo interface {
	RememberBatch(ctx context.Context, drugID, brandID, batchID uuid.UUID) error
}

type Service struct {
	charges       ChargeRepository
	bills         BillRepository
	prescriptions prescription.Repository
	issues        prescription.IssueRepository
	batches       inventory.BatchRepository
	memo          BatchMemo
	patients      patient.Repository
	tx            TxRunner
	log           zerolog.Logger
}

func NewService(
	charges ChargeRepository,
	bills BillRepository,
	prescriptions prescription.Repository,
	issues prescription.IssueRepository,
	batches inventory.BatchRepository,
	memo BatchMemo,
	patients patient.Repository,
	tx TxRunner,
	log zerolog.Logger,
) *Service {
	return &Service{
		charges:       charges,
		bills:         bills,
		prescriptions: prescriptions,
		issues:        issues,
		batches:       batches,
		memo:          memo,
		patients:      patients,
		tx:            tx,
		log:           log,
	}
}

// -- Charges --

var validChargeTypes = map[string]bool{
	ChargeProcedure:  true,
	ChargeFixed:      true,
	ChargePercentage: true,
	ChargeDiscount:   true,
}

func (s *Service) validateCharge(c *Charge) error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !validChargeTypes[c.Type] {
		return fmt.Errorf("invalid charge type: %s", c.Type)
	}
	if c.Value < 0 {
		return fmt.Errorf("value must not be negative")
	}
	if (c.Type == ChargePercentage || c.Type == ChargeDiscount) && c.Value > 100 {
		return fmt.Errorf("rate charges must be between 0 and 100")
	}
	return nil
}

func (s *Service) CreateCharge(ctx context.Context, c *Charge) error {
	if err := s.validateCharge(c); err != nil {
		return err
	}
	return s.charges.Create(ctx, c)
}

func (s *Service) UpdateCharge(ctx context.Context, c *Charge) error {
	if err := s.validateCharge(c); err != nil {
		return err
	}
	return s.charges.Update(ctx, c)
}

func (s *Service) DeleteCharge(ctx context.Context, id uuid.UUID) error {
	return s.charges.Delete(ctx, id)
}

func (s *Service) ListCharges(ctx context.Context) ([]*Charge, error) {
	return s.charges.List(ctx)
}

// PreviewTotal applies the selected charges to a medicines base using the
// fee rule precedence, without touching any bill.
func (s *Service) PreviewTotal(ctx context.Context, base float64, chargeIDs []uuid.UUID) (float64, error) {
	var selected []Charge
	for _, id := range chargeIDs {
		c, err := s.charges.GetByID(ctx, id)
		if err != nil {
			return 0, err
		}
		selected = append(selected, *c)
	}
	return ApplyCharges(base, selected), nil
}

// chargeValue resolves a well-known charge by name, defaulting to 0 when
// the row has never been configured.
func (s *Service) chargeValue(ctx context.Context, name string) (float64, error) {
	c, err := s.charges.GetByName(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return c.Value, nil
}

// -- Bill calculation --

// knownErrs pass through to the caller untranslated; anything else is
// reported as ErrBillCalculationFailed.
var knownErrs = []error{
	ErrMissingBatchAssignment,
	ErrPrescriptionNotFound,
	ErrAlreadyCompleted,
	ErrBatchNotFound,
	ErrIssueNotFound,
}

// CalculateBill runs the whole billing pass for a prescription inside one
// transaction: it resolves doctor and dispensary charges, upserts the
// bill, assigns each issue its batch, refreshes the batch suggestion memo
// and accumulates the medicines total. Recalculation before completion is
// idempotent; stock is drawn down at completion, not here.
func (s *Service) CalculateBill(ctx context.Context, req CalculateBillRequest) (*BillView, error) {
	for _, a := range req.BatchAssigns {
		if a.BatchID == nil {
			return nil, ErrMissingBatchAssignment
		}
	}

	var view *BillView
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		p, err := s.prescriptions.GetByID(ctx, req.PrescriptionID)
		if errors.Is(err, prescription.ErrNotFound) {
			return ErrPrescriptionNotFound
		}
		if err != nil {
			return err
		}
		if p.Status == prescription.StatusCompleted {
			return ErrAlreadyCompleted
		}

		// Every issue on the prescription must be covered by an assignment.
		issues, err := s.issues.ListByPrescription(ctx, req.PrescriptionID)
		if err != nil {
			return err
		}
		assigned := make(map[uuid.UUID]bool, len(req.BatchAssigns))
		for _, a := range req.BatchAssigns {
			assigned[a.IssueID] = true
		}
		for _, i := range issues {
			if !assigned[i.ID] {
				return ErrMissingBatchAssignment
			}
		}

		doctor, err := s.chargeValue(ctx, ChargeNameDoctor)
		if err != nil {
			return err
		}
		dispensary, err := s.chargeValue(ctx, ChargeNameDispensary)
		if err != nil {
			return err
		}
		if p.ExtraDoctorCharge != nil {
			doctor += *p.ExtraDoctorCharge
		}

		bill := &Bill{
			PrescriptionID:   req.PrescriptionID,
			DoctorCharge:     doctor,
			DispensaryCharge: dispensary,
			MedicinesCharge:  0,
		}
		if err := s.bills.Upsert(ctx, bill); err != nil {
			return err
		}

		var total float64
		var entries []BillEntry
		for _, a := range req.BatchAssigns {
			batch, err := s.batches.GetDetail(ctx, *a.BatchID)
			if errors.Is(err, inventory.ErrNotFound) {
				return fmt.Errorf("%w: %s", ErrBatchNotFound, a.BatchID)
			}
			if err != nil {
				return err
			}
			issue, err := s.issues.GetByID(ctx, a.IssueID)
			if errors.Is(err, prescription.ErrNotFound) {
				return fmt.Errorf("%w: %s", ErrIssueNotFound, a.IssueID)
			}
			if err != nil {
				return err
			}

			if err := s.memo.RememberBatch(ctx, batch.DrugID, batch.BrandID, batch.ID); err != nil {
				return err
			}
			if err := s.issues.SetBatch(ctx, a.IssueID, *a.BatchID); err != nil {
				return err
			}

			total += issue.Quantity * batch.RetailPrice
			entries = append(entries, BillEntry{
				DrugName:  batch.DrugName,
				BrandName: batch.BrandName,
				Quantity:  issue.Quantity,
				UnitPrice: batch.RetailPrice,
			})
		}

		if err := s.bills.UpdateMedicinesCharge(ctx, bill.ID, total); err != nil {
			return err
		}
		bill.MedicinesCharge = total

		pat, err := s.patients.GetByID(ctx, p.PatientID)
		if err != nil {
			return err
		}

		view = &BillView{
			BillID:           bill.ID,
			PrescriptionID:   req.PrescriptionID,
			PatientID:        p.PatientID,
			PatientName:      pat.Name,
			Cost:             total + doctor + dispensary,
			DoctorCharge:     doctor,
			DispensaryCharge: dispensary,
			MedicinesCharge:  total,
			Entries:          entries,
		}
		return nil
	})
	if err != nil {
		for _, known := range knownErrs {
			if errors.Is(err, known) {
				return nil, err
			}
		}
		s.log.Error().Err(err).Str("prescription_id", req.PrescriptionID.String()).Msg("bill calculation failed")
		return nil, ErrBillCalculationFailed
	}
	return view, nil
}

// GetBill rebuilds the bill view for a prescription from the persisted
// bill, its issues and their assigned batches.
func (s *Service) GetBill(ctx context.Context, prescriptionID uuid.UUID) (*BillView, error) {
	bill, err := s.bills.GetByPrescription(ctx, prescriptionID)
	if err != nil {
		return nil, err
	}
	p, err := s.prescriptions.GetByID(ctx, prescriptionID)
	if err != nil {
		return nil, err
	}
	pat, err := s.patients.GetByID(ctx, p.PatientID)
	if err != nil {
		return nil, err
	}
	issues, err := s.issues.ListByPrescription(ctx, prescriptionID)
	if err != nil {
		return nil, err
	}

	var entries []BillEntry
	for _, i := range issues {
		if i.BatchID == nil {
			continue
		}
		batch, err := s.batches.GetDetail(ctx, *i.BatchID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, BillEntry{
			DrugName:  batch.DrugName,
			BrandName: batch.BrandName,
			Quantity:  i.Quantity,
			UnitPrice: batch.RetailPrice,
		})
	}

	return &BillView{
		BillID:           bill.ID,
		PrescriptionID:   prescriptionID,
		PatientID:        p.PatientID,
		PatientName:      pat.Name,
		Cost:             bill.MedicinesCharge + bill.DoctorCharge + bill.DispensaryCharge,
		DoctorCharge:     bill.DoctorCharge,
		DispensaryCharge: bill.DispensaryCharge,
		MedicinesCharge:  bill.MedicinesCharge,
		Entries:          entries,
	}, nil
}
