package prescription

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrAlreadyCompleted rejects a second completion of the same
	// prescription; the status re-check happens inside the transaction.
	ErrAlreadyCompleted = errors.New("prescription is already completed")
	// ErrNoBill gates completion behind a successful bill calculation.
	ErrNoBill = errors.New("a bill must be calculated before completing the prescription")
	// ErrUnassignedIssue means at least one issue has no batch assigned.
	ErrUnassignedIssue = errors.New("every issue must have an assigned batch")
)

// BillChecker reports whether a bill exists for a prescription. Wired to
// the billing package in main.
type BillChecker interface {
	HasBill(ctx context.Context, prescriptionID uuid.UUID) (bool, error)
}

// StockDrawer draws issued quantities down from inventory batches. Wired
// to the inventory service in main.
type StockDrawer interface {
	DrawDown(ctx context.Context, batchID uuid.UUID, qty float64) error
}

// TxRunner is the unit-of-work boundary; satisfied by db.TxRunner.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	prescriptions Repository
	issues        IssueRepository
	offRecord     OffRecordRepository
	bills         BillChecker
	stock         StockDrawer
	tx            TxRunner
}

func NewService(
	prescriptions Repository,
	issues IssueRepository,
	offRecord OffRecordRepository,
	bills BillChecker,
	stock StockDrawer,
	tx TxRunner,
) *Service {
	return &Service{
		prescriptions: prescriptions,
		issues:        issues,
		offRecord:     offRecord,
		bills:         bills,
		stock:         stock,
		tx:            tx,
	}
}

// Create persists a prescription with its issues and off-record meds in
// one transaction. The prescription starts PENDING.
func (s *Service) Create(ctx context.Context, p *Prescription) error {
	if p.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	for _, i := range p.Issues {
		if i.DrugID == uuid.Nil || i.BrandID == uuid.Nil {
			return fmt.Errorf("every issue needs a drug and brand")
		}
		if i.Quantity <= 0 {
			return fmt.Errorf("issue quantity must be positive")
		}
		if i.Strategy == "" {
			return fmt.Errorf("every issue needs an issuing strategy")
		}
	}
	for _, m := range p.OffRecordMeds {
		if m.Name == "" {
			return fmt.Errorf("off-record medicine name is required")
		}
	}

	p.Status = StatusPending
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.prescriptions.Create(ctx, p); err != nil {
			return err
		}
		for _, i := range p.Issues {
			i.PrescriptionID = p.ID
			i.BatchID = nil
			if err := s.issues.Create(ctx, i); err != nil {
				return err
			}
		}
		for _, m := range p.OffRecordMeds {
			m.PrescriptionID = p.ID
			if err := s.offRecord.Create(ctx, m); err != nil {
				return err
			}
		}
		return nil
	})
}

// Get loads a prescription with its issues and off-record meds.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := s.prescriptions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Issues, err = s.issues.ListByPrescription(ctx, id); err != nil {
		return nil, err
	}
	if p.OffRecordMeds, err = s.offRecord.ListByPrescription(ctx, id); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	return s.prescriptions.ListByPatient(ctx, patientID, limit, offset)
}

// Complete moves a prescription from PENDING to COMPLETED. All
// preconditions are checked inside one transaction: the prescription must
// still be PENDING, a bill must exist, and every issue must carry a batch
// assignment. Each issue's batch is drawn down by its quantity; any
// failure, including insufficient stock, rolls the whole transition back.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		p, err := s.prescriptions.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if p.Status == StatusCompleted {
			return ErrAlreadyCompleted
		}

		hasBill, err := s.bills.HasBill(ctx, id)
		if err != nil {
			return err
		}
		if !hasBill {
			return ErrNoBill
		}

		issues, err := s.issues.ListByPrescription(ctx, id)
		if err != nil {
			return err
		}
		for _, i := range issues {
			if i.BatchID == nil {
				return ErrUnassignedIssue
			}
		}
		for _, i := range issues {
			if err := s.stock.DrawDown(ctx, *i.BatchID, i.Quantity); err != nil {
				return fmt.Errorf("drawing down batch for issue %s: %w", i.ID, err)
			}
		}

		if err := s.prescriptions.MarkCompleted(ctx, id); err != nil {
			if errors.Is(err, ErrNotFound) {
				return ErrAlreadyCompleted
			}
			return err
		}
		return nil
	})
}
