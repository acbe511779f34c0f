package integration

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cliniq/cliniq/internal/domain/billing"
	"github.com/cliniq/cliniq/internal/domain/inventory"
	"github.com/cliniq/cliniq/internal/domain/patient"
	"github.com/cliniq/cliniq/internal/domain/prescription"
	"github.com/cliniq/cliniq/internal/platform/db"
)

type services struct {
	patients      *patient.Service
	inventory     *inventory.Service
	prescriptions *prescription.Service
	billing       *billing.Service
	billRepo      billing.BillRepository
	batchRepo     inventory.BatchRepository
}

type billRepoChecker struct{ repo billing.BillRepository }

func (a billRepoChecker) HasBill(ctx context.Context, prescriptionID uuid.UUID) (bool, error) {
	return a.repo.ExistsForPrescription(ctx, prescriptionID)
}

func newServices(t *testing.T) *services {
	t.Helper()
	pool := globalDB.Pool
	txRunner := db.NewTxRunner(pool)
	logger := zerolog.New(os.Stderr)

	patientRepo := patient.NewRepoPG(pool)
	queueRepo := patient.NewQueueRepoPG(pool)

	drugRepo := inventory.NewDrugRepoPG(pool)
	brandRepo := inventory.NewBrandRepoPG(pool)
	batchRepo := inventory.NewBatchRepoPG(pool)
	historyRepo := inventory.NewBatchHistoryRepoPG(pool)
	inventorySvc := inventory.NewService(drugRepo, brandRepo, batchRepo, historyRepo)

	chargeRepo := billing.NewChargeRepoPG(pool)
	billRepo := billing.NewBillRepoPG(pool)

	prescriptionRepo := prescription.NewRepoPG(pool)
	issueRepo := prescription.NewIssueRepoPG(pool)
	offRecordRepo := prescription.NewOffRecordRepoPG(pool)
	prescriptionSvc := prescription.NewService(prescriptionRepo, issueRepo, offRecordRepo,
		billRepoChecker{billRepo}, inventorySvc, txRunner)

	billingSvc := billing.NewService(chargeRepo, billRepo, prescriptionRepo, issueRepo,
		batchRepo, inventorySvc, patientRepo, txRunner, logger)

	return &services{
		patients:      patient.NewService(patientRepo, queueRepo),
		inventory:     inventorySvc,
		prescriptions: prescriptionSvc,
		billing:       billingSvc,
		billRepo:      billRepo,
		batchRepo:     batchRepo,
	}
}

// TestClinicFlow walks the full visit workflow against a real database:
// register a patient, queue them, prescribe, calculate the bill with a
// batch assignment, then complete the prescription and verify stock.
func TestClinicFlow(t *testing.T) {
	ctx := context.Background()
	svcs := newServices(t)

	p := createTestPatient(t, ctx, "Nimal Perera")
	_, brand := createTestDrugBrand(t, ctx, "Amoxicillin", "Amoxil 500mg")
	batch := createTestBatch(t, ctx, svcs.inventory, brand.ID, 200, 12.50)

	entry, err := svcs.patients.Enqueue(ctx, p.ID)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if entry.TicketNumber < 1 {
		t.Fatalf("ticket number = %d, want >= 1", entry.TicketNumber)
	}

	rx := &prescription.Prescription{
		PatientID: p.ID,
		Weight:    ptrFloat(72),
		Symptoms:  ptrStr("sore throat"),
		Issues: []*prescription.Issue{
			{DrugID: brand.DrugID, BrandID: brand.ID, Strategy: "TDS", Dose: 1, Quantity: 15},
		},
	}
	if err := svcs.prescriptions.Create(ctx, rx); err != nil {
		t.Fatalf("create prescription: %v", err)
	}
	if rx.Status != prescription.StatusPending {
		t.Fatalf("status = %q, want %q", rx.Status, prescription.StatusPending)
	}

	// Completing before billing must be refused.
	if err := svcs.prescriptions.Complete(ctx, rx.ID); !errors.Is(err, prescription.ErrNoBill) {
		t.Fatalf("complete before bill: got %v, want ErrNoBill", err)
	}

	view, err := svcs.billing.CalculateBill(ctx, billing.CalculateBillRequest{
		PrescriptionID: rx.ID,
		PatientID:      p.ID,
		BatchAssigns: []billing.BatchAssignment{
			{IssueID: rx.Issues[0].ID, BatchID: &batch.ID},
		},
	})
	if err != nil {
		t.Fatalf("calculate bill: %v", err)
	}
	wantMeds := 15 * 12.50
	if view.MedicinesCharge != wantMeds {
		t.Errorf("medicines charge = %v, want %v", view.MedicinesCharge, wantMeds)
	}
	if len(view.Entries) != 1 || view.Entries[0].DrugName != "Amoxicillin" {
		t.Errorf("entries = %+v, want one Amoxicillin line", view.Entries)
	}

	// Calculation must not draw down stock.
	got, err := svcs.batchRepo.GetByID(ctx, batch.ID)
	if err != nil {
		t.Fatalf("get batch: %v", err)
	}
	if got.RemainingQuantity != 200 {
		t.Fatalf("remaining after calculation = %v, want 200", got.RemainingQuantity)
	}

	if err := svcs.prescriptions.Complete(ctx, rx.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	got, err = svcs.batchRepo.GetByID(ctx, batch.ID)
	if err != nil {
		t.Fatalf("get batch after complete: %v", err)
	}
	if got.RemainingQuantity != 185 {
		t.Errorf("remaining after complete = %v, want 185", got.RemainingQuantity)
	}

	// Second completion is rejected.
	if err := svcs.prescriptions.Complete(ctx, rx.ID); !errors.Is(err, prescription.ErrAlreadyCompleted) {
		t.Fatalf("second complete: got %v, want ErrAlreadyCompleted", err)
	}

	// Recalculating a completed prescription is refused.
	_, err = svcs.billing.CalculateBill(ctx, billing.CalculateBillRequest{
		PrescriptionID: rx.ID,
		PatientID:      p.ID,
		BatchAssigns: []billing.BatchAssignment{
			{IssueID: rx.Issues[0].ID, BatchID: &batch.ID},
		},
	})
	if !errors.Is(err, billing.ErrAlreadyCompleted) {
		t.Fatalf("recalculate after complete: got %v, want ErrAlreadyCompleted", err)
	}
}

// TestClinicFlow_BatchSuggestion verifies the billing run feeds the batch
// memo so the next prescription for the same brand gets a suggestion.
func TestClinicFlow_BatchSuggestion(t *testing.T) {
	ctx := context.Background()
	svcs := newServices(t)

	p := createTestPatient(t, ctx, "Kamala Silva")
	drug, brand := createTestDrugBrand(t, ctx, "Paracetamol", "Panadol 500mg")
	batch := createTestBatch(t, ctx, svcs.inventory, brand.ID, 500, 3.00)

	rx := &prescription.Prescription{
		PatientID: p.ID,
		Issues: []*prescription.Issue{
			{DrugID: drug.ID, BrandID: brand.ID, Strategy: "BD", Dose: 2, Quantity: 20},
		},
	}
	if err := svcs.prescriptions.Create(ctx, rx); err != nil {
		t.Fatalf("create prescription: %v", err)
	}

	if _, err := svcs.inventory.SuggestBatch(ctx, drug.ID, brand.ID); !errors.Is(err, inventory.ErrNotFound) {
		t.Fatalf("suggestion before billing: got %v, want ErrNotFound", err)
	}

	_, err := svcs.billing.CalculateBill(ctx, billing.CalculateBillRequest{
		PrescriptionID: rx.ID,
		PatientID:      p.ID,
		BatchAssigns: []billing.BatchAssignment{
			{IssueID: rx.Issues[0].ID, BatchID: &batch.ID},
		},
	})
	if err != nil {
		t.Fatalf("calculate bill: %v", err)
	}

	suggested, err := svcs.inventory.SuggestBatch(ctx, drug.ID, brand.ID)
	if err != nil {
		t.Fatalf("suggestion after billing: %v", err)
	}
	if suggested.ID != batch.ID {
		t.Errorf("suggested batch = %s, want %s", suggested.ID, batch.ID)
	}
}
