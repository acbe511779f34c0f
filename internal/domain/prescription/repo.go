package prescription

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("prescription not found")

type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error)
	// MarkCompleted flips PENDING to COMPLETED; it reports ErrNotFound
	// when the row is missing or no longer PENDING, so callers re-check
	// the current status inside the same transaction.
	MarkCompleted(ctx context.Context, id uuid.UUID) error
}

type IssueRepository interface {
	Create(ctx context.Context, i *Issue) error
	GetByID(ctx context.Context, id uuid.UUID) (*Issue, error)
	ListByPrescription(ctx context.Context, prescriptionID uuid.UUID) ([]*Issue, error)
	SetBatch(ctx context.Context, issueID, batchID uuid.UUID) error
}

type OffRecordRepository interface {
	Create(ctx context.Context, m *OffRecordMed) error
	ListByPrescription(ctx context.Context, prescriptionID uuid.UUID) ([]*OffRecordMed, error)
}
