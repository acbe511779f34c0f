package patient

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by repositories when no row matches.
var ErrNotFound = errors.New("patient not found")

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, name string, limit, offset int) ([]*Patient, int, error)
}

type QueueRepository interface {
	Create(ctx context.Context, e *QueueEntry) error
	GetByID(ctx context.Context, id uuid.UUID) (*QueueEntry, error)
	// NextTicketNumber returns the next ticket number for the given day.
	NextTicketNumber(ctx context.Context, day time.Time) (int, error)
	// ActiveEntryForPatient returns the patient's WAITING or IN_PROGRESS
	// entry for the day, or ErrNotFound.
	ActiveEntryForPatient(ctx context.Context, patientID uuid.UUID, day time.Time) (*QueueEntry, error)
	// FirstWaiting returns the lowest-ticket WAITING entry for the day.
	FirstWaiting(ctx context.Context, day time.Time) (*QueueEntry, error)
	ListForDay(ctx context.Context, day time.Time, status string) ([]*QueueEntry, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}
