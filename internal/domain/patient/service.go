package patient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAlreadyQueued = errors.New("patient is already in today's queue")
	ErrEmptyQueue    = errors.New("no patients waiting")
)

// queueTransitions lists the allowed queue status changes.
var queueTransitions = map[string][]string{
	QueueWaiting:    {QueueInProgress, QueueCancelled},
	QueueInProgress: {QueueDone},
}

type Service struct {
	patients Repository
	queue    QueueRepository
	now      func() time.Time
}

func NewService(patients Repository, queue QueueRepository) *Service {
	return &Service{patients: patients, queue: queue, now: time.Now}
}

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.patients.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.patients.Update(ctx, p)
}

func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	return s.patients.Delete(ctx, id)
}

func (s *Service) SearchPatients(ctx context.Context, name string, limit, offset int) ([]*Patient, int, error) {
	return s.patients.Search(ctx, name, limit, offset)
}

// today truncates the clock to a calendar date, the queue partitioning key.
func (s *Service) today() time.Time {
	y, m, d := s.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Enqueue adds a patient to today's queue with the next ticket number.
// A patient can hold at most one active entry per day.
func (s *Service) Enqueue(ctx context.Context, patientID uuid.UUID) (*QueueEntry, error) {
	p, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	day := s.today()
	if _, err := s.queue.ActiveEntryForPatient(ctx, patientID, day); err == nil {
		return nil, ErrAlreadyQueued
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	ticket, err := s.queue.NextTicketNumber(ctx, day)
	if err != nil {
		return nil, err
	}

	entry := &QueueEntry{
		PatientID:    patientID,
		PatientName:  p.Name,
		TicketNumber: ticket,
		QueueDate:    day,
		Status:       QueueWaiting,
	}
	if err := s.queue.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// CallNext moves the lowest-ticket waiting patient to IN_PROGRESS.
func (s *Service) CallNext(ctx context.Context) (*QueueEntry, error) {
	entry, err := s.queue.FirstWaiting(ctx, s.today())
	if errors.Is(err, ErrNotFound) {
		return nil, ErrEmptyQueue
	}
	if err != nil {
		return nil, err
	}
	if err := s.queue.UpdateStatus(ctx, entry.ID, QueueInProgress); err != nil {
		return nil, err
	}
	entry.Status = QueueInProgress
	return entry, nil
}

// UpdateQueueStatus applies a status change, rejecting transitions outside
// WAITING -> IN_PROGRESS -> DONE (CANCELLED only from WAITING).
func (s *Service) UpdateQueueStatus(ctx context.Context, id uuid.UUID, status string) (*QueueEntry, error) {
	entry, err := s.queue.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	allowed := false
	for _, next := range queueTransitions[entry.Status] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("cannot move queue entry from %s to %s", entry.Status, status)
	}

	if err := s.queue.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	entry.Status = status
	return entry, nil
}

// ListQueue returns today's queue, optionally filtered by status.
func (s *Service) ListQueue(ctx context.Context, status string) ([]*QueueEntry, error) {
	return s.queue.ListForDay(ctx, s.today(), status)
}
