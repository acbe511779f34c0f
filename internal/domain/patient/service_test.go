package patient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockRepo struct {
	patients map[uuid.UUID]*Patient
}

func newMockRepo() *mockRepo {
	return &mockRepo{patients: make(map[uuid.UUID]*Patient)}
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.patients[p.ID] = p
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (m *mockRepo) Update(_ context.Context, p *Patient) error {
	if _, ok := m.patients[p.ID]; !ok {
		return ErrNotFound
	}
	m.patients[p.ID] = p
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.patients[id]; !ok {
		return ErrNotFound
	}
	delete(m.patients, id)
	return nil
}

func (m *mockRepo) Search(_ context.Context, _ string, _, _ int) ([]*Patient, int, error) {
	var out []*Patient
	for _, p := range m.patients {
		out = append(out, p)
	}
	return out, len(out), nil
}

type mockQueueRepo struct {
	entries map[uuid.UUID]*QueueEntry
}

func newMockQueueRepo() *mockQueueRepo {
	return &mockQueueRepo{entries: make(map[uuid.UUID]*QueueEntry)}
}

func (m *mockQueueRepo) Create(_ context.Context, e *QueueEntry) error {
	e.ID = uuid.New()
	m.entries[e.ID] = e
	return nil
}

func (m *mockQueueRepo) GetByID(_ context.Context, id uuid.UUID) (*QueueEntry, error) {
	e, ok := m.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

func (m *mockQueueRepo) NextTicketNumber(_ context.Context, day time.Time) (int, error) {
	max := 0
	for _, e := range m.entries {
		if e.QueueDate.Equal(day) && e.TicketNumber > max {
			max = e.TicketNumber
		}
	}
	return max + 1, nil
}

func (m *mockQueueRepo) ActiveEntryForPatient(_ context.Context, patientID uuid.UUID, day time.Time) (*QueueEntry, error) {
	for _, e := range m.entries {
		if e.PatientID == patientID && e.QueueDate.Equal(day) &&
			(e.Status == QueueWaiting || e.Status == QueueInProgress) {
			return e, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockQueueRepo) FirstWaiting(_ context.Context, day time.Time) (*QueueEntry, error) {
	var best *QueueEntry
	for _, e := range m.entries {
		if e.QueueDate.Equal(day) && e.Status == QueueWaiting {
			if best == nil || e.TicketNumber < best.TicketNumber {
				best = e
			}
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	return best, nil
}

func (m *mockQueueRepo) ListForDay(_ context.Context, day time.Time, status string) ([]*QueueEntry, error) {
	var out []*QueueEntry
	for _, e := range m.entries {
		if e.QueueDate.Equal(day) && (status == "" || e.Status == status) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockQueueRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	e, ok := m.entries[id]
	if !ok {
		return ErrNotFound
	}
	e.Status = status
	return nil
}

func newTestService() (*Service, *mockRepo, *mockQueueRepo) {
	patients := newMockRepo()
	queue := newMockQueueRepo()
	return NewService(patients, queue), patients, queue
}

func addPatient(t *testing.T, svc *Service, name string) *Patient {
	t.Helper()
	p := &Patient{Name: name}
	if err := svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("CreatePatient: %v", err)
	}
	return p
}

func TestCreatePatient_RequiresName(t *testing.T) {
	svc, _, _ := newTestService()
	if err := svc.CreatePatient(context.Background(), &Patient{}); err == nil {
		t.Fatal("expected error for empty name")
	}
}

func TestEnqueue_AssignsSequentialTickets(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	a := addPatient(t, svc, "Amal")
	b := addPatient(t, svc, "Bimal")

	e1, err := svc.Enqueue(ctx, a.ID)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	e2, err := svc.Enqueue(ctx, b.ID)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	if e1.TicketNumber != 1 || e2.TicketNumber != 2 {
		t.Errorf("expected tickets 1 and 2, got %d and %d", e1.TicketNumber, e2.TicketNumber)
	}
	if e1.Status != QueueWaiting {
		t.Errorf("expected WAITING, got %s", e1.Status)
	}
}

func TestEnqueue_RejectsDuplicateActiveEntry(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	p := addPatient(t, svc, "Amal")

	if _, err := svc.Enqueue(ctx, p.ID); err != nil {
		t.Fatalf("first Enqueue: %v", err)
	}
	if _, err := svc.Enqueue(ctx, p.ID); !errors.Is(err, ErrAlreadyQueued) {
		t.Fatalf("expected ErrAlreadyQueued, got %v", err)
	}
}

func TestEnqueue_UnknownPatient(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.Enqueue(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCallNext_TakesLowestTicket(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	a := addPatient(t, svc, "Amal")
	b := addPatient(t, svc, "Bimal")
	e1, _ := svc.Enqueue(ctx, a.ID)
	if _, err := svc.Enqueue(ctx, b.ID); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	called, err := svc.CallNext(ctx)
	if err != nil {
		t.Fatalf("CallNext: %v", err)
	}
	if called.ID != e1.ID {
		t.Errorf("expected ticket 1 to be called first")
	}
	if called.Status != QueueInProgress {
		t.Errorf("expected IN_PROGRESS, got %s", called.Status)
	}
}

func TestCallNext_EmptyQueue(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.CallNext(context.Background()); !errors.Is(err, ErrEmptyQueue) {
		t.Fatalf("expected ErrEmptyQueue, got %v", err)
	}
}

func TestUpdateQueueStatus_Transitions(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	p := addPatient(t, svc, "Amal")
	entry, _ := svc.Enqueue(ctx, p.ID)

	// WAITING -> DONE is not allowed.
	if _, err := svc.UpdateQueueStatus(ctx, entry.ID, QueueDone); err == nil {
		t.Fatal("expected error for WAITING -> DONE")
	}

	if _, err := svc.UpdateQueueStatus(ctx, entry.ID, QueueInProgress); err != nil {
		t.Fatalf("WAITING -> IN_PROGRESS: %v", err)
	}

	// IN_PROGRESS -> CANCELLED is not allowed.
	if _, err := svc.UpdateQueueStatus(ctx, entry.ID, QueueCancelled); err == nil {
		t.Fatal("expected error for IN_PROGRESS -> CANCELLED")
	}

	updated, err := svc.UpdateQueueStatus(ctx, entry.ID, QueueDone)
	if err != nil {
		t.Fatalf("IN_PROGRESS -> DONE: %v", err)
	}
	if updated.Status != QueueDone {
		t.Errorf("expected DONE, got %s", updated.Status)
	}

	// DONE is terminal.
	if _, err := svc.UpdateQueueStatus(ctx, entry.ID, QueueWaiting); err == nil {
		t.Fatal("expected error for DONE -> WAITING")
	}
}

func TestUpdateQueueStatus_CancelFromWaiting(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	p := addPatient(t, svc, "Amal")
	entry, _ := svc.Enqueue(ctx, p.ID)

	updated, err := svc.UpdateQueueStatus(ctx, entry.ID, QueueCancelled)
	if err != nil {
		t.Fatalf("WAITING -> CANCELLED: %v", err)
	}
	if updated.Status != QueueCancelled {
		t.Errorf("expected CANCELLED, got %s", updated.Status)
	}

	// The patient can join the queue again after cancelling.
	if _, err := svc.Enqueue(ctx, p.ID); err != nil {
		t.Fatalf("re-Enqueue after cancel: %v", err)
	}
}
