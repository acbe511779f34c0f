package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patient table.
type Patient struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	NIC         *string    `db:"nic" json:"nic,omitempty"`
	Phone       *string    `db:"phone" json:"phone,omitempty"`
	Gender      *string    `db:"gender" json:"gender,omitempty"`
	DateOfBirth *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Address     *string    `db:"address" json:"address,omitempty"`
	Allergies   *string    `db:"allergies" json:"allergies,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// Queue entry statuses.
const (
	QueueWaiting    = "WAITING"
	QueueInProgress = "IN_PROGRESS"
	QueueDone       = "DONE"
	QueueCancelled  = "CANCELLED"
)

// QueueEntry maps to the queue_entry table. Ticket numbers restart at 1
// each day.
type QueueEntry struct {
	ID           uuid.UUID `db:"id" json:"id"`
	PatientID    uuid.UUID `db:"patient_id" json:"patient_id"`
	PatientName  string    `db:"-" json:"patient_name,omitempty"`
	TicketNumber int       `db:"ticket_number" json:"ticket_number"`
	QueueDate    time.Time `db:"queue_date" json:"queue_date"`
	Status       string    `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
