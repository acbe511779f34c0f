package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

type ChargeRepository interface {
	Create(ctx context.Context, c *Charge) error
	GetByID(ctx context.Context, id uuid.UUID) (*Charge, error)
	// GetByName resolves a charge by its unique name, or ErrNotFound.
	GetByName(ctx context.Context, name string) (*Charge, error)
	Update(ctx context.Context, c *Charge) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*Charge, error)
}

type BillRepository interface {
	// Upsert inserts or replaces the bill keyed by prescription ID,
	// filling in the row's ID and timestamps.
	Upsert(ctx context.Context, b *Bill) error
	GetByPrescription(ctx context.Context, prescriptionID uuid.UUID) (*Bill, error)
	UpdateMedicinesCharge(ctx context.Context, id uuid.UUID, amount float64) error
	ExistsForPrescription(ctx context.Context, prescriptionID uuid.UUID) (bool, error)
}
