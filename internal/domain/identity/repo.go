package identity

import (
	"context"

	"github.com/google/uuid"
)

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	// GetByID returns ErrPatientNotFound when no row matches.
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	// Exists holds a key-share lock on the row for the rest of the transaction.
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	// LockForDelete locks the row for update; ErrPatientNotFound when absent.
	LockForDelete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
	// Delete returns ErrPatientNotFound when no row matches.
	Delete(ctx context.Context, id uuid.UUID) error
}
