package mentalgenerals

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists mental-generals records keyed by patient. The store
// enforces one record per patient.
type Repository interface {
	// Create inserts r and fills its ID and timestamps. Returns
	// ErrDuplicateRecord when the patient already has a record.
	Create(ctx context.Context, r *MentalGenerals) error
	// GetByPatient returns ErrNotFound when the patient has no record.
	GetByPatient(ctx context.Context, patientID uuid.UUID) (*MentalGenerals, error)
	// Update writes the supplied fields of patch and refreshes updated_at.
	// Returns ErrNotFound when the patient has no record.
	Update(ctx context.Context, patientID uuid.UUID, patch Fields) (*MentalGenerals, error)
	// DeleteByPatient removes the record if present.
	DeleteByPatient(ctx context.Context, patientID uuid.UUID) error
}
