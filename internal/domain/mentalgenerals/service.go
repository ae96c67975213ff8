package mentalgenerals

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// PatientLookup resolves patient references against the patient store. Inside
// a transaction a positive answer must keep the patient from being deleted
// until the transaction ends.
type PatientLookup interface {
	PatientExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// TxFunc runs fn in a transaction that repositories join through ctx.
type TxFunc func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	repo     Repository
	patients PatientLookup
	inTx     TxFunc
}

// NewService wires the record service. patients may be nil, in which case
// patient references are only checked for presence. inTx may be nil, in which
// case the patient check and the insert do not share a transaction.
func NewService(repo Repository, patients PatientLookup, inTx TxFunc) *Service {
	if inTx == nil {
		inTx = func(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
	}
	return &Service{repo: repo, patients: patients, inTx: inTx}
}

func requirePatient(patientID uuid.UUID) error {
	if patientID == uuid.Nil {
		return fmt.Errorf("%w: patientRef is required", ErrValidation)
	}
	return nil
}

// Create records the first mental-generals observations for a patient. The
// patient check and the insert run in one transaction.
func (s *Service) Create(ctx context.Context, patientID uuid.UUID, fields Fields) (*MentalGenerals, error) {
	if err := requirePatient(patientID); err != nil {
		return nil, err
	}

	m := &MentalGenerals{PatientID: patientID, Fields: fields.Trimmed()}
	err := s.inTx(ctx, func(ctx context.Context) error {
		if s.patients != nil {
			ok, err := s.patients.PatientExists(ctx, patientID)
			if err != nil {
				return fmt.Errorf("resolve patient %s: %w", patientID, err)
			}
			if !ok {
				return fmt.Errorf("%w: patientRef %s does not resolve to a patient", ErrValidation, patientID)
			}
		}
		return s.repo.Create(ctx, m)
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// FindByPatient returns the patient's record. A missing record is reported
// as found == false with a nil error.
func (s *Service) FindByPatient(ctx context.Context, patientID uuid.UUID) (*MentalGenerals, bool, error) {
	if err := requirePatient(patientID); err != nil {
		return nil, false, err
	}
	m, err := s.repo.GetByPatient(ctx, patientID)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

// Update writes the supplied fields, trimmed, and refreshes updatedAt. A patch
// that supplies no field is rejected.
func (s *Service) Update(ctx context.Context, patientID uuid.UUID, patch Fields) (*MentalGenerals, error) {
	if err := requirePatient(patientID); err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, fmt.Errorf("%w: no fields to update", ErrValidation)
	}
	return s.repo.Update(ctx, patientID, patch.Trimmed())
}

// Delete removes the patient's record. Deleting an absent record is not an error.
func (s *Service) Delete(ctx context.Context, patientID uuid.UUID) error {
	if err := requirePatient(patientID); err != nil {
		return err
	}
	return s.repo.DeleteByPatient(ctx, patientID)
}
