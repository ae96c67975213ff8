package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DeleteHook is called inside the patient delete, after the patient row is
// locked and before it is removed. A hook error aborts the delete.
type DeleteHook func(ctx context.Context, patientID uuid.UUID) error

// TxFunc runs fn in a transaction that repositories join through ctx.
type TxFunc func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	patients    PatientRepository
	inTx        TxFunc
	deleteHooks []DeleteHook
}

// NewService builds the patient service. inTx may be nil, in which case the
// delete and its hooks run without a shared transaction.
func NewService(patients PatientRepository, inTx TxFunc) *Service {
	if inTx == nil {
		inTx = func(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
	}
	return &Service{patients: patients, inTx: inTx}
}

// OnDelete registers a hook run for every patient delete, in registration order.
func (s *Service) OnDelete(hook DeleteHook) {
	s.deleteHooks = append(s.deleteHooks, hook)
}

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	if p.FirstName == "" || p.LastName == "" {
		return fmt.Errorf("%w: firstName and lastName are required", ErrInvalidPatient)
	}
	if p.MRN != nil {
		mrn := strings.TrimSpace(*p.MRN)
		if mrn == "" {
			p.MRN = nil
		} else {
			p.MRN = &mrn
		}
	}
	return s.patients.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

// PatientExists resolves a patient reference.
func (s *Service) PatientExists(ctx context.Context, id uuid.UUID) (bool, error) {
	if id == uuid.Nil {
		return false, nil
	}
	return s.patients.Exists(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, limit, offset)
}

// DeletePatient locks the patient, runs the delete hooks and removes the
// patient in one transaction. The lock makes a concurrent record create either
// finish before the hooks run or see the patient gone.
func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	return s.inTx(ctx, func(ctx context.Context) error {
		if err := s.patients.LockForDelete(ctx, id); err != nil {
			return err
		}
		for _, hook := range s.deleteHooks {
			if err := hook(ctx, id); err != nil {
				return fmt.Errorf("patient %s delete hook: %w", id, err)
			}
		}
		return s.patients.Delete(ctx, id)
	})
}
