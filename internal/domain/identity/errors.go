package identity

import "errors"

var (
	ErrInvalidPatient  = errors.New("invalid patient")
	ErrPatientNotFound = errors.New("patient not found")
	ErrDuplicateMRN    = errors.New("mrn already assigned to another patient")
)
