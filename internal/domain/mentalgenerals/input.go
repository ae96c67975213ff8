package mentalgenerals

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// CreateInput is the accepted shape of a create request body.
type CreateInput struct {
	PatientRef *string `json:"patientRef"`
	Fields
}

// ParsePatientID validates a patient reference taken from a path or body.
func ParsePatientID(raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%w: patientRef is required", ErrValidation)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: patientRef %q is not a valid identifier", ErrValidation, raw)
	}
	if id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: patientRef is required", ErrValidation)
	}
	return id, nil
}

// DecodeCreate maps a raw create body into CreateInput. An empty body is an
// empty input.
func DecodeCreate(body []byte) (CreateInput, error) {
	var in CreateInput
	if err := decodeStrict(body, &in); err != nil {
		return CreateInput{}, err
	}
	return in, nil
}

// DecodePatch maps a raw update body into Fields. patientRef is not part of
// the patch shape and is rejected like any other unknown key.
func DecodePatch(body []byte) (Fields, error) {
	var f Fields
	if err := decodeStrict(body, &f); err != nil {
		return Fields{}, err
	}
	return f, nil
}

func decodeStrict(body []byte, v interface{}) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, describeDecodeError(err))
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: body must contain a single JSON object", ErrValidation)
	}
	return nil
}

func describeDecodeError(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("field %q must be a %s", typeErr.Field, typeErr.Type)
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset)
	}
	return err.Error()
}
