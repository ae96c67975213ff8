package identity

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patient table. Clinical sub-records reference it by ID.
type Patient struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	MRN       *string    `db:"mrn" json:"mrn,omitempty"`
	FirstName string     `db:"first_name" json:"firstName"`
	LastName  string     `db:"last_name" json:"lastName"`
	BirthDate *time.Time `db:"birth_date" json:"birthDate,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
}
