package mentalgenerals

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MentalGenerals maps to the patient_mental_generals table: the narrative
// mental-generals observations recorded for one patient.
type MentalGenerals struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patientRef"`
	Fields
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Fields holds the free-text observations. A nil pointer means the field was
// not supplied; on update only non-nil fields are written.
type Fields struct {
	Temperament         *string `db:"temperament" json:"temperament,omitempty"`
	Fears               *string `db:"fears" json:"fears,omitempty"`
	Anxieties           *string `db:"anxieties" json:"anxieties,omitempty"`
	AngerIrritability   *string `db:"anger_irritability" json:"angerIrritability,omitempty"`
	MemoryConcentration *string `db:"memory_concentration" json:"memoryConcentration,omitempty"`
	SleepImpact         *string `db:"sleep_impact" json:"sleepImpact,omitempty"`
	GriefOrTrauma       *string `db:"grief_or_trauma" json:"griefOrTrauma,omitempty"`
	OtherSymptoms       *string `db:"other_symptoms" json:"otherSymptoms,omitempty"`
}

// refs returns the text fields in column order.
func (f *Fields) refs() []**string {
	return []**string{
		&f.Temperament,
		&f.Fears,
		&f.Anxieties,
		&f.AngerIrritability,
		&f.MemoryConcentration,
		&f.SleepImpact,
		&f.GriefOrTrauma,
		&f.OtherSymptoms,
	}
}

// Trimmed returns a copy with surrounding whitespace removed from every
// supplied field. Absent fields stay absent.
func (f Fields) Trimmed() Fields {
	out := f
	for _, ref := range out.refs() {
		if *ref != nil {
			v := strings.TrimSpace(**ref)
			*ref = &v
		}
	}
	return out
}

// IsEmpty reports whether no field was supplied.
func (f Fields) IsEmpty() bool {
	for _, ref := range f.refs() {
		if *ref != nil {
			return false
		}
	}
	return true
}
