package mentalgenerals

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/clinic/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

const patientUniqueConstraint = "patient_mental_generals_patient_id_key"

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const mgCols = `id, patient_id, temperament, fears, anxieties, anger_irritability,
	memory_concentration, sleep_impact, grief_or_trauma, other_symptoms,
	created_at, updated_at`

func (r *repoPG) scanRow(row pgx.Row) (*MentalGenerals, error) {
	var m MentalGenerals
	err := row.Scan(&m.ID, &m.PatientID, &m.Temperament, &m.Fears, &m.Anxieties, &m.AngerIrritability,
		&m.MemoryConcentration, &m.SleepImpact, &m.GriefOrTrauma, &m.OtherSymptoms,
		&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repoPG) Create(ctx context.Context, m *MentalGenerals) error {
	id := uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient_mental_generals (id, patient_id, temperament, fears, anxieties,
			anger_irritability, memory_concentration, sleep_impact, grief_or_trauma, other_symptoms)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at`,
		id, m.PatientID, m.Temperament, m.Fears, m.Anxieties,
		m.AngerIrritability, m.MemoryConcentration, m.SleepImpact, m.GriefOrTrauma, m.OtherSymptoms,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err, patientUniqueConstraint) {
			return fmt.Errorf("patient %s: %w", m.PatientID, ErrDuplicateRecord)
		}
		if db.IsInvalidInput(err) {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return fmt.Errorf("insert mental generals: %w", err)
	}
	m.ID = id
	return nil
}

func (r *repoPG) GetByPatient(ctx context.Context, patientID uuid.UUID) (*MentalGenerals, error) {
	m, err := r.scanRow(r.conn(ctx).QueryRow(ctx,
		`SELECT `+mgCols+` FROM patient_mental_generals WHERE patient_id = $1`, patientID))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, fmt.Errorf("patient %s: %w", patientID, ErrNotFound)
		}
		return nil, fmt.Errorf("get mental generals: %w", err)
	}
	return m, nil
}

// Update leaves a column untouched when its parameter is NULL. updated_at is
// clock time, bumped by a microsecond when the clock has not moved past the
// stored value, so it always strictly increases.
func (r *repoPG) Update(ctx context.Context, patientID uuid.UUID, patch Fields) (*MentalGenerals, error) {
	m, err := r.scanRow(r.conn(ctx).QueryRow(ctx, `
		UPDATE patient_mental_generals SET
			temperament = COALESCE($2, temperament),
			fears = COALESCE($3, fears),
			anxieties = COALESCE($4, anxieties),
			anger_irritability = COALESCE($5, anger_irritability),
			memory_concentration = COALESCE($6, memory_concentration),
			sleep_impact = COALESCE($7, sleep_impact),
			grief_or_trauma = COALESCE($8, grief_or_trauma),
			other_symptoms = COALESCE($9, other_symptoms),
			updated_at = GREATEST(clock_timestamp(), updated_at + INTERVAL '1 microsecond')
		WHERE patient_id = $1
		RETURNING `+mgCols,
		patientID, patch.Temperament, patch.Fears, patch.Anxieties,
		patch.AngerIrritability, patch.MemoryConcentration, patch.SleepImpact,
		patch.GriefOrTrauma, patch.OtherSymptoms))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, fmt.Errorf("patient %s: %w", patientID, ErrNotFound)
		}
		if db.IsInvalidInput(err) {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return nil, fmt.Errorf("update mental generals: %w", err)
	}
	return m, nil
}

func (r *repoPG) DeleteByPatient(ctx context.Context, patientID uuid.UUID) error {
	if _, err := r.conn(ctx).Exec(ctx, `DELETE FROM patient_mental_generals WHERE patient_id = $1`, patientID); err != nil {
		return fmt.Errorf("delete mental generals: %w", err)
	}
	return nil
}
