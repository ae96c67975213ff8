//go:build integration

package integration

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehr/clinic/internal/domain/identity"
	"github.com/ehr/clinic/internal/domain/mentalgenerals"
	"github.com/ehr/clinic/internal/platform/db"
)

type fixture struct {
	patients *identity.Service
	records  *mentalgenerals.Service
	repo     mentalgenerals.Repository
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	resetTables(t)
	repo := mentalgenerals.NewRepoPG(globalDB.Pool)
	inTx := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return db.WithTx(ctx, globalDB.Pool, fn)
	}
	patients := identity.NewService(identity.NewPatientRepoPG(globalDB.Pool), inTx)
	records := mentalgenerals.NewService(repo, patients, inTx)
	patients.OnDelete(func(ctx context.Context, id uuid.UUID) error { return records.Delete(ctx, id) })
	return fixture{patients: patients, records: records, repo: repo}
}

func (f fixture) newPatient(t *testing.T) uuid.UUID {
	t.Helper()
	p := &identity.Patient{FirstName: "Test", LastName: "Patient"}
	require.NoError(t, f.patients.CreatePatient(context.Background(), p))
	return p.ID
}

func countRecords(t *testing.T, patientID uuid.UUID) int {
	t.Helper()
	var n int
	err := globalDB.Pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM patient_mental_generals WHERE patient_id = $1`, patientID).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestMentalGenerals_CreateThenFindReturnsTrimmed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pid := f.newPatient(t)

	_, err := f.records.Create(ctx, pid, mentalgenerals.Fields{
		Temperament:   ptrStr("  Calm  "),
		GriefOrTrauma: ptrStr("\tloss of parent\n"),
		OtherSymptoms: ptrStr("   "),
	})
	require.NoError(t, err)

	got, found, err := f.records.FindByPatient(ctx, pid)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Calm", *got.Temperament)
	assert.Equal(t, "loss of parent", *got.GriefOrTrauma)
	assert.Equal(t, "", *got.OtherSymptoms)
	assert.Nil(t, got.Fears)
	assert.False(t, got.CreatedAt.IsZero())
	assert.True(t, got.CreatedAt.Equal(got.UpdatedAt))
}

func TestMentalGenerals_DuplicateCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pid := f.newPatient(t)

	_, err := f.records.Create(ctx, pid, mentalgenerals.Fields{Fears: ptrStr("first")})
	require.NoError(t, err)
	_, err = f.records.Create(ctx, pid, mentalgenerals.Fields{Fears: ptrStr("second")})
	assert.ErrorIs(t, err, mentalgenerals.ErrDuplicateRecord)
	assert.Equal(t, 1, countRecords(t, pid))
}

func TestMentalGenerals_ConcurrentCreatesYieldOneRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pid := f.newPatient(t)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.records.Create(ctx, pid, mentalgenerals.Fields{})
		}(i)
	}
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, mentalgenerals.ErrDuplicateRecord):
			dup++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, dup)
	assert.Equal(t, 1, countRecords(t, pid))
}

func TestMentalGenerals_CreateWithoutPatient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.records.Create(ctx, uuid.Nil, mentalgenerals.Fields{Fears: ptrStr("x")})
	assert.ErrorIs(t, err, mentalgenerals.ErrValidation)

	ghost := uuid.New()
	_, err = f.records.Create(ctx, ghost, mentalgenerals.Fields{Fears: ptrStr("x")})
	assert.ErrorIs(t, err, mentalgenerals.ErrValidation)
	assert.Equal(t, 0, countRecords(t, ghost))
}

func TestMentalGenerals_UpdateTrimsAndAdvancesUpdatedAt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pid := f.newPatient(t)

	created, err := f.records.Create(ctx, pid, mentalgenerals.Fields{Temperament: ptrStr("Anxious"), Fears: ptrStr("dogs")})
	require.NoError(t, err)

	prev := created.UpdatedAt
	for i := 0; i < 3; i++ {
		updated, err := f.records.Update(ctx, pid, mentalgenerals.Fields{Temperament: ptrStr("  Calm  ")})
		require.NoError(t, err)
		assert.Equal(t, "Calm", *updated.Temperament)
		assert.Equal(t, "dogs", *updated.Fears)
		assert.True(t, updated.UpdatedAt.After(prev), "updatedAt must strictly increase")
		assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))
		prev = updated.UpdatedAt
	}
}

func TestMentalGenerals_UpdateMissing(t *testing.T) {
	f := newFixture(t)
	_, err := f.records.Update(context.Background(), f.newPatient(t), mentalgenerals.Fields{Fears: ptrStr("x")})
	assert.ErrorIs(t, err, mentalgenerals.ErrNotFound)
}

func TestMentalGenerals_DeleteTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pid := f.newPatient(t)

	_, err := f.records.Create(ctx, pid, mentalgenerals.Fields{})
	require.NoError(t, err)
	require.NoError(t, f.records.Delete(ctx, pid))
	require.NoError(t, f.records.Delete(ctx, pid))

	_, found, err := f.records.FindByPatient(ctx, pid)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMentalGenerals_PatientDeleteCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pid := f.newPatient(t)

	_, err := f.records.Create(ctx, pid, mentalgenerals.Fields{SleepImpact: ptrStr("insomnia")})
	require.NoError(t, err)

	require.NoError(t, f.patients.DeletePatient(ctx, pid))
	assert.Equal(t, 0, countRecords(t, pid))
}

func TestMentalGenerals_CascadeRollsBackWithPatientDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pid := f.newPatient(t)
	_, err := f.records.Create(ctx, pid, mentalgenerals.Fields{})
	require.NoError(t, err)

	hookErr := errors.New("refuse")
	f.patients.OnDelete(func(context.Context, uuid.UUID) error { return hookErr })

	assert.ErrorIs(t, f.patients.DeletePatient(ctx, pid), hookErr)
	assert.Equal(t, 1, countRecords(t, pid), "record delete must roll back with the failed patient delete")
}

func TestMentalGenerals_CreateRacingPatientDeleteLeavesNoOrphan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		pid := f.newPatient(t)

		var wg sync.WaitGroup
		var createErr, deleteErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, createErr = f.records.Create(ctx, pid, mentalgenerals.Fields{Fears: ptrStr("x")})
		}()
		go func() {
			defer wg.Done()
			deleteErr = f.patients.DeletePatient(ctx, pid)
		}()
		wg.Wait()

		require.NoError(t, deleteErr)
		if createErr != nil {
			assert.ErrorIs(t, createErr, mentalgenerals.ErrValidation)
		}
		assert.Equal(t, 0, countRecords(t, pid), "iteration %d left a record without a patient", i)
	}
}

func TestMentalGenerals_NULByteIsValidationError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pid := f.newPatient(t)

	_, err := f.records.Create(ctx, pid, mentalgenerals.Fields{Fears: ptrStr("dark\x00")})
	assert.ErrorIs(t, err, mentalgenerals.ErrValidation)
	assert.Equal(t, 0, countRecords(t, pid))

	_, err = f.records.Create(ctx, pid, mentalgenerals.Fields{})
	require.NoError(t, err)
	_, err = f.records.Update(ctx, pid, mentalgenerals.Fields{Fears: ptrStr("\x00")})
	assert.ErrorIs(t, err, mentalgenerals.ErrValidation)
}
