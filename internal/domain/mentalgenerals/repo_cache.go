package mentalgenerals

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ehr/clinic/internal/platform/cache"
	"github.com/ehr/clinic/internal/platform/db"
)

// Cache is the subset of the key/value cache the decorator needs.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// cachedRepo serves GetByPatient from the cache and drops the entry on every
// write. Cache errors are logged and the store answers instead.
type cachedRepo struct {
	next   Repository
	cache  Cache
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedRepo wraps next with a read-through cache. Misses are not cached.
func NewCachedRepo(next Repository, c Cache, ttl time.Duration, logger zerolog.Logger) Repository {
	return &cachedRepo{
		next:   next,
		cache:  c,
		ttl:    ttl,
		logger: logger.With().Str("component", "mental_generals_cache").Logger(),
	}
}

func cacheKey(patientID uuid.UUID) string {
	return "mental_generals:patient:" + patientID.String()
}

func (r *cachedRepo) Create(ctx context.Context, m *MentalGenerals) error {
	if err := r.next.Create(ctx, m); err != nil {
		return err
	}
	r.invalidate(ctx, m.PatientID)
	return nil
}

func (r *cachedRepo) GetByPatient(ctx context.Context, patientID uuid.UUID) (*MentalGenerals, error) {
	key := cacheKey(patientID)
	raw, err := r.cache.Get(ctx, key)
	switch {
	case err == nil:
		var m MentalGenerals
		jerr := json.Unmarshal(raw, &m)
		if jerr == nil {
			return &m, nil
		}
		r.logger.Warn().Err(jerr).Str("key", key).Msg("discarding undecodable cache entry")
	case !errors.Is(err, cache.ErrMiss):
		r.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}

	m, err := r.next.GetByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(m); err == nil {
		if err := r.cache.Set(ctx, key, raw, r.ttl); err != nil {
			r.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
		}
	}
	return m, nil
}

func (r *cachedRepo) Update(ctx context.Context, patientID uuid.UUID, patch Fields) (*MentalGenerals, error) {
	m, err := r.next.Update(ctx, patientID, patch)
	r.invalidate(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *cachedRepo) DeleteByPatient(ctx context.Context, patientID uuid.UUID) error {
	err := r.next.DeleteByPatient(ctx, patientID)
	r.invalidate(ctx, patientID)
	return err
}

// invalidate drops the entry now and, inside a transaction, again after the
// commit: until then readers still see the committed row and may re-cache it.
func (r *cachedRepo) invalidate(ctx context.Context, patientID uuid.UUID) {
	r.drop(ctx, patientID)
	db.AfterCommit(ctx, func(ctx context.Context) { r.drop(ctx, patientID) })
}

func (r *cachedRepo) drop(ctx context.Context, patientID uuid.UUID) {
	if err := r.cache.Del(ctx, cacheKey(patientID)); err != nil {
		r.logger.Warn().Err(err).Str("patient_id", patientID.String()).Msg("cache invalidation failed")
	}
}
