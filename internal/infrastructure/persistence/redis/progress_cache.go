package redis

import (
	"context"
	"errors"
	"time"

	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/progress"
	"github.com/roshankumarc210506-arch/learnsphere/pkg/logger"
)

// ProgressStore is the primary store behind the cache.
type ProgressStore interface {
	Load(ctx context.Context, username string) (progress.State, error)
	Save(ctx context.Context, state progress.State) error
	List(ctx context.Context) ([]progress.State, error)
}

// DocumentCache is the subset of Cache used for progress documents.
type DocumentCache interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	SetBytes(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// CachedProgressStore reads through and writes through a Redis cache.
// The primary store is authoritative: cache errors are logged and never returned.
type CachedProgressStore struct {
	primary ProgressStore
	cache   DocumentCache
	ttl     time.Duration
	log     *logger.Logger
}

// NewCachedProgressStore creates a cached store. ttl <= 0 uses TTLProgress.
func NewCachedProgressStore(primary ProgressStore, cache DocumentCache, ttl time.Duration, log *logger.Logger) *CachedProgressStore {
	if ttl <= 0 {
		ttl = TTLProgress
	}
	if log == nil {
		log = logger.Nop()
	}
	return &CachedProgressStore{
		primary: primary,
		cache:   cache,
		ttl:     ttl,
		log:     log.With(logger.Component("progress_cache")),
	}
}

// Load serves from cache, falling back to the primary store on miss or decode error.
func (s *CachedProgressStore) Load(ctx context.Context, username string) (progress.State, error) {
	key := ProgressKey(username)

	data, err := s.cache.GetBytes(ctx, key)
	switch {
	case err == nil:
		state, _, decodeErr := progress.Decode(data)
		if decodeErr == nil {
			return state, nil
		}
		s.log.Warn("dropping undecodable cache entry", logger.Username(username), logger.Err(decodeErr))
		s.drop(ctx, key)
	case !errors.Is(err, ErrCacheMiss):
		s.log.Warn("cache read failed", logger.Username(username), logger.Err(err))
	}

	state, err := s.primary.Load(ctx, username)
	if err != nil {
		return progress.State{}, err
	}
	s.put(ctx, state)
	return state, nil
}

// Save writes to the primary store and then refreshes the cache.
func (s *CachedProgressStore) Save(ctx context.Context, state progress.State) error {
	if err := s.primary.Save(ctx, state); err != nil {
		return err
	}
	s.put(ctx, state)
	return nil
}

// List always reads the primary store.
func (s *CachedProgressStore) List(ctx context.Context) ([]progress.State, error) {
	return s.primary.List(ctx)
}

func (s *CachedProgressStore) put(ctx context.Context, state progress.State) {
	key := ProgressKey(state.Username)

	data, err := progress.Encode(state)
	if err == nil {
		err = s.cache.SetBytes(ctx, key, data, s.ttl)
	}
	if err != nil {
		s.log.Warn("cache write failed", logger.Username(state.Username), logger.Err(err))
		// устаревшая запись хуже, чем промах
		s.drop(ctx, key)
	}
}

func (s *CachedProgressStore) drop(ctx context.Context, key string) {
	if err := s.cache.Delete(ctx, key); err != nil {
		s.log.Warn("cache delete failed", logger.String("key", key), logger.Err(err))
	}
}
