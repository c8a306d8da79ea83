package cache

import (
	"context"
	"errors"
	"time"

	"github.com/checkmaster/backend/internal/domain/conference"
	"github.com/checkmaster/backend/internal/infrastructure/persistence/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultWorkspaceKey = "checkmaster:workspace:" + models.DefaultWorkspaceID

// RedisWorkspaceStore is a write-through cache in front of another WorkspaceStore.
// The wrapped store stays the source of truth: cache failures are logged and never
// fail an operation.
type RedisWorkspaceStore struct {
	next   conference.WorkspaceStore
	client redis.Cmdable
	key    string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisWorkspaceStore wraps next with a Redis cache whose entries live for ttl
func NewRedisWorkspaceStore(next conference.WorkspaceStore, client redis.Cmdable, ttl time.Duration, logger *zap.Logger) *RedisWorkspaceStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisWorkspaceStore{
		next:   next,
		client: client,
		key:    defaultWorkspaceKey,
		ttl:    ttl,
		logger: logger,
	}
}

// Load serves the cached snapshot, filling the cache from the wrapped store on a miss
func (s *RedisWorkspaceStore) Load(ctx context.Context) (*conference.Workspace, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	switch {
	case err == nil:
		ws, decodeErr := models.DecodeWorkspace(data)
		if decodeErr == nil {
			return ws, nil
		}
		s.logger.Warn("Discarding unreadable cached workspace", zap.Error(decodeErr))
		s.invalidate(ctx)
	case !errors.Is(err, redis.Nil):
		s.logger.Warn("Workspace cache read failed", zap.Error(err))
	}

	ws, err := s.next.Load(ctx)
	if err != nil {
		return nil, err
	}
	s.put(ctx, ws)
	return ws, nil
}

// Save writes through to the wrapped store, then refreshes the cache
func (s *RedisWorkspaceStore) Save(ctx context.Context, ws *conference.Workspace) error {
	if err := s.next.Save(ctx, ws); err != nil {
		return err
	}
	s.put(ctx, ws)
	return nil
}

// SaveWithApproved writes through to the wrapped store, then refreshes the cache
func (s *RedisWorkspaceStore) SaveWithApproved(ctx context.Context, ws *conference.Workspace, approved *conference.Batch) error {
	if err := s.next.SaveWithApproved(ctx, ws, approved); err != nil {
		return err
	}
	s.put(ctx, ws)
	return nil
}

func (s *RedisWorkspaceStore) put(ctx context.Context, ws *conference.Workspace) {
	data, err := models.EncodeWorkspace(ws)
	if err != nil {
		s.logger.Warn("Failed to encode workspace for cache", zap.Error(err))
		s.invalidate(ctx)
		return
	}
	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		s.logger.Warn("Workspace cache write failed", zap.Error(err))
		// A stale entry must not outlive a newer snapshot
		s.invalidate(ctx)
	}
}

func (s *RedisWorkspaceStore) invalidate(ctx context.Context) {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		s.logger.Warn("Workspace cache invalidation failed", zap.Error(err))
	}
}

var _ conference.WorkspaceStore = (*RedisWorkspaceStore)(nil)
