package repository

import (
	"context"
	"time"

	"dmbox/infrastructure/cache"
	"dmbox/internal/entity"
)

// cachedUserRepository fronts user reads with a short-TTL cache. The
// inbox listing resolves the other participant of every row, which is
// the one read path hot enough to bother caching. Writes invalidate.
type cachedUserRepository struct {
	inner UserRepository
	cache *cache.MemCache
	ttl   time.Duration
}

func NewCachedUserRepository(inner UserRepository, c *cache.MemCache, ttl time.Duration) UserRepository {
	return &cachedUserRepository{
		inner: inner,
		cache: c,
		ttl:   ttl,
	}
}

func userCacheKey(userId string) string {
	return "user:" + userId
}

func (r *cachedUserRepository) Get(ctx context.Context, userId string) (entity.User, error) {
	if v, ok := r.cache.Get(userCacheKey(userId)); ok {
		if user, ok := v.(entity.User); ok {
			return user, nil
		}
	}

	user, err := r.inner.Get(ctx, userId)
	if err != nil {
		return entity.User{}, err
	}

	r.cache.Set(userCacheKey(userId), user, r.ttl)
	return user, nil
}

func (r *cachedUserRepository) GetByEmail(ctx context.Context, email string) (entity.User, error) {
	return r.inner.GetByEmail(ctx, email)
}

func (r *cachedUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.inner.EmailExists(ctx, email)
}

func (r *cachedUserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.inner.UsernameExists(ctx, username)
}

func (r *cachedUserRepository) Create(ctx context.Context, user entity.User) (string, error) {
	return r.inner.Create(ctx, user)
}

func (r *cachedUserRepository) SetInboxEnabled(ctx context.Context, userId string, enabled bool) error {
	err := r.inner.SetInboxEnabled(ctx, userId, enabled)
	if err != nil {
		return err
	}

	r.cache.Delete(userCacheKey(userId))
	return nil
}
