package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coocood/freecache"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	// 1 MB is plenty for token -> user id entries
	cacheSizeBytes   = 1024 * 1024
	maxCacheDuration = 30 * time.Second
)

type LoginChecker struct {
	ttl         time.Duration
	redisClient *redis.Client
	// short lived token -> user id cache in front of redis
	cache *freecache.Cache
	now   func() time.Time
}

func NewLoginChecker(ttl time.Duration, redisClient *redis.Client) *LoginChecker {
	return &LoginChecker{
		ttl:         ttl,
		redisClient: redisClient,
		cache:       freecache.NewCache(cacheSizeBytes),
		now:         time.Now,
	}
}

func (c *LoginChecker) UserID(ctx context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, ErrSessionNotFound
	}

	if cached, err := c.cache.Get([]byte(token)); err == nil {
		if userID, err := uuid.FromBytes(cached); err == nil {
			return userID, nil
		}
	}

	cmd := c.redisClient.Get(ctx, sessionKeyPrefix+token)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, ErrSessionNotFound
		}
		return uuid.Nil, fmt.Errorf("get session: %w", err)
	}

	userID, createdAt, err := decodeSession(cmd.Val())
	if err != nil {
		return uuid.Nil, err
	}

	remaining := c.ttl - c.now().Sub(createdAt)
	if remaining <= 0 {
		return uuid.Nil, ErrSessionNotFound
	}

	// freecache treats 0 seconds as no expiry
	if cacheSeconds := int(min(remaining, maxCacheDuration).Seconds()); cacheSeconds > 0 {
		if err := c.cache.Set([]byte(token), userID[:], cacheSeconds); err != nil {
			log.Warnf("login checker, cache session: %s", err)
		}
	}

	return userID, nil
}

func (c *LoginChecker) Invalidate(token string) {
	c.cache.Del([]byte(token))
}
