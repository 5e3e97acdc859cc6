package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"codeduel/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// ProfileLoader fetches a profile from the external lookup service.
type ProfileLoader interface {
	LoadProfile(ctx context.Context, username string) (domain.Profile, error)
}

// ProfileCache stores profiles as JSON strings so every instance shares one
// copy, falling back to the loader on a miss.
//
//	SET profile:{username} {json} EX ttl
type ProfileCache struct {
	client *redis.Client
	loader ProfileLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewProfileCache(client *redis.Client, loader ProfileLoader, ttl time.Duration) *ProfileCache {
	return &ProfileCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *ProfileCache) GetProfile(ctx context.Context, username string) (domain.Profile, error) {
	if p, ok := c.cached(ctx, username); ok {
		return p, nil
	}

	result, err, _ := c.sf.Do(username, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if p, ok := c.cached(ctx, username); ok {
			return p, nil
		}

		profile, err := c.loader.LoadProfile(ctx, username)
		if err != nil {
			return domain.Profile{}, err
		}

		if raw, err := json.Marshal(profile); err == nil {
			// best-effort; a failed write just means another miss later
			_ = c.client.Set(ctx, c.key(username), raw, c.ttlWithJitter()).Err()
		}
		return profile, nil
	})
	if err != nil {
		return domain.Profile{}, err
	}
	return result.(domain.Profile), nil
}

func (c *ProfileCache) cached(ctx context.Context, username string) (domain.Profile, bool) {
	raw, err := c.client.Get(ctx, c.key(username)).Bytes()
	if err != nil {
		// redis.Nil is a plain miss; other errors also fall through to the loader
		return domain.Profile{}, false
	}
	var p domain.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.Profile{}, false
	}
	return p, true
}

func (c *ProfileCache) key(username string) string {
	return "profile:" + username
}

func (c *ProfileCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
