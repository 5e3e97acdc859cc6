package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"codeduel/internal/domain"
	"golang.org/x/sync/singleflight"
)

// ProfileLoader fetches a profile from the external lookup service.
type ProfileLoader interface {
	LoadProfile(ctx context.Context, username string) (domain.Profile, error)
}

// ProfileCache caches profiles with TTL to avoid hammering the upstream service.
type ProfileCache struct {
	loader ProfileLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedProfile
}

type cachedProfile struct {
	profile   domain.Profile
	expiresAt time.Time
}

func NewProfileCache(loader ProfileLoader, ttl time.Duration) *ProfileCache {
	return &ProfileCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedProfile),
	}
}

func (c *ProfileCache) GetProfile(ctx context.Context, username string) (domain.Profile, error) {
	if p, ok := c.lookup(username); ok {
		return p, nil
	}

	result, err, _ := c.sf.Do(username, func() (interface{}, error) {
		if p, ok := c.lookup(username); ok {
			return p, nil
		}

		profile, err := c.loader.LoadProfile(ctx, username)
		if err != nil {
			return domain.Profile{}, err
		}

		c.mu.Lock()
		c.cache[username] = cachedProfile{
			profile:   profile,
			expiresAt: c.clock().Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return profile, nil
	})
	if err != nil {
		return domain.Profile{}, err
	}
	return result.(domain.Profile), nil
}

func (c *ProfileCache) lookup(username string) (domain.Profile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[username]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return domain.Profile{}, false
	}
	return entry.profile, true
}

// StaticProfileLoader serves profiles from a map (useful for tests/demos).
type StaticProfileLoader struct {
	profiles map[string]domain.Profile
}

func NewStaticProfileLoader(profiles map[string]domain.Profile) *StaticProfileLoader {
	return &StaticProfileLoader{profiles: profiles}
}

func (l *StaticProfileLoader) LoadProfile(_ context.Context, username string) (domain.Profile, error) {
	if p, ok := l.profiles[username]; ok {
		return p, nil
	}
	return domain.Profile{}, domain.ErrProfileNotFound
}

func (c *ProfileCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
