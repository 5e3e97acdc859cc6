package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const sweepLockKey = "codeduel:sweep:lock"

// releaseScript deletes the key only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SweepLock keeps finalization sweeps from overlapping across instances.
// The key expires after ttl so a crashed holder cannot wedge the sweeper.
type SweepLock struct {
	client *redis.Client
	owner  string
}

func NewSweepLock(client *redis.Client) *SweepLock {
	return &SweepLock{
		client: client,
		owner:  strconv.FormatInt(time.Now().UnixNano(), 36),
	}
}

func (l *SweepLock) TryAcquire(ctx context.Context, ttl time.Duration) (func(), bool, error) {
	ok, err := l.client.SetNX(ctx, sweepLockKey, l.owner, ttl).Result()
	if err != nil || !ok {
		return nil, false, err
	}
	release := func() {
		_ = releaseScript.Run(context.Background(), l.client, []string{sweepLockKey}, l.owner).Err()
	}
	return release, true, nil
}
