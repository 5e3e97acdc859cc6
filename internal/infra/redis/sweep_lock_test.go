package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestSweepLockSetsAndClearsKey(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	first := NewSweepLock(client)
	second := &SweepLock{client: client, owner: "other-instance"}

	release, ok, err := first.TryAcquire(context.Background(), time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected lock, ok=%v err=%v", ok, err)
	}
	if !mr.Exists(sweepLockKey) {
		t.Fatalf("expected redis key to be set")
	}

	if _, ok, _ := second.TryAcquire(context.Background(), time.Minute); ok {
		t.Fatalf("second instance must not acquire a held lock")
	}

	release()
	if mr.Exists(sweepLockKey) {
		t.Fatalf("expected redis key to be removed")
	}
}

func TestSweepLockExpires(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	crashed := &SweepLock{client: client, owner: "crashed"}
	if _, ok, _ := crashed.TryAcquire(context.Background(), 30*time.Second); !ok {
		t.Fatalf("expected initial acquire")
	}

	mr.FastForward(31 * time.Second)

	release, ok, err := NewSweepLock(client).TryAcquire(context.Background(), 30*time.Second)
	if err != nil || !ok {
		t.Fatalf("expected acquire after ttl, ok=%v err=%v", ok, err)
	}
	release()
}

func TestSweepLockReleaseIgnoresForeignOwner(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	stale := &SweepLock{client: client, owner: "stale"}
	release, _, _ := stale.TryAcquire(context.Background(), time.Second)

	mr.FastForward(2 * time.Second)
	fresh := &SweepLock{client: client, owner: "fresh"}
	if _, ok, _ := fresh.TryAcquire(context.Background(), time.Minute); !ok {
		t.Fatalf("expected fresh acquire")
	}

	release()
	if got, _ := mr.Get(sweepLockKey); got != "fresh" {
		t.Fatalf("stale release removed a lock it no longer owned, key=%q", got)
	}
}
