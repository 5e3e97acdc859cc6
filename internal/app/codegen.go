package app

import (
	"math/rand"
	"sync"
	"time"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Randomizer is the shared source for contest codes and question draws.
// math/rand.Rand is not safe for concurrent use, hence the lock.
type Randomizer struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRandomizer(seed int64) *Randomizer {
	return &Randomizer{rnd: rand.New(rand.NewSource(seed))}
}

func newTimeSeededRandomizer() *Randomizer {
	return NewRandomizer(time.Now().UnixNano())
}

// Code returns an n-character uppercase alphanumeric code.
func (r *Randomizer) Code(n int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = codeAlphabet[r.rnd.Intn(len(codeAlphabet))]
	}
	return string(buf)
}

// Sample shuffles a copy of pool and returns its first n elements. Every
// element has equal probability of being drawn.
func Sample[T any](r *Randomizer, pool []T, n int) []T {
	if n > len(pool) {
		n = len(pool)
	}
	if n <= 0 {
		return []T{}
	}
	shuffled := make([]T, len(pool))
	copy(shuffled, pool)

	r.mu.Lock()
	r.rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	r.mu.Unlock()

	return shuffled[:n]
}
