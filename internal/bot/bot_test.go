package bot

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestAllow_BurstThenDenied(t *testing.T) {
	b := &Bot{limiters: make(map[int64]*userLimiter)}

	for i := 0; i < 3; i++ {
		assert.True(t, b.allow(42), "нажатие %d должно пройти", i+1)
	}
	assert.False(t, b.allow(42))

	// другой пользователь не затронут
	assert.True(t, b.allow(43))
}

func TestAllow_EvictsIdleLimiters(t *testing.T) {
	b := &Bot{limiters: make(map[int64]*userLimiter)}

	stale := time.Now().Add(-time.Hour)
	for i := 0; i < limiterSweepSize; i++ {
		b.limiters[int64(i)] = &userLimiter{
			limiter:  rate.NewLimiter(1, 3),
			lastSeen: stale,
		}
	}

	assert.True(t, b.allow(int64(limiterSweepSize)))
	// простаивающие записи вытеснены, осталась только свежая
	assert.Len(t, b.limiters, 1)
	assert.Contains(t, b.limiters, int64(limiterSweepSize))
}

func TestAllow_KeepsRecentLimiters(t *testing.T) {
	b := &Bot{limiters: make(map[int64]*userLimiter)}

	now := time.Now()
	for i := 0; i < limiterSweepSize; i++ {
		b.limiters[int64(i)] = &userLimiter{
			limiter:  rate.NewLimiter(1, 3),
			lastSeen: now,
		}
	}

	assert.True(t, b.allow(int64(limiterSweepSize)))
	assert.Len(t, b.limiters, limiterSweepSize+1)
}

func TestAllow_GrowsBelowSweepSize(t *testing.T) {
	b := &Bot{limiters: make(map[int64]*userLimiter)}

	for i := 0; i < 10; i++ {
		assert.True(t, b.allow(int64(i)), fmt.Sprintf("пользователь %d", i))
	}
	assert.Len(t, b.limiters, 10)
}
