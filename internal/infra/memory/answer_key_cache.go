package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-web-service/internal/app"
	"quiz-web-service/internal/domain"
)

// AnswerKeyCache caches answer keys with TTL to avoid repeated store hits on submit.
type AnswerKeyCache struct {
	loader app.AnswerKeyLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[int64]cachedKey
	// gen counts invalidations per quiz; a load only fills the cache if it did not change.
	gen map[int64]uint64
}

type cachedKey struct {
	key       domain.AnswerKey
	expiresAt time.Time
}

func NewAnswerKeyCache(loader app.AnswerKeyLoader, ttl time.Duration) *AnswerKeyCache {
	return &AnswerKeyCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[int64]cachedKey),
		gen:    make(map[int64]uint64),
	}
}

func (c *AnswerKeyCache) lookup(quizID int64, now time.Time) (domain.AnswerKey, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[quizID]
	if !ok || !entry.expiresAt.After(now) {
		return domain.AnswerKey{}, false
	}
	return entry.key, true
}

func (c *AnswerKeyCache) AnswerKey(ctx context.Context, quizID int64) (domain.AnswerKey, error) {
	if key, ok := c.lookup(quizID, c.clock()); ok {
		return key, nil
	}

	result, err, _ := c.sf.Do(flightKey(quizID), func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		entry, ok := c.cache[quizID]
		gen := c.gen[quizID]
		c.mu.RUnlock()
		if ok && entry.expiresAt.After(now) {
			return entry.key, nil
		}

		key, err := c.loader.LoadAnswerKey(ctx, quizID)
		if err != nil {
			return domain.AnswerKey{}, err
		}

		c.mu.Lock()
		if c.gen[quizID] == gen {
			c.cache[quizID] = cachedKey{key: key, expiresAt: now.Add(c.ttlWithJitter())}
		}
		c.mu.Unlock()
		return key, nil
	})
	if err != nil {
		return domain.AnswerKey{}, err
	}
	return result.(domain.AnswerKey), nil
}

// Invalidate drops the cached key and stops loads already in flight from storing theirs.
func (c *AnswerKeyCache) Invalidate(_ context.Context, quizID int64) error {
	c.mu.Lock()
	delete(c.cache, quizID)
	c.gen[quizID]++
	c.mu.Unlock()
	c.sf.Forget(flightKey(quizID))
	return nil
}

func flightKey(quizID int64) string {
	return strconv.FormatInt(quizID, 10)
}

func (c *AnswerKeyCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter spreads expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
