// Package redis shares answer keys and leaderboard change events between service instances.
package redis

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-web-service/internal/app"
	"quiz-web-service/internal/domain"
)

// AnswerKeyCache caches answer keys in Redis and falls back to a loader on cache miss.
// Correct options are stored as: HSET quiz:{quizID}:answers {questionID} {optionIndex}
// Quiz metadata is stored as:    HSET quiz:{quizID}:meta passingScore {n} questions {n}
// Every invalidation bumps quiz:{quizID}:version; a load only writes back if it is unchanged.
type AnswerKeyCache struct {
	client *redis.Client
	loader app.AnswerKeyLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewAnswerKeyCache(client *redis.Client, loader app.AnswerKeyLoader, ttl time.Duration) *AnswerKeyCache {
	return &AnswerKeyCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *AnswerKeyCache) AnswerKey(ctx context.Context, quizID int64) (domain.AnswerKey, error) {
	if key, ok := c.cached(ctx, quizID); ok {
		return key, nil
	}

	result, err, _ := c.sf.Do(flightKey(quizID), func() (interface{}, error) {
		// another caller may have filled it while we waited
		if key, ok := c.cached(ctx, quizID); ok {
			return key, nil
		}

		version, versionErr := c.version(ctx, c.client, quizID)
		key, err := c.loader.LoadAnswerKey(ctx, quizID)
		if err != nil {
			return domain.AnswerKey{}, err
		}
		if versionErr == nil {
			c.store(ctx, key, version)
		}
		return key, nil
	})
	if err != nil {
		return domain.AnswerKey{}, err
	}
	return result.(domain.AnswerKey), nil
}

// Invalidate drops both hashes and bumps the version so loads in flight on any
// instance do not write their key back.
func (c *AnswerKeyCache) Invalidate(ctx context.Context, quizID int64) error {
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, metaKey(quizID), answersKey(quizID))
	pipe.Incr(ctx, versionKey(quizID))
	_, err := pipe.Exec(ctx)
	c.sf.Forget(flightKey(quizID))
	if err != nil {
		return fmt.Errorf("invalidate answer key %d: %w", quizID, err)
	}
	return nil
}

var errStaleLoad = errors.New("answer key invalidated during load")

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (c *AnswerKeyCache) version(ctx context.Context, cmd getter, quizID int64) (int64, error) {
	v, err := cmd.Get(ctx, versionKey(quizID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (c *AnswerKeyCache) cached(ctx context.Context, quizID int64) (domain.AnswerKey, bool) {
	meta, err := c.client.HGetAll(ctx, metaKey(quizID)).Result()
	if err != nil || len(meta) == 0 {
		return domain.AnswerKey{}, false
	}
	passing, err := strconv.Atoi(meta["passingScore"])
	if err != nil {
		return domain.AnswerKey{}, false
	}
	count, err := strconv.Atoi(meta["questions"])
	if err != nil {
		return domain.AnswerKey{}, false
	}

	key := domain.AnswerKey{QuizID: quizID, PassingScore: passing, Correct: make(map[int64]int, count)}
	if count == 0 {
		return key, true
	}
	answers, err := c.client.HGetAll(ctx, answersKey(quizID)).Result()
	if err != nil || len(answers) != count {
		return domain.AnswerKey{}, false
	}
	for rawID, rawIdx := range answers {
		id, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil {
			return domain.AnswerKey{}, false
		}
		idx, err := strconv.Atoi(rawIdx)
		if err != nil {
			return domain.AnswerKey{}, false
		}
		key.Correct[id] = idx
	}
	return key, true
}

// store writes the key best-effort if the quiz version still matches the one read
// before loading; a failed or skipped write only costs a reload.
func (c *AnswerKeyCache) store(ctx context.Context, key domain.AnswerKey, version int64) {
	ttl := c.ttlWithJitter()
	if ttl <= 0 {
		return
	}
	meta, answers := metaKey(key.QuizID), answersKey(key.QuizID)
	_ = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := c.version(ctx, tx, key.QuizID)
		if err != nil {
			return err
		}
		if current != version {
			return errStaleLoad
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, meta, answers)
			for id, idx := range key.Correct {
				pipe.HSet(ctx, answers, strconv.FormatInt(id, 10), idx)
			}
			pipe.HSet(ctx, meta, "passingScore", key.PassingScore, "questions", len(key.Correct))
			pipe.Expire(ctx, meta, ttl)
			if len(key.Correct) > 0 {
				pipe.Expire(ctx, answers, ttl)
			}
			return nil
		})
		return err
	}, versionKey(key.QuizID))
}

func metaKey(quizID int64) string {
	return "quiz:" + strconv.FormatInt(quizID, 10) + ":meta"
}

func answersKey(quizID int64) string {
	return "quiz:" + strconv.FormatInt(quizID, 10) + ":answers"
}

func versionKey(quizID int64) string {
	return "quiz:" + strconv.FormatInt(quizID, 10) + ":version"
}

func flightKey(quizID int64) string {
	return strconv.FormatInt(quizID, 10)
}

func (c *AnswerKeyCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
