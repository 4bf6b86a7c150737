package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"exam-review-service/internal/domain"
	"exam-review-service/internal/engine"
	"golang.org/x/sync/singleflight"
)

// SourceCache caches resolved question sets with TTL to avoid hitting the
// backing store on every session start.
type SourceCache struct {
	source engine.QuestionSource
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[int64]cachedResolve
}

type cachedResolve struct {
	def       domain.QuizDefinition
	questions []domain.Question
	expiresAt time.Time
}

func NewSourceCache(source engine.QuestionSource, ttl time.Duration) *SourceCache {
	return &SourceCache{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[int64]cachedResolve),
	}
}

func (c *SourceCache) Resolve(ctx context.Context, quizID int64) (domain.QuizDefinition, []domain.Question, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[quizID]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.def, entry.questions, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(strconv.FormatInt(quizID, 10), func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[quizID]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry, nil
		}
		c.mu.RUnlock()

		def, questions, err := c.source.Resolve(ctx, quizID)
		if err != nil {
			return cachedResolve{}, err
		}

		entry := cachedResolve{
			def:       def,
			questions: questions,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Lock()
		c.cache[quizID] = entry
		c.mu.Unlock()
		return entry, nil
	})
	if err != nil {
		return domain.QuizDefinition{}, nil, err
	}
	entry := result.(cachedResolve)
	return entry.def, entry.questions, nil
}

func (c *SourceCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
