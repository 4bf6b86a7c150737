package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"
	"time"

	"exam-review-service/internal/domain"
	"exam-review-service/internal/engine"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestionCache caches resolved question sets in Redis and falls back to the
// wrapped source on a miss. The full resolved payload is cached because a
// session needs prompts and options, not just the correct option ID:
// SET quiz:{quizID}:questions {json} EX ttl
type QuestionCache struct {
	client *redis.Client
	source engine.QuestionSource
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

type cachedPayload struct {
	Definition domain.QuizDefinition `json:"definition"`
	Questions  []domain.Question     `json:"questions"`
}

func NewQuestionCache(client *redis.Client, source engine.QuestionSource, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) Resolve(ctx context.Context, quizID int64) (domain.QuizDefinition, []domain.Question, error) {
	key := c.key(quizID)

	if payload, ok := c.fromCache(ctx, key); ok {
		return payload.Definition, payload.Questions, nil
	}

	result, err, _ := c.sf.Do(strconv.FormatInt(quizID, 10), func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if payload, ok := c.fromCache(ctx, key); ok {
			return payload, nil
		}

		def, questions, err := c.source.Resolve(ctx, quizID)
		if err != nil {
			return cachedPayload{}, err
		}

		payload := cachedPayload{Definition: def, Questions: questions}
		if raw, err := json.Marshal(payload); err == nil {
			// best-effort write; a failed cache fill only costs a reload
			_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		}
		return payload, nil
	})
	if err != nil {
		return domain.QuizDefinition{}, nil, err
	}
	payload := result.(cachedPayload)
	return payload.Definition, payload.Questions, nil
}

func (c *QuestionCache) fromCache(ctx context.Context, key string) (cachedPayload, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return cachedPayload{}, false
	}
	var payload cachedPayload
	if err := json.Unmarshal(raw, &payload); err != nil || len(payload.Questions) == 0 {
		return cachedPayload{}, false
	}
	return payload, true
}

func (c *QuestionCache) key(quizID int64) string {
	return "quiz:" + strconv.FormatInt(quizID, 10) + ":questions"
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
