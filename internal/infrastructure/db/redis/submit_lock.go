package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const defaultLockTTL = 10 * time.Second

// releaseScript deletes the lock only if it still holds our token, so an
// expired lock re-acquired by another request is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SubmitLock serialises concurrent submissions for one (project, student)
// pair across API replicas.
// Key format: submit:<project_id>:<student_id>
type SubmitLock struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// NewSubmitLock creates a SubmitLock; ttl bounds how long a crashed request can hold a pair.
func NewSubmitLock(client *redis.Client, ttl time.Duration, log zerolog.Logger) *SubmitLock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &SubmitLock{
		client: client,
		ttl:    ttl,
		log:    log.With().Str("component", "submit_lock").Logger(),
	}
}

// Acquire takes the lock for the pair. ok is false when another submission holds it.
func (l *SubmitLock) Acquire(ctx context.Context, projectID, studentID string) (func(), bool, error) {
	key := l.key(projectID, studentID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("submit lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		// Detached from the request so a cancelled client still frees the pair.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			// The pair stays locked until the TTL expires.
			l.log.Warn().
				Err(err).
				Str("key", key).
				Dur("ttl", l.ttl).
				Msg("submit lock release failed")
		}
	}
	return release, true, nil
}

func (l *SubmitLock) key(projectID, studentID string) string {
	return fmt.Sprintf("submit:%s:%s", projectID, studentID)
}
