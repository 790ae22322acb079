package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/redis/go-redis/v9"

	"github.com/orris-inc/cloudbilling/internal/shared/constants"
	"github.com/orris-inc/cloudbilling/internal/shared/id"
)

var ErrLockHeld = errors.New("scheduler lock held by another worker")

// releaseScript deletes the key only when it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SchedulerLocker is a gocron distributed locker, so that across all worker
// processes each job run happens on at most one of them.
type SchedulerLocker struct {
	client *redis.Client
	ttl    time.Duration
}

var _ gocron.Locker = (*SchedulerLocker)(nil)

func NewSchedulerLocker(client *redis.Client, ttl time.Duration) *SchedulerLocker {
	return &SchedulerLocker{client: client, ttl: ttl}
}

func (l *SchedulerLocker) Lock(ctx context.Context, key string) (gocron.Lock, error) {
	token, err := id.Generate(24)
	if err != nil {
		return nil, err
	}

	redisKey := constants.RedisPrefixSchedulerLock + key
	acquired, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire scheduler lock %s: %w", key, err)
	}
	if !acquired {
		return nil, fmt.Errorf("%w: %s", ErrLockHeld, key)
	}

	return &schedulerLock{client: l.client, key: redisKey, token: token}, nil
}

type schedulerLock struct {
	client *redis.Client
	key    string
	token  string
}

func (l *schedulerLock) Unlock(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err(); err != nil {
		return fmt.Errorf("failed to release scheduler lock %s: %w", l.key, err)
	}
	return nil
}
