package repositories

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// LockRepositoryInterface - распределённые блокировки для фоновых задач.
type LockRepositoryInterface interface {
	// Acquire ставит ключ, если его нет. false - блокировку уже держит другой экземпляр.
	Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, owner string) error
}

type RedisLockRepository struct {
	client *redis.Client
}

func NewRedisLockRepository(client *redis.Client) LockRepositoryInterface {
	return &RedisLockRepository{client: client}
}

func (r *RedisLockRepository) Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, key, owner, ttl).Result()
}

// releaseScript удаляет ключ только если его поставил тот же владелец.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (r *RedisLockRepository) Release(ctx context.Context, key, owner string) error {
	err := releaseScript.Run(ctx, r.client, []string{key}, owner).Err()
	if err == redis.Nil {
		return nil
	}
	return err
}
