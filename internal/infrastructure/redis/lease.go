package redisstore

import (
	"context"
	"time"

	"marketmaker-bot/internal/application"

	"github.com/redis/go-redis/v9"
)

var _ application.Lease = (*Lease)(nil)

// acquireScript takes the key when free or extends it when ARGV[1] already
// holds it. Both happen in one server-side step so an expired lease cannot be
// renewed on behalf of its new holder.
var acquireScript = redis.NewScript(`
if redis.call("SET", KEYS[1], ARGV[1], "NX", "PX", ARGV[2]) then
	return 1
end
if redis.call("GET", KEYS[1]) == ARGV[1] then
	redis.call("PEXPIRE", KEYS[1], ARGV[2])
	return 1
end
return 0
`)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lease keeps one refresh loop active per key across processes.
type Lease struct {
	Client *redis.Client
	Key    string
	TTL    time.Duration
}

func New(client *redis.Client, key string, ttl time.Duration) *Lease {
	return &Lease{Client: client, Key: key, TTL: ttl}
}

// TryAcquire takes the key if free, or extends it if owner already holds it.
func (l *Lease) TryAcquire(ctx context.Context, owner string) (bool, error) {
	n, err := acquireScript.Run(ctx, l.Client, []string{l.Key}, owner, l.TTL.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Release drops the key when owner holds it.
func (l *Lease) Release(ctx context.Context, owner string) error {
	return releaseScript.Run(ctx, l.Client, []string{l.Key}, owner).Err()
}
