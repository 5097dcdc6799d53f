package generation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/regdraft-backend/internal/platform/logger"
)

const (
	defaultLeaseTTL = 30 * time.Second
	redisKeyPrefix  = "regdraft:generation:"
	leaseOpTimeout  = 3 * time.Second
)

var (
	releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)
	refreshScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)
)

// RedisRegistry shares run leases across replicas. A lease expires after ttl
// unless the holder keeps refreshing it, so a crashed replica cannot wedge a
// submission. A holder that finds its key gone or replaced closes Lost.
type RedisRegistry struct {
	rdb goredis.UniversalClient
	ttl time.Duration
	log *logger.Logger
}

func NewRedisRegistry(rdb goredis.UniversalClient, ttl time.Duration, log *logger.Logger) *RedisRegistry {
	if ttl <= 0 {
		ttl = defaultLeaseTTL
	}
	return &RedisRegistry{rdb: rdb, ttl: ttl, log: log.With("service", "RedisRunRegistry")}
}

func (r *RedisRegistry) key(submissionID uuid.UUID) string {
	return redisKeyPrefix + submissionID.String()
}

func (r *RedisRegistry) Acquire(ctx context.Context, submissionID uuid.UUID) (Lease, error) {
	key := r.key(submissionID)
	token := uuid.NewString()
	ok, err := r.rdb.SetNX(ctx, key, token, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire run lease: %w", err)
	}
	if !ok {
		return nil, ErrRunInProgress
	}

	l := &redisLease{
		reg:   r,
		key:   key,
		token: token,
		stop:  make(chan struct{}),
		lost:  make(chan struct{}),
	}
	go l.keepAlive()
	return l, nil
}

type redisLease struct {
	reg   *RedisRegistry
	key   string
	token string

	stop        chan struct{}
	lost        chan struct{}
	lostOnce    sync.Once
	releaseOnce sync.Once
}

func (l *redisLease) Lost() <-chan struct{} { return l.lost }

func (l *redisLease) markLost() {
	l.lostOnce.Do(func() {
		l.reg.log.Warn("Run lease lost", "key", l.key)
		close(l.lost)
	})
}

// extend pushes the expiry out by ttl if the key still carries our token.
func (l *redisLease) extend(ctx context.Context) (bool, error) {
	n, err := refreshScript.Run(ctx, l.reg.rdb, []string{l.key}, l.token, l.reg.ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (l *redisLease) Confirm(ctx context.Context) error {
	select {
	case <-l.lost:
		return ErrLeaseLost
	default:
	}
	ctx, cancel := context.WithTimeout(ctx, leaseOpTimeout)
	defer cancel()
	held, err := l.extend(ctx)
	if err != nil {
		return fmt.Errorf("confirm run lease: %w", err)
	}
	if !held {
		l.markLost()
		return ErrLeaseLost
	}
	return nil
}

func (l *redisLease) keepAlive() {
	ticker := time.NewTicker(l.reg.ttl / 3)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), leaseOpTimeout)
			held, err := l.extend(ctx)
			cancel()
			if err != nil {
				l.reg.log.Warn("Failed to refresh run lease", "key", l.key, "error", err)
				continue
			}
			if !held {
				l.markLost()
				return
			}
		}
	}
}

func (l *redisLease) Release() {
	l.releaseOnce.Do(func() {
		close(l.stop)
		ctx, cancel := context.WithTimeout(context.Background(), leaseOpTimeout)
		defer cancel()
		if err := releaseScript.Run(ctx, l.reg.rdb, []string{l.key}, l.token).Err(); err != nil {
			l.reg.log.Warn("Failed to release run lease", "key", l.key, "error", err)
		}
	})
}
