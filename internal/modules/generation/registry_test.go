package generation

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/regdraft-backend/internal/platform/logger"
)

func TestMemoryRegistryAdmitsOneRun(t *testing.T) {
	reg := NewMemoryRegistry()
	id := uuid.New()

	var wg sync.WaitGroup
	var admitted atomic.Int32
	leases := make(chan Lease, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if lease, err := reg.Acquire(context.Background(), id); err == nil {
				admitted.Add(1)
				leases <- lease
			}
		}()
	}
	wg.Wait()
	close(leases)
	if admitted.Load() != 1 {
		t.Fatalf("admitted=%d", admitted.Load())
	}

	lease := <-leases
	if err := lease.Confirm(context.Background()); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	lease.Release()
	lease.Release()
	if reg.Active(id) {
		t.Fatalf("release did not clear the run")
	}
	if _, err := reg.Acquire(context.Background(), id); err != nil {
		t.Fatalf("reacquire: %v", err)
	}
}

func TestMemoryRegistryStaleReleaseKeepsNewRun(t *testing.T) {
	reg := NewMemoryRegistry()
	id := uuid.New()
	first, err := reg.Acquire(context.Background(), id)
	require.NoError(t, err)
	first.Release()
	if _, err := reg.Acquire(context.Background(), id); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	first.Release()
	if !reg.Active(id) {
		t.Fatalf("stale release removed the active run")
	}
	assert.ErrorIs(t, first.Confirm(context.Background()), ErrLeaseLost)
}

func newRedisRegistry(t *testing.T, ttl time.Duration) (*RedisRegistry, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisRegistry(rdb, ttl, logger.Nop()), mr
}

func TestRedisRegistryAdmitsOneRun(t *testing.T) {
	reg, mr := newRedisRegistry(t, time.Minute)
	id := uuid.New()

	lease, err := reg.Acquire(context.Background(), id)
	require.NoError(t, err)
	_, err = reg.Acquire(context.Background(), id)
	require.ErrorIs(t, err, ErrRunInProgress)
	require.NoError(t, lease.Confirm(context.Background()))

	lease.Release()
	lease.Release()
	assert.False(t, mr.Exists(reg.key(id)))

	again, err := reg.Acquire(context.Background(), id)
	require.NoError(t, err)
	again.Release()
}

func TestRedisReleaseKeepsAnotherHoldersKey(t *testing.T) {
	reg, mr := newRedisRegistry(t, time.Minute)
	id := uuid.New()

	lease, err := reg.Acquire(context.Background(), id)
	require.NoError(t, err)
	require.NoError(t, mr.Set(reg.key(id), "someone-else"))

	lease.Release()
	got, err := mr.Get(reg.key(id))
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRedisConfirmDetectsDroppedKey(t *testing.T) {
	reg, mr := newRedisRegistry(t, time.Minute)
	id := uuid.New()

	lease, err := reg.Acquire(context.Background(), id)
	require.NoError(t, err)
	defer lease.Release()
	mr.Del(reg.key(id))

	assert.ErrorIs(t, lease.Confirm(context.Background()), ErrLeaseLost)
	select {
	case <-lease.Lost():
	default:
		t.Fatalf("Lost not closed after a failed confirm")
	}
}

func TestRedisKeepAliveSignalsLoss(t *testing.T) {
	reg, mr := newRedisRegistry(t, 150*time.Millisecond)
	id := uuid.New()

	lease, err := reg.Acquire(context.Background(), id)
	require.NoError(t, err)
	defer lease.Release()

	// Refreshes keep the key alive well past its ttl.
	time.Sleep(300 * time.Millisecond)
	mr.FastForward(100 * time.Millisecond)
	require.True(t, mr.Exists(reg.key(id)))
	select {
	case <-lease.Lost():
		t.Fatalf("lease reported lost while held")
	default:
	}

	mr.Del(reg.key(id))
	select {
	case <-lease.Lost():
	case <-time.After(2 * time.Second):
		t.Fatalf("keep-alive never noticed the dropped key")
	}
}
