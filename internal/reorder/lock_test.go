package reorder

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func setupTestLocker(t *testing.T) *RedisLocker {
	s := miniredis.RunT(t)
	locker, err := NewRedisLocker("redis://"+s.Addr(), time.Second)
	if err != nil {
		t.Fatalf("failed to create redis locker: %v", err)
	}
	t.Cleanup(func() { locker.Close() })
	return locker
}

func TestAcquireRelease(t *testing.T) {
	locker := setupTestLocker(t)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "list:lst_1")
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	release()

	// Re-acquire after release must not block.
	release2, err := locker.Acquire(ctx, "list:lst_1")
	if err != nil {
		t.Fatalf("re-Acquire failed: %v", err)
	}
	release2()
}

func TestAcquireBlocksSecondHolder(t *testing.T) {
	locker := setupTestLocker(t)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "board:brd_1")
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	blockedCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	if _, err := locker.Acquire(blockedCtx, "board:brd_1"); err == nil {
		t.Fatal("second Acquire on held lock should time out")
	}

	release()
	release2, err := locker.Acquire(ctx, "board:brd_1")
	if err != nil {
		t.Fatalf("Acquire after release failed: %v", err)
	}
	release2()
}

func TestDistinctParentsDoNotContend(t *testing.T) {
	locker := setupTestLocker(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	releaseA, err := locker.Acquire(ctx, "list:lst_a")
	if err != nil {
		t.Fatalf("Acquire a: %v", err)
	}
	defer releaseA()

	releaseB, err := locker.Acquire(ctx, "list:lst_b")
	if err != nil {
		t.Fatalf("Acquire b should not block on a different parent: %v", err)
	}
	releaseB()
}

func TestMutexLockerSerializes(t *testing.T) {
	locker := NewMutexLocker()
	ctx := context.Background()

	var active, maxActive int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Acquire(ctx, "list:lst_1")
			if err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Fatalf("lock admitted %d concurrent holders", maxActive)
	}
}
