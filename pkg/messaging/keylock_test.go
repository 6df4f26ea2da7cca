package messaging

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPairKeyIsSymmetric(t *testing.T) {
	assert.Equal(t, pairKey(3, 9), pairKey(9, 3))
	assert.NotEqual(t, pairKey(3, 9), pairKey(3, 10))
}

func TestKeyLockSerializesSameKey(t *testing.T) {
	k := newKeyLock()
	var inside, peak int32

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := k.Acquire("a")
			defer release()
			n := atomic.AddInt32(&inside, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), peak)
	assert.Zero(t, k.size())
}

func TestKeyLockIndependentKeys(t *testing.T) {
	k := newKeyLock()
	releaseA := k.Acquire("a")

	done := make(chan struct{})
	go func() {
		k.Acquire("b")()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on b waited for a")
	}
	assert.Equal(t, 1, k.size())
	releaseA()
	assert.Zero(t, k.size())
}
