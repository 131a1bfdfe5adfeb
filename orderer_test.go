package eventhub

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrdererDeliversInOrder(t *testing.T) {
	o := NewOrderer[int]("test", nil)
	var mu sync.Mutex
	var got []int
	done := make(chan struct{})

	o.SetHandler(func(v int) bool {
		mu.Lock()
		got = append(got, v)
		n := len(got)
		mu.Unlock()
		if n == 5 {
			close(done)
		}
		return true
	})
	o.Start()

	for i := 1; i <= 5; i++ {
		o.Add(i)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2, 3, 4, 5}, got)
}

func TestOrdererRetriesUndeliveredHead(t *testing.T) {
	o := NewOrderer[int]("test", nil)
	var attempts int
	var mu sync.Mutex
	ready := make(chan struct{})

	o.SetHandler(func(v int) bool {
		mu.Lock()
		attempts++
		n := attempts
		mu.Unlock()
		if n < 3 {
			return false
		}
		close(ready)
		return true
	})
	o.Start()
	o.Add(1)

	time.Sleep(20 * time.Millisecond)
	o.Retick()
	time.Sleep(20 * time.Millisecond)
	o.Retick()

	select {
	case <-ready:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for eventual delivery")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, attempts, 3)
}

func TestOrdererPauseStopsDelivery(t *testing.T) {
	o := NewOrderer[int]("test", nil)
	var delivered int32
	o.SetHandler(func(int) bool {
		delivered++
		return true
	})
	o.Start()
	o.Pause()
	o.Add(1)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), delivered)
	assert.Equal(t, OrdererPaused, o.State())

	o.Start()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), delivered)
}

func TestOrdererHandlerPanicDropsItem(t *testing.T) {
	o := NewOrderer[int]("test", nil)
	processed := make(chan int, 2)
	o.SetHandler(func(v int) bool {
		if v == 1 {
			panic("boom")
		}
		processed <- v
		return true
	})
	o.Start()
	o.Add(1)
	o.Add(2)

	select {
	case v := <-processed:
		assert.Equal(t, 2, v)
	case <-time.After(time.Second):
		t.Fatal("panicking handler stalled the queue")
	}
}

func TestOrdererCloseIsIdempotent(t *testing.T) {
	o := NewOrderer[int]("test", nil)
	o.SetHandler(func(int) bool { return true })
	o.Start()
	require.NotPanics(t, func() {
		o.Close()
		o.Close()
	})
}
