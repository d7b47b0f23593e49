package conversation

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMux_GetOrCreate(t *testing.T) {
	mux := NewMux(nil)

	box, created := mux.GetOrCreate(42)
	require.NotNil(t, box)
	assert.True(t, created)

	again, created := mux.GetOrCreate(42)
	assert.False(t, created)
	assert.Same(t, box, again, "same chat must resolve to the same mailbox")

	assert.Equal(t, 1, mux.Size())
}

func TestMux_DeliverRoutesByChat(t *testing.T) {
	mux := NewMux(nil)

	mux.Deliver(1, Message{Text: "for one"})
	mux.Deliver(2, Message{Text: "for two"})

	one, _ := mux.GetOrCreate(1)
	two, _ := mux.GetOrCreate(2)

	assert.Equal(t, "for one", one.ReadNext().Text)
	assert.Equal(t, "for two", two.ReadNext().Text)
}

func TestMux_ConcurrentGetOrCreateSingleWinner(t *testing.T) {
	mux := NewMux(nil)
	const workers = 32

	var wg sync.WaitGroup
	var createdCount atomic.Int64
	boxes := make([]*Mailbox, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			box, created := mux.GetOrCreate(7)
			boxes[i] = box
			if created {
				createdCount.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), createdCount.Load(), "exactly one caller must observe creation")
	for i := 1; i < workers; i++ {
		assert.Same(t, boxes[0], boxes[i])
	}
}
