// ABOUTME: Tests for the outbound chat queue.
// ABOUTME: Covers FIFO order, drain semantics, and concurrent pushes.

package fleet

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueFIFO(t *testing.T) {
	q := NewQueue()
	q.Push("one")
	q.Push("two")
	q.Push("three")

	assert.Equal(t, 3, q.Len())

	items := q.Drain()
	require.Len(t, items, 3)
	assert.Equal(t, "one", items[0].Text)
	assert.Equal(t, "two", items[1].Text)
	assert.Equal(t, "three", items[2].Text)
	assert.False(t, items[0].QueuedAt.IsZero())
}

func TestQueueDrainEmpties(t *testing.T) {
	q := NewQueue()
	q.Push("line")

	assert.Len(t, q.Drain(), 1)
	assert.Zero(t, q.Len())
	assert.Empty(t, q.Drain())
}

func TestQueueConcurrentPush(t *testing.T) {
	q := NewQueue()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				q.Push(fmt.Sprintf("w%d-%d", n, j))
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1000, q.Len())
}
