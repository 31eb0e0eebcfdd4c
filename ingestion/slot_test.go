package ingestion

import (
	"sync"
	"testing"

	"github.com/poiesic/gleaner/core"
	"github.com/stretchr/testify/assert"
)

func TestSlot(t *testing.T) {
	slot := NewSlot()
	assert.True(t, slot.IsEmpty())

	_, ok := slot.Get()
	assert.False(t, ok)

	slot.Set(core.ProcessedContent{Content: "first", ContentHash: "h1"})
	slot.Set(core.ProcessedContent{Content: "second", ContentHash: "h2"})

	item, ok := slot.Get()
	assert.True(t, ok)
	assert.Equal(t, "second", item.Content, "set overwrites")

	slot.Clear()
	assert.True(t, slot.IsEmpty())
}

func TestHashIndex(t *testing.T) {
	t.Run("add and contains", func(t *testing.T) {
		idx := NewHashIndex()
		assert.False(t, idx.Contains("a"))
		assert.True(t, idx.Add("a"))
		assert.True(t, idx.Contains("a"))
		assert.False(t, idx.Add("a"), "second add reports existing")

		idx.Remove("a")
		assert.False(t, idx.Contains("a"))
		assert.True(t, idx.Add("a"))
		assert.Equal(t, 1, idx.Len())
	})

	t.Run("seed", func(t *testing.T) {
		idx := NewHashIndex("a", "b")
		assert.Equal(t, 1, idx.Seed([]string{"b", "c"}))
		assert.Equal(t, 3, idx.Len())
	})

	t.Run("concurrent add accepts once", func(t *testing.T) {
		idx := NewHashIndex()
		var wg sync.WaitGroup
		var mu sync.Mutex
		wins := 0
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if idx.Add("same") {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, wins)
	})
}
