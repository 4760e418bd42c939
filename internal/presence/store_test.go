package presence

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

// Both implementations must satisfy the same registry contract, so every
// test here runs against both.
func runForEachStore(t *testing.T, test func(t *testing.T, store Store)) {
	t.Run("memory", func(t *testing.T) {
		test(t, NewMemoryStore())
	})
	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		test(t, NewRedisStore(client))
	})
}

func TestStoreLastConnectWins(t *testing.T) {
	runForEachStore(t, func(t *testing.T, store Store) {
		store.Register("u1", "sock-a")
		store.Register("u1", "sock-b")

		socketID, ok := store.Lookup("u1")
		assert.True(t, ok)
		assert.Equal(t, "sock-b", socketID)
		assert.Len(t, store.ListActive(), 1)
	})
}

func TestStoreStaleUnregisterIsNoop(t *testing.T) {
	runForEachStore(t, func(t *testing.T, store Store) {
		store.Register("u1", "sock-a")
		store.Register("u1", "sock-b") // supersedes sock-a

		// The late disconnect of the old socket must not evict the new
		// session.
		assert.False(t, store.Unregister("u1", "sock-a"))

		socketID, ok := store.Lookup("u1")
		assert.True(t, ok)
		assert.Equal(t, "sock-b", socketID)

		assert.True(t, store.Unregister("u1", "sock-b"))
		_, ok = store.Lookup("u1")
		assert.False(t, ok)
	})
}

func TestStoreUnregisterUnknownUser(t *testing.T) {
	runForEachStore(t, func(t *testing.T, store Store) {
		assert.False(t, store.Unregister("ghost", "sock-a"))
	})
}

func TestStoreLookupUnknownUser(t *testing.T) {
	runForEachStore(t, func(t *testing.T, store Store) {
		_, ok := store.Lookup("ghost")
		assert.False(t, ok)
	})
}

func TestStoreListActive(t *testing.T) {
	runForEachStore(t, func(t *testing.T, store Store) {
		store.Register("u1", "sock-a")
		store.Register("u2", "sock-b")
		store.Register("u3", "sock-c")
		store.Unregister("u2", "sock-b")

		assert.ElementsMatch(t, []string{"u1", "u3"}, store.ListActive())
	})
}
