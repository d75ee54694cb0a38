package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore(t *testing.T) {
	store := NewConfigStore()
	require.NotNil(t, store)
	assert.NotNil(t, store.values)
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_SetAndTypedGet(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("server.host", "0.0.0.0"))
	require.NoError(t, store.Set("chain.max_hops", 8))
	require.NoError(t, store.Set("agents.calculator.port", int64(6001)))
	require.NoError(t, store.Set("http.rate_limit", 1.5))
	require.NoError(t, store.Set("peers.watch", true))

	assert.Equal(t, "0.0.0.0", store.GetString("server.host"))
	assert.Equal(t, 8, store.GetInt("chain.max_hops"))
	assert.Equal(t, 6001, store.GetInt("agents.calculator.port"))
	assert.Equal(t, 1, store.GetInt("http.rate_limit"))
	assert.Equal(t, 1.5, store.GetFloat("http.rate_limit"))
	assert.Equal(t, 8.0, store.GetFloat("chain.max_hops"))
	assert.True(t, store.GetBool("peers.watch"))
}

func TestConfigStore_MissingAndWrongType(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("server.host", "x"))

	_, ok := store.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, "", store.GetString("missing"))
	assert.Equal(t, 0, store.GetInt("server.host"))
	assert.Equal(t, 0.0, store.GetFloat("server.host"))
	assert.False(t, store.GetBool("server.host"))
}

func TestConfigStore_Keys(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("log.level", "debug"))
	require.NoError(t, store.Set("chain.timeout", "5s"))

	assert.Equal(t, []string{"chain.timeout", "log.level"}, store.Keys())
}

func TestConfigStore_SaveLoadNoop(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("k", "v"))
	require.NoError(t, store.Save())
	require.NoError(t, store.Load())
	assert.Equal(t, "v", store.GetString("k"))
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_ = store.Set("key", id)
			_ = store.GetInt("key")
			_ = store.Keys()
		}(i)
	}
	wg.Wait()
}
