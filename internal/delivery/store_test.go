package delivery

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptKV emulates the store scripts against an in-memory keyspace.
type scriptKV struct {
	data    map[string]string
	ttls    map[string]int64
	scripts []*redis.Script
	args    [][]any
}

func newScriptKV() *scriptKV {
	return &scriptKV{data: map[string]string{}, ttls: map[string]int64{}}
}

func (k *scriptKV) Get(_ context.Context, key string) (string, error) {
	v, ok := k.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (k *scriptKV) incr(key string, ttl int64) int64 {
	n, _ := strconv.ParseInt(k.data[key], 10, 64)
	n++
	k.data[key] = strconv.FormatInt(n, 10)
	k.ttls[key] = ttl
	return n
}

func (k *scriptKV) RunScript(_ context.Context, script *redis.Script, keys []string, args ...any) (any, error) {
	k.scripts = append(k.scripts, script)
	k.args = append(k.args, args)
	switch script {
	case bumpScript:
		return k.incr(keys[0], args[0].(int64)), nil
	case invalidateScript:
		k.incr(keys[0], args[0].(int64))
		delete(k.data, keys[1])
		return int64(1), nil
	}
	current, _ := strconv.ParseInt(k.data[keys[0]], 10, 64)
	if current != args[0].(int64) {
		return int64(0), nil
	}
	k.data[keys[1]] = args[1].(string)
	return int64(1), nil
}

func (k *scriptKV) DeliveryGenerationKey(sessionID string) string { return "gen:" + sessionID }
func (k *scriptKV) DeliveryStateKey(sessionID string) string      { return "state:" + sessionID }

func TestRedisStateStoreCommitsOnlyLatestGeneration(t *testing.T) {
	kv := newScriptKV()
	store, err := NewRedisStateStore(kv, time.Hour)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := store.NextGeneration(ctx, "s1")
	require.NoError(t, err)
	second, err := store.NextGeneration(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, first+1, second)

	ok, err := store.Commit(ctx, "s1", State{Generation: first, Fingerprint: "old"})
	require.NoError(t, err)
	assert.False(t, ok, "superseded generation must not commit")

	ok, err = store.Commit(ctx, "s1", State{Generation: second, Fingerprint: "new"})
	require.NoError(t, err)
	assert.True(t, ok)

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "new", loaded.Fingerprint)

	require.Len(t, kv.scripts, 4)
	assert.Same(t, bumpScript, kv.scripts[0])
	assert.Same(t, commitScript, kv.scripts[2])
	assert.Equal(t, time.Hour.Milliseconds(), kv.args[3][2])

	var decoded State
	require.NoError(t, json.Unmarshal([]byte(kv.data["state:s1"]), &decoded))
	assert.Equal(t, second, decoded.Generation)
}

func TestRedisStateStoreInvalidateSupersedesInFlight(t *testing.T) {
	kv := newScriptKV()
	store, err := NewRedisStateStore(kv, time.Hour)
	require.NoError(t, err)
	ctx := context.Background()

	gen, err := store.NextGeneration(ctx, "s1")
	require.NoError(t, err)
	_, err = store.Commit(ctx, "s1", State{Generation: gen})
	require.NoError(t, err)

	inFlight, err := store.NextGeneration(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, store.Invalidate(ctx, "s1"))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	ok, err := store.Commit(ctx, "s1", State{Generation: inFlight})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStateStoreGenerationKeyExpires(t *testing.T) {
	kv := newScriptKV()
	store, err := NewRedisStateStore(kv, 30*time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.NextGeneration(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, (30 * time.Minute).Milliseconds(), kv.ttls["gen:s1"])

	delete(kv.ttls, "gen:s2")
	require.NoError(t, store.Invalidate(ctx, "s2"))
	assert.Equal(t, "1", kv.data["gen:s2"])
	assert.Equal(t, (30 * time.Minute).Milliseconds(), kv.ttls["gen:s2"], "a cart-only session must not leak its counter")
}

func TestNewRedisStateStoreValidates(t *testing.T) {
	_, err := NewRedisStateStore(nil, time.Hour)
	assert.Error(t, err)
	_, err = NewRedisStateStore(newScriptKV(), 0)
	assert.Error(t, err)
}
