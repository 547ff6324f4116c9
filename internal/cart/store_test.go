package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type memoryStorage struct {
	data    map[string][]byte
	loadErr error
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{data: map[string][]byte{}}
}

func (m *memoryStorage) Load(_ context.Context, key string) ([]byte, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.data[key], nil
}

func (m *memoryStorage) Save(_ context.Context, key string, data []byte) error {
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *memoryStorage) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

type fakeRedis struct {
	values  map[string]string
	lastTTL time.Duration
}

func (f *fakeRedis) Get(_ context.Context, key string) (string, error) {
	value, ok := f.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return value, nil
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.values[key] = value.(string)
	f.lastTTL = ttl
	return nil
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func (f *fakeRedis) CartKey(userID string) string {
	return "cho:cart:" + userID
}

func TestStoreRoundTrip(t *testing.T) {
	storage := newMemoryStorage()
	store, err := NewStore(storage)
	require.NoError(t, err)

	ctx := context.Background()
	userID := uuid.New()

	empty, err := store.Load(ctx, userID)
	require.NoError(t, err)
	require.True(t, empty.IsEmpty())

	c := New()
	require.NoError(t, c.AddItem(uuid.New(), "Amber", 300, 2))
	require.NoError(t, store.Save(ctx, userID, c))

	reloaded, err := store.Load(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, c.Lines(), reloaded.Lines())

	require.NoError(t, store.Clear(ctx, userID))
	cleared, err := store.Load(ctx, userID)
	require.NoError(t, err)
	require.True(t, cleared.IsEmpty())
}

func TestStoreLoadErrors(t *testing.T) {
	storage := newMemoryStorage()
	store, err := NewStore(storage)
	require.NoError(t, err)

	userID := uuid.New()
	storage.data[userID.String()] = []byte(`{not json`)
	_, err = store.Load(context.Background(), userID)
	require.Error(t, err)

	storage.loadErr = errors.New("unavailable")
	_, err = store.Load(context.Background(), userID)
	require.ErrorContains(t, err, "unavailable")

	_, err = NewStore(nil)
	require.Error(t, err)
}

func TestRedisStorage(t *testing.T) {
	client := &fakeRedis{values: map[string]string{}}
	storage, err := NewRedisStorage(client, time.Hour)
	require.NoError(t, err)

	ctx := context.Background()
	data, err := storage.Load(ctx, "u1")
	require.NoError(t, err)
	require.Nil(t, data)

	require.NoError(t, storage.Save(ctx, "u1", []byte(`{"version":1,"lines":[]}`)))
	require.Contains(t, client.values, "cho:cart:u1")
	require.Equal(t, time.Hour, client.lastTTL)

	data, err = storage.Load(ctx, "u1")
	require.NoError(t, err)
	require.JSONEq(t, `{"version":1,"lines":[]}`, string(data))

	require.NoError(t, storage.Delete(ctx, "u1"))
	require.NotContains(t, client.values, "cho:cart:u1")

	_, err = NewRedisStorage(nil, time.Hour)
	require.Error(t, err)
}
