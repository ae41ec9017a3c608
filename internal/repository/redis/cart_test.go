package redis

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hermannafesehbuma/khalifa-auto/internal/cart"
	"github.com/hermannafesehbuma/khalifa-auto/internal/domain"
)

func setupTestRedis(t *testing.T) (*goredis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestCartStorage_ReadMissing(t *testing.T) {
	client, _ := setupTestRedis(t)
	storage := NewCartStorage(client, time.Hour, nil)

	_, err := storage.Read(context.Background(), "cart:nobody")
	assert.ErrorIs(t, err, cart.ErrNoSnapshot)
}

func TestCartStorage_WriteThenRead(t *testing.T) {
	client, mr := setupTestRedis(t)
	storage := NewCartStorage(client, time.Hour, nil)
	ctx := context.Background()

	require.NoError(t, storage.Write(ctx, "cart:s1", []byte(`[{"vehicle_id":1,"quantity":2}]`)))

	data, err := storage.Read(ctx, "cart:s1")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"vehicle_id":1,"quantity":2}]`, string(data))
	assert.Equal(t, time.Hour, mr.TTL("cart:s1"))
}

func TestCartStorage_ReadSlidesExpiry(t *testing.T) {
	client, mr := setupTestRedis(t)
	storage := NewCartStorage(client, time.Hour, nil)
	ctx := context.Background()

	require.NoError(t, storage.Write(ctx, "cart:s1", []byte(`[]`)))
	mr.FastForward(50 * time.Minute)

	_, err := storage.Read(ctx, "cart:s1")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, mr.TTL("cart:s1"))

	mr.FastForward(61 * time.Minute)
	_, err = storage.Read(ctx, "cart:s1")
	assert.ErrorIs(t, err, cart.ErrNoSnapshot)
}

func TestCartStorage_ZeroTTLNeverExpires(t *testing.T) {
	client, mr := setupTestRedis(t)
	storage := NewCartStorage(client, 0, nil)
	ctx := context.Background()

	require.NoError(t, storage.Write(ctx, "cart:s1", []byte(`[]`)))
	_, err := storage.Read(ctx, "cart:s1")
	require.NoError(t, err)
	assert.Zero(t, mr.TTL("cart:s1"))
}

func TestCartStorage_ConnectionError(t *testing.T) {
	client, mr := setupTestRedis(t)
	storage := NewCartStorage(client, time.Hour, nil)
	mr.Close()

	_, err := storage.Read(context.Background(), "cart:s1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, cart.ErrNoSnapshot)

	err = storage.Write(context.Background(), "cart:s1", []byte(`[]`))
	assert.Error(t, err)
}

func TestCartStorage_BacksStore(t *testing.T) {
	client, _ := setupTestRedis(t)
	storage := NewCartStorage(client, time.Hour, nil)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	key := cart.SessionKey("session-42")

	store := cart.Open(ctx, storage, key, logger)
	v := &domain.Vehicle{ID: 7, Brand: "Toyota", Model: "Camry", Year: 2019, Price: decimal.NewFromInt(20000)}
	require.NoError(t, store.AddItem(ctx, v))
	require.NoError(t, store.AddItem(ctx, v))

	reopened := cart.Open(ctx, storage, key, logger)
	assert.Equal(t, 2, reopened.ItemCount())
	assert.True(t, decimal.NewFromInt(40000).Equal(reopened.Total()))
}

func TestCartStorage_CorruptValueOpensEmpty(t *testing.T) {
	client, mr := setupTestRedis(t)
	storage := NewCartStorage(client, time.Hour, nil)
	ctx := context.Background()

	require.NoError(t, mr.Set("cart:s1", "}{"))

	store := cart.Open(ctx, storage, "cart:s1", slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Empty(t, store.Items())
}

// failCommand makes every command with the given name fail.
type failCommand struct {
	name string
}

func (h failCommand) DialHook(next goredis.DialHook) goredis.DialHook { return next }

func (h failCommand) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return func(ctx context.Context, cmd goredis.Cmder) error {
		if cmd.Name() == h.name {
			err := errors.New("READONLY You can't write against a read only replica")
			cmd.SetErr(err)
			return err
		}
		return next(ctx, cmd)
	}
}

func (h failCommand) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return next
}

func TestCartStorage_ExpireFailureKeepsSnapshot(t *testing.T) {
	client, mr := setupTestRedis(t)
	storage := NewCartStorage(client, time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	require.NoError(t, mr.Set("cart:s1", `[{"vehicle_id":3,"quantity":1,"vehicle":{"price":"9000"}}]`))
	client.AddHook(failCommand{name: "expire"})

	data, err := storage.Read(ctx, "cart:s1")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"vehicle_id":3,"quantity":1,"vehicle":{"price":"9000"}}]`, string(data))

	store := cart.Open(ctx, storage, "cart:s1", slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Equal(t, 1, store.ItemCount())
}
