package myidempotency

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MarcGrol/checkoutflow/lib/mytime"
)

func TestInMemoryStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := context.TODO()
	now := mytime.ExampleTime
	nower := mytime.NewMockNower(ctrl)
	nower.EXPECT().Now().DoAndReturn(func() time.Time { return now }).AnyTimes()

	sut := NewInMemoryStore(nower)

	t.Run("First reservation wins", func(t *testing.T) {
		record, reserved, err := sut.Reserve(c, "key-1", "fp", time.Hour)
		require.NoError(t, err)
		assert.True(t, reserved)
		assert.Equal(t, StateInProgress, record.State)
	})

	t.Run("Concurrent duplicate sees in-progress", func(t *testing.T) {
		record, reserved, err := sut.Reserve(c, "key-1", "fp", time.Hour)
		require.NoError(t, err)
		assert.False(t, reserved)
		assert.Equal(t, StateInProgress, record.State)
	})

	t.Run("Completed response is replayed", func(t *testing.T) {
		err := sut.Complete(c, "key-1", Record{Fingerprint: "fp", StatusCode: 200, Body: []byte(`{"orderId":"1"}`)}, time.Hour)
		require.NoError(t, err)

		record, reserved, err := sut.Reserve(c, "key-1", "fp", time.Hour)
		require.NoError(t, err)
		assert.False(t, reserved)
		assert.Equal(t, StateCompleted, record.State)
		assert.Equal(t, 200, record.StatusCode)
		assert.Equal(t, `{"orderId":"1"}`, string(record.Body))
	})

	t.Run("Expired key can be reserved again", func(t *testing.T) {
		now = now.Add(2 * time.Hour)
		_, reserved, err := sut.Reserve(c, "key-1", "fp", time.Hour)
		require.NoError(t, err)
		assert.True(t, reserved)
	})

	t.Run("Released key can be reserved again", func(t *testing.T) {
		_, _, _ = sut.Reserve(c, "key-2", "fp", time.Hour)
		require.NoError(t, sut.Release(c, "key-2"))

		_, reserved, err := sut.Reserve(c, "key-2", "fp", time.Hour)
		require.NoError(t, err)
		assert.True(t, reserved)
	})
}

func TestRedisStoreUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	sut := NewRedisStoreWithClient(client)

	_, reserved, err := sut.Reserve(context.TODO(), "key-1", "fp", time.Minute)
	assert.Error(t, err)
	assert.False(t, reserved)
}
