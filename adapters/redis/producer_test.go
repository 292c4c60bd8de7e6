package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestNewProducer(t *testing.T) {
	client := redis.NewClient(&redis.Options{})
	defer client.Close()

	_, err := NewProducer[TestMessage](nil, "events")
	assert.ErrorContains(t, err, "redis client cannot be nil")

	_, err = NewProducer[TestMessage](client, "")
	assert.ErrorContains(t, err, "stream cannot be empty")

	producer, err := NewProducer(client, "events",
		WithProducerLogger[TestMessage](discardLogger),
		WithProducerBufferSize[TestMessage](10),
		WithProducerMaxLen[TestMessage](1000))
	require.NoError(t, err)
	assert.NotNil(t, producer)
}

func TestProducer_Lifecycle(t *testing.T) {
	defer goleak.VerifyNone(t)
	client, _, cleanup := setupTest(t)
	defer cleanup()

	producer, err := NewProducer(client, "events", WithProducerLogger[TestMessage](discardLogger))
	require.NoError(t, err)

	assert.ErrorIs(t, producer.Publish(TestMessage{}), ErrProducerClosed, "publish before start")

	producer.Start()
	producer.Start()
	producer.Close()
	producer.Close()

	assert.ErrorIs(t, producer.Publish(TestMessage{}), ErrProducerClosed)
}

func TestProducer_Publish(t *testing.T) {
	client, _ := setupMiniredis(t)

	producer, err := NewProducer(client, "events", WithProducerLogger[TestMessage](discardLogger))
	require.NoError(t, err)
	producer.Start()
	defer producer.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, producer.Publish(TestMessage{ID: "id", Data: "payload"}))
	}

	assert.Eventually(t, func() bool {
		n, err := client.XLen(context.Background(), "events").Result()
		return err == nil && n == 3
	}, time.Second, 10*time.Millisecond)

	entries, err := client.XRange(context.Background(), "events", "-", "+").Result()
	require.NoError(t, err)
	got, err := DefaultParseFromMessage[TestMessage](entries[0].Values)
	require.NoError(t, err)
	assert.Equal(t, TestMessage{ID: "id", Data: "payload"}, got)
}

func TestProducer_ParseError(t *testing.T) {
	defer goleak.VerifyNone(t)
	client, _, cleanup := setupTest(t)
	defer cleanup()

	producer, err := NewProducer(client, "events",
		WithProducerLogger[TestMessage](discardLogger),
		WithProducerParseFunc(func(TestMessage) (map[string]any, error) {
			return nil, errors.New("parse error")
		}))
	require.NoError(t, err)
	producer.Start()
	defer producer.Close()

	assert.ErrorContains(t, producer.Publish(TestMessage{}), "parse error")
}

func TestProducer_Send(t *testing.T) {
	t.Run("synchronous add with trimming", func(t *testing.T) {
		client, mock, cleanup := setupTest(t)
		defer cleanup()

		msg := TestMessage{ID: "1", Data: "hello"}
		values, err := DefaultParseToMessage(msg)
		require.NoError(t, err)
		mock.ExpectXAdd(&redis.XAddArgs{
			Stream: "notifications",
			MaxLen: 500,
			Approx: true,
			Values: values,
		}).SetVal("1-0")

		producer, err := NewProducer(client, "notifications", WithProducerMaxLen[TestMessage](500))
		require.NoError(t, err)
		id, err := producer.Send(context.Background(), msg)
		require.NoError(t, err)
		assert.Equal(t, "1-0", id)
	})

	t.Run("redis error is returned", func(t *testing.T) {
		client, mock, cleanup := setupTest(t)
		defer cleanup()

		msg := TestMessage{ID: "1"}
		values, err := DefaultParseToMessage(msg)
		require.NoError(t, err)
		mock.ExpectXAdd(&redis.XAddArgs{Stream: "notifications", Values: values}).SetErr(redis.ErrClosed)

		producer, err := NewProducer[TestMessage](client, "notifications")
		require.NoError(t, err)
		_, err = producer.Send(context.Background(), msg)
		assert.ErrorIs(t, err, redis.ErrClosed)
	})
}
