package sse_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"auctionhub/adapters/sse"
)

func TestConnectionManager(t *testing.T) {
	defer goleak.VerifyNone(t)

	cm, err := sse.NewConnectionManager(render)
	require.NoError(t, err)
	cm.Start()
	defer cm.Done()

	// 測試訂閱
	ch, err := cm.Subscribe("test_channel", "alice")
	assert.NoError(t, err)
	assert.NotNil(t, ch)

	// 測試發布訊息
	err = cm.Publish("test_channel", Message{Data: "test message"})
	assert.NoError(t, err)

	select {
	case received := <-ch:
		assert.Equal(t, Rendered{Viewer: "alice", Data: "TEST MESSAGE"}, received)
	case <-time.After(time.Second):
		t.Fatal("did not receive message in time")
	}

	// 沒有訂閱者的頻道直接略過
	assert.NoError(t, cm.Publish("other_channel", Message{Data: "ignored"}))

	// 測試取消訂閱
	cm.Unsubscribe("test_channel", ch)
	_, ok := <-ch
	assert.False(t, ok, "channel should be closed")
}

func TestConnectionManager_NilRender(t *testing.T) {
	_, err := sse.NewConnectionManager[Message, Rendered](nil)
	assert.Error(t, err)
}

func TestConnectionManager_ThroughBus(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := newFakeBus[sse.PublishRequest[Message]]()
	cm, err := sse.NewConnectionManager(render,
		sse.WithPublisher[Message, Rendered](bus),
		sse.WithSubscriber[Message, Rendered](bus),
		sse.WithBufferSize[Message, Rendered](2),
	)
	require.NoError(t, err)
	cm.Start()

	ch, err := cm.Subscribe("auction", "bob")
	require.NoError(t, err)
	require.NoError(t, cm.Publish("auction", Message{Data: "bid"}))

	select {
	case received := <-ch:
		assert.Equal(t, "BID", received.Data)
	case <-time.After(time.Second):
		t.Fatal("did not receive message in time")
	}

	cm.Done()
	_, ok := <-ch
	assert.False(t, ok, "channel should be closed after Done")

	_, err = cm.Subscribe("auction", "bob")
	assert.Error(t, err)
	assert.Error(t, cm.Publish("auction", Message{Data: "late"}))

	// 重複呼叫 Done 不會 panic
	cm.Done()
}
