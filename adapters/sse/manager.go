package sse

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

type managerOptions[T any, V any] struct {
	logger     *slog.Logger
	subscriber ISubscriber[PublishRequest[T]]
	publisher  IPublisher[PublishRequest[T]]
	bufferSize int
}

type Option[T any, V any] func(*managerOptions[T, V])

// WithLogger 設置日誌記錄器
func WithLogger[T any, V any](logger *slog.Logger) Option[T, V] {
	return func(o *managerOptions[T, V]) {
		o.logger = logger
	}
}

// WithSubscriber 設置跨節點訊息來源，收到的訊息會廣播到本地的頻道
func WithSubscriber[T any, V any](subscriber ISubscriber[PublishRequest[T]]) Option[T, V] {
	return func(o *managerOptions[T, V]) {
		o.subscriber = subscriber
	}
}

// WithPublisher 設置跨節點訊息出口，設置後 Publish 不會直接廣播到本地頻道
func WithPublisher[T any, V any](publisher IPublisher[PublishRequest[T]]) Option[T, V] {
	return func(o *managerOptions[T, V]) {
		o.publisher = publisher
	}
}

// WithBufferSize 設置每個訂閱者通道的緩衝大小
func WithBufferSize[T any, V any](size int) Option[T, V] {
	return func(o *managerOptions[T, V]) {
		o.bufferSize = size
	}
}

// connectionManager 管理多個 SSE 頻道的訂閱與發布。
// 設置 publisher 和 subscriber 後可以透過 Redis Stream 讓多個服務實例協同運作。
type connectionManager[T any, V any] struct {
	render RenderFunc[T, V]
	logger *slog.Logger

	mu         sync.RWMutex   // 保護 active 和 channels 的讀寫
	wg         sync.WaitGroup // 用於等待所有 goroutine 完成
	active     bool           // 標記 manager 是否正在運作中
	cancelFunc context.CancelFunc

	channels map[string]*Channel[T, V] // 儲存所有活躍的頻道
	options  managerOptions[T, V]
}

// NewConnectionManager 建立一個新的連線管理器。
// render: 依訂閱者身份轉換訊息
func NewConnectionManager[T any, V any](render RenderFunc[T, V], opts ...Option[T, V]) (IConnectionManager[T, V], error) {
	if render == nil {
		return nil, errors.New("render function cannot be nil")
	}

	// 默認選項
	options := managerOptions[T, V]{
		logger:     slog.Default(),
		bufferSize: 16,
	}
	for _, opt := range opts {
		opt(&options)
	}

	return &connectionManager[T, V]{
		render:   render,
		logger:   options.logger.With(slog.String("caller", "ConnectionManager")),
		channels: make(map[string]*Channel[T, V]),
		active:   true,
		options:  options,
	}, nil
}

// Start 啟動連線管理器，開始處理訊息的接收與廣播。
func (cm *connectionManager[T, V]) Start() {
	if cm.options.subscriber == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	cm.mu.Lock()
	cm.cancelFunc = cancel
	cm.mu.Unlock()

	// 啟動訊息處理的 goroutine
	cm.wg.Add(1)
	go func() {
		defer cm.wg.Done()
		source := cm.options.subscriber.Subscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case req, ok := <-source:
				if !ok {
					return
				}
				cm.dispatch(req)
			}
		}
	}()
}

// Done 停止連線管理器的運作。
func (cm *connectionManager[T, V]) Done() {
	cm.mu.Lock()
	if !cm.active {
		cm.mu.Unlock()
		return
	}
	cm.active = false
	if cm.cancelFunc != nil {
		cm.cancelFunc()
	}
	cm.mu.Unlock()

	// dispatch 會拿讀鎖，必須在釋放寫鎖後才等待
	cm.wg.Wait()

	cm.mu.Lock()
	defer cm.mu.Unlock()
	for _, channel := range cm.channels {
		channel.UnsubscribeAll()
	}
	clear(cm.channels)
}

// Subscribe 以指定身份訂閱頻道。
// 返回: 用於接收訊息的唯讀通道，以及可能的錯誤
func (cm *connectionManager[T, V]) Subscribe(channelName, viewer string) (<-chan V, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if !cm.active {
		return nil, context.Canceled
	}

	c, ok := cm.channels[channelName]
	if !ok {
		c = NewChannel(cm.render, cm.options.bufferSize)
		cm.channels[channelName] = c
	}
	return c.Subscribe(viewer), nil
}

// Publish 發布訊息到指定的頻道。
func (cm *connectionManager[T, V]) Publish(channelName string, data T) error {
	cm.mu.RLock()
	active := cm.active
	cm.mu.RUnlock()
	if !active {
		return context.Canceled
	}

	req := PublishRequest[T]{Channel: channelName, Message: data}
	if cm.options.publisher != nil {
		return cm.options.publisher.Publish(req)
	}
	cm.dispatch(req)
	return nil
}

// Unsubscribe 取消訂閱指定的頻道。
func (cm *connectionManager[T, V]) Unsubscribe(channelName string, ch <-chan V) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	c, ok := cm.channels[channelName]
	if !ok {
		return
	}

	c.Unsubscribe(ch)
	if c.IsIdle() {
		delete(cm.channels, channelName)
	}
}

func (cm *connectionManager[T, V]) dispatch(req PublishRequest[T]) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	channel, ok := cm.channels[req.Channel]
	if !ok {
		return
	}
	delivered, dropped := channel.Broadcast(req.Message)
	if dropped > 0 {
		cm.logger.Warn("Drop message for slow subscribers",
			slog.String("channel", req.Channel),
			slog.Int("delivered", delivered),
			slog.Int("dropped", dropped))
	}
}
