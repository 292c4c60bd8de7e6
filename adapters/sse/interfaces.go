package sse

// PublishRequest 表示一個發布請求，包含頻道名稱和原始訊息。
type PublishRequest[T any] struct {
	Channel string `msgpack:"channel" json:"channel"`
	Message T      `msgpack:"message" json:"message"`
}

// RenderFunc 依訂閱者身份把原始訊息轉成要推送給該訂閱者的內容。
// 每個訂閱者在每次廣播時各呼叫一次，不可保存或修改 message。
type RenderFunc[T any, V any] func(viewer string, message T) V

// IChannel 定義了 SSE 頻道的介面
type IChannel[T any, V any] interface {
	// Subscribe 以指定身份建立一個新的訂閱並返回接收訊息的通道
	Subscribe(viewer string) <-chan V
	// Unsubscribe 取消指定通道的訂閱
	Unsubscribe(ch <-chan V)
	// UnsubscribeAll 取消所有訂閱
	UnsubscribeAll()
	// Broadcast 將訊息依訂閱者身份轉換後推送，通道已滿的訂閱者會漏掉這則訊息
	Broadcast(message T) (delivered, dropped int)
	// IsIdle 檢查是否沒有訂閱者
	IsIdle() bool
}

// IConnectionManager 定義了 SSE 連線管理員的介面
type IConnectionManager[T any, V any] interface {
	// Start 啟動 ConnectionManager，開始處理訊息的接收與廣播。
	// 應在呼叫其他方法前先呼叫此方法。
	Start()
	// Done 停止 ConnectionManager，釋放所有資源。
	Done()
	// Subscribe 以指定身份訂閱頻道，返回一個新的通道。
	Subscribe(channelName, viewer string) (<-chan V, error)
	// Publish 將資料推送到指定頻道。
	Publish(channelName string, data T) error
	// Unsubscribe 取消訂閱指定頻道。
	Unsubscribe(channelName string, ch <-chan V)
}

// ISubscriber 是跨節點訊息的來源，例如 Redis stream consumer
type ISubscriber[T any] interface {
	Subscribe() <-chan T
}

// IPublisher 是跨節點訊息的出口，例如 Redis stream producer
type IPublisher[T any] interface {
	Publish(data T) error
}
