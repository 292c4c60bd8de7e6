//go:generate mockgen -package=redis -destination=mock.go -source=interfaces.go

package redis

import (
	"context"
)

// IProducer 將資料寫入 Redis stream
type IProducer[T any] interface {
	Start()
	Publish(data T) error
	Close()
}

// IGroupConsumer 以 consumer group 讀取 stream，每筆訊息需要 Done 或 Fail
type IGroupConsumer[T any] interface {
	Start() error
	Subscribe() <-chan *Message[T]
	Close() error
}

// IConsumer 讀取 stream 上的新訊息，每個實例都會收到全部訊息
type IConsumer[T any] interface {
	Start()
	Subscribe() <-chan T
	Close()
}

// IAutoRenewMutex 定義了 AutoRenewMutex 的操作介面
type IAutoRenewMutex interface {
	// Lock 取得鎖，回傳的 context 會在失去鎖時被取消
	Lock(ctx context.Context) (context.Context, error)
	Unlock() (bool, error)
	Valid() bool
}
