package sse_test

import (
	"io"
	"log"
	"strings"
)

func init() {
	// 將日誌輸出重定向到io.Discard
	log.SetOutput(io.Discard)
}

// Message 表示一個 SSE 訊息，包含資料字段。
type Message struct {
	Data string `json:"data"`
}

// Rendered 是訊息轉換後推送給訂閱者的內容
type Rendered struct {
	Viewer string
	Data   string
}

func render(viewer string, m Message) Rendered {
	return Rendered{Viewer: viewer, Data: strings.ToUpper(m.Data)}
}

// fakeBus 以 channel 模擬跨節點的 Redis stream
type fakeBus[T any] struct {
	ch chan T
}

func newFakeBus[T any]() *fakeBus[T] {
	return &fakeBus[T]{ch: make(chan T, 8)}
}

func (b *fakeBus[T]) Publish(data T) error {
	b.ch <- data
	return nil
}

func (b *fakeBus[T]) Subscribe() <-chan T {
	return b.ch
}
