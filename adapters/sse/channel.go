package sse

import (
	"sync"
)

type subscriber[V any] struct {
	viewer string
	ch     chan V
}

// Channel 用於管理針對某個主題 (Topic) 的所有訂閱者，
// 並將接收到的訊息依訂閱者身份轉換後廣播。
type Channel[T any, V any] struct {
	render      RenderFunc[T, V]
	bufferSize  int
	subscribers map[<-chan V]*subscriber[V]
	mu          sync.RWMutex
}

// NewChannel creates a new SSE channel.
func NewChannel[T any, V any](render RenderFunc[T, V], bufferSize int) *Channel[T, V] {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &Channel[T, V]{
		render:      render,
		bufferSize:  bufferSize,
		subscribers: make(map[<-chan V]*subscriber[V]),
	}
}

// Subscribe 建立一個新的帶緩衝通道，將其加入 subscribers，並回傳唯讀通道給呼叫者。
func (c *Channel[T, V]) Subscribe(viewer string) <-chan V {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan V, c.bufferSize)
	c.subscribers[ch] = &subscriber[V]{viewer: viewer, ch: ch}
	return ch
}

// Unsubscribe 從 subscribers 中移除指定的通道，並關閉該通道。
func (c *Channel[T, V]) Unsubscribe(ch <-chan V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sub, exists := c.subscribers[ch]; exists {
		delete(c.subscribers, ch)
		close(sub.ch)
	}
}

// UnsubscribeAll 關閉所有訂閱者的通道並清空訂閱清單。
func (c *Channel[T, V]) UnsubscribeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, sub := range c.subscribers {
		close(sub.ch)
	}
	clear(c.subscribers)
}

// Broadcast 將訊息轉換後送給所有訂閱者。
// 不會因為慢的訂閱者而阻塞，通道已滿時直接略過該訂閱者。
func (c *Channel[T, V]) Broadcast(message T) (delivered, dropped int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, sub := range c.subscribers {
		select {
		case sub.ch <- c.render(sub.viewer, message):
			delivered++
		default:
			dropped++
		}
	}
	return delivered, dropped
}

// IsIdle 判斷 subscribers 是否為空。
func (c *Channel[T, V]) IsIdle() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subscribers) == 0
}
