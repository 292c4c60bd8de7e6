package bidding

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Locker 提供以拍賣 ID 為單位的互斥
// 出價和結標都必須先取得同一把鎖才能修改拍賣狀態
type Locker interface {
	// Lock 取得指定拍賣的鎖，ctx 結束前拿不到鎖就回傳 ctx 的錯誤
	// 成功時回傳的 unlock 必須被呼叫且只能呼叫一次
	Lock(ctx context.Context, auctionID uuid.UUID) (unlock func(), err error)
}

// KeyedMutex 是單一程序內的拍賣鎖表
// 每個拍賣一個容量為 1 的 channel，沒有人使用時就從表中移除
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*keyedEntry
}

type keyedEntry struct {
	sem  chan struct{}
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[uuid.UUID]*keyedEntry)}
}

func (m *KeyedMutex) Lock(ctx context.Context, auctionID uuid.UUID) (func(), error) {
	m.mu.Lock()
	entry, ok := m.locks[auctionID]
	if !ok {
		entry = &keyedEntry{sem: make(chan struct{}, 1)}
		m.locks[auctionID] = entry
	}
	entry.refs++
	m.mu.Unlock()

	select {
	case entry.sem <- struct{}{}:
	case <-ctx.Done():
		m.release(auctionID, entry)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.sem
			m.release(auctionID, entry)
		})
	}, nil
}

func (m *KeyedMutex) release(auctionID uuid.UUID, entry *keyedEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(m.locks, auctionID)
	}
}

// size 回傳目前表中的拍賣數量，測試用
func (m *KeyedMutex) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
