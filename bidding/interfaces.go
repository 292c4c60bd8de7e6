//go:generate mockgen -package=bidding -destination=mock.go -source=interfaces.go

package bidding

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store 是拍賣狀態的持久層，唯一的資料來源
type Store interface {
	// GetAuction 讀取拍賣快照，不存在時回傳 ErrAuctionNotFound
	GetAuction(ctx context.Context, auctionID uuid.UUID) (Auction, error)
	// CommitBid 在同一個交易內寫入出價紀錄並更新拍賣狀態
	// 只有當資料庫中的 version 等於 expectedVersion 且尚未結束時才會成功，否則回傳 ErrConflict
	CommitBid(ctx context.Context, next Auction, bid Bid, expectedVersion int64) error
	// MarkEnded 將拍賣標記為結束，已經結束時回傳 false
	MarkEnded(ctx context.Context, auctionID uuid.UUID) (bool, error)
	// HighestBid 取得目前最高的出價紀錄，沒有出價時回傳 nil
	HighestBid(ctx context.Context, auctionID uuid.UUID) (*Bid, error)
	// ListEndedCandidates 列出尚未標記結束且結束時間落在 [since, until] 的拍賣
	ListEndedCandidates(ctx context.Context, since, until time.Time) ([]Auction, error)
	// Contacts 取得使用者的聯絡資料
	Contacts(ctx context.Context, userIDs ...uuid.UUID) (map[uuid.UUID]Contact, error)
}

// Notifier 是結標通知的外部協作者，失敗不會影響結標本身
type Notifier interface {
	NotifyWinner(ctx context.Context, winner, seller Contact, title string, amount decimal.Decimal) error
	NotifyNoWinner(ctx context.Context, seller Contact, title string) error
}

// EventPublisher 將原始事件送往廣播器
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// SnapshotCache 保存拍賣最新快照，提供晚加入的訂閱者讀取目前狀態
type SnapshotCache interface {
	Save(ctx context.Context, auction Auction) error
	Load(ctx context.Context, auctionID uuid.UUID) (Auction, bool, error)
}
