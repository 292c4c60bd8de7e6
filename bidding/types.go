package bidding

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Auction 是拍賣商品目前狀態的快照
// CurrentPrice、HighestBidderID、HighestMaxBid、IsEnded 只能由 Coordinator 和 Sweeper 在拍賣鎖內修改
type Auction struct {
	ID              uuid.UUID
	SellerID        uuid.UUID
	Title           string
	StartingPrice   decimal.Decimal
	CurrentPrice    decimal.Decimal
	HighestBidderID *uuid.UUID
	HighestMaxBid   *decimal.Decimal // 最高出價者的代理上限，不對外公開
	MinIncrement    decimal.Decimal
	BuyNowPrice     *decimal.Decimal
	StartTime       time.Time
	EndTime         time.Time
	IsEnded         bool
	Version         int64
}

// HasBidder 判斷是否已經有最高出價者
func (a Auction) HasBidder() bool {
	return a.HighestBidderID != nil && a.HighestMaxBid != nil
}

// Bid 是一筆出價紀錄，建立後不會再修改
// 依建立順序的最後一筆 Bid 即為拍賣目前的價格與最高出價者
type Bid struct {
	ID        uuid.UUID
	AuctionID uuid.UUID
	BidderID  uuid.UUID
	Amount    decimal.Decimal // 對外可見的價格
	MaxAmount decimal.Decimal // 出價者的代理上限
	Proxy     bool            // 系統代替原最高出價者自動加價
	CreatedAt time.Time
}

// Contact 是通知與顯示用的使用者資料
type Contact struct {
	UserID uuid.UUID
	Name   string
	Email  string
}

// EventKind 事件種類
type EventKind string

const (
	EventNewBid           EventKind = "NewBid"
	EventBidRejected      EventKind = "BidRejected"
	EventBoughtNow        EventKind = "BoughtNow"
	EventWinnerDetermined EventKind = "WinnerDetermined"
	EventNoWinner         EventKind = "NoWinner"
	EventSnapshot         EventKind = "Snapshot"
)

// Reason 出價被拒絕的原因
type Reason string

const (
	ReasonNone       Reason = ""
	ReasonOutbid     Reason = "outbid"
	ReasonTooLow     Reason = "too-low"
	ReasonEnded      Reason = "ended"
	ReasonNotStarted Reason = "not-started"
	ReasonInvalid    Reason = "invalid"
)

// Event 是未經遮罩的原始事件，只在程序內與內部 stream 流動
// 推送給訂閱者前一定要經過 Mask
type Event struct {
	Kind         EventKind        `msgpack:"kind"`
	Reason       Reason           `msgpack:"reason"`
	AuctionID    uuid.UUID        `msgpack:"auctionId"`
	SellerID     uuid.UUID        `msgpack:"sellerId"`
	BidderID     *uuid.UUID       `msgpack:"bidderId"`
	BidderName   string           `msgpack:"bidderName"`
	CurrentPrice decimal.Decimal  `msgpack:"currentPrice"`
	BidAmount    decimal.Decimal  `msgpack:"bidAmount"`
	MaxBidAmount *decimal.Decimal `msgpack:"maxBidAmount"`
	EndTime      time.Time        `msgpack:"endTime"`
	IsEnded      bool             `msgpack:"isEnded"`
	Time         time.Time        `msgpack:"time"`
}

// View 是針對單一接收者遮罩後的事件內容
type View struct {
	Kind         EventKind        `json:"kind"`
	Reason       Reason           `json:"reason,omitempty"`
	AuctionID    uuid.UUID        `json:"auctionId"`
	CurrentPrice decimal.Decimal  `json:"currentPrice"`
	Bidder       string           `json:"bidder,omitempty"`
	BidAmount    decimal.Decimal  `json:"bidAmount"`
	MaxBidAmount *decimal.Decimal `json:"maxBidAmount,omitempty"`
	EndTime      time.Time        `json:"endTime"`
	IsEnded      bool             `json:"isEnded"`
	Time         time.Time        `json:"time"`
}

// Outcome 是 Submit 回傳給呼叫端的結果
type Outcome struct {
	Kind            EventKind       `json:"kind"`
	Reason          Reason          `json:"reason,omitempty"`
	Accepted        bool            `json:"accepted"`
	CurrentPrice    decimal.Decimal `json:"currentPrice"`
	HighestBidderID *uuid.UUID      `json:"highestBidderId,omitempty"`
	IsEnded         bool            `json:"isEnded"`
	EndTime         time.Time       `json:"endTime"`
}

func outcomeOf(res Resolution) Outcome {
	return Outcome{
		Kind:            res.Kind,
		Reason:          res.Reason,
		Accepted:        res.Accepted,
		CurrentPrice:    res.Next.CurrentPrice,
		HighestBidderID: res.Next.HighestBidderID,
		IsEnded:         res.Next.IsEnded,
		EndTime:         res.Next.EndTime,
	}
}
