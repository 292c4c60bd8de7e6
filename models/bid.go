package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Bid 代表拍賣商品的出價紀錄，寫入後不再修改
// Proxy 為 true 表示系統代替原最高出價者自動加價
// 金額欄位的精度見 bidding.AmountPrecision
type Bid struct {
	gorm.Model

	ID        uuid.UUID       `gorm:"type:uuid;default:public.uuid_generate_v7();primaryKey;<-:create"`
	AuctionID uuid.UUID       `gorm:"type:uuid;not null;index;<-:create"`
	BidderID  uuid.UUID       `gorm:"type:uuid;not null;<-:create"`
	Amount    decimal.Decimal `gorm:"type:numeric(14,2);not null;<-:create"`
	MaxAmount decimal.Decimal `gorm:"type:numeric(14,2);not null;<-:create"`
	Proxy     bool            `gorm:"not null;default:false;<-:create"`

	// 外鍵關聯
	Auction Auction
	Bidder  User `gorm:"foreignKey:BidderID"`
}
