package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Auction 代表拍賣系統中的商品與其目前的競標狀態
// CurrentPrice、HighestBidderID、HighestMaxBid 是 Bid 紀錄的投影，和 Bid 在同一個交易內更新
// 金額欄位的 numeric(14,2) 必須與 bidding.AmountPrecision、bidding.AmountScale 一致
type Auction struct {
	gorm.Model

	ID              uuid.UUID           `gorm:"type:uuid;default:public.uuid_generate_v7();primaryKey;<-:create"`
	SellerID        uuid.UUID           `gorm:"type:uuid;not null;<-:create"`
	Title           string              `gorm:"type:varchar(255);not null"`
	Description     string              `gorm:"type:text;not null;default:''"`
	StartingPrice   decimal.Decimal     `gorm:"type:numeric(14,2);not null"`
	CurrentPrice    decimal.Decimal     `gorm:"type:numeric(14,2);not null"`
	HighestBidderID *uuid.UUID          `gorm:"type:uuid"`
	HighestMaxBid   decimal.NullDecimal `gorm:"type:numeric(14,2)"`
	MinIncrement    decimal.Decimal     `gorm:"type:numeric(14,2);not null"`
	BuyNowPrice     decimal.NullDecimal `gorm:"type:numeric(14,2)"`
	StartTime       time.Time           `gorm:"type:timestamp with time zone;not null"`
	EndTime         time.Time           `gorm:"type:timestamp with time zone;not null;index:idx_auctions_open_end,priority:2"`
	IsEnded         bool                `gorm:"not null;default:false;index:idx_auctions_open_end,priority:1"`
	Version         int64               `gorm:"not null;default:0"`

	// 外鍵關聯
	Seller        User  `gorm:"foreignKey:SellerID"`
	HighestBidder *User `gorm:"foreignKey:HighestBidderID"`
	Bids          []Bid
}
