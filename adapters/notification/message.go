package notification

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"auctionhub/bidding"
)

// Kind 通知種類
type Kind string

const (
	KindWinner   Kind = "winner"
	KindNoWinner Kind = "no-winner"
)

// Recipient 通知對象
type Recipient struct {
	UserID uuid.UUID `msgpack:"userId"`
	Name   string    `msgpack:"name"`
	Email  string    `msgpack:"email"`
}

func recipientOf(c bidding.Contact) Recipient {
	return Recipient{UserID: c.UserID, Name: c.Name, Email: c.Email}
}

// Message 是寫入通知 stream 的結標通知
// Winner 為 nil 代表流標，只通知賣家
type Message struct {
	Kind   Kind            `msgpack:"kind"`
	Title  string          `msgpack:"title"`
	Amount decimal.Decimal `msgpack:"amount"`
	Winner *Recipient      `msgpack:"winner"`
	Seller Recipient       `msgpack:"seller"`
	Time   time.Time       `msgpack:"time"`
}
