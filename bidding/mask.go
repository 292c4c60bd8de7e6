package bidding

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

// 顯示名稱最後會送到瀏覽器，先去掉所有 HTML
var namePolicy = bluemonday.StrictPolicy()

// Mask 依接收者身份產生事件的可見內容
// 出價者的完整名稱與代理上限只給出價者本人與賣家，其他人看到遮罩後的名稱與可見價格
// viewer 為 uuid.Nil 代表匿名訂閱者
func Mask(event Event, viewer uuid.UUID) View {
	view := View{
		Kind:         event.Kind,
		Reason:       event.Reason,
		AuctionID:    event.AuctionID,
		CurrentPrice: event.CurrentPrice,
		BidAmount:    event.BidAmount,
		EndTime:      event.EndTime,
		IsEnded:      event.IsEnded,
		Time:         event.Time,
	}
	if event.BidderID == nil {
		return view
	}

	name := namePolicy.Sanitize(event.BidderName)
	privileged := viewer != uuid.Nil && (viewer == *event.BidderID || viewer == event.SellerID)
	if !privileged {
		view.Bidder = MaskName(name)
		return view
	}
	view.Bidder = name
	if event.MaxBidAmount != nil {
		maxBid := *event.MaxBidAmount
		view.MaxBidAmount = &maxBid
	}
	return view
}

// MaskName 只保留名稱結尾的一小段
// 保留長度為名稱的三分之一，最少 1 個字最多 3 個字，前面固定補 "***" 不透露原始長度
func MaskName(name string) string {
	n := utf8.RuneCountInString(name)
	if n == 0 {
		return ""
	}
	keep := min(max(n/3, 1), 3)
	if n <= keep {
		return "***"
	}
	runes := []rune(name)
	var b strings.Builder
	b.WriteString("***")
	b.WriteString(string(runes[n-keep:]))
	return b.String()
}
