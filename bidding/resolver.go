package bidding

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Resolution 是 Resolve 的計算結果
type Resolution struct {
	Kind     EventKind
	Reason   Reason
	Accepted bool
	// Next 是套用這次出價後的拍賣狀態，被拒絕且沒有影響價格時與原狀態相同
	Next Auction
	// Bid 是需要寫入的出價紀錄，為 nil 代表狀態沒有改變
	Bid *Bid
}

// Changed 判斷這次出價是否改變了拍賣狀態
func (r Resolution) Changed() bool {
	return r.Bid != nil
}

// Resolve 依代理出價規則計算新的價格與最高出價者
// 這是純函式，不做任何 I/O，呼叫端需自行保證同一拍賣同時只有一個 Resolve 在執行
//
// 規則:
//   - 拍賣已結束或尚未開始時拒絕
//   - 出價不為正數、超過兩位小數或超過金額欄位上限時拒絕
//   - 非最高出價者的上限不高於目前價格時拒絕
//   - 沒有最高出價者時直接成為最高出價者，價格維持起標價
//   - 原最高出價者上限不低於新上限時，新出價立即被超越，原最高出價者價格升到 min(原上限, 新上限+最小加價)
//   - 新上限較高時，新出價者成為最高出價者，價格為 min(新上限, 原上限+最小加價)
//   - 最高出價者提高自己的上限時只更新上限
//   - 直購看的是最高出價者的上限而不是目前價格: 上限 >= 直購價時拍賣立即結束，
//     成交價為 max(直購價, 原價格)，最高出價者自己提高上限到直購價也會觸發
func Resolve(auction Auction, bidderID uuid.UUID, maxBid decimal.Decimal, now time.Time) Resolution {
	reject := func(reason Reason) Resolution {
		return Resolution{Kind: EventBidRejected, Reason: reason, Next: auction}
	}
	if auction.IsEnded || !now.Before(auction.EndTime) {
		return reject(ReasonEnded)
	}
	if now.Before(auction.StartTime) {
		return reject(ReasonNotStarted)
	}
	if ValidateAmount(maxBid) != nil {
		return reject(ReasonInvalid)
	}

	next := auction
	res := Resolution{Kind: EventNewBid, Accepted: true}
	bid := &Bid{AuctionID: auction.ID, BidderID: bidderID, MaxAmount: maxBid, CreatedAt: now}

	switch {
	case !auction.HasBidder():
		if maxBid.LessThanOrEqual(auction.CurrentPrice) {
			return reject(ReasonTooLow)
		}
		next.CurrentPrice = decimal.Max(auction.StartingPrice, auction.CurrentPrice)
		next.HighestBidderID = &bidderID
		next.HighestMaxBid = &maxBid

	case *auction.HighestBidderID == bidderID:
		if maxBid.LessThanOrEqual(*auction.HighestMaxBid) {
			return reject(ReasonTooLow)
		}
		next.HighestMaxBid = &maxBid

	default:
		if maxBid.LessThanOrEqual(auction.CurrentPrice) {
			return reject(ReasonTooLow)
		}
		existingMax := *auction.HighestMaxBid
		if existingMax.GreaterThanOrEqual(maxBid) {
			// 立即被超越，原最高出價者的代理出價自動跟進
			next.CurrentPrice = decimal.Min(existingMax, maxBid.Add(auction.MinIncrement))
			res = Resolution{Kind: EventBidRejected, Reason: ReasonOutbid}
			bid.BidderID = *auction.HighestBidderID
			bid.MaxAmount = existingMax
			bid.Proxy = true
			break
		}
		next.CurrentPrice = decimal.Min(maxBid, existingMax.Add(auction.MinIncrement))
		next.HighestBidderID = &bidderID
		next.HighestMaxBid = &maxBid
	}

	if auction.BuyNowPrice != nil && next.HighestMaxBid.GreaterThanOrEqual(*auction.BuyNowPrice) {
		next.CurrentPrice = decimal.Max(*auction.BuyNowPrice, auction.CurrentPrice)
		next.IsEnded = true
		res = Resolution{Kind: EventBoughtNow, Accepted: *next.HighestBidderID == bidderID}
		bid.BidderID = *next.HighestBidderID
		bid.MaxAmount = *next.HighestMaxBid
	}

	bid.Amount = next.CurrentPrice
	res.Next = next
	res.Bid = bid
	return res
}
