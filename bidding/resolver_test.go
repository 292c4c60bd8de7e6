package bidding

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// apply 把 Resolve 的結果套用回拍賣，模擬 Coordinator 的寫入
func apply(t *testing.T, a Auction, bidder uuid.UUID, maxBid string) (Auction, Resolution) {
	t.Helper()
	res := Resolve(a, bidder, d(maxBid), baseTime)
	if res.Changed() {
		res.Next.Version = a.Version + 1
	}
	return res.Next, res
}

func TestResolve_ProxyScenario(t *testing.T) {
	a := newAuction()
	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()

	a, res := apply(t, a, alice, "50")
	assert.Equal(t, EventNewBid, res.Kind)
	assert.True(t, res.Accepted)
	assert.True(t, d("10").Equal(a.CurrentPrice))
	assert.Equal(t, alice, *a.HighestBidderID)

	a, res = apply(t, a, bob, "30")
	assert.Equal(t, EventBidRejected, res.Kind)
	assert.Equal(t, ReasonOutbid, res.Reason)
	assert.False(t, res.Accepted)
	assert.True(t, d("31").Equal(a.CurrentPrice))
	assert.Equal(t, alice, *a.HighestBidderID)
	require.NotNil(t, res.Bid)
	assert.Equal(t, alice, res.Bid.BidderID)
	assert.True(t, res.Bid.Proxy)

	a, res = apply(t, a, carol, "60")
	assert.Equal(t, EventNewBid, res.Kind)
	assert.True(t, d("51").Equal(a.CurrentPrice))
	assert.Equal(t, carol, *a.HighestBidderID)
	assert.True(t, d("60").Equal(*a.HighestMaxBid))
}

func TestResolve_Rejections(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	active := newAuction()
	withAlice, _ := apply(t, active, alice, "50")

	tests := []struct {
		name    string
		auction Auction
		bidder  uuid.UUID
		maxBid  string
		reason  Reason
	}{
		{"ended flag", newAuction(func(a *Auction) { a.IsEnded = true }), bob, "100", ReasonEnded},
		{"past end time", newAuction(withEndTime(baseTime)), bob, "100", ReasonEnded},
		{"not started", newAuction(func(a *Auction) { a.StartTime = baseTime.Add(time.Minute) }), bob, "100", ReasonNotStarted},
		{"zero amount", active, bob, "0", ReasonInvalid},
		{"negative amount", active, bob, "-5", ReasonInvalid},
		{"equal to current price", active, bob, "10", ReasonTooLow},
		{"below current price", withAlice, bob, "9.99", ReasonTooLow},
		{"self bid not raising ceiling", withAlice, alice, "50", ReasonTooLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Resolve(tt.auction, tt.bidder, d(tt.maxBid), baseTime)
			assert.Equal(t, EventBidRejected, res.Kind)
			assert.Equal(t, tt.reason, res.Reason)
			assert.False(t, res.Changed())
			assert.Equal(t, tt.auction, res.Next, "rejected bid must not change state")
		})
	}
}

func TestResolve_SelfBidRaisesCeilingOnly(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	a, _ := apply(t, newAuction(), alice, "50")
	a, _ = apply(t, a, bob, "30")

	next, res := apply(t, a, alice, "80")
	assert.Equal(t, EventNewBid, res.Kind)
	assert.True(t, a.CurrentPrice.Equal(next.CurrentPrice))
	assert.True(t, d("80").Equal(*next.HighestMaxBid))
}

func TestResolve_TieGoesToIncumbent(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	a, _ := apply(t, newAuction(), alice, "50")
	a, res := apply(t, a, bob, "50")

	assert.Equal(t, ReasonOutbid, res.Reason)
	assert.Equal(t, alice, *a.HighestBidderID)
	assert.True(t, d("50").Equal(a.CurrentPrice))
}

func TestResolve_BuyNow(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	a, _ := apply(t, newAuction(withBuyNow("100")), alice, "40")

	next, res := apply(t, a, bob, "120")
	assert.Equal(t, EventBoughtNow, res.Kind)
	assert.True(t, res.Accepted)
	assert.True(t, next.IsEnded)
	assert.True(t, d("100").Equal(next.CurrentPrice))
	assert.Equal(t, bob, res.Bid.BidderID)

	_, res = apply(t, next, alice, "500")
	assert.Equal(t, ReasonEnded, res.Reason)
}

func TestResolve_BuyNowFirstBid(t *testing.T) {
	alice := uuid.New()
	next, res := apply(t, newAuction(withBuyNow("100")), alice, "100")
	assert.Equal(t, EventBoughtNow, res.Kind)
	assert.True(t, next.IsEnded)
	assert.True(t, d("100").Equal(res.Bid.Amount))
}

// 任意出價順序下，結果都等於第二高上限加最小加價，且不超過最高上限
func TestResolve_SecondPriceProperty(t *testing.T) {
	tests := []struct {
		name      string
		increment string
		draw      func(rng *rand.Rand) decimal.Decimal
	}{
		{"whole amounts", "1", func(rng *rand.Rand) decimal.Decimal {
			return decimal.NewFromInt(int64(11 + rng.Intn(500)))
		}},
		{"cents", "0.5", func(rng *rand.Rand) decimal.Decimal {
			return decimal.New(int64(1001+rng.Intn(50000)), -AmountScale)
		}},
		{"cents near each other", "0.01", func(rng *rand.Rand) decimal.Decimal {
			return decimal.New(int64(1001+rng.Intn(40)), -AmountScale)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(42))
			for round := 0; round < 200; round++ {
				a := newAuction(func(a *Auction) { a.MinIncrement = d(tt.increment) })
				n := 2 + rng.Intn(6)
				bidders := make([]uuid.UUID, n)
				maxes := make([]decimal.Decimal, n)
				for i := range bidders {
					bidders[i] = uuid.New()
					maxes[i] = tt.draw(rng)
				}
				checkSecondPrice(t, round, a, bidders, maxes)
			}
		})
	}
}

func checkSecondPrice(t *testing.T, round int, a Auction, bidders []uuid.UUID, maxes []decimal.Decimal) {
	t.Helper()
	prev := a.CurrentPrice
	// 被判定過低的出價不影響結果
	var counted []int
	for i := range bidders {
		next, res := apply(t, a, bidders[i], maxes[i].String())
		require.True(t, next.CurrentPrice.GreaterThanOrEqual(prev), "price must be monotonic")
		require.True(t, next.CurrentPrice.Truncate(AmountScale).Equal(next.CurrentPrice), "price keeps the column scale")
		if res.Changed() {
			counted = append(counted, i)
		} else {
			assert.Equal(t, a, next)
		}
		prev = next.CurrentPrice
		a = next
	}
	if len(counted) < 2 {
		return
	}

	// 最高上限，同額時最早出價者勝出
	winner := counted[0]
	for _, i := range counted {
		if maxes[i].GreaterThan(maxes[winner]) {
			winner = i
		}
	}
	second := decimal.Zero
	found := false
	for _, i := range counted {
		if i == winner {
			continue
		}
		if !found || maxes[i].GreaterThan(second) {
			second, found = maxes[i], true
		}
	}
	expected := decimal.Min(maxes[winner], second.Add(a.MinIncrement))
	expected = decimal.Max(expected, a.StartingPrice)

	assert.Equal(t, bidders[winner], *a.HighestBidderID, "round %d", round)
	assert.True(t, expected.Equal(a.CurrentPrice), "round %d: expected %s got %s", round, expected, a.CurrentPrice)
}

func TestResolve_AmountOutsideColumn(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	a, _ := apply(t, newAuction(), alice, "50")

	for _, amount := range []string{"50.004", "60.001", "1e20", "999999999999.991", "1000000000000"} {
		t.Run(amount, func(t *testing.T) {
			res := Resolve(a, bob, d(amount), baseTime)
			assert.Equal(t, ReasonInvalid, res.Reason)
			assert.False(t, res.Changed())
			assert.Equal(t, a, res.Next)
		})
	}

	t.Run("largest storable amount", func(t *testing.T) {
		next, res := apply(t, a, bob, MaxAmount.String())
		assert.True(t, res.Accepted)
		assert.True(t, d("51").Equal(next.CurrentPrice))
	})
}

// 出價落在目前價格與目前價格加最小加價之間，或剛好等於原最高上限
func TestResolve_WithinIncrementAndCeilingTie(t *testing.T) {
	alice, bob, carol, dave := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	a, _ := apply(t, newAuction(), alice, "50")
	a, _ = apply(t, a, bob, "30")
	require.True(t, d("31").Equal(a.CurrentPrice))

	a, res := apply(t, a, carol, "31.50")
	assert.Equal(t, ReasonOutbid, res.Reason)
	assert.True(t, d("32.50").Equal(a.CurrentPrice))
	assert.Equal(t, alice, *a.HighestBidderID)

	a, _ = apply(t, a, bob, "48.50")
	require.True(t, d("49.50").Equal(a.CurrentPrice))

	// 與原上限同額，最早的出價者保留領先，價格停在上限
	a, res = apply(t, a, carol, "50")
	assert.Equal(t, ReasonOutbid, res.Reason)
	assert.Equal(t, alice, *a.HighestBidderID)
	assert.True(t, d("50").Equal(a.CurrentPrice))

	a, res = apply(t, a, carol, "50")
	assert.Equal(t, ReasonTooLow, res.Reason, "price already equals the ceiling")

	a, res = apply(t, a, dave, "50.01")
	assert.Equal(t, EventNewBid, res.Kind)
	assert.Equal(t, dave, *a.HighestBidderID)
	assert.True(t, d("50.01").Equal(a.CurrentPrice))
}

func TestResolve_BuyNowUsesCeiling(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	a, _ := apply(t, newAuction(withBuyNow("100")), alice, "50")

	t.Run("ceiling above buy-now price ends the auction", func(t *testing.T) {
		next, res := apply(t, a, bob, "120")
		assert.Equal(t, EventBoughtNow, res.Kind)
		assert.True(t, next.IsEnded)
		assert.True(t, d("100").Equal(next.CurrentPrice))
	})

	t.Run("incumbent raising ceiling to buy-now price", func(t *testing.T) {
		next, res := apply(t, a, alice, "100")
		assert.Equal(t, EventBoughtNow, res.Kind)
		assert.True(t, res.Accepted)
		assert.True(t, next.IsEnded)
		assert.Equal(t, alice, res.Bid.BidderID)
	})
}
