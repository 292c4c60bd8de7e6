package api

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"auctionhub/bidding"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

var (
	sellerID = uuid.MustParse("0190a000-0000-7000-8000-0000000000aa")
	aliceID  = uuid.MustParse("0190a000-0000-7000-8000-000000000001")
	bobID    = uuid.MustParse("0190a000-0000-7000-8000-000000000002")
)

type testKeys struct {
	public  ed25519.PublicKey
	private ed25519.PrivateKey
}

func newTestKeys(t *testing.T) testKeys {
	t.Helper()
	public, private, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return testKeys{public: public, private: private}
}

func (k testKeys) authConfig() AuthConfig {
	return AuthConfig{PublicKey: k.public, Issuer: "auctionhub-test", Audience: "auctionhub"}
}

func (k testKeys) sign(t *testing.T, subject uuid.UUID, username string, ttl time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.String(),
			Issuer:    "auctionhub-test",
			Audience:  []string{"auctionhub"},
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	})
	signed, err := token.SignedString(k.private)
	require.NoError(t, err)
	return signed
}

type submitCall struct {
	auctionID uuid.UUID
	bidderID  uuid.UUID
	maxBid    decimal.Decimal
}

// fakeSubmitter 回傳預先設定的結果並記錄呼叫
type fakeSubmitter struct {
	mu      sync.Mutex
	calls   []submitCall
	outcome bidding.Outcome
	err     error
}

func (f *fakeSubmitter) Submit(_ context.Context, auctionID, bidderID uuid.UUID, maxBid decimal.Decimal) (bidding.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, submitCall{auctionID: auctionID, bidderID: bidderID, maxBid: maxBid})
	return f.outcome, f.err
}

// fakeAuctions 是記憶體中的拍賣資料
type fakeAuctions struct {
	mu       sync.Mutex
	auctions map[uuid.UUID]bidding.Auction
	contacts map[uuid.UUID]bidding.Contact
}

func newFakeAuctions(auctions ...bidding.Auction) *fakeAuctions {
	f := &fakeAuctions{
		auctions: make(map[uuid.UUID]bidding.Auction),
		contacts: map[uuid.UUID]bidding.Contact{
			aliceID:  {UserID: aliceID, Name: "alice_wonder"},
			bobID:    {UserID: bobID, Name: "bobby_tables"},
			sellerID: {UserID: sellerID, Name: "shop"},
		},
	}
	for _, a := range auctions {
		f.auctions[a.ID] = a
	}
	return f
}

func (f *fakeAuctions) GetAuction(_ context.Context, auctionID uuid.UUID) (bidding.Auction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.auctions[auctionID]
	if !ok {
		return bidding.Auction{}, bidding.ErrAuctionNotFound
	}
	return a, nil
}

func (f *fakeAuctions) Contacts(_ context.Context, userIDs ...uuid.UUID) (map[uuid.UUID]bidding.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[uuid.UUID]bidding.Contact, len(userIDs))
	for _, id := range userIDs {
		if c, ok := f.contacts[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

func testAuction(end time.Time) bidding.Auction {
	ceiling := decimal.NewFromInt(50)
	return bidding.Auction{
		ID:              uuid.MustParse("0190a000-0000-7000-8000-00000000a001"),
		SellerID:        sellerID,
		Title:           "camera",
		StartingPrice:   decimal.NewFromInt(10),
		CurrentPrice:    decimal.NewFromInt(31),
		HighestBidderID: &aliceID,
		HighestMaxBid:   &ceiling,
		MinIncrement:    decimal.NewFromInt(1),
		StartTime:       end.Add(-2 * time.Hour),
		EndTime:         end,
		Version:         2,
	}
}
