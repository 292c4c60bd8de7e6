package bidding

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

var baseTime = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// newAuction 建立一個進行中的拍賣，起標價 10，最小加價 1
func newAuction(opts ...func(*Auction)) Auction {
	a := Auction{
		ID:            uuid.New(),
		SellerID:      uuid.New(),
		Title:         "Vintage camera",
		StartingPrice: d("10"),
		CurrentPrice:  d("10"),
		MinIncrement:  d("1"),
		StartTime:     baseTime.Add(-time.Hour),
		EndTime:       baseTime.Add(time.Hour),
	}
	for _, opt := range opts {
		opt(&a)
	}
	return a
}

func withBuyNow(price string) func(*Auction) {
	return func(a *Auction) {
		a.BuyNowPrice = lo.ToPtr(d(price))
	}
}

func withEndTime(t time.Time) func(*Auction) {
	return func(a *Auction) {
		a.EndTime = t
	}
}

// memStore 是測試用的記憶體 Store，行為與資料庫實作一致
type memStore struct {
	mu       sync.Mutex
	auctions map[uuid.UUID]Auction
	bids     map[uuid.UUID][]Bid
	contacts map[uuid.UUID]Contact

	markEndedCalls int
	commitErr      error
	getErr         map[uuid.UUID]error
}

func newMemStore(auctions ...Auction) *memStore {
	s := &memStore{
		auctions: make(map[uuid.UUID]Auction),
		bids:     make(map[uuid.UUID][]Bid),
		contacts: make(map[uuid.UUID]Contact),
		getErr:   make(map[uuid.UUID]error),
	}
	for _, a := range auctions {
		s.auctions[a.ID] = a
	}
	return s
}

func (s *memStore) addContact(id uuid.UUID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts[id] = Contact{UserID: id, Name: name, Email: name + "@example.com"}
}

func (s *memStore) auction(id uuid.UUID) Auction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.auctions[id]
}

func (s *memStore) bidsOf(id uuid.UUID) []Bid {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Bid(nil), s.bids[id]...)
}

func (s *memStore) GetAuction(_ context.Context, auctionID uuid.UUID) (Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.getErr[auctionID]; err != nil {
		return Auction{}, err
	}
	a, ok := s.auctions[auctionID]
	if !ok {
		return Auction{}, ErrAuctionNotFound
	}
	return a, nil
}

func (s *memStore) CommitBid(_ context.Context, next Auction, bid Bid, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.commitErr != nil {
		return s.commitErr
	}
	cur, ok := s.auctions[next.ID]
	if !ok {
		return ErrAuctionNotFound
	}
	if cur.Version != expectedVersion || cur.IsEnded {
		return ErrConflict
	}
	s.auctions[next.ID] = next
	s.bids[next.ID] = append(s.bids[next.ID], bid)
	return nil
}

func (s *memStore) MarkEnded(_ context.Context, auctionID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markEndedCalls++
	a, ok := s.auctions[auctionID]
	if !ok {
		return false, ErrAuctionNotFound
	}
	if a.IsEnded {
		return false, nil
	}
	a.IsEnded = true
	a.Version++
	s.auctions[auctionID] = a
	return true, nil
}

func (s *memStore) HighestBid(_ context.Context, auctionID uuid.UUID) (*Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bids := s.bids[auctionID]
	if len(bids) == 0 {
		return nil, nil
	}
	last := bids[len(bids)-1]
	return &last, nil
}

func (s *memStore) ListEndedCandidates(_ context.Context, since, until time.Time) ([]Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Auction
	for _, a := range s.auctions {
		if a.IsEnded || a.EndTime.After(until) || !a.EndTime.After(since) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndTime.Before(out[j].EndTime) })
	return out, nil
}

func (s *memStore) Contacts(_ context.Context, userIDs ...uuid.UUID) (map[uuid.UUID]Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uuid.UUID]Contact, len(userIDs))
	for _, id := range userIDs {
		if c, ok := s.contacts[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

type notice struct {
	Winner *Contact
	Seller Contact
	Title  string
	Amount decimal.Decimal
}

// recordingNotifier 記錄所有通知
type recordingNotifier struct {
	mu      sync.Mutex
	notices []notice
	err     error
}

func (n *recordingNotifier) NotifyWinner(_ context.Context, winner, seller Contact, title string, amount decimal.Decimal) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice{Winner: &winner, Seller: seller, Title: title, Amount: amount})
	return n.err
}

func (n *recordingNotifier) NotifyNoWinner(_ context.Context, seller Contact, title string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice{Seller: seller, Title: title})
	return n.err
}

func (n *recordingNotifier) all() []notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notice(nil), n.notices...)
}

// recordingPublisher 記錄所有事件
type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(_ context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) all() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}
