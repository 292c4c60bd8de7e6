package bidding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type coordinatorOptions struct {
	logger        *slog.Logger
	clock         func() time.Time
	lockTimeout   time.Duration
	commitTimeout time.Duration
	cache         SnapshotCache
}

type CoordinatorOption func(*coordinatorOptions)

// WithCoordinatorLogger 設置日誌記錄器
func WithCoordinatorLogger(logger *slog.Logger) CoordinatorOption {
	return func(o *coordinatorOptions) {
		o.logger = logger
	}
}

// WithCoordinatorClock 設置時間來源 (主要用於測試)
func WithCoordinatorClock(clock func() time.Time) CoordinatorOption {
	return func(o *coordinatorOptions) {
		o.clock = clock
	}
}

// WithCoordinatorLockTimeout 設置等待拍賣鎖的最長時間
func WithCoordinatorLockTimeout(d time.Duration) CoordinatorOption {
	return func(o *coordinatorOptions) {
		o.lockTimeout = d
	}
}

// WithCoordinatorCommitTimeout 設置寫入資料庫的最長時間
func WithCoordinatorCommitTimeout(d time.Duration) CoordinatorOption {
	return func(o *coordinatorOptions) {
		o.commitTimeout = d
	}
}

// WithCoordinatorSnapshotCache 設置快照快取，出價成功後會更新
func WithCoordinatorSnapshotCache(cache SnapshotCache) CoordinatorOption {
	return func(o *coordinatorOptions) {
		o.cache = cache
	}
}

// Coordinator 將同一拍賣的出價串行化後交給 Resolve，並負責寫入與廣播
type Coordinator struct {
	store  Store
	locker Locker
	settle *settlement
	logger *slog.Logger

	options coordinatorOptions
}

func NewCoordinator(store Store, locker Locker, events EventPublisher, notifier Notifier, opts ...CoordinatorOption) (*Coordinator, error) {
	if store == nil || locker == nil || notifier == nil {
		return nil, errors.New("store, locker and notifier cannot be nil")
	}

	// 默認選項
	options := coordinatorOptions{
		logger:        slog.Default(),
		clock:         time.Now,
		lockTimeout:   5 * time.Second,
		commitTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(&options)
	}

	logger := options.logger.With(slog.String("caller", "Coordinator"))
	return &Coordinator{
		store:  store,
		locker: locker,
		settle: &settlement{
			store:    store,
			notifier: notifier,
			events:   events,
			logger:   logger,
		},
		logger:  logger,
		options: options,
	}, nil
}

// Submit 提交一筆代理出價
// 被立即超越 (outbid) 不算錯誤，會回傳 Accepted=false 的 Outcome
// 其他拒絕原因會同時回傳 Outcome 與對應的錯誤
func (c *Coordinator) Submit(ctx context.Context, auctionID, bidderID uuid.UUID, maxBid decimal.Decimal) (Outcome, error) {
	const op = "Coordinator.Submit"
	if auctionID == uuid.Nil || bidderID == uuid.Nil {
		return Outcome{}, newError(KindValidation, op, fmt.Errorf("%w: missing auction or bidder", ErrInvalidBid))
	}
	if err := ValidateAmount(maxBid); err != nil {
		return Outcome{}, newError(KindValidation, op, err)
	}
	names := c.lookupNames(ctx, bidderID)

	// 等鎖可以被呼叫端取消，取得鎖之後的處理則不可中斷
	lockCtx, cancel := context.WithTimeout(ctx, c.options.lockTimeout)
	defer cancel()
	unlock, err := c.locker.Lock(lockCtx, auctionID)
	if err != nil {
		return Outcome{}, fmt.Errorf("[%s] Fail to acquire auction lock, err=%w", op, err)
	}
	workCtx, workCancel := context.WithTimeout(context.WithoutCancel(ctx), c.options.commitTimeout)
	defer workCancel()
	res, err := c.resolveAndCommit(workCtx, auctionID, bidderID, maxBid)
	if err == nil && res.Changed() {
		// 在鎖內廣播，讓事件順序與寫入順序一致
		c.publish(workCtx, res, names)
	}
	unlock()
	if err != nil {
		return Outcome{}, err
	}

	outcome := outcomeOf(res)
	if !res.Changed() {
		return outcome, reasonError(op, res.Reason)
	}
	if res.Kind == EventBoughtNow {
		c.logger.Info("Auction bought now",
			slog.String("auctionID", auctionID.String()),
			slog.String("winner", res.Bid.BidderID.String()),
			slog.String("price", res.Bid.Amount.String()))
		if err := c.settle.announce(workCtx, res.Next, res.Bid, EventBoughtNow, res.Bid.CreatedAt); err != nil {
			c.logger.Error("Buy-now settlement notification failed", slog.String("auctionID", auctionID.String()), slog.Any("error", err))
		}
	}
	return outcome, nil
}

// resolveAndCommit 必須在持有拍賣鎖時呼叫
func (c *Coordinator) resolveAndCommit(ctx context.Context, auctionID, bidderID uuid.UUID, maxBid decimal.Decimal) (Resolution, error) {
	const op = "Coordinator.resolveAndCommit"
	auction, err := c.store.GetAuction(ctx, auctionID)
	if err != nil {
		if errors.Is(err, ErrAuctionNotFound) {
			return Resolution{}, newError(KindNotFound, op, err)
		}
		return Resolution{}, fmt.Errorf("[%s] Fail to load auction, err=%w", op, err)
	}
	// 在鎖內再次檢查，避免和結標同時發生
	if auction.IsEnded {
		return Resolution{}, newError(KindEnded, op, ErrAuctionEnded)
	}

	res := Resolve(auction, bidderID, maxBid, c.options.clock())
	if !res.Changed() {
		return res, nil
	}
	bidID, err := uuid.NewV7()
	if err != nil {
		return Resolution{}, fmt.Errorf("[%s] Fail to generate bid id, err=%w", op, err)
	}
	res.Bid.ID = bidID
	res.Next.Version = auction.Version + 1
	if err := c.store.CommitBid(ctx, res.Next, *res.Bid, auction.Version); err != nil {
		if errors.Is(err, ErrConflict) {
			return Resolution{}, newError(KindConflict, op, err)
		}
		return Resolution{}, fmt.Errorf("[%s] Fail to commit bid, err=%w", op, err)
	}
	return res, nil
}

// publish 廣播出價事件並更新快取，失敗只記錄日誌
// 直購的事件由 settlement 負責
func (c *Coordinator) publish(ctx context.Context, res Resolution, names map[uuid.UUID]Contact) {
	logger := c.logger.With(slog.String("auctionID", res.Next.ID.String()))
	if c.options.cache != nil {
		if err := c.options.cache.Save(ctx, res.Next); err != nil {
			logger.Warn("Fail to refresh snapshot cache", slog.Any("error", err))
		}
	}
	if c.settle.events == nil || res.Kind == EventBoughtNow {
		return
	}

	bidderID := res.Bid.BidderID
	if _, ok := names[bidderID]; !ok {
		// 代理加價的出價者是原最高出價者
		for id, contact := range c.lookupNames(ctx, bidderID) {
			names[id] = contact
		}
	}
	maxAmount := res.Bid.MaxAmount
	event := Event{
		Kind:         res.Kind,
		Reason:       res.Reason,
		AuctionID:    res.Next.ID,
		SellerID:     res.Next.SellerID,
		BidderID:     &bidderID,
		BidderName:   names[bidderID].Name,
		CurrentPrice: res.Next.CurrentPrice,
		BidAmount:    res.Bid.Amount,
		MaxBidAmount: &maxAmount,
		EndTime:      res.Next.EndTime,
		IsEnded:      res.Next.IsEnded,
		Time:         res.Bid.CreatedAt,
	}
	if err := c.settle.events.Publish(ctx, event); err != nil {
		logger.Warn("Fail to publish bid event", slog.Any("error", err))
	}
}

func (c *Coordinator) lookupNames(ctx context.Context, ids ...uuid.UUID) map[uuid.UUID]Contact {
	contacts, err := c.store.Contacts(ctx, ids...)
	if err != nil {
		c.logger.Warn("Fail to load bidder names", slog.Any("error", err))
		return map[uuid.UUID]Contact{}
	}
	if contacts == nil {
		contacts = map[uuid.UUID]Contact{}
	}
	return contacts
}
