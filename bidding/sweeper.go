package bidding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

type sweeperOptions struct {
	logger      *slog.Logger
	clock       func() time.Time
	interval    time.Duration
	grace       time.Duration
	lockTimeout time.Duration
	cache       SnapshotCache
}

type SweeperOption func(*sweeperOptions)

// WithSweeperLogger 設置日誌記錄器
func WithSweeperLogger(logger *slog.Logger) SweeperOption {
	return func(o *sweeperOptions) {
		o.logger = logger
	}
}

// WithSweeperClock 設置時間來源 (主要用於測試)
func WithSweeperClock(clock func() time.Time) SweeperOption {
	return func(o *sweeperOptions) {
		o.clock = clock
	}
}

// WithSweeperInterval 設置掃描間隔
func WithSweeperInterval(d time.Duration) SweeperOption {
	return func(o *sweeperOptions) {
		o.interval = d
	}
}

// WithSweeperGrace 設置掃描視窗往前重疊的時間，容忍時鐘誤差
func WithSweeperGrace(d time.Duration) SweeperOption {
	return func(o *sweeperOptions) {
		o.grace = d
	}
}

// WithSweeperLockTimeout 設置等待拍賣鎖的最長時間
func WithSweeperLockTimeout(d time.Duration) SweeperOption {
	return func(o *sweeperOptions) {
		o.lockTimeout = d
	}
}

// WithSweeperSnapshotCache 設置快照快取，結標後會更新
func WithSweeperSnapshotCache(cache SnapshotCache) SweeperOption {
	return func(o *sweeperOptions) {
		o.cache = cache
	}
}

// SweepReport 一次掃描的統計
type SweepReport struct {
	Candidates int
	Settled    int
	Skipped    int
	Failed     int
}

var errAlreadyEnded = errors.New("auction already ended")

// Sweeper 定期找出已過結束時間的拍賣並結標
type Sweeper struct {
	store  Store
	locker Locker
	settle *settlement
	logger *slog.Logger

	mu       sync.Mutex // 同一時間只允許一次掃描，並保護 lastScan
	lastScan time.Time

	lifecycleMu sync.Mutex // 保護 running 與 cancelFunc
	cancelFunc  context.CancelFunc
	wg          sync.WaitGroup
	running     bool

	options sweeperOptions
}

func NewSweeper(store Store, locker Locker, events EventPublisher, notifier Notifier, opts ...SweeperOption) (*Sweeper, error) {
	if store == nil || locker == nil || notifier == nil {
		return nil, errors.New("store, locker and notifier cannot be nil")
	}

	// 默認選項
	options := sweeperOptions{
		logger:      slog.Default(),
		clock:       time.Now,
		interval:    time.Minute,
		grace:       5 * time.Second,
		lockTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.interval <= 0 {
		return nil, errors.New("sweep interval must be positive")
	}

	logger := options.logger.With(slog.String("caller", "Sweeper"))
	return &Sweeper{
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

// Start 啟動定期掃描，啟動時會先掃描一次
func (s *Sweeper) Start() {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()
	if s.running {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelFunc = cancel
	s.running = true
	s.logger.Info("starting settlement sweeper", slog.Duration("interval", s.options.interval))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.logger.Info("settlement sweeper stopped")

		ticker := time.NewTicker(s.options.interval)
		defer ticker.Stop()
		for {
			if _, err := s.SweepOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Error("Sweep failed", slog.Any("error", err))
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

// Close 停止掃描並等待進行中的掃描結束
func (s *Sweeper) Close() {
	s.lifecycleMu.Lock()
	if !s.running {
		s.lifecycleMu.Unlock()
		return
	}
	s.running = false
	s.cancelFunc()
	s.lifecycleMu.Unlock()

	s.wg.Wait()
}

// SweepOnce 掃描一次並結標所有到期的拍賣
// 單一拍賣失敗不會中斷其他拍賣，只有查詢候選清單失敗時才回傳錯誤
func (s *Sweeper) SweepOnce(ctx context.Context) (SweepReport, error) {
	const op = "Sweeper.SweepOnce"
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.options.clock()
	since := time.Time{}
	if !s.lastScan.IsZero() {
		since = s.lastScan.Add(-s.options.grace)
	}
	candidates, err := s.store.ListEndedCandidates(ctx, since, now)
	if err != nil {
		return SweepReport{}, fmt.Errorf("[%s] Fail to list candidates, err=%w", op, err)
	}

	report := SweepReport{Candidates: len(candidates)}
	// 沒能完成結標的拍賣要留在下一次的視窗內
	nextScan := now
	for _, candidate := range candidates {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		logger := s.logger.With(slog.String("auctionID", candidate.ID.String()))
		ended, err := s.settleOne(ctx, candidate.ID, now)
		switch {
		case errors.Is(err, errAlreadyEnded):
			report.Skipped++
		case err != nil && ended:
			// 已經結標，只是通知失敗
			report.Settled++
			report.Failed++
			logger.Error("Auction settled with notification failure", slog.Any("error", err))
		case err != nil:
			report.Failed++
			if candidate.EndTime.Before(nextScan) {
				nextScan = candidate.EndTime
			}
			logger.Error("Fail to settle auction", slog.Any("error", err))
		default:
			report.Settled++
		}
	}
	s.lastScan = nextScan

	if report.Candidates > 0 {
		s.logger.Info("Sweep finished",
			slog.Int("candidates", report.Candidates),
			slog.Int("settled", report.Settled),
			slog.Int("skipped", report.Skipped),
			slog.Int("failed", report.Failed))
	}
	return report, nil
}

// settleOne 在拍賣鎖內完成 isEnded 轉換，轉換成功後才通知
// 回傳的 bool 表示這次呼叫是否完成了轉換
func (s *Sweeper) settleOne(ctx context.Context, auctionID uuid.UUID, now time.Time) (bool, error) {
	const op = "Sweeper.settleOne"
	lockCtx, cancel := context.WithTimeout(ctx, s.options.lockTimeout)
	defer cancel()
	unlock, err := s.locker.Lock(lockCtx, auctionID)
	if err != nil {
		return false, fmt.Errorf("[%s] Fail to acquire auction lock, err=%w", op, err)
	}

	auction, highest, err := s.markEnded(ctx, auctionID)
	unlock()
	if err != nil {
		return false, err
	}

	if s.options.cache != nil {
		if err := s.options.cache.Save(ctx, auction); err != nil {
			s.logger.Warn("Fail to refresh snapshot cache", slog.String("auctionID", auctionID.String()), slog.Any("error", err))
		}
	}
	kind := EventNoWinner
	if highest != nil {
		kind = EventWinnerDetermined
	}
	return true, s.settle.announce(ctx, auction, highest, kind, now)
}

func (s *Sweeper) markEnded(ctx context.Context, auctionID uuid.UUID) (Auction, *Bid, error) {
	const op = "Sweeper.markEnded"
	auction, err := s.store.GetAuction(ctx, auctionID)
	if err != nil {
		return Auction{}, nil, fmt.Errorf("[%s] Fail to load auction, err=%w", op, err)
	}
	if auction.IsEnded {
		return Auction{}, nil, errAlreadyEnded
	}
	ok, err := s.store.MarkEnded(ctx, auctionID)
	if err != nil {
		return Auction{}, nil, fmt.Errorf("[%s] Fail to mark auction ended, err=%w", op, err)
	}
	if !ok {
		return Auction{}, nil, errAlreadyEnded
	}
	auction.IsEnded = true
	auction.Version++

	highest, err := s.store.HighestBid(ctx, auctionID)
	if err != nil {
		// isEnded 已經轉換，拿不到出價紀錄時退回使用拍賣上的投影欄位
		s.logger.Error("Fail to load highest bid, falling back to projection", slog.String("auctionID", auctionID.String()), slog.Any("error", err))
		if auction.HasBidder() {
			highest = &Bid{
				AuctionID: auctionID,
				BidderID:  *auction.HighestBidderID,
				Amount:    auction.CurrentPrice,
				MaxAmount: *auction.HighestMaxBid,
			}
		}
	}
	return auction, highest, nil
}
