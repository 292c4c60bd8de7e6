package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type auctionLockerOptions struct {
	logger     *slog.Logger
	expiry     time.Duration
	retryDelay time.Duration
}

type AuctionLockerOption func(*auctionLockerOptions)

// WithAuctionLockerLogger 設置日誌記錄器
func WithAuctionLockerLogger(logger *slog.Logger) AuctionLockerOption {
	return func(o *auctionLockerOptions) {
		o.logger = logger
	}
}

// WithAuctionLockerExpiry 設置鎖的過期時間，持有期間會自動續期
func WithAuctionLockerExpiry(d time.Duration) AuctionLockerOption {
	return func(o *auctionLockerOptions) {
		o.expiry = d
	}
}

// WithAuctionLockerRetryDelay 設置鎖被佔用時的重試間隔
func WithAuctionLockerRetryDelay(d time.Duration) AuctionLockerOption {
	return func(o *auctionLockerOptions) {
		o.retryDelay = d
	}
}

// AuctionLocker 以 Redis 實作跨服務實例的拍賣鎖
type AuctionLocker struct {
	rs      *redsync.Redsync
	prefix  string
	logger  *slog.Logger
	options auctionLockerOptions
}

func NewAuctionLocker(client *redis.Client, prefix string, opts ...AuctionLockerOption) (*AuctionLocker, error) {
	if client == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	options := auctionLockerOptions{
		logger:     slog.Default(),
		expiry:     8 * time.Second,
		retryDelay: 50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return &AuctionLocker{
		rs:      redsync.New(goredis.NewPool(client)),
		prefix:  prefix,
		logger:  options.logger.With(slog.String("caller", "AuctionLocker")),
		options: options,
	}, nil
}

// LockKey 回傳拍賣鎖在 Redis 中的 key
func (l *AuctionLocker) LockKey(auctionID uuid.UUID) string {
	return l.prefix + "auction:" + auctionID.String() + ":lock"
}

// Lock 等待並取得拍賣鎖，ctx 只限制等待的時間
func (l *AuctionLocker) Lock(ctx context.Context, auctionID uuid.UUID) (func(), error) {
	const op = "AuctionLocker.Lock"
	mutex := newAutoRenewMutex(l.rs, l.LockKey(auctionID),
		WithAutoRenewMutexExpiry(l.options.expiry),
		WithAutoRenewMutexRetryDelay(l.options.retryDelay),
		WithAutoRenewMutexDetached(true),
	)
	if _, err := mutex.Lock(ctx); err != nil {
		return nil, fmt.Errorf("[%s] Fail to acquire lock, err=%w", op, err)
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		if ok, err := mutex.Unlock(); err != nil || !ok {
			l.logger.Warn("Fail to release auction lock",
				slog.String("auctionID", auctionID.String()),
				slog.Any("error", err))
		}
	}, nil
}
