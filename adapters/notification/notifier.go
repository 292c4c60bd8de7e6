package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"auctionhub/bidding"
)

type notifierOptions struct {
	logger *slog.Logger
	clock  func() time.Time
}

type NotifierOption func(*notifierOptions)

// WithNotifierLogger 設置日誌記錄器
func WithNotifierLogger(logger *slog.Logger) NotifierOption {
	return func(o *notifierOptions) {
		o.logger = logger
	}
}

// WithNotifierClock 設置時間來源
func WithNotifierClock(clock func() time.Time) NotifierOption {
	return func(o *notifierOptions) {
		o.clock = clock
	}
}

// StreamNotifier 把結標通知放進 Redis stream，由 Worker 非同步寄送
type StreamNotifier struct {
	sender  Sender
	logger  *slog.Logger
	options notifierOptions
}

var _ bidding.Notifier = (*StreamNotifier)(nil)

func NewStreamNotifier(sender Sender, opts ...NotifierOption) (*StreamNotifier, error) {
	if sender == nil {
		return nil, errors.New("sender cannot be nil")
	}
	options := notifierOptions{
		logger: slog.Default(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return &StreamNotifier{
		sender:  sender,
		logger:  options.logger.With(slog.String("caller", "StreamNotifier")),
		options: options,
	}, nil
}

func (n *StreamNotifier) NotifyWinner(ctx context.Context, winner, seller bidding.Contact, title string, amount decimal.Decimal) error {
	w := recipientOf(winner)
	return n.enqueue(ctx, Message{
		Kind:   KindWinner,
		Title:  title,
		Amount: amount,
		Winner: &w,
		Seller: recipientOf(seller),
		Time:   n.options.clock(),
	})
}

func (n *StreamNotifier) NotifyNoWinner(ctx context.Context, seller bidding.Contact, title string) error {
	return n.enqueue(ctx, Message{
		Kind:   KindNoWinner,
		Title:  title,
		Seller: recipientOf(seller),
		Time:   n.options.clock(),
	})
}

func (n *StreamNotifier) enqueue(ctx context.Context, msg Message) error {
	const op = "StreamNotifier.enqueue"
	id, err := n.sender.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("[%s] Fail to enqueue notification, err=%w", op, err)
	}
	n.logger.Debug("Notification enqueued",
		slog.String("kind", string(msg.Kind)),
		slog.String("sellerID", msg.Seller.UserID.String()),
		slog.String("messageID", id))
	return nil
}
