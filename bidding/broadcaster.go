package bidding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"auctionhub/adapters/sse"
)

const (
	topicPrefix       = "auction/"
	sellerTopicSuffix = "/seller"
)

// TopicFor 拍賣的公開頻道
func TopicFor(auctionID uuid.UUID) string {
	return topicPrefix + auctionID.String()
}

// SellerTopicFor 拍賣的賣家頻道
func SellerTopicFor(auctionID uuid.UUID) string {
	return topicPrefix + auctionID.String() + sellerTopicSuffix
}

// ParseTopic 解析頻道名稱，回傳拍賣 id 以及是否為賣家頻道
func ParseTopic(topic string) (uuid.UUID, bool, error) {
	rest, ok := strings.CutPrefix(topic, topicPrefix)
	if !ok {
		return uuid.Nil, false, fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
	}
	rest, seller := strings.CutSuffix(rest, sellerTopicSuffix)
	id, err := uuid.Parse(rest)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false, fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
	}
	return id, seller, nil
}

// RenderView 是給 sse.ConnectionManager 用的轉換函式
// 訂閱時以 uuid 字串記錄身份，空字串或無法解析時視為匿名
func RenderView(viewer string, event Event) View {
	id, err := uuid.Parse(viewer)
	if err != nil {
		id = uuid.Nil
	}
	return Mask(event, id)
}

// AuctionReader 訂閱賣家頻道時用來確認賣家身份
type AuctionReader interface {
	GetAuction(ctx context.Context, auctionID uuid.UUID) (Auction, error)
}

type broadcasterOptions struct {
	logger *slog.Logger
}

type BroadcasterOption func(*broadcasterOptions)

// WithBroadcasterLogger 設置日誌記錄器
func WithBroadcasterLogger(logger *slog.Logger) BroadcasterOption {
	return func(o *broadcasterOptions) {
		o.logger = logger
	}
}

// Broadcaster 把拍賣事件推送給即時訂閱者
// 每個訂閱者收到的內容在推送當下才依身份遮罩
type Broadcaster struct {
	manager  sse.IConnectionManager[Event, View]
	auctions AuctionReader
	logger   *slog.Logger
}

func NewBroadcaster(manager sse.IConnectionManager[Event, View], auctions AuctionReader, opts ...BroadcasterOption) (*Broadcaster, error) {
	if manager == nil || auctions == nil {
		return nil, errors.New("manager and auction reader cannot be nil")
	}
	options := broadcasterOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&options)
	}
	return &Broadcaster{
		manager:  manager,
		auctions: auctions,
		logger:   options.logger.With(slog.String("caller", "Broadcaster")),
	}, nil
}

// Publish 將事件送往公開頻道與賣家頻道
func (b *Broadcaster) Publish(ctx context.Context, event Event) error {
	const op = "Broadcaster.Publish"
	if err := ctx.Err(); err != nil {
		return err
	}
	errPublic := b.manager.Publish(TopicFor(event.AuctionID), event)
	errSeller := b.manager.Publish(SellerTopicFor(event.AuctionID), event)
	if err := errors.Join(errPublic, errSeller); err != nil {
		return fmt.Errorf("[%s] Fail to publish event, err=%w", op, err)
	}
	return nil
}

// Subscribe 訂閱頻道，viewer 為 uuid.Nil 代表匿名
// 賣家頻道每次訂閱都重新讀取拍賣確認身份
func (b *Broadcaster) Subscribe(ctx context.Context, topic string, viewer uuid.UUID) (<-chan View, func(), error) {
	const op = "Broadcaster.Subscribe"
	auctionID, sellerOnly, err := ParseTopic(topic)
	if err != nil {
		return nil, nil, newError(KindValidation, op, err)
	}

	auction, err := b.auctions.GetAuction(ctx, auctionID)
	if err != nil {
		if errors.Is(err, ErrAuctionNotFound) {
			return nil, nil, newError(KindNotFound, op, err)
		}
		return nil, nil, fmt.Errorf("[%s] Fail to load auction, err=%w", op, err)
	}
	if sellerOnly && (viewer == uuid.Nil || viewer != auction.SellerID) {
		b.logger.Warn("Unauthorized seller topic subscription",
			slog.String("topic", topic),
			slog.String("viewer", viewer.String()))
		return nil, nil, newError(KindAuthorization, op, ErrUnauthorized)
	}

	viewerKey := ""
	if viewer != uuid.Nil {
		viewerKey = viewer.String()
	}
	ch, err := b.manager.Subscribe(topic, viewerKey)
	if err != nil {
		return nil, nil, fmt.Errorf("[%s] Fail to subscribe topic, err=%w", op, err)
	}
	cancel := func() {
		b.manager.Unsubscribe(topic, ch)
	}
	return ch, cancel, nil
}
