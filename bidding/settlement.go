package bidding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// settlement 負責拍賣結束後的通知與事件廣播
// 只能由完成 isEnded 轉換的一方呼叫，藉此保證每個拍賣只通知一次
type settlement struct {
	store    Store
	notifier Notifier
	events   EventPublisher
	logger   *slog.Logger
}

// announce 依最高出價決定結果並通知賣家與得標者
// 通知失敗只會回傳 ErrNotificationDelivery，不影響拍賣已經結束的事實
func (s *settlement) announce(ctx context.Context, auction Auction, highest *Bid, kind EventKind, now time.Time) error {
	const op = "settlement.announce"
	logger := s.logger.With(slog.String("auctionID", auction.ID.String()), slog.String("kind", string(kind)))

	ids := []uuid.UUID{auction.SellerID}
	if highest != nil {
		ids = append(ids, highest.BidderID)
	}
	contacts, err := s.store.Contacts(ctx, ids...)
	if err != nil {
		logger.Error("Fail to load contacts", slog.Any("error", err))
		contacts = map[uuid.UUID]Contact{}
	}
	seller := contactOf(contacts, auction.SellerID)

	event := Event{
		Kind:         kind,
		AuctionID:    auction.ID,
		SellerID:     auction.SellerID,
		CurrentPrice: auction.CurrentPrice,
		BidAmount:    auction.CurrentPrice,
		EndTime:      auction.EndTime,
		IsEnded:      true,
		Time:         now,
	}
	var notifyErr error
	if highest != nil {
		winner := contactOf(contacts, highest.BidderID)
		event.BidderID = &highest.BidderID
		event.BidderName = winner.Name
		event.BidAmount = highest.Amount
		event.MaxBidAmount = &highest.MaxAmount
		notifyErr = s.notifier.NotifyWinner(ctx, winner, seller, auction.Title, highest.Amount)
	} else {
		notifyErr = s.notifier.NotifyNoWinner(ctx, seller, auction.Title)
	}

	if s.events != nil {
		if err := s.events.Publish(ctx, event); err != nil {
			logger.Warn("Fail to publish settlement event", slog.Any("error", err))
		}
	}

	if notifyErr != nil {
		logger.Error("Fail to notify settlement", slog.Any("error", notifyErr))
		return newError(KindNotification, op, fmt.Errorf("%w: %w", ErrNotificationDelivery, notifyErr))
	}
	logger.Info("Settlement notified")
	return nil
}

func contactOf(contacts map[uuid.UUID]Contact, id uuid.UUID) Contact {
	if c, ok := contacts[id]; ok {
		return c
	}
	return Contact{UserID: id}
}

// IsNotificationError 判斷錯誤是否只是通知失敗
func IsNotificationError(err error) bool {
	return errors.Is(err, ErrNotificationDelivery)
}
