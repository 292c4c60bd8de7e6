package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"auctionhub/bidding"
	"auctionhub/models"
)

// Store 以 gorm 實作 bidding.Store
// Auction 上的價格欄位是 Bid 紀錄的投影，兩者一定在同一個交易內寫入
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}
	return &Store{db: db}, nil
}

func (s *Store) GetAuction(ctx context.Context, auctionID uuid.UUID) (bidding.Auction, error) {
	const op = "Store.GetAuction"
	var row models.Auction
	if result := s.db.WithContext(ctx).Where("id = ?", auctionID).Take(&row); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return bidding.Auction{}, bidding.ErrAuctionNotFound
		}
		return bidding.Auction{}, fmt.Errorf("[%s] Fail to find auction, err=%w", op, result.Error)
	}
	return toAuction(row), nil
}

func (s *Store) CommitBid(ctx context.Context, next bidding.Auction, bid bidding.Bid, expectedVersion int64) error {
	const op = "Store.CommitBid"
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 先更新拍賣，版本不符時不會寫入出價紀錄
		result := tx.Model(&models.Auction{}).
			Where("id = ? AND version = ? AND is_ended = ?", next.ID, expectedVersion, false).
			Updates(map[string]any{
				"current_price":     next.CurrentPrice,
				"highest_bidder_id": next.HighestBidderID,
				"highest_max_bid":   nullDecimal(next.HighestMaxBid),
				"is_ended":          next.IsEnded,
				"version":           gorm.Expr("version + 1"),
			})
		if result.Error != nil {
			return fmt.Errorf("fail to update auction, err=%w", result.Error)
		}
		if result.RowsAffected == 0 {
			return bidding.ErrConflict
		}

		record := models.Bid{
			ID:        bid.ID,
			AuctionID: bid.AuctionID,
			BidderID:  bid.BidderID,
			Amount:    bid.Amount,
			MaxAmount: bid.MaxAmount,
			Proxy:     bid.Proxy,
		}
		record.CreatedAt = bid.CreatedAt
		if result := tx.Omit(clause.Associations).Create(&record); result.Error != nil {
			return fmt.Errorf("fail to create bid, err=%w", result.Error)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, bidding.ErrConflict) {
			return err
		}
		return fmt.Errorf("[%s] Fail to commit bid, err=%w", op, err)
	}
	return nil
}

func (s *Store) MarkEnded(ctx context.Context, auctionID uuid.UUID) (bool, error) {
	const op = "Store.MarkEnded"
	result := s.db.WithContext(ctx).Model(&models.Auction{}).
		Where("id = ? AND is_ended = ?", auctionID, false).
		Updates(map[string]any{
			"is_ended": true,
			"version":  gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return false, fmt.Errorf("[%s] Fail to mark auction ended, err=%w", op, result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (s *Store) HighestBid(ctx context.Context, auctionID uuid.UUID) (*bidding.Bid, error) {
	const op = "Store.HighestBid"
	var row models.Bid
	result := s.db.WithContext(ctx).
		Where("auction_id = ?", auctionID).
		Order(clause.OrderBy{Columns: []clause.OrderByColumn{
			{Column: clause.Column{Name: "created_at"}, Desc: true},
			{Column: clause.Column{Name: "id"}, Desc: true},
		}}).
		Take(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("[%s] Fail to find highest bid, err=%w", op, result.Error)
	}
	return lo.ToPtr(toBid(row)), nil
}

func (s *Store) ListEndedCandidates(ctx context.Context, since, until time.Time) ([]bidding.Auction, error) {
	const op = "Store.ListEndedCandidates"
	var rows []models.Auction
	result := s.db.WithContext(ctx).
		Where("is_ended = ? AND end_time > ? AND end_time <= ?", false, since, until).
		Order("end_time ASC").
		Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("[%s] Fail to list ended auctions, err=%w", op, result.Error)
	}
	return lo.Map(rows, func(row models.Auction, _ int) bidding.Auction {
		return toAuction(row)
	}), nil
}

func (s *Store) Contacts(ctx context.Context, userIDs ...uuid.UUID) (map[uuid.UUID]bidding.Contact, error) {
	const op = "Store.Contacts"
	ids := lo.Uniq(lo.Without(userIDs, uuid.Nil))
	if len(ids) == 0 {
		return map[uuid.UUID]bidding.Contact{}, nil
	}
	var users []models.User
	if result := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users); result.Error != nil {
		return nil, fmt.Errorf("[%s] Fail to find users, err=%w", op, result.Error)
	}
	return lo.SliceToMap(users, func(u models.User) (uuid.UUID, bidding.Contact) {
		return u.ID, bidding.Contact{UserID: u.ID, Name: u.Username, Email: u.Email}
	}), nil
}

func toAuction(row models.Auction) bidding.Auction {
	return bidding.Auction{
		ID:              row.ID,
		SellerID:        row.SellerID,
		Title:           row.Title,
		StartingPrice:   row.StartingPrice,
		CurrentPrice:    row.CurrentPrice,
		HighestBidderID: row.HighestBidderID,
		HighestMaxBid:   decimalPtr(row.HighestMaxBid),
		MinIncrement:    row.MinIncrement,
		BuyNowPrice:     decimalPtr(row.BuyNowPrice),
		StartTime:       row.StartTime,
		EndTime:         row.EndTime,
		IsEnded:         row.IsEnded,
		Version:         row.Version,
	}
}

func toBid(row models.Bid) bidding.Bid {
	return bidding.Bid{
		ID:        row.ID,
		AuctionID: row.AuctionID,
		BidderID:  row.BidderID,
		Amount:    row.Amount,
		MaxAmount: row.MaxAmount,
		Proxy:     row.Proxy,
		CreatedAt: row.CreatedAt,
	}
}

func decimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	return lo.ToPtr(d.Decimal)
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}
