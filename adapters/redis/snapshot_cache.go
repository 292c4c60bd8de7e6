package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"auctionhub/bidding"
)

const (
	fieldID              = "id"
	fieldSellerID        = "sellerId"
	fieldTitle           = "title"
	fieldStartingPrice   = "startingPrice"
	fieldCurrentPrice    = "currentPrice"
	fieldHighestBidderID = "highestBidderId"
	fieldMinIncrement    = "minIncrement"
	fieldBuyNowPrice     = "buyNowPrice"
	fieldStartTime       = "startTime"
	fieldEndTime         = "endTime"
	fieldIsEnded         = "isEnded"
	fieldVersion         = "version"
)

// saveSnapshotScript 只在新快照的 version 不小於現有快照時覆寫整個 hash
// KEYS[1] = key, ARGV[1] = version, ARGV[2] = ttl (ms), ARGV[3..] = field/value
var saveSnapshotScript = redis.NewScript(`
local key = KEYS[1]
local current = redis.call('HGET', key, 'version')
if current and tonumber(current) > tonumber(ARGV[1]) then
    return 0
end
redis.call('DEL', key)
redis.call('HSET', key, unpack(ARGV, 3))
if tonumber(ARGV[2]) > 0 then
    redis.call('PEXPIRE', key, ARGV[2])
end
return 1
`)

type snapshotCacheOptions struct {
	prefix string
	ttl    time.Duration
}

type SnapshotCacheOption func(*snapshotCacheOptions)

// WithSnapshotCachePrefix 設定 key 前綴
func WithSnapshotCachePrefix(prefix string) SnapshotCacheOption {
	return func(o *snapshotCacheOptions) {
		o.prefix = prefix
	}
}

// WithSnapshotCacheTTL 設定快照的存活時間，0 表示不過期
func WithSnapshotCacheTTL(ttl time.Duration) SnapshotCacheOption {
	return func(o *snapshotCacheOptions) {
		o.ttl = ttl
	}
}

// SnapshotCache 以 Redis hash 保存拍賣的公開快照
// 代理上限不會寫入快取
type SnapshotCache struct {
	client  *redis.Client
	options snapshotCacheOptions
}

func NewSnapshotCache(client *redis.Client, opts ...SnapshotCacheOption) (*SnapshotCache, error) {
	if client == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	options := snapshotCacheOptions{ttl: 24 * time.Hour}
	for _, opt := range opts {
		opt(&options)
	}
	return &SnapshotCache{client: client, options: options}, nil
}

// Key 回傳拍賣快照的 key
func (c *SnapshotCache) Key(auctionID uuid.UUID) string {
	return c.options.prefix + "auction:" + auctionID.String() + ":snapshot"
}

// Save 寫入快照，較舊的 version 不會覆蓋較新的快照
func (c *SnapshotCache) Save(ctx context.Context, auction bidding.Auction) error {
	const op = "redis.SnapshotCache.Save"
	fields := []any{
		fieldID, auction.ID.String(),
		fieldSellerID, auction.SellerID.String(),
		fieldTitle, auction.Title,
		fieldStartingPrice, auction.StartingPrice.String(),
		fieldCurrentPrice, auction.CurrentPrice.String(),
		fieldMinIncrement, auction.MinIncrement.String(),
		fieldStartTime, auction.StartTime.UTC().Format(time.RFC3339Nano),
		fieldEndTime, auction.EndTime.UTC().Format(time.RFC3339Nano),
		fieldIsEnded, strconv.FormatBool(auction.IsEnded),
		fieldVersion, strconv.FormatInt(auction.Version, 10),
	}
	if auction.HighestBidderID != nil {
		fields = append(fields, fieldHighestBidderID, auction.HighestBidderID.String())
	}
	if auction.BuyNowPrice != nil {
		fields = append(fields, fieldBuyNowPrice, auction.BuyNowPrice.String())
	}

	args := append([]any{auction.Version, c.options.ttl.Milliseconds()}, fields...)
	if err := saveSnapshotScript.Run(ctx, c.client, []string{c.Key(auction.ID)}, args...).Err(); err != nil {
		return fmt.Errorf("[%s] Fail to execute save script, err=%w", op, err)
	}
	return nil
}

// Load 讀取快照，不存在時回傳 false
func (c *SnapshotCache) Load(ctx context.Context, auctionID uuid.UUID) (bidding.Auction, bool, error) {
	const op = "redis.SnapshotCache.Load"
	values, err := c.client.HGetAll(ctx, c.Key(auctionID)).Result()
	if err != nil {
		return bidding.Auction{}, false, fmt.Errorf("[%s] Fail to get hash, err=%w", op, err)
	}
	// key 不存在時 Redis 回傳空的 map
	if len(values) == 0 {
		return bidding.Auction{}, false, nil
	}
	auction, err := parseSnapshot(values)
	if err != nil {
		return bidding.Auction{}, false, fmt.Errorf("[%s] Fail to parse snapshot, err=%w", op, err)
	}
	return auction, true, nil
}

func parseSnapshot(values map[string]string) (bidding.Auction, error) {
	var (
		a   bidding.Auction
		err error
	)
	p := snapshotParser{values: values}
	a.ID = p.parseUUID(fieldID)
	a.SellerID = p.parseUUID(fieldSellerID)
	a.Title = values[fieldTitle]
	a.StartingPrice = p.parseDecimal(fieldStartingPrice)
	a.CurrentPrice = p.parseDecimal(fieldCurrentPrice)
	a.MinIncrement = p.parseDecimal(fieldMinIncrement)
	a.StartTime = p.parseTime(fieldStartTime)
	a.EndTime = p.parseTime(fieldEndTime)
	if _, ok := values[fieldHighestBidderID]; ok {
		a.HighestBidderID = lo.ToPtr(p.parseUUID(fieldHighestBidderID))
	}
	if _, ok := values[fieldBuyNowPrice]; ok {
		a.BuyNowPrice = lo.ToPtr(p.parseDecimal(fieldBuyNowPrice))
	}
	if a.IsEnded, err = strconv.ParseBool(values[fieldIsEnded]); err != nil {
		p.fail(fieldIsEnded, err)
	}
	if a.Version, err = strconv.ParseInt(values[fieldVersion], 10, 64); err != nil {
		p.fail(fieldVersion, err)
	}
	return a, p.err
}

// snapshotParser 記錄第一個解析錯誤
type snapshotParser struct {
	values map[string]string
	err    error
}

func (p *snapshotParser) fail(field string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("field %s: %w", field, err)
	}
}

func (p *snapshotParser) parseUUID(field string) uuid.UUID {
	id, err := uuid.Parse(p.values[field])
	if err != nil {
		p.fail(field, err)
	}
	return id
}

func (p *snapshotParser) parseDecimal(field string) decimal.Decimal {
	d, err := decimal.NewFromString(p.values[field])
	if err != nil {
		p.fail(field, err)
	}
	return d
}

func (p *snapshotParser) parseTime(field string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, p.values[field])
	if err != nil {
		p.fail(field, err)
	}
	return t
}
