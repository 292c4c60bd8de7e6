package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"auctionhub/api/openapi"
	"auctionhub/bidding"
)

// BidSubmitter 由 bidding.Coordinator 實作
type BidSubmitter interface {
	Submit(ctx context.Context, auctionID, bidderID uuid.UUID, maxBid decimal.Decimal) (bidding.Outcome, error)
}

// EventSubscriber 由 bidding.Broadcaster 實作
type EventSubscriber interface {
	Subscribe(ctx context.Context, topic string, viewer uuid.UUID) (<-chan bidding.View, func(), error)
}

// AuctionReader 提供快照查詢需要的資料
type AuctionReader interface {
	GetAuction(ctx context.Context, auctionID uuid.UUID) (bidding.Auction, error)
	Contacts(ctx context.Context, userIDs ...uuid.UUID) (map[uuid.UUID]bidding.Contact, error)
}

type handlersOptions struct {
	logger    *slog.Logger
	cache     bidding.SnapshotCache
	keepAlive time.Duration
	clock     func() time.Time
}

type HandlersOption func(*handlersOptions)

// WithHandlersLogger 設置日誌記錄器
func WithHandlersLogger(logger *slog.Logger) HandlersOption {
	return func(o *handlersOptions) {
		o.logger = logger
	}
}

// WithHandlersSnapshotCache 設置快照快取，讀取快照時優先使用
func WithHandlersSnapshotCache(cache bidding.SnapshotCache) HandlersOption {
	return func(o *handlersOptions) {
		o.cache = cache
	}
}

// WithHandlersKeepAlive 設置 SSE 保持連線的間隔
func WithHandlersKeepAlive(d time.Duration) HandlersOption {
	return func(o *handlersOptions) {
		o.keepAlive = d
	}
}

// WithHandlersClock 設置時間來源
func WithHandlersClock(clock func() time.Time) HandlersOption {
	return func(o *handlersOptions) {
		o.clock = clock
	}
}

// Handlers 是競標相關的 HTTP 端點
type Handlers struct {
	bids     BidSubmitter
	events   EventSubscriber
	auctions AuctionReader
	auth     *Authenticator
	logger   *slog.Logger
	options  handlersOptions
}

var _ openapi.StrictServerInterface = (*Handlers)(nil)

func NewHandlers(bids BidSubmitter, events EventSubscriber, auctions AuctionReader, auth *Authenticator, opts ...HandlersOption) (*Handlers, error) {
	if bids == nil || events == nil || auctions == nil || auth == nil {
		return nil, errors.New("bids, events, auctions and auth cannot be nil")
	}
	options := handlersOptions{
		logger:    slog.Default(),
		keepAlive: 30 * time.Second,
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return &Handlers{
		bids:     bids,
		events:   events,
		auctions: auctions,
		auth:     auth,
		logger:   options.logger.With(slog.String("caller", "Handlers")),
		options:  options,
	}, nil
}

// Register 以產生的 strict handler 註冊路由
func (h *Handlers) Register(router gin.IRouter) {
	openapi.RegisterHandlersWithOptions(router, openapi.NewStrictHandler(h, nil), openapi.GinServerOptions{
		ErrorHandler: func(c *gin.Context, err error, statusCode int) {
			c.JSON(statusCode, openapi.Error{Message: err.Error()})
		},
	})
}

// Place a proxy bid on an auction item
// (POST /auction/item/{itemID}/bids)
func (h *Handlers) PostAuctionItemItemIDBids(ctx context.Context, request openapi.PostAuctionItemItemIDBidsRequestObject) (openapi.PostAuctionItemItemIDBidsResponseObject, error) {
	const op = "PostAuctionItemItemIDBids"
	if request.ItemID == uuid.Nil {
		return openapi.PostAuctionItemItemIDBids400JSONResponse{Message: "invalid item id"}, nil
	}
	identity, err := h.auth.Identify(request.Params.AccessToken, request.Params.Authorization)
	if err != nil {
		h.logger.Debug("Reject unauthenticated bid", slog.String("op", op), slog.Any("error", err))
		return openapi.PostAuctionItemItemIDBids401JSONResponse{Message: "unauthorized"}, nil
	}
	// 金額在進入引擎前先確認可以存入金額欄位
	if err := bidding.ValidateAmount(request.Body.Bid); err != nil {
		h.logger.Debug("Reject invalid amount", slog.String("op", op), slog.Any("error", err))
		return openapi.PostAuctionItemItemIDBids400JSONResponse{Message: messageOf(err)}, nil
	}

	outcome, err := h.bids.Submit(requestContext(ctx), request.ItemID, identity.UserID, request.Body.Bid)
	if err != nil {
		status := statusOf(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("Fail to submit bid", slog.String("op", op), slog.String("auctionID", request.ItemID.String()), slog.Any("error", err))
		}
		body := openapi.BidError{Message: messageOf(err)}
		if outcome.Kind != "" {
			body.Outcome = lo.ToPtr(toBidOutcome(outcome))
		}
		return bidErrorResponse(status, body), nil
	}
	if outcome.Accepted {
		h.logger.Info("Bid accepted",
			slog.String("auctionID", request.ItemID.String()),
			slog.String("bidder", identity.UserID.String()),
			slog.String("price", outcome.CurrentPrice.String()))
	}
	return openapi.PostAuctionItemItemIDBids200JSONResponse(toBidOutcome(outcome)), nil
}

// Get the current auction snapshot
// (GET /auction/item/{itemID})
func (h *Handlers) GetAuctionItemItemID(ctx context.Context, request openapi.GetAuctionItemItemIDRequestObject) (openapi.GetAuctionItemItemIDResponseObject, error) {
	const op = "GetAuctionItemItemID"
	if request.ItemID == uuid.Nil {
		return openapi.GetAuctionItemItemID400JSONResponse{Message: "invalid item id"}, nil
	}
	viewer := h.viewer(request.Params.AccessToken, request.Params.Authorization)
	view, err := h.snapshot(requestContext(ctx), request.ItemID, viewer)
	if err != nil {
		body := openapi.Error{Message: messageOf(err)}
		switch statusOf(err) {
		case http.StatusNotFound:
			return openapi.GetAuctionItemItemID404JSONResponse(body), nil
		case http.StatusServiceUnavailable:
			return openapi.GetAuctionItemItemID503JSONResponse(body), nil
		}
		h.logger.Error("Fail to load snapshot", slog.String("op", op), slog.Any("error", err))
		return openapi.GetAuctionItemItemID500JSONResponse(body), nil
	}
	return openapi.GetAuctionItemItemID200JSONResponse(toAuctionView(view)), nil
}

// Track auction item events
// (GET /auction/item/{itemID}/events)
func (h *Handlers) GetAuctionItemItemIDEvents(ctx context.Context, request openapi.GetAuctionItemItemIDEventsRequestObject) (openapi.GetAuctionItemItemIDEventsResponseObject, error) {
	const op = "GetAuctionItemItemIDEvents"
	if request.ItemID == uuid.Nil {
		return openapi.GetAuctionItemItemIDEvents400JSONResponse{Message: "invalid item id"}, nil
	}
	viewer := h.viewer(request.Params.AccessToken, request.Params.Authorization)
	if err := h.streamEvents(ctx, request.ItemID, bidding.TopicFor(request.ItemID), viewer); err != nil {
		body := openapi.Error{Message: messageOf(err)}
		switch statusOf(err) {
		case http.StatusBadRequest:
			return openapi.GetAuctionItemItemIDEvents400JSONResponse(body), nil
		case http.StatusNotFound:
			return openapi.GetAuctionItemItemIDEvents404JSONResponse(body), nil
		}
		h.logger.Error("Fail to subscribe events", slog.String("op", op), slog.Any("error", err))
		return openapi.GetAuctionItemItemIDEvents500JSONResponse(body), nil
	}
	return openapi.GetAuctionItemItemIDEvents200Response{}, nil
}

// Track auction item events as the seller
// (GET /auction/item/{itemID}/events/seller)
func (h *Handlers) GetAuctionItemItemIDEventsSeller(ctx context.Context, request openapi.GetAuctionItemItemIDEventsSellerRequestObject) (openapi.GetAuctionItemItemIDEventsSellerResponseObject, error) {
	const op = "GetAuctionItemItemIDEventsSeller"
	if request.ItemID == uuid.Nil {
		return openapi.GetAuctionItemItemIDEventsSeller400JSONResponse{Message: "invalid item id"}, nil
	}
	viewer := h.viewer(request.Params.AccessToken, request.Params.Authorization)
	if viewer == uuid.Nil {
		return openapi.GetAuctionItemItemIDEventsSeller401JSONResponse{Message: "unauthorized"}, nil
	}
	if err := h.streamEvents(ctx, request.ItemID, bidding.SellerTopicFor(request.ItemID), viewer); err != nil {
		body := openapi.Error{Message: messageOf(err)}
		switch statusOf(err) {
		case http.StatusBadRequest:
			return openapi.GetAuctionItemItemIDEventsSeller400JSONResponse(body), nil
		case http.StatusForbidden:
			return openapi.GetAuctionItemItemIDEventsSeller403JSONResponse(body), nil
		case http.StatusNotFound:
			return openapi.GetAuctionItemItemIDEventsSeller404JSONResponse(body), nil
		}
		h.logger.Error("Fail to subscribe events", slog.String("op", op), slog.Any("error", err))
		return openapi.GetAuctionItemItemIDEventsSeller500JSONResponse(body), nil
	}
	return openapi.GetAuctionItemItemIDEventsSeller200Response{}, nil
}

// streamEvents 訂閱成功後持續以 SSE 推送事件直到連線結束
// 只有訂閱失敗時回傳錯誤，此時尚未寫出任何內容
func (h *Handlers) streamEvents(ctx context.Context, auctionID uuid.UUID, topic string, viewer uuid.UUID) error {
	const op = "Handlers.streamEvents"
	c, ok := ctx.(*gin.Context)
	if !ok {
		return fmt.Errorf("[%s] streaming requires *gin.Context, got %T", op, ctx)
	}
	reqCtx := c.Request.Context()
	ch, cancel, err := h.events.Subscribe(reqCtx, topic, viewer)
	if err != nil {
		return err
	}
	defer cancel()

	// SSE請求合法，開始初始化串流
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	// 先送出目前的快照，之後的事件都比它新
	if view, err := h.snapshot(reqCtx, auctionID, viewer); err == nil {
		c.SSEvent(string(view.Kind), toAuctionView(view))
	} else {
		h.logger.Warn("Fail to load initial snapshot", slog.String("auctionID", auctionID.String()), slog.Any("error", err))
	}
	c.Writer.Flush()

	ticker := time.NewTicker(h.options.keepAlive)
	defer ticker.Stop()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-reqCtx.Done():
			return false
		case view, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(string(view.Kind), toAuctionView(view))
			return true
		// 一段時間沒有事件就發送一個空行，確保瀏覽器和Cloudflare不會斷開連線
		case <-ticker.C:
			_, _ = io.WriteString(w, ":\n\n")
			return true
		}
	})
	return nil
}

// snapshot 先讀快取，沒有時讀資料庫
func (h *Handlers) snapshot(ctx context.Context, auctionID, viewer uuid.UUID) (bidding.View, error) {
	const op = "Handlers.snapshot"
	var (
		auction bidding.Auction
		found   bool
	)
	if h.options.cache != nil {
		var err error
		auction, found, err = h.options.cache.Load(ctx, auctionID)
		if err != nil {
			h.logger.Warn("Fail to load snapshot cache", slog.String("auctionID", auctionID.String()), slog.Any("error", err))
			found = false
		}
	}
	if !found {
		var err error
		auction, err = h.auctions.GetAuction(ctx, auctionID)
		if err != nil {
			if errors.Is(err, bidding.ErrAuctionNotFound) {
				return bidding.View{}, &bidding.Error{Kind: bidding.KindNotFound, Op: op, Err: err}
			}
			return bidding.View{}, fmt.Errorf("[%s] Fail to load auction, err=%w", op, err)
		}
	}

	event := bidding.Event{
		Kind:         bidding.EventSnapshot,
		AuctionID:    auction.ID,
		SellerID:     auction.SellerID,
		BidderID:     auction.HighestBidderID,
		CurrentPrice: auction.CurrentPrice,
		BidAmount:    auction.CurrentPrice,
		MaxBidAmount: auction.HighestMaxBid,
		EndTime:      auction.EndTime,
		IsEnded:      auction.IsEnded || !h.options.clock().Before(auction.EndTime),
		Time:         h.options.clock(),
	}
	if auction.HighestBidderID != nil {
		contacts, err := h.auctions.Contacts(ctx, *auction.HighestBidderID)
		if err != nil {
			h.logger.Warn("Fail to load bidder name", slog.String("auctionID", auctionID.String()), slog.Any("error", err))
		} else {
			event.BidderName = contacts[*auction.HighestBidderID].Name
		}
	}
	return bidding.Mask(event, viewer), nil
}

// viewer 取得目前的使用者，未登入或權杖無效時視為匿名
func (h *Handlers) viewer(accessToken, authorization *string) uuid.UUID {
	identity, err := h.auth.Identify(accessToken, authorization)
	if err != nil {
		if !errors.Is(err, ErrMissingToken) {
			h.logger.Debug("Ignore invalid token", slog.Any("error", err))
		}
		return uuid.Nil
	}
	return identity.UserID
}

// requestContext 取出請求本身的 context，gin.Context 預設不會轉發取消訊號
func requestContext(ctx context.Context) context.Context {
	if c, ok := ctx.(*gin.Context); ok && c.Request != nil {
		return c.Request.Context()
	}
	return ctx
}

func bidErrorResponse(status int, body openapi.BidError) openapi.PostAuctionItemItemIDBidsResponseObject {
	switch status {
	case http.StatusBadRequest:
		return openapi.PostAuctionItemItemIDBids400JSONResponse(body)
	case http.StatusUnauthorized:
		return openapi.PostAuctionItemItemIDBids401JSONResponse(body)
	case http.StatusForbidden:
		return openapi.PostAuctionItemItemIDBids403JSONResponse(body)
	case http.StatusNotFound:
		return openapi.PostAuctionItemItemIDBids404JSONResponse(body)
	case http.StatusConflict:
		return openapi.PostAuctionItemItemIDBids409JSONResponse(body)
	case http.StatusGone:
		return openapi.PostAuctionItemItemIDBids410JSONResponse(body)
	case http.StatusServiceUnavailable:
		return openapi.PostAuctionItemItemIDBids503JSONResponse(body)
	}
	return openapi.PostAuctionItemItemIDBids500JSONResponse(body)
}

func toBidOutcome(o bidding.Outcome) openapi.BidOutcome {
	return openapi.BidOutcome{
		Accepted:        o.Accepted,
		CurrentPrice:    o.CurrentPrice,
		EndTime:         o.EndTime,
		HighestBidderId: o.HighestBidderID,
		IsEnded:         o.IsEnded,
		Kind:            openapi.EventKind(o.Kind),
		Reason:          reasonOf(o.Reason),
	}
}

func toAuctionView(v bidding.View) openapi.AuctionView {
	return openapi.AuctionView{
		AuctionId:    v.AuctionID,
		BidAmount:    v.BidAmount,
		Bidder:       lo.EmptyableToPtr(v.Bidder),
		CurrentPrice: v.CurrentPrice,
		EndTime:      v.EndTime,
		IsEnded:      v.IsEnded,
		Kind:         openapi.EventKind(v.Kind),
		MaxBidAmount: v.MaxBidAmount,
		Reason:       reasonOf(v.Reason),
		Time:         v.Time,
	}
}

func reasonOf(r bidding.Reason) *openapi.Reason {
	if r == bidding.ReasonNone {
		return nil
	}
	return lo.ToPtr(openapi.Reason(r))
}

// statusOf 將引擎錯誤對應到 HTTP 狀態碼
func statusOf(err error) int {
	switch bidding.KindOf(err) {
	case bidding.KindValidation:
		if errors.Is(err, bidding.ErrBidTooLow) {
			return http.StatusConflict
		}
		if errors.Is(err, bidding.ErrAuctionNotStarted) {
			return http.StatusForbidden
		}
		return http.StatusBadRequest
	case bidding.KindEnded:
		return http.StatusGone
	case bidding.KindAuthorization:
		return http.StatusForbidden
	case bidding.KindNotFound:
		return http.StatusNotFound
	case bidding.KindConflict:
		return http.StatusConflict
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

var publicMessages = map[error]string{
	bidding.ErrBidTooLow:         "bid amount too low",
	bidding.ErrInvalidBid:        "invalid bid",
	bidding.ErrAuctionNotStarted: "auction has not started",
	bidding.ErrAuctionEnded:      "auction has ended",
	bidding.ErrAuctionNotFound:   "auction not found",
	bidding.ErrUnauthorized:      "forbidden",
	bidding.ErrInvalidTopic:      "invalid topic",
	bidding.ErrConflict:          "auction was modified, please retry",
}

// messageOf 只回傳可以公開的錯誤訊息
func messageOf(err error) string {
	if sentinel, ok := lo.Find(lo.Keys(publicMessages), func(sentinel error) bool {
		return errors.Is(err, sentinel)
	}); ok {
		return publicMessages[sentinel]
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "auction is busy, please retry"
	}
	return "internal server error"
}
