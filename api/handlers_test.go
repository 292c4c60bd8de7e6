package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"auctionhub/adapters/sse"
	"auctionhub/api/openapi"
	"auctionhub/bidding"
)

type testEnv struct {
	keys      testKeys
	submitter *fakeSubmitter
	auctions  *fakeAuctions
	manager   sse.IConnectionManager[bidding.Event, bidding.View]
	events    *bidding.Broadcaster
	router    *gin.Engine
	auction   bidding.Auction
}

func newTestEnv(t *testing.T, opts ...HandlersOption) *testEnv {
	t.Helper()
	keys := newTestKeys(t)
	auction := testAuction(time.Now().Add(time.Hour))
	auctions := newFakeAuctions(auction)
	manager, err := sse.NewConnectionManager[bidding.Event, bidding.View](bidding.RenderView,
		sse.WithLogger[bidding.Event, bidding.View](discardLogger))
	require.NoError(t, err)
	manager.Start()
	t.Cleanup(manager.Done)
	broadcaster, err := bidding.NewBroadcaster(manager, auctions, bidding.WithBroadcasterLogger(discardLogger))
	require.NoError(t, err)

	auth, err := NewAuthenticator(keys.authConfig())
	require.NoError(t, err)
	submitter := &fakeSubmitter{}
	opts = append([]HandlersOption{WithHandlersLogger(discardLogger)}, opts...)
	handlers, err := NewHandlers(submitter, broadcaster, auctions, auth, opts...)
	require.NoError(t, err)

	router := gin.New()
	handlers.Register(router)
	return &testEnv{
		keys:      keys,
		submitter: submitter,
		auctions:  auctions,
		manager:   manager,
		events:    broadcaster,
		router:    router,
		auction:   auction,
	}
}

func (env *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestNewHandlers(t *testing.T) {
	_, err := NewHandlers(nil, nil, nil, nil)
	assert.Error(t, err)
}

func TestPostBid(t *testing.T) {
	env := newTestEnv(t)
	path := fmt.Sprintf("/auction/item/%s/bids", env.auction.ID)
	token := env.keys.sign(t, bobID, "bobby_tables", time.Hour)

	t.Run("沒有權杖時回傳401", func(t *testing.T) {
		w := env.do(t, http.MethodPost, path, "", `{"bid":"60"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("過期權杖回傳401", func(t *testing.T) {
		expired := env.keys.sign(t, bobID, "bobby_tables", -time.Minute)
		w := env.do(t, http.MethodPost, path, expired, `{"bid":"60"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("錯誤的商品id回傳400", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/auction/item/not-a-uuid/bids", token, `{"bid":"60"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("錯誤的內容回傳400", func(t *testing.T) {
		w := env.do(t, http.MethodPost, path, token, `{"bid":"sixty"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("accepted bid", func(t *testing.T) {
		env.submitter.outcome = bidding.Outcome{
			Kind:            bidding.EventNewBid,
			Accepted:        true,
			CurrentPrice:    decimal.NewFromInt(51),
			HighestBidderID: &bobID,
		}
		env.submitter.err = nil
		w := env.do(t, http.MethodPost, path, token, `{"bid":"60.50"}`)
		require.Equal(t, http.StatusOK, w.Code)

		var got bidding.Outcome
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.True(t, got.Accepted)
		assert.True(t, decimal.NewFromInt(51).Equal(got.CurrentPrice))

		last := env.submitter.calls[len(env.submitter.calls)-1]
		assert.Equal(t, env.auction.ID, last.auctionID)
		assert.Equal(t, bobID, last.bidderID)
		assert.True(t, decimal.RequireFromString("60.50").Equal(last.maxBid))
	})

	t.Run("token from cookie", func(t *testing.T) {
		env.submitter.outcome = bidding.Outcome{Kind: bidding.EventBidRejected, Reason: bidding.ReasonOutbid}
		env.submitter.err = nil
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"bid":30}`))
		req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"accepted":false`)
	})
}

func TestPostBid_AmountOutsideMoneyColumn(t *testing.T) {
	env := newTestEnv(t)
	path := fmt.Sprintf("/auction/item/%s/bids", env.auction.ID)
	token := env.keys.sign(t, bobID, "bobby_tables", time.Hour)
	env.submitter.outcome = bidding.Outcome{Kind: bidding.EventNewBid, Accepted: true}

	for _, body := range []string{`{"bid":"50.004"}`, `{"bid":"1e20"}`, `{"bid":1000000000000}`, `{"bid":"-3"}`} {
		t.Run(body, func(t *testing.T) {
			w := env.do(t, http.MethodPost, path, token, body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "invalid bid")
		})
	}
	assert.Empty(t, env.submitter.calls, "invalid amounts never reach the engine")

	w := env.do(t, http.MethodPost, path, token, `{"bid":"999999999999.99"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, env.submitter.calls, 1)
	assert.True(t, bidding.MaxAmount.Equal(env.submitter.calls[0].maxBid))
}

func TestRoutesMatchOpenAPI(t *testing.T) {
	swagger, err := openapi.GetSwagger()
	require.NoError(t, err)
	require.NoError(t, swagger.Validate(context.Background()))

	env := newTestEnv(t)
	routes := env.router.Routes()
	require.Len(t, routes, 4)
	for _, route := range routes {
		item := swagger.Paths.Find(strings.ReplaceAll(route.Path, ":itemID", "{itemID}"))
		require.NotNil(t, item, route.Path)
		assert.NotNil(t, item.GetOperation(route.Method), "%s %s", route.Method, route.Path)
	}
}

func TestPostBid_ErrorMapping(t *testing.T) {
	env := newTestEnv(t)
	path := fmt.Sprintf("/auction/item/%s/bids", env.auction.ID)
	token := env.keys.sign(t, bobID, "bobby_tables", time.Hour)

	engineErr := func(kind bidding.Kind, err error) error {
		return &bidding.Error{Kind: kind, Op: "test", Err: err}
	}
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"出價過低", engineErr(bidding.KindValidation, bidding.ErrBidTooLow), http.StatusConflict, "bid amount too low"},
		{"無效出價", engineErr(bidding.KindValidation, bidding.ErrInvalidBid), http.StatusBadRequest, "invalid bid"},
		{"尚未開始", engineErr(bidding.KindValidation, bidding.ErrAuctionNotStarted), http.StatusForbidden, "auction has not started"},
		{"已經結束", engineErr(bidding.KindEnded, bidding.ErrAuctionEnded), http.StatusGone, "auction has ended"},
		{"商品不存在", engineErr(bidding.KindNotFound, bidding.ErrAuctionNotFound), http.StatusNotFound, "auction not found"},
		{"並行修改", engineErr(bidding.KindConflict, bidding.ErrConflict), http.StatusConflict, "auction was modified, please retry"},
		{"等鎖逾時", fmt.Errorf("lock: %w", context.DeadlineExceeded), http.StatusServiceUnavailable, "auction is busy, please retry"},
		{"內部錯誤", errors.New("db exploded"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env.submitter.outcome = bidding.Outcome{}
			env.submitter.err = tt.err
			w := env.do(t, http.MethodPost, path, token, `{"bid":"5"}`)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.message)
			assert.NotContains(t, w.Body.String(), "db exploded")
		})
	}
}

func TestGetAuction(t *testing.T) {
	env := newTestEnv(t)
	path := fmt.Sprintf("/auction/item/%s", env.auction.ID)

	tests := []struct {
		name       string
		token      string
		bidder     string
		showMaxBid bool
	}{
		{"匿名使用者看到遮罩", "", "***der", false},
		{"其他出價者看到遮罩", env.keys.sign(t, bobID, "bobby_tables", time.Hour), "***der", false},
		{"最高出價者看到完整資料", env.keys.sign(t, aliceID, "alice_wonder", time.Hour), "alice_wonder", true},
		{"賣家看到完整資料", env.keys.sign(t, sellerID, "shop", time.Hour), "alice_wonder", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, path, tt.token, "")
			require.Equal(t, http.StatusOK, w.Code)
			var view bidding.View
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
			assert.Equal(t, bidding.EventSnapshot, view.Kind)
			assert.Equal(t, tt.bidder, view.Bidder)
			assert.True(t, decimal.NewFromInt(31).Equal(view.CurrentPrice))
			assert.False(t, view.IsEnded)
			if tt.showMaxBid {
				require.NotNil(t, view.MaxBidAmount)
				assert.True(t, decimal.NewFromInt(50).Equal(*view.MaxBidAmount))
			} else {
				assert.Nil(t, view.MaxBidAmount)
				assert.NotContains(t, w.Body.String(), "maxBidAmount")
			}
		})
	}

	t.Run("商品不存在回傳404", func(t *testing.T) {
		w := env.do(t, http.MethodGet, fmt.Sprintf("/auction/item/%s", uuid.New()), "", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestGetAuction_SnapshotCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := bidding.NewMockSnapshotCache(ctrl)
	env := newTestEnv(t, WithHandlersSnapshotCache(cache))

	cached := env.auction
	cached.CurrentPrice = decimal.NewFromInt(45)
	cached.HighestMaxBid = nil
	cache.EXPECT().Load(gomock.Any(), env.auction.ID).Return(cached, true, nil)
	w := env.do(t, http.MethodGet, fmt.Sprintf("/auction/item/%s", env.auction.ID), "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var view bidding.View
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.True(t, decimal.NewFromInt(45).Equal(view.CurrentPrice))

	// 快取失敗時退回資料庫
	cache.EXPECT().Load(gomock.Any(), env.auction.ID).Return(bidding.Auction{}, false, errors.New("redis down"))
	w = env.do(t, http.MethodGet, fmt.Sprintf("/auction/item/%s", env.auction.ID), "", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.True(t, decimal.NewFromInt(31).Equal(view.CurrentPrice))
}

type sseEvent struct {
	name string
	data string
}

// sseStream 讀取 SSE 回應，註解行 (保持連線) 會被計數後略過
type sseStream struct {
	reader   *bufio.Reader
	comments int
}

func (s *sseStream) next(t *testing.T) sseEvent {
	t.Helper()
	var event sseEvent
	for {
		line, err := s.reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if event.name != "" || event.data != "" {
				return event
			}
		case strings.HasPrefix(line, ":"):
			s.comments++
		case strings.HasPrefix(line, "event:"):
			event.name = strings.TrimPrefix(line, "event:")
		case strings.HasPrefix(line, "data:"):
			event.data = strings.TrimPrefix(line, "data:")
		}
	}
}

func (env *testEnv) openStream(t *testing.T, server *httptest.Server, path, token string) (*http.Response, *sseStream) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() {
		resp.Body.Close()
	})
	return resp, &sseStream{reader: bufio.NewReader(resp.Body)}
}

func decodeView(t *testing.T, event sseEvent) bidding.View {
	t.Helper()
	var view bidding.View
	require.NoError(t, json.Unmarshal([]byte(event.data), &view))
	return view
}

func TestStreamEvents(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.router)
	t.Cleanup(server.Close)
	path := fmt.Sprintf("/auction/item/%s/events", env.auction.ID)

	resp, stream := env.openStream(t, server, path, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	first := stream.next(t)
	assert.Equal(t, string(bidding.EventSnapshot), first.name)
	assert.Equal(t, "***der", decodeView(t, first).Bidder)

	ceiling := decimal.NewFromInt(60)
	require.NoError(t, env.events.Publish(context.Background(), bidding.Event{
		Kind:         bidding.EventNewBid,
		AuctionID:    env.auction.ID,
		SellerID:     sellerID,
		BidderID:     &bobID,
		BidderName:   "bobby_tables",
		CurrentPrice: decimal.NewFromInt(51),
		BidAmount:    decimal.NewFromInt(51),
		MaxBidAmount: &ceiling,
		EndTime:      env.auction.EndTime,
		Time:         time.Now(),
	}))

	next := stream.next(t)
	assert.Equal(t, string(bidding.EventNewBid), next.name)
	view := decodeView(t, next)
	assert.Equal(t, "***les", view.Bidder)
	assert.Nil(t, view.MaxBidAmount)
}

func TestStreamEvents_KeepAlive(t *testing.T) {
	env := newTestEnv(t, WithHandlersKeepAlive(20*time.Millisecond))
	server := httptest.NewServer(env.router)
	t.Cleanup(server.Close)

	_, stream := env.openStream(t, server, fmt.Sprintf("/auction/item/%s/events", env.auction.ID), "")
	stream.next(t)

	// 保持連線的註解行之後仍能收到事件
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, env.events.Publish(context.Background(), bidding.Event{
		Kind:      bidding.EventNoWinner,
		AuctionID: env.auction.ID,
		SellerID:  sellerID,
		IsEnded:   true,
	}))
	event := stream.next(t)
	assert.Equal(t, string(bidding.EventNoWinner), event.name)
	assert.Positive(t, stream.comments)
}

func TestStreamEvents_Seller(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.router)
	t.Cleanup(server.Close)
	path := fmt.Sprintf("/auction/item/%s/events/seller", env.auction.ID)

	t.Run("匿名使用者回傳401", func(t *testing.T) {
		resp, _ := env.openStream(t, server, path, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("非賣家回傳403", func(t *testing.T) {
		resp, _ := env.openStream(t, server, path, env.keys.sign(t, bobID, "bobby_tables", time.Hour))
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("商品不存在回傳404", func(t *testing.T) {
		resp, _ := env.openStream(t, server,
			fmt.Sprintf("/auction/item/%s/events/seller", uuid.New()),
			env.keys.sign(t, sellerID, "shop", time.Hour))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("賣家看到完整的出價資料", func(t *testing.T) {
		resp, stream := env.openStream(t, server, path, env.keys.sign(t, sellerID, "shop", time.Hour))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		stream.next(t)

		require.NoError(t, env.events.Publish(context.Background(), bidding.Event{
			Kind:         bidding.EventNewBid,
			AuctionID:    env.auction.ID,
			SellerID:     sellerID,
			BidderID:     &bobID,
			BidderName:   "bobby_tables",
			CurrentPrice: decimal.NewFromInt(51),
			MaxBidAmount: lo.ToPtr(decimal.NewFromInt(60)),
		}))
		view := decodeView(t, stream.next(t))
		assert.Equal(t, "bobby_tables", view.Bidder)
		require.NotNil(t, view.MaxBidAmount)
		assert.True(t, decimal.NewFromInt(60).Equal(*view.MaxBidAmount))
	})
}
