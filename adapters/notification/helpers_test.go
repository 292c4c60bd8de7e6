package notification

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"auctionhub/bidding"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

var (
	alice  = bidding.Contact{UserID: uuid.MustParse("0190a000-0000-7000-8000-000000000001"), Name: "alice", Email: "alice@example.com"}
	seller = bidding.Contact{UserID: uuid.MustParse("0190a000-0000-7000-8000-000000000002"), Name: "shop", Email: "shop@example.com"}
)

func setupMiniredis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
	})
	return client
}

// recordingMailer 記錄寄出的信件，fail 不為 nil 時對指定收件者回傳錯誤
type recordingMailer struct {
	mu      sync.Mutex
	sent    []Envelope
	failFor string
	fail    error
	signal  chan struct{}
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{signal: make(chan struct{}, 16)}
}

func (m *recordingMailer) Send(_ context.Context, envelope Envelope) error {
	m.mu.Lock()
	defer func() {
		m.mu.Unlock()
		m.signal <- struct{}{}
	}()
	if m.fail != nil && envelope.To == m.failFor {
		return m.fail
	}
	m.sent = append(m.sent, envelope)
	return nil
}

func (m *recordingMailer) Sent() []Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Envelope(nil), m.sent...)
}
