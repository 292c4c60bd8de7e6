//go:generate mockgen -package=notification -destination=mock.go -source=interfaces.go

package notification

import (
	"context"
)

// Sender 同步寫入通知佇列，回傳訊息 id
type Sender interface {
	Send(ctx context.Context, data Message) (string, error)
}

// Mailer 實際寄出信件
type Mailer interface {
	Send(ctx context.Context, envelope Envelope) error
}
