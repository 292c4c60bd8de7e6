package notification

import (
	"context"
	"fmt"
	"log/slog"
)

// Envelope 是寄給單一收件者的信件
type Envelope struct {
	To      string
	Name    string
	Subject string
	Body    string
}

// Render 依通知種類產生要寄出的信件
// 得標時寄給得標者與賣家，流標時只寄給賣家
func Render(msg Message) ([]Envelope, error) {
	switch msg.Kind {
	case KindWinner:
		if msg.Winner == nil {
			return nil, fmt.Errorf("winner notification without winner: %q", msg.Title)
		}
		return []Envelope{
			{
				To:      msg.Winner.Email,
				Name:    msg.Winner.Name,
				Subject: fmt.Sprintf("You won %q", msg.Title),
				Body: fmt.Sprintf("Your bid of %s won %q. Contact the seller %s at %s.",
					msg.Amount.StringFixed(2), msg.Title, msg.Seller.Name, msg.Seller.Email),
			},
			{
				To:      msg.Seller.Email,
				Name:    msg.Seller.Name,
				Subject: fmt.Sprintf("%q has been sold", msg.Title),
				Body: fmt.Sprintf("%q was sold for %s to %s (%s).",
					msg.Title, msg.Amount.StringFixed(2), msg.Winner.Name, msg.Winner.Email),
			},
		}, nil
	case KindNoWinner:
		return []Envelope{
			{
				To:      msg.Seller.Email,
				Name:    msg.Seller.Name,
				Subject: fmt.Sprintf("%q ended without bids", msg.Title),
				Body:    fmt.Sprintf("Your auction %q ended without any bids.", msg.Title),
			},
		}, nil
	}
	return nil, fmt.Errorf("unknown notification kind: %q", msg.Kind)
}

// LogMailer 只把信件寫進日誌，用於開發環境
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger.With(slog.String("caller", "LogMailer"))}
}

func (m *LogMailer) Send(ctx context.Context, envelope Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.logger.Info("Send mail",
		slog.String("to", envelope.To),
		slog.String("subject", envelope.Subject),
		slog.String("body", envelope.Body))
	return nil
}
