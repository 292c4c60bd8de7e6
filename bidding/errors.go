package bidding

import (
	"errors"
	"fmt"
)

// Kind 表示錯誤的分類，API 層依此決定回應的狀態碼
type Kind string

const (
	KindValidation    Kind = "validation"
	KindEnded         Kind = "ended"
	KindAuthorization Kind = "authorization"
	KindNotification  Kind = "notification"
	KindConflict      Kind = "conflict"
	KindNotFound      Kind = "not_found"
	KindInternal      Kind = "internal"
)

var (
	ErrInvalidBid           = errors.New("invalid bid")
	ErrBidTooLow            = errors.New("bid amount too low")
	ErrAuctionNotStarted    = errors.New("auction has not started")
	ErrAuctionEnded         = errors.New("auction closed")
	ErrAuctionNotFound      = errors.New("auction not found")
	ErrUnauthorized         = errors.New("not authorized for this topic")
	ErrInvalidTopic         = errors.New("invalid topic")
	ErrNotificationDelivery = errors.New("notification delivery failed")
	ErrConflict             = errors.New("auction was modified concurrently")
)

// Error 封裝引擎內的錯誤，保留操作名稱與分類
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf 取出錯誤鏈中的分類，找不到時視為 internal
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, ErrAuctionNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	}
	return KindInternal
}

// reasonError 將拒絕原因轉成對應的錯誤，outbid 不是錯誤
func reasonError(op string, reason Reason) error {
	switch reason {
	case ReasonEnded:
		return newError(KindEnded, op, ErrAuctionEnded)
	case ReasonTooLow:
		return newError(KindValidation, op, ErrBidTooLow)
	case ReasonNotStarted:
		return newError(KindValidation, op, ErrAuctionNotStarted)
	case ReasonInvalid:
		return newError(KindValidation, op, ErrInvalidBid)
	}
	return nil
}
