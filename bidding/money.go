package bidding

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// 金額欄位在資料庫中皆為 numeric(AmountPrecision, AmountScale)
// 見 models.Auction 與 models.Bid 的 gorm tag
const (
	AmountPrecision = 14
	AmountScale     = 2
)

// MaxAmount 是金額欄位可以存放的最大值 (999999999999.99)
var MaxAmount = decimal.New(1, AmountPrecision-AmountScale).Sub(decimal.New(1, -AmountScale))

// ValidateAmount 檢查金額是否為正數且可以不經捨入地存入金額欄位
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: non-positive amount %s", ErrInvalidBid, amount)
	}
	if !amount.Truncate(AmountScale).Equal(amount) {
		return fmt.Errorf("%w: amount %s has more than %d decimal places", ErrInvalidBid, amount, AmountScale)
	}
	if amount.GreaterThan(MaxAmount) {
		return fmt.Errorf("%w: amount %s exceeds %s", ErrInvalidBid, amount, MaxAmount)
	}
	return nil
}
