// Package pricing содержит чистые функции расчёта стоимости бронирования,
// возвратов при отмене и графика выплат хозяевам.
package pricing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Money хранит сумму в минимальных денежных единицах (филсы, центы).
type Money int64

// MaxAmount ограничивает суммы, с которыми работает движок, чтобы умножение на ставки не переполняло int64.
const MaxAmount Money = 1_000_000_000_000

const (
	bpsBase     = 10_000
	percentBase = 100
)

var (
	// ErrInvalidArgument возвращается при нарушении контракта входных данных.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnknownPolicy возвращается для неизвестной политики отмены.
	ErrUnknownPolicy = errors.New("unknown cancellation policy")
)

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// applyBps применяет ставку в базисных пунктах с округлением половины вверх.
func applyBps(amount Money, bps int64) Money {
	return Money((int64(amount)*bps + bpsBase/2) / bpsBase)
}

// applyPercent применяет целый процент с округлением половины вверх.
func applyPercent(amount Money, percent int) Money {
	return Money((int64(amount)*int64(percent) + percentBase/2) / percentBase)
}

// FormatAED форматирует сумму в филсах для отображения, например "AED 1,565.03".
func FormatAED(m Money) string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}

	whole := strconv.FormatInt(v/100, 10)
	var b strings.Builder
	for i, ch := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(ch)
	}

	return fmt.Sprintf("%sAED %s.%02d", sign, b.String(), v%100)
}
