package pricing

import (
	"fmt"
	"strings"
)

// CancellationPolicy описывает одну из фиксированных политик отмены.
type CancellationPolicy string

const (
	PolicyFlexible      CancellationPolicy = "flexible"
	PolicyModerate      CancellationPolicy = "moderate"
	PolicyStrict        CancellationPolicy = "strict"
	PolicyNonRefundable CancellationPolicy = "non_refundable"
)

// RefundTier задаёт процент возврата при отмене не позднее чем за MinDays дней до заезда.
type RefundTier struct {
	MinDays          int `json:"min_days"`
	RefundPercentage int `json:"refund_percentage"`
}

// Пороги каждой политики отсортированы по убыванию MinDays.
var policyTiers = map[CancellationPolicy][]RefundTier{
	PolicyFlexible: {
		{MinDays: 1, RefundPercentage: 100},
	},
	PolicyModerate: {
		{MinDays: 5, RefundPercentage: 100},
		{MinDays: 1, RefundPercentage: 50},
	},
	PolicyStrict: {
		{MinDays: 14, RefundPercentage: 100},
		{MinDays: 7, RefundPercentage: 50},
	},
	PolicyNonRefundable: nil,
}

// Policies возвращает все поддерживаемые политики в порядке от мягкой к строгой.
func Policies() []CancellationPolicy {
	return []CancellationPolicy{PolicyFlexible, PolicyModerate, PolicyStrict, PolicyNonRefundable}
}

// ParsePolicy преобразует строку в политику отмены.
func ParsePolicy(s string) (CancellationPolicy, error) {
	p := CancellationPolicy(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
	return p, nil
}

// Valid сообщает, относится ли значение к известным политикам.
func (p CancellationPolicy) Valid() bool {
	_, ok := policyTiers[p]
	return ok
}

// Tiers возвращает копию таблицы порогов политики.
func (p CancellationPolicy) Tiers() []RefundTier {
	return append([]RefundTier(nil), policyTiers[p]...)
}

// Refundable сообщает, допускает ли политика возврат в принципе.
func (p CancellationPolicy) Refundable() bool {
	return p != PolicyNonRefundable
}

// refundPercentage выбирает самый щедрый порог, который ещё выполняется.
func (p CancellationPolicy) refundPercentage(daysUntilCheckIn int) int {
	for _, tier := range policyTiers[p] {
		if daysUntilCheckIn >= tier.MinDays {
			return tier.RefundPercentage
		}
	}
	return 0
}
