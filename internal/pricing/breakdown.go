package pricing

// FeeRates задаёт ставки платформы в базисных пунктах (1% = 100 bps).
type FeeRates struct {
	ServiceBps     int64 `json:"service_bps"`
	VATBps         int64 `json:"vat_bps"`
	CommissionBps  int64 `json:"commission_bps"`
	ProcessingBps  int64 `json:"processing_bps"`
	ProcessingFlat Money `json:"processing_flat"`
}

// DefaultFeeRates возвращает стандартные ставки платформы.
func DefaultFeeRates() FeeRates {
	return FeeRates{
		ServiceBps:     1400,
		VATBps:         500,
		CommissionBps:  1200,
		ProcessingBps:  290,
		ProcessingFlat: 100,
	}
}

// Validate проверяет, что ставки неотрицательны и не превышают 100%.
func (r FeeRates) Validate() error {
	rates := []struct {
		name string
		bps  int64
	}{
		{"service", r.ServiceBps},
		{"vat", r.VATBps},
		{"commission", r.CommissionBps},
		{"processing", r.ProcessingBps},
	}
	for _, rate := range rates {
		if rate.bps < 0 || rate.bps > bpsBase {
			return invalidArgument("%s rate %d bps out of range", rate.name, rate.bps)
		}
	}
	if r.ProcessingFlat < 0 {
		return invalidArgument("processing flat fee must not be negative")
	}
	return nil
}

// PriceBreakdown содержит расчёт стоимости одного бронирования.
type PriceBreakdown struct {
	BasePrice          Money `json:"base_price"`
	Nights             int   `json:"nights"`
	Subtotal           Money `json:"subtotal"`
	CleaningFee        Money `json:"cleaning_fee"`
	ServiceFee         Money `json:"service_fee"`
	VATAmount          Money `json:"vat_amount"`
	PlatformCommission Money `json:"platform_commission"`
	ProcessingFee      Money `json:"processing_fee"`
	GuestTotal         Money `json:"guest_total"`
	HostEarnings       Money `json:"host_earnings"`
}

// PlatformTake возвращает маржу платформы: разницу между оплатой гостя и выплатой хозяину.
func (b PriceBreakdown) PlatformTake() Money {
	return b.GuestTotal - b.HostEarnings
}

// ComputeBreakdown рассчитывает стоимость проживания для гостя и доход хозяина.
// VAT начисляется на subtotal + serviceFee, уборка НДС не облагается.
func ComputeBreakdown(basePrice Money, nights int, cleaningFee Money, rates FeeRates) (PriceBreakdown, error) {
	if basePrice <= 0 {
		return PriceBreakdown{}, invalidArgument("base price must be positive, got %d", basePrice)
	}
	if nights < 1 {
		return PriceBreakdown{}, invalidArgument("nights must be at least 1, got %d", nights)
	}
	if cleaningFee < 0 {
		return PriceBreakdown{}, invalidArgument("cleaning fee must not be negative, got %d", cleaningFee)
	}
	if err := rates.Validate(); err != nil {
		return PriceBreakdown{}, err
	}
	if basePrice > MaxAmount/Money(nights) || cleaningFee > MaxAmount {
		return PriceBreakdown{}, invalidArgument("amount exceeds %d", MaxAmount)
	}

	b := PriceBreakdown{
		BasePrice:   basePrice,
		Nights:      nights,
		Subtotal:    basePrice * Money(nights),
		CleaningFee: cleaningFee,
	}

	b.ServiceFee = applyBps(b.Subtotal, rates.ServiceBps)
	b.VATAmount = applyBps(b.Subtotal+b.ServiceFee, rates.VATBps)
	b.PlatformCommission = applyBps(b.Subtotal, rates.CommissionBps)
	b.ProcessingFee = applyBps(b.Subtotal, rates.ProcessingBps) + rates.ProcessingFlat

	b.GuestTotal = b.Subtotal + b.CleaningFee + b.ServiceFee + b.VATAmount
	b.HostEarnings = b.Subtotal + b.CleaningFee - b.PlatformCommission - b.ProcessingFee

	if b.HostEarnings < 0 {
		return PriceBreakdown{}, invalidArgument("stay total %d does not cover host-side fees %d",
			b.Subtotal+b.CleaningFee, b.PlatformCommission+b.ProcessingFee)
	}

	return b, nil
}
