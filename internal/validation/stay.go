// Package validation содержит функции валидации входных данных.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout — формат дат заезда и выезда в API.
const DateLayout = "2006-01-02"

// MaxNights ограничивает длительность одного бронирования.
const MaxNights = 365

var (
	// ErrInvalidDate возвращается для даты не в формате YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")
	// ErrInvalidStay возвращается, если выезд не позже заезда или проживание слишком длинное.
	ErrInvalidStay = errors.New("invalid stay")
)

// Stay описывает даты проживания.
type Stay struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// Nights возвращает количество ночей.
func (s Stay) Nights() int {
	return int(s.CheckOut.Sub(s.CheckIn).Hours() / 24)
}

// ParseDate разбирает календарную дату в UTC.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

// ParseStay разбирает и проверяет даты заезда и выезда.
func ParseStay(checkIn, checkOut string) (Stay, error) {
	in, err := ParseDate(checkIn)
	if err != nil {
		return Stay{}, err
	}
	out, err := ParseDate(checkOut)
	if err != nil {
		return Stay{}, err
	}

	s := Stay{CheckIn: in, CheckOut: out}
	if !out.After(in) {
		return Stay{}, fmt.Errorf("%w: check-out must be after check-in", ErrInvalidStay)
	}
	if s.Nights() > MaxNights {
		return Stay{}, fmt.Errorf("%w: stay longer than %d nights", ErrInvalidStay, MaxNights)
	}

	return s, nil
}

// IsValidTitle проверяет название объекта размещения.
func IsValidTitle(title string) bool {
	t := strings.TrimSpace(title)
	return t != "" && len(t) <= 200
}
