package currency

import (
	"database/sql/driver"
	"errors"
)

type Currency string

const (
	CurrencyUSD Currency = "USD"
)

var ErrInvalidCurrency = errors.New("invalid currency")

func (c Currency) String() string {
	return string(c)
}

// Symbol returns the prefix printed before amounts.
func (c Currency) Symbol() string {
	switch c {
	case CurrencyUSD:
		return "$"
	default:
		return string(c) + " "
	}
}

func (c Currency) Value() (driver.Value, error) {
	return c.String(), nil
}

func ParseCurrency(s string) (Currency, error) {
	switch s {
	case CurrencyUSD.String():
		return CurrencyUSD, nil
	default:
		return "", ErrInvalidCurrency
	}
}
