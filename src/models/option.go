package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpirationLayout is the wire format of option expirations.
const ExpirationLayout = "2006-01-02"

type OptionType string

const (
	OptionCall OptionType = "CALL"
	OptionPut  OptionType = "PUT"
)

// Code returns the single-letter type code used in provider symbols.
func (t OptionType) Code() string {
	if t == OptionCall {
		return "C"
	}
	return "P"
}

// MOptionContract identifies a single option contract.
type MOptionContract struct {
	Expiration time.Time
	Strike     decimal.Decimal
	OptionType OptionType
}

// Key renders the contract identity as a stable registry key.
func (c MOptionContract) Key() string {
	return c.ExpirationString() + ":" + c.Strike.String() + ":" + string(c.OptionType)
}

func (c MOptionContract) ExpirationString() string {
	return c.Expiration.Format(ExpirationLayout)
}

// MSubscription is a registry entry: a contract plus its provider symbol.
type MSubscription struct {
	Contract MOptionContract
	Symbol   string
}
