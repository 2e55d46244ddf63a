package models

import "github.com/shopspring/decimal"

// Provider field names queried on every poll tick.
const (
	FieldBid     = "BID"
	FieldAsk     = "ASK"
	FieldLast    = "LAST"
	FieldVolume  = "VOLUME"
	FieldDelta   = "DELTA"
	FieldGamma   = "GAMMA"
	FieldTheta   = "THETA"
	FieldVega    = "VEGA"
	FieldImplVol = "IMPL_VOL"
)

// MQuoteSample is one polled quote for a subscription. Built once per tick
// and never mutated afterwards.
type MQuoteSample struct {
	Symbol     string          `json:"symbol"`
	Expiration string          `json:"expiration"`
	Strike     decimal.Decimal `json:"strike"`
	OptionType OptionType      `json:"optionType"`
	Bid        float64         `json:"bid"`
	Ask        float64         `json:"ask"`
	Last       float64         `json:"last"`
	Volume     int64           `json:"volume"`
	Delta      float64         `json:"delta"`
	Gamma      float64         `json:"gamma"`
	Theta      float64         `json:"theta"`
	Vega       float64         `json:"vega"`
	IV         float64         `json:"iv"`
	Timestamp  int64           `json:"timestamp"`
}

// HasPrice reports whether any of bid/ask/last is strictly positive.
func (q MQuoteSample) HasPrice() bool {
	return q.Bid > 0 || q.Ask > 0 || q.Last > 0
}
