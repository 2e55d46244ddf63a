// Package sim provides a deterministic synthetic quote source for demos and
// integration runs without a market-data provider.
package sim

import (
	"context"
	"hash/fnv"
	"math"
	"sync/atomic"
	"time"

	"quote-bridge/src/helpers"
	"quote-bridge/src/models"
)

type SimSource struct {
	connected atomic.Bool
	now       func() time.Time
}

func NewSimSource() *SimSource {
	return &SimSource{now: time.Now}
}

func (s *SimSource) Name() string {
	return "sim"
}

func (s *SimSource) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.connected.Store(true)
	return nil
}

// Fetch derives a stable base price from the symbol and moves it slowly
// over time. About one symbol in seven has no quote at all.
func (s *SimSource) Fetch(ctx context.Context, symbol, field string) (float64, error) {
	if !s.connected.Load() {
		return 0, helpers.ErrSourceNotConnected
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	seed := hash(symbol)
	if seed%7 == 0 {
		return 0, helpers.ErrFieldUnavailable
	}

	base := 1 + float64(seed%5000)/100
	phase := float64(s.now().UnixMilli()%60000) / 60000 * 2 * math.Pi
	mid := base * (1 + 0.02*math.Sin(phase+float64(seed%13)))

	switch field {
	case models.FieldBid:
		return round(mid*0.99, 2), nil
	case models.FieldAsk:
		return round(mid*1.01, 2), nil
	case models.FieldLast:
		return round(mid, 2), nil
	case models.FieldVolume:
		return float64(seed%20000) + math.Floor(float64(s.now().Unix()%3600)), nil
	case models.FieldDelta:
		return round(float64(seed%100)/100, 4), nil
	case models.FieldGamma:
		return round(float64(seed%50)/10000, 5), nil
	case models.FieldTheta:
		return round(-base/30, 4), nil
	case models.FieldVega:
		return round(base/10, 4), nil
	case models.FieldImplVol:
		return round(0.1+float64(seed%40)/100, 4), nil
	default:
		return 0, helpers.ErrFieldUnavailable
	}
}

func hash(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
