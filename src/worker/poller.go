package worker

import (
	"context"
	"math"
	"time"

	"quote-bridge/src/metrics"
	"quote-bridge/src/models"
	"quote-bridge/src/protocol"
)

var quoteFields = []string{
	models.FieldBid, models.FieldAsk, models.FieldLast, models.FieldVolume,
	models.FieldDelta, models.FieldGamma, models.FieldTheta, models.FieldVega,
	models.FieldImplVol,
}

// pollAndBroadcast runs one tick. Nothing is fetched unless the source is
// connected and there is at least one subscription and one client.
func (w *Worker) pollAndBroadcast(ctx context.Context) {
	if !w.sourceConnected || w.registry.Count() == 0 || w.sessions.Count() == 0 {
		metrics.ObserveTick(false, 0)
		return
	}

	start := time.Now()
	for _, sub := range w.registry.Snapshot() {
		sample := w.sample(ctx, sub)
		if !sample.HasPrice() {
			metrics.QuotesSuppressedTotal.Inc()
			continue
		}

		msg, err := protocol.EncodeQuote(sample)
		if err != nil {
			w.log.Error("Encode quote for %s: %v", sub.Symbol, err)
			continue
		}
		metrics.QuotesBroadcastTotal.Inc()
		w.reportPruned(w.sessions.Broadcast(msg))

		if w.sessions.Count() == 0 {
			break
		}
	}
	metrics.ObserveTick(true, time.Since(start))
}

// sample queries every field of one subscription. Failed fields read as 0.
func (w *Worker) sample(ctx context.Context, sub models.MSubscription) models.MQuoteSample {
	values := make(map[string]float64, len(quoteFields))
	for _, field := range quoteFields {
		values[field] = w.fetch(ctx, sub.Symbol, field)
	}

	return models.MQuoteSample{
		Symbol:     sub.Symbol,
		Expiration: sub.Contract.ExpirationString(),
		Strike:     sub.Contract.Strike,
		OptionType: sub.Contract.OptionType,
		Bid:        values[models.FieldBid],
		Ask:        values[models.FieldAsk],
		Last:       values[models.FieldLast],
		Volume:     int64(math.Trunc(values[models.FieldVolume])),
		Delta:      values[models.FieldDelta],
		Gamma:      values[models.FieldGamma],
		Theta:      values[models.FieldTheta],
		Vega:       values[models.FieldVega],
		IV:         values[models.FieldImplVol],
		Timestamp:  w.now().UnixMilli(),
	}
}

func (w *Worker) fetch(ctx context.Context, symbol, field string) float64 {
	if ms := w.cfg.Source.FieldTimeoutMs; ms > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(ms)*time.Millisecond)
		defer cancel()
	}

	v, err := w.source.Fetch(ctx, symbol, field)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		metrics.FieldFailuresTotal.WithLabelValues(field).Inc()
		return 0
	}
	return v
}
