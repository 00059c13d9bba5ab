package stream

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"market-price-api/src/models"
	"market-price-api/src/prices"
)

type subscribeMessage struct {
	Action   string `json:"action"`
	Symbol   string `json:"symbol"`
	Provider string `json:"provider"`
}

// priceTickDTO is one streamed price update. Streamed data is always
// treated as one-minute bars.
type priceTickDTO struct {
	Symbol    string          `json:"symbol"`
	Provider  string          `json:"provider"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`
	Timestamp time.Time       `json:"timestamp"`
}

// handleMessage decodes one text frame and routes it through the shared
// save path. Malformed frames are logged and skipped; they never take the
// loop down.
func (p *Pipeline) handleMessage(ctx context.Context, message []byte) {
	var tick priceTickDTO
	if err := json.Unmarshal(message, &tick); err != nil {
		log.Errorf("handleMessage: failed to unmarshal message %s: %v", string(message), err)
		return
	}

	if tick.Symbol == "" {
		log.Warnf("handleMessage: discarding message without symbol: %s", string(message))
		return
	}

	_, err := p.saver.SavePrice(ctx, prices.SavePriceRequest{
		Symbol:    tick.Symbol,
		Provider:  tick.Provider,
		Open:      tick.Open,
		High:      tick.High,
		Low:       tick.Low,
		Close:     tick.Close,
		Volume:    tick.Volume,
		Interval:  models.DefaultInterval,
		Timestamp: tick.Timestamp,
	})

	if err != nil {
		log.Errorf("handleMessage: failed to save tick for %s: %v", tick.Symbol, err)
		return
	}

	log.Debugf("saved streamed tick for %s: %s", tick.Symbol, tick.Close.String())
}
