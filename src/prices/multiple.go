package prices

import (
	"context"

	log "github.com/sirupsen/logrus"

	"market-price-api/src/models"
)

// PriceRequest identifies one (symbol, provider, interval) lookup in a batch.
type PriceRequest struct {
	Symbol   string `json:"symbol" schema:"symbol"`
	Provider string `json:"provider" schema:"provider"`
	Interval string `json:"interval" schema:"interval"`
}

// GetMultiplePrices resolves a batch of current-price lookups. One symbol's
// failure or absence never affects the rest; missing entries are simply
// omitted from the result.
func (s *Service) GetMultiplePrices(ctx context.Context, requests []PriceRequest) ([]models.PriceDTO, error) {
	results := make([]models.PriceDTO, 0, len(requests))

	for _, req := range requests {
		interval := req.Interval
		if interval == "" {
			interval = models.DefaultInterval
		}

		dto, err := s.GetCurrentPrice(ctx, req.Symbol, req.Provider, interval)
		if err != nil {
			log.Errorf("GetMultiplePrices: %s/%s: %v", req.Symbol, req.Provider, err)
			continue
		}

		if dto == nil {
			continue
		}

		results = append(results, *dto)
	}

	return results, nil
}
