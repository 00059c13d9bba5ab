package finta

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bar is one OHLCV record as returned by the bars endpoints.
type Bar struct {
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`
	Timestamp time.Time       `json:"timestamp"`
}

type BarsResponse struct {
	Bars         []Bar  `json:"bars"`
	InstrumentID string `json:"instrumentId"`
	Provider     string `json:"provider"`
	Interval     int    `json:"interval"`
	Periodicity  string `json:"periodicity"`
}

type Instrument struct {
	ID       string  `json:"id"`
	Symbol   string  `json:"symbol"`
	Name     string  `json:"name"`
	Provider string  `json:"provider"`
	Kind     string  `json:"kind"`
	Exchange *string `json:"exchange"`
	IsActive bool    `json:"isActive"`
}

type InstrumentsResponse struct {
	Instruments []Instrument `json:"instruments"`
	TotalCount  int          `json:"totalCount"`
	Page        int          `json:"page"`
	Size        int          `json:"size"`
}
