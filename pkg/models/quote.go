package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is the resolved market snapshot for an instrument.
// AsOf is the time of resolution, not the exchange tick time.
type Quote struct {
	Instrument       Instrument      `json:"instrument"`
	Price            decimal.Decimal `json:"price"`
	DisplayPrice     string          `json:"display_price"`
	ChangePercent24h float64         `json:"change_pct_24h"`
	Source           string          `json:"source"`
	AsOf             time.Time       `json:"as_of"`
}

// HasChange reports whether the provider supplied a 24h change figure.
func (q *Quote) HasChange() bool { return q.ChangePercent24h != 0 }
