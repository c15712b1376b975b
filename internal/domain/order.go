package domain

import (
	"time"
)

const DefaultCurrency = "INR"

// MinOrderAmount is the smallest order amount accepted, in minor units.
const MinOrderAmount int64 = 100

type Order struct {
	ID         string
	MerchantID string
	Amount     int64
	Currency   string
	Receipt    string
	CreatedAt  time.Time
}
