package domain

import (
	"time"
)

type PaymentStatus string

const (
	PaymentProcessing PaymentStatus = "processing"
	PaymentSucceeded  PaymentStatus = "success"
	PaymentFailed     PaymentStatus = "failed"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentSucceeded || s == PaymentFailed
}

type PaymentMethod string

const (
	MethodUPI  PaymentMethod = "upi"
	MethodCard PaymentMethod = "card"
)

type Payment struct {
	ID             string
	OrderID        string
	MerchantID     string
	Amount         int64
	Currency       string
	Method         PaymentMethod
	Status         PaymentStatus
	VPA            *string
	CardNetwork    *string
	CardLast4      *string
	ProviderRef    *string
	IdempotencyKey *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type CardDetails struct {
	Number      string
	ExpiryMonth int
	ExpiryYear  int
}

// PaymentRequest is the inbound payment intent. Amount and currency are
// deliberately absent: they always come from the order.
type PaymentRequest struct {
	OrderID        string
	Method         PaymentMethod
	VPA            string
	Card           *CardDetails
	IdempotencyKey string
}
