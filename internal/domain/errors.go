package domain

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrMerchantNotFound  = errors.New("merchant not found")
	ErrUnsupportedMethod = errors.New("unsupported payment method")
	ErrInvalidOrder      = errors.New("invalid order")

	// ErrStoreConflict is returned when a record with the same identity already exists.
	ErrStoreConflict = errors.New("store conflict")
	// ErrStatusConflict is returned when a payment already reached a terminal status.
	ErrStatusConflict    = errors.New("payment status already terminal")
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrSettlementTimeout = errors.New("settlement timed out")
	ErrInternal          = errors.New("internal error")
	// ErrInvalidStatus is returned when a status write targets a non-terminal status.
	ErrInvalidStatus = errors.New("status is not terminal")
)

const (
	ReasonVPA         = "vpa"
	ReasonCardNumber  = "card_number"
	ReasonCardExpired = "card_expired"
)

type InvalidInstrumentError struct {
	Reason string
}

func (e *InvalidInstrumentError) Error() string {
	return fmt.Sprintf("invalid instrument: %s", e.Reason)
}

// IsInvalidInstrument unwraps err and returns the instrument error, if any.
func IsInvalidInstrument(err error) (*InvalidInstrumentError, bool) {
	var ie *InvalidInstrumentError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}
