package validation

import (
	"strings"
	"time"

	"payment-gateway/internal/domain"
)

// Policy selects how strictly instruments are checked.
type Policy int

const (
	// Strict is used for authenticated merchant requests.
	Strict Policy = iota
	// Loose is used for the public checkout.
	Loose
)

func (p Policy) String() string {
	if p == Loose {
		return "loose"
	}
	return "strict"
}

const (
	minCardDigits = 12
	maxCardDigits = 19
)

// Instrument is the validated, storable view of a payment instrument.
// It never carries the full card number.
type Instrument struct {
	VPA         string
	CardNetwork Network
	CardLast4   string
}

// Validator applies a Policy. The zero value is a strict validator using the wall clock.
type Validator struct {
	Policy Policy
	Now    func() time.Time
}

func NewValidator(p Policy) *Validator {
	return &Validator{Policy: p, Now: time.Now}
}

func (v *Validator) now() time.Time {
	if v.Now == nil {
		return time.Now()
	}
	return v.Now()
}

func (v *Validator) CheckVPA(vpa string) bool {
	if v.Policy == Loose {
		return looseVPA(vpa)
	}
	return ValidateVPA(vpa)
}

// looseVPA only requires an @ somewhere in the address.
func looseVPA(vpa string) bool {
	return strings.Contains(vpa, "@")
}

// Validate dispatches on the request method and returns the instrument
// fields to persist.
func (v *Validator) Validate(req domain.PaymentRequest) (*Instrument, error) {
	switch req.Method {
	case domain.MethodUPI:
		if !v.CheckVPA(req.VPA) {
			return nil, &domain.InvalidInstrumentError{Reason: domain.ReasonVPA}
		}
		return &Instrument{VPA: req.VPA}, nil
	case domain.MethodCard:
		return v.validateCard(req.Card)
	default:
		return nil, domain.ErrUnsupportedMethod
	}
}

func (v *Validator) validateCard(card *domain.CardDetails) (*Instrument, error) {
	if card == nil {
		return nil, &domain.InvalidInstrumentError{Reason: domain.ReasonCardNumber}
	}
	number := NormalizeCardNumber(card.Number)
	if !isDigits(number) || len(number) < minCardDigits || len(number) > maxCardDigits {
		return nil, &domain.InvalidInstrumentError{Reason: domain.ReasonCardNumber}
	}

	// Loose mode stops at the length check.
	if v.Policy == Strict {
		if !LuhnCheck(number) {
			return nil, &domain.InvalidInstrumentError{Reason: domain.ReasonCardNumber}
		}
		if !ValidateExpiryAt(card.ExpiryMonth, card.ExpiryYear, v.now()) {
			return nil, &domain.InvalidInstrumentError{Reason: domain.ReasonCardExpired}
		}
	}

	return &Instrument{
		CardNetwork: DetectCardNetwork(number),
		CardLast4:   number[len(number)-4:],
	}, nil
}
