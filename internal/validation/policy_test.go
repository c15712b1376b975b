package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payment-gateway/internal/domain"
)

func fixedValidator(p Policy) *Validator {
	return &Validator{
		Policy: p,
		Now:    func() time.Time { return time.Date(2026, time.October, 15, 0, 0, 0, 0, time.UTC) },
	}
}

func reasonOf(t *testing.T, err error) string {
	t.Helper()
	ie, ok := domain.IsInvalidInstrument(err)
	require.True(t, ok, "expected invalid instrument error, got %v", err)
	return ie.Reason
}

func TestStrictAndLooseVPA(t *testing.T) {
	strict := fixedValidator(Strict)
	loose := fixedValidator(Loose)

	// Both modes reject an address without an @.
	assert.False(t, strict.CheckVPA("no-at-sign"))
	assert.False(t, loose.CheckVPA("no-at-sign"))
	assert.False(t, loose.CheckVPA(""))

	// Loose mode only looks for the @.
	assert.False(t, strict.CheckVPA("user@"))
	assert.True(t, loose.CheckVPA("user@"))
	assert.False(t, strict.CheckVPA("a@b@c"))
	assert.True(t, loose.CheckVPA("a@b@c"))
}

func TestValidateUPI(t *testing.T) {
	v := fixedValidator(Strict)

	inst, err := v.Validate(domain.PaymentRequest{Method: domain.MethodUPI, VPA: "user@bank"})
	require.NoError(t, err)
	assert.Equal(t, "user@bank", inst.VPA)
	assert.Empty(t, inst.CardLast4)

	_, err = v.Validate(domain.PaymentRequest{Method: domain.MethodUPI, VPA: "invalid"})
	assert.Equal(t, domain.ReasonVPA, reasonOf(t, err))
}

func TestValidateCardStrict(t *testing.T) {
	v := fixedValidator(Strict)

	inst, err := v.Validate(domain.PaymentRequest{
		Method: domain.MethodCard,
		Card:   &domain.CardDetails{Number: "4111 1111 1111 1111", ExpiryMonth: 12, ExpiryYear: 2027},
	})
	require.NoError(t, err)
	assert.Equal(t, NetworkVisa, inst.CardNetwork)
	assert.Equal(t, "1111", inst.CardLast4)
	assert.Empty(t, inst.VPA)

	_, err = v.Validate(domain.PaymentRequest{
		Method: domain.MethodCard,
		Card:   &domain.CardDetails{Number: "4111111111111112", ExpiryMonth: 12, ExpiryYear: 2027},
	})
	assert.Equal(t, domain.ReasonCardNumber, reasonOf(t, err))

	_, err = v.Validate(domain.PaymentRequest{
		Method: domain.MethodCard,
		Card:   &domain.CardDetails{Number: "4111111111111111", ExpiryMonth: 9, ExpiryYear: 2026},
	})
	assert.Equal(t, domain.ReasonCardExpired, reasonOf(t, err))

	_, err = v.Validate(domain.PaymentRequest{Method: domain.MethodCard})
	assert.Equal(t, domain.ReasonCardNumber, reasonOf(t, err))

	// Short strings that happen to pass mod-10 are still rejected.
	_, err = v.Validate(domain.PaymentRequest{
		Method: domain.MethodCard,
		Card:   &domain.CardDetails{Number: "0", ExpiryMonth: 12, ExpiryYear: 2030},
	})
	assert.Equal(t, domain.ReasonCardNumber, reasonOf(t, err))
}

func TestValidateCardLoose(t *testing.T) {
	v := fixedValidator(Loose)

	// No Luhn and no expiry check in loose mode.
	inst, err := v.Validate(domain.PaymentRequest{
		Method: domain.MethodCard,
		Card:   &domain.CardDetails{Number: "5555555555554440", ExpiryMonth: 1, ExpiryYear: 2020},
	})
	require.NoError(t, err)
	assert.Equal(t, NetworkMastercard, inst.CardNetwork)
	assert.Equal(t, "4440", inst.CardLast4)

	_, err = v.Validate(domain.PaymentRequest{
		Method: domain.MethodCard,
		Card:   &domain.CardDetails{Number: "41111111111"},
	})
	assert.Equal(t, domain.ReasonCardNumber, reasonOf(t, err))
}

func TestValidateUnsupportedMethod(t *testing.T) {
	for _, p := range []Policy{Strict, Loose} {
		_, err := fixedValidator(p).Validate(domain.PaymentRequest{Method: "netbanking"})
		assert.ErrorIs(t, err, domain.ErrUnsupportedMethod)
	}
}
