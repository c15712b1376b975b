package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"payment-gateway/internal/domain"
)

type createOrderRequest struct {
	Amount   int64  `json:"amount" binding:"required"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// createPaymentRequest carries no amount or currency; any such fields in the
// body are ignored.
type createPaymentRequest struct {
	OrderID string       `json:"order_id" binding:"required"`
	Method  string       `json:"method" binding:"required"`
	VPA     string       `json:"vpa"`
	Card    *cardRequest `json:"card"`
}

type cardRequest struct {
	Number      string  `json:"number"`
	ExpiryMonth flexInt `json:"expiry_month"`
	ExpiryYear  flexInt `json:"expiry_year"`
}

// flexInt accepts both 7 and "07".
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("expected a number, got %q", s)
		}
		*f = flexInt(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

func (r createPaymentRequest) toDomain(idempotencyKey string) domain.PaymentRequest {
	req := domain.PaymentRequest{
		OrderID:        r.OrderID,
		Method:         domain.PaymentMethod(r.Method),
		VPA:            r.VPA,
		IdempotencyKey: idempotencyKey,
	}
	if r.Card != nil {
		req.Card = &domain.CardDetails{
			Number:      r.Card.Number,
			ExpiryMonth: int(r.Card.ExpiryMonth),
			ExpiryYear:  int(r.Card.ExpiryYear),
		}
	}
	return req
}

type orderView struct {
	ID         string    `json:"id"`
	MerchantID string    `json:"merchant_id,omitempty"`
	Amount     int64     `json:"amount"`
	Currency   string    `json:"currency"`
	Receipt    string    `json:"receipt,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func newOrderView(o *domain.Order) orderView {
	return orderView{
		ID:         o.ID,
		MerchantID: o.MerchantID,
		Amount:     o.Amount,
		Currency:   o.Currency,
		Receipt:    o.Receipt,
		CreatedAt:  o.CreatedAt,
	}
}

// newPublicOrderView exposes what a checkout page needs and nothing about the merchant.
func newPublicOrderView(o *domain.Order) orderView {
	return orderView{
		ID:        o.ID,
		Amount:    o.Amount,
		Currency:  o.Currency,
		CreatedAt: o.CreatedAt,
	}
}

type paymentView struct {
	ID          string    `json:"id"`
	OrderID     string    `json:"order_id"`
	Amount      int64     `json:"amount"`
	Currency    string    `json:"currency"`
	Method      string    `json:"method"`
	Status      string    `json:"status"`
	VPA         *string   `json:"vpa,omitempty"`
	CardNetwork *string   `json:"card_network,omitempty"`
	CardLast4   *string   `json:"card_last4,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func newPaymentView(p *domain.Payment) paymentView {
	return paymentView{
		ID:          p.ID,
		OrderID:     p.OrderID,
		Amount:      p.Amount,
		Currency:    p.Currency,
		Method:      string(p.Method),
		Status:      string(p.Status),
		VPA:         p.VPA,
		CardNetwork: p.CardNetwork,
		CardLast4:   p.CardLast4,
		CreatedAt:   p.CreatedAt,
	}
}

// newPublicPaymentView is what an unauthenticated status poll may see: no VPA.
func newPublicPaymentView(p *domain.Payment) paymentView {
	v := newPaymentView(p)
	v.VPA = nil
	return v
}

type paymentListView struct {
	Items  []paymentView `json:"items"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}
