package payment

import (
	"context"
	"errors"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"

	"payment-gateway/internal/domain"
)

// razorpayOrders is the subset of the Razorpay order resource the provider uses.
type razorpayOrders interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
	Payments(orderID string, queryParams map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// RazorpayProvider registers each payment as a Razorpay order with the payment id
// as receipt. Capture happens asynchronously, so Settle always reports pending and
// the reconciliation worker picks up the final state through Status.
type RazorpayProvider struct {
	orders razorpayOrders
}

func NewRazorpayProvider(key, secret string) *RazorpayProvider {
	client := razorpay.NewClient(key, secret)
	return &RazorpayProvider{orders: client.Order}
}

func (rp *RazorpayProvider) Name() string { return "razorpay" }

func (rp *RazorpayProvider) Settle(ctx context.Context, p *domain.Payment) (Result, error) {
	data := map[string]interface{}{
		"amount":          p.Amount,
		"currency":        p.Currency,
		"receipt":         p.ID,
		"payment_capture": 1,
		"notes": map[string]interface{}{
			"payment_id": p.ID,
			"order_id":   p.OrderID,
			"method":     string(p.Method),
		},
	}

	resp, err := call(ctx, func() (map[string]interface{}, error) {
		return rp.orders.Create(data, nil)
	})
	if err != nil {
		return Result{Outcome: OutcomePending}, fmt.Errorf("razorpay create order: %w", err)
	}

	ref, _ := resp["id"].(string)
	if ref == "" {
		return Result{Outcome: OutcomePending}, errors.New("razorpay create order: response has no id")
	}
	return Result{Outcome: OutcomePending, ProviderRef: ref}, nil
}

func (rp *RazorpayProvider) Status(ctx context.Context, p *domain.Payment) (Result, error) {
	if p.ProviderRef == nil || *p.ProviderRef == "" {
		return Result{Outcome: OutcomePending}, nil
	}
	ref := *p.ProviderRef

	resp, err := call(ctx, func() (map[string]interface{}, error) {
		return rp.orders.Payments(ref, nil, nil)
	})
	if err != nil {
		return Result{Outcome: OutcomePending, ProviderRef: ref}, fmt.Errorf("razorpay fetch payments: %w", err)
	}
	return Result{Outcome: outcomeFromAttempts(resp), ProviderRef: ref}, nil
}

// outcomeFromAttempts folds the attempts made against one Razorpay order.
// Any captured attempt wins; the order fails only when every attempt failed.
func outcomeFromAttempts(resp map[string]interface{}) Outcome {
	items, _ := resp["items"].([]interface{})
	if len(items) == 0 {
		return OutcomePending
	}
	failed := 0
	for _, it := range items {
		attempt, _ := it.(map[string]interface{})
		switch attempt["status"] {
		case "captured":
			return OutcomeSuccess
		case "failed":
			failed++
		}
	}
	if failed == len(items) {
		return OutcomeFailed
	}
	return OutcomePending
}

// call runs a blocking SDK request and gives up when ctx is done.
func call(ctx context.Context, fn func() (map[string]interface{}, error)) (map[string]interface{}, error) {
	type reply struct {
		body map[string]interface{}
		err  error
	}
	ch := make(chan reply, 1)
	go func() {
		body, err := fn()
		ch <- reply{body, err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.body, r.err
	}
}
