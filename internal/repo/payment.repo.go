package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"payment-gateway/internal/domain"
)

type PaymentRepo interface {
	// CreatePayment inserts a payment in processing state.
	CreatePayment(ctx context.Context, payment *domain.Payment) error
	// UpdateStatus moves a processing payment to a terminal status, exactly once.
	UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus) error
	// MarkChecked bumps updated_at of a processing payment so the next
	// FindProcessingBefore batch starts with payments checked less recently.
	MarkChecked(ctx context.Context, id string) error
	SetProviderRef(ctx context.Context, id string, ref string) error
	// FindByID scopes the lookup to merchantID unless it is empty.
	FindByID(ctx context.Context, id string, merchantID string) (*domain.Payment, error)
	FindByIdempotencyKey(ctx context.Context, orderID string, key string) (*domain.Payment, error)
	ListByMerchant(ctx context.Context, merchantID string, limit, offset int) ([]domain.Payment, error)
	// FindProcessingBefore returns processing payments created before the cutoff,
	// least recently checked first.
	FindProcessingBefore(ctx context.Context, before time.Time, limit int) ([]domain.Payment, error)
}

type paymentRepo struct {
	db *sql.DB
}

func NewPaymentRepo(db *sql.DB) PaymentRepo {
	return &paymentRepo{db: db}
}

const paymentColumns = `id, order_id, merchant_id, amount, currency, method, status, vpa, card_network, card_last4, provider_ref, idempotency_key, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (*domain.Payment, error) {
	var p domain.Payment
	var vpa, network, last4, providerRef, idempotencyKey sql.NullString
	err := row.Scan(
		&p.ID,
		&p.OrderID,
		&p.MerchantID,
		&p.Amount,
		&p.Currency,
		&p.Method,
		&p.Status,
		&vpa,
		&network,
		&last4,
		&providerRef,
		&idempotencyKey,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.VPA = stringPtr(vpa)
	p.CardNetwork = stringPtr(network)
	p.CardLast4 = stringPtr(last4)
	p.ProviderRef = stringPtr(providerRef)
	p.IdempotencyKey = stringPtr(idempotencyKey)
	return &p, nil
}

func (r *paymentRepo) CreatePayment(ctx context.Context, payment *domain.Payment) error {
	query := `INSERT INTO payments (` + paymentColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.db.ExecContext(
		ctx, query,
		payment.ID,
		payment.OrderID,
		payment.MerchantID,
		payment.Amount,
		payment.Currency,
		string(payment.Method),
		string(payment.Status),
		nullString(payment.VPA),
		nullString(payment.CardNetwork),
		nullString(payment.CardLast4),
		nullString(payment.ProviderRef),
		nullString(payment.IdempotencyKey),
		payment.CreatedAt,
		payment.UpdatedAt,
	)
	return classify(err)
}

func (r *paymentRepo) UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	if !status.IsTerminal() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}
	// The status guard makes the terminal write a single atomic compare-and-set.
	query := `
		UPDATE payments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1 AND status = $3
	`
	res, err := r.db.ExecContext(ctx, query, id, string(status), string(domain.PaymentProcessing))
	if err != nil {
		return classify(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if affected == 1 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM payments WHERE id = $1)`, id).Scan(&exists); err != nil {
		return classify(err)
	}
	if !exists {
		return domain.ErrPaymentNotFound
	}
	return domain.ErrStatusConflict
}

func (r *paymentRepo) MarkChecked(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE payments SET updated_at = now() WHERE id = $1 AND status = $2`,
		id, string(domain.PaymentProcessing),
	)
	return classify(err)
}

func (r *paymentRepo) SetProviderRef(ctx context.Context, id string, ref string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payments SET provider_ref = $2, updated_at = now() WHERE id = $1`,
		id, ref,
	)
	if err != nil {
		return classify(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if affected == 0 {
		return domain.ErrPaymentNotFound
	}
	return nil
}

func (r *paymentRepo) FindByID(ctx context.Context, id string, merchantID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	args := []any{id}
	if merchantID != "" {
		query += ` AND merchant_id = $2`
		args = append(args, merchantID)
	}
	p, err := scanPayment(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPaymentNotFound
	}
	if err != nil {
		return nil, classify(err)
	}
	return p, nil
}

func (r *paymentRepo) FindByIdempotencyKey(ctx context.Context, orderID string, key string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE order_id = $1 AND idempotency_key = $2`
	p, err := scanPayment(r.db.QueryRowContext(ctx, query, orderID, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPaymentNotFound
	}
	if err != nil {
		return nil, classify(err)
	}
	return p, nil
}

func (r *paymentRepo) ListByMerchant(ctx context.Context, merchantID string, limit, offset int) ([]domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + ` FROM payments
		WHERE merchant_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`
	return r.queryPayments(ctx, query, merchantID, limit, offset)
}

func (r *paymentRepo) FindProcessingBefore(ctx context.Context, before time.Time, limit int) ([]domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + ` FROM payments
		WHERE status = $1
		AND created_at < $2
		ORDER BY updated_at, id
		LIMIT $3
	`
	return r.queryPayments(ctx, query, string(domain.PaymentProcessing), before, limit)
}

func (r *paymentRepo) queryPayments(ctx context.Context, query string, args ...any) ([]domain.Payment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, classify(err)
		}
		payments = append(payments, *p)
	}
	return payments, classify(rows.Err())
}
