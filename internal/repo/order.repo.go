package repo

import (
	"context"
	"database/sql"
	"errors"

	"payment-gateway/internal/domain"
)

type OrderRepo interface {
	// FindOrder scopes the lookup to merchantID unless it is empty.
	FindOrder(ctx context.Context, id string, merchantID string) (*domain.Order, error)
	CreateOrder(ctx context.Context, order *domain.Order) error
}

type orderRepo struct {
	db *sql.DB
}

func NewOrderRepo(db *sql.DB) OrderRepo {
	return &orderRepo{db: db}
}

func (r *orderRepo) FindOrder(ctx context.Context, id string, merchantID string) (*domain.Order, error) {
	query := `SELECT id, merchant_id, amount, currency, receipt, created_at FROM orders WHERE id = $1`
	args := []any{id}
	if merchantID != "" {
		query += ` AND merchant_id = $2`
		args = append(args, merchantID)
	}

	var (
		order   domain.Order
		receipt sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&order.ID,
		&order.MerchantID,
		&order.Amount,
		&order.Currency,
		&receipt,
		&order.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, classify(err)
	}
	order.Receipt = receipt.String
	return &order, nil
}

func (r *orderRepo) CreateOrder(ctx context.Context, order *domain.Order) error {
	var receipt *string
	if order.Receipt != "" {
		receipt = &order.Receipt
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO orders (id, merchant_id, amount, currency, receipt, created_at) VALUES ($1, $2, $3, $4, $5, $6)",
		order.ID, order.MerchantID, order.Amount, order.Currency, nullString(receipt), order.CreatedAt,
	)
	return classify(err)
}
