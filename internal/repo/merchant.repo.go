package repo

import (
	"context"
	"database/sql"
	"errors"

	"payment-gateway/internal/domain"
)

type MerchantRepo interface {
	FindByAPIKey(ctx context.Context, apiKey string) (*domain.Merchant, error)
	CreateMerchant(ctx context.Context, merchant *domain.Merchant) error
}

type merchantRepo struct {
	db *sql.DB
}

func NewMerchantRepo(db *sql.DB) MerchantRepo {
	return &merchantRepo{db: db}
}

func (r *merchantRepo) FindByAPIKey(ctx context.Context, apiKey string) (*domain.Merchant, error) {
	var m domain.Merchant
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, api_key, api_secret_hash, created_at FROM merchants WHERE api_key = $1`,
		apiKey,
	).Scan(&m.ID, &m.Name, &m.Email, &m.APIKey, &m.APISecretHash, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrMerchantNotFound
	}
	if err != nil {
		return nil, classify(err)
	}
	return &m, nil
}

// CreateMerchant inserts the merchant, leaving an existing row with the same email untouched.
func (r *merchantRepo) CreateMerchant(ctx context.Context, m *domain.Merchant) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO merchants (id, name, email, api_key, api_secret_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (email) DO NOTHING`,
		m.ID, m.Name, m.Email, m.APIKey, m.APISecretHash, m.CreatedAt,
	)
	return classify(err)
}
