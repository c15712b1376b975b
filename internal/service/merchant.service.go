package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"payment-gateway/internal/domain"
	"payment-gateway/internal/repo"
)

type MerchantService interface {
	// Authenticate resolves the merchant owning an API key/secret pair.
	// A wrong secret is indistinguishable from an unknown key.
	Authenticate(ctx context.Context, apiKey, apiSecret string) (*domain.Merchant, error)
	// EnsureMerchant creates the merchant unless one with the same email exists.
	EnsureMerchant(ctx context.Context, name, email, apiKey, apiSecret string) error
}

type merchantService struct {
	merchantRepo repo.MerchantRepo
	ids          IDGenerator
}

func NewMerchantService(merchantRepo repo.MerchantRepo, ids IDGenerator) MerchantService {
	return &merchantService{merchantRepo: merchantRepo, ids: ids}
}

func (s *merchantService) Authenticate(ctx context.Context, apiKey, apiSecret string) (*domain.Merchant, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, domain.ErrMerchantNotFound
	}
	m, err := s.merchantRepo.FindByAPIKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, domain.ErrMerchantNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("authenticate merchant: %w", domain.ErrInternal)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(m.APISecretHash), []byte(apiSecret)); err != nil {
		return nil, domain.ErrMerchantNotFound
	}
	return m, nil
}

func (s *merchantService) EnsureMerchant(ctx context.Context, name, email, apiKey, apiSecret string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(apiSecret), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash api secret: %w", err)
	}
	m := &domain.Merchant{
		ID:            s.ids.New("merchant"),
		Name:          name,
		Email:         email,
		APIKey:        apiKey,
		APISecretHash: string(hash),
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.merchantRepo.CreateMerchant(ctx, m); err != nil {
		return fmt.Errorf("create merchant: %w", err)
	}
	return nil
}
