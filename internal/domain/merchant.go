package domain

import "time"

type Merchant struct {
	ID            string
	Name          string
	Email         string
	APIKey        string
	APISecretHash string
	CreatedAt     time.Time
}
