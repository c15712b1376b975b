package service

import (
	"strings"

	"github.com/google/uuid"
)

// IDGenerator produces opaque unique identifiers such as pay_1a2b3c4d5e6f7a8b.
type IDGenerator interface {
	New(prefix string) string
}

type uuidGenerator struct{}

func NewUUIDGenerator() IDGenerator {
	return uuidGenerator{}
}

const idLength = 16

func (uuidGenerator) New(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "_" + raw[:idLength]
}
