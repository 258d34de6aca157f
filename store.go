package dagcheck

import (
	"context"
	"errors"
)

var ErrRecordNotFound = errors.New("dagcheck: validation record not found")

// Store defines the contract for the validation history.
type Store interface {
	// Schema
	CreateSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error

	// Records
	RecordValidation(ctx context.Context, rec *Record) (string, error)
	GetValidation(ctx context.Context, id string) (*Record, error)
	ListValidations(ctx context.Context, limit int) ([]Record, error)
	DeleteValidation(ctx context.Context, id string) error
}
