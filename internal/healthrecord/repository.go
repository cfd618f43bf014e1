package healthrecord

import (
	"context"
	"errors"
)

var ErrRecordNotFound = errors.New("health record not found")

type Repository interface {
	Create(ctx context.Context, r Record) (*Record, error)
	GetByID(ctx context.Context, id string) (*Record, error)
	ListByPatient(ctx context.Context, uid string) ([]Record, error)
	Update(ctx context.Context, r Record) (*Record, error)
	Delete(ctx context.Context, id string) error
}
