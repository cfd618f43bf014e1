package patient

import (
	"context"
	"errors"
)

var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrDuplicateID     = errors.New("patient id already exists")
)

type Repository interface {
	Create(ctx context.Context, p Patient) (*Patient, error)
	GetByID(ctx context.Context, id string) (*Patient, error)
	GetByUID(ctx context.Context, uid string) (*Patient, error)
	// FindByName matches exactly; an empty argument matches anything.
	FindByName(ctx context.Context, firstName, lastName string) ([]Patient, error)
	List(ctx context.Context) ([]Patient, error)
	Update(ctx context.Context, p Patient) (*Patient, error)
	DeleteByUID(ctx context.Context, uid string) error
	MaxNumericID(ctx context.Context) (int64, error)
}
