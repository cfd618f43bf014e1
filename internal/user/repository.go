package user

import (
	"context"
	"errors"

	"github.com/sailcare/clinic-api/internal/risk"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNoAssessment       = errors.New("no risk assessment on record")
)

type Repository interface {
	Create(ctx context.Context, u User) (*User, error)
	GetByUID(ctx context.Context, uid string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, u User) (*User, error)
	UpdatePassword(ctx context.Context, uid, hash string) error
	SaveAssessment(ctx context.Context, uid string, rec risk.Record) error
	// Delete removes the account and its patient profile together.
	Delete(ctx context.Context, uid string) error
}
