package repository

import (
	"context"
	"errors"

	"classifieds/internal/domain"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

const (
	backendMemory = "memory"
	backendMySQL  = "mysql"
)

// AdRepository stores ads. CreateAd assigns the id; the other fields are
// stored as given.
type AdRepository interface {
	CreateAd(ctx context.Context, ad *domain.Ad) (*domain.Ad, error)
	GetAdByID(ctx context.Context, id int64) (*domain.Ad, error)
	GetAllAds(ctx context.Context) ([]*domain.Ad, error)
	GetAdsByUser(ctx context.Context, userID string) ([]*domain.Ad, error)
	UpdateAd(ctx context.Context, ad *domain.Ad) (*domain.Ad, error)
	DeleteAd(ctx context.Context, id int64) error
	CountAds(ctx context.Context) (int, error)
}

// UserRepository stores accounts together with the ids of the ads they own.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetAllUsers(ctx context.Context) ([]*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	DeleteUser(ctx context.Context, id string) error
	AddAdID(ctx context.Context, userID string, adID int64) error
	RemoveAdID(ctx context.Context, userID string, adID int64) error
}
