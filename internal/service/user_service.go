package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"classifieds/internal/domain"
	"classifieds/internal/infrastructure/metrics"
	"classifieds/internal/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrNoUsers            = errors.New("no users found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type LoginResult struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

type UserService interface {
	UserDirectory

	Register(ctx context.Context, username, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	GetAllUsers(ctx context.Context) ([]*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	UpdateUser(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error)
	DeleteUser(ctx context.Context, id string) error
}

type userService struct {
	repository repository.UserRepository
	metrics    *metrics.ServiceMetrics
	tracer     trace.Tracer
	hashCost   int
	now        func() time.Time
}

func NewUserService(repository repository.UserRepository, metrics *metrics.ServiceMetrics) UserService {
	return &userService{
		repository: repository,
		metrics:    metrics,
		tracer:     otel.Tracer("classifieds/service"),
		hashCost:   bcrypt.DefaultCost,
		now:        time.Now,
	}
}

func requireUserField(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &domain.ValidationError{Errors: []domain.FieldError{{Field: field, Reason: "is required"}}}
	}
	return nil
}

func (s *userService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "Register")
	defer span.End()

	startTime := time.Now()
	status := "success"

	defer func() {
		s.metrics.Observe("Register", status, startTime)
	}()

	for _, f := range []struct{ name, value string }{
		{"username", username},
		{"email", email},
		{"password", password},
	} {
		if err := requireUserField(f.name, f.value); err != nil {
			status = "invalid"
			return nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		status = "error"
		span.RecordError(err)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user, err := s.repository.CreateUser(ctx, &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		AdIDs:        []int64{},
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			status = "conflict"
			return nil, ErrEmailTaken
		}
		status = "error"
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.String("user.id", user.ID))
	return user, nil
}

func (s *userService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	ctx, span := s.tracer.Start(ctx, "Login")
	defer span.End()

	startTime := time.Now()
	status := "success"

	defer func() {
		s.metrics.Observe("Login", status, startTime)
	}()

	user, err := s.repository.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			status = "unauthorized"
			return nil, ErrInvalidCredentials
		}
		status = "error"
		span.RecordError(err)
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		status = "unauthorized"
		return nil, ErrInvalidCredentials
	}

	return &LoginResult{UserID: user.ID, Token: uuid.NewString()}, nil
}

func (s *userService) Exists(ctx context.Context, userID string) (bool, error) {
	if strings.TrimSpace(userID) == "" {
		return false, nil
	}
	_, err := s.repository.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *userService) AttachAd(ctx context.Context, userID string, adID int64) error {
	return s.repository.AddAdID(ctx, userID, adID)
}

func (s *userService) DetachAd(ctx context.Context, userID string, adID int64) error {
	return s.repository.RemoveAdID(ctx, userID, adID)
}

func (s *userService) GetAllUsers(ctx context.Context) ([]*domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "GetAllUsers")
	defer span.End()

	startTime := time.Now()
	status := "success"

	defer func() {
		s.metrics.Observe("GetAllUsers", status, startTime)
	}()

	users, err := s.repository.GetAllUsers(ctx)
	if err != nil {
		status = "error"
		span.RecordError(err)
		return nil, err
	}
	if len(users) == 0 {
		status = "not_found"
		return nil, ErrNoUsers
	}
	return users, nil
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "GetUserByID")
	defer span.End()

	startTime := time.Now()
	status := "success"

	defer func() {
		s.metrics.Observe("GetUserByID", status, startTime)
	}()

	user, err := s.repository.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			status = "not_found"
			return nil, ErrUserNotFound
		}
		status = "error"
		span.RecordError(err)
		return nil, err
	}
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "UpdateUser")
	defer span.End()

	span.SetAttributes(attribute.String("user.id", id))

	startTime := time.Now()
	status := "success"

	defer func() {
		s.metrics.Observe("UpdateUser", status, startTime)
	}()

	user, err := s.repository.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			status = "not_found"
			return nil, ErrUserNotFound
		}
		status = "error"
		span.RecordError(err)
		return nil, err
	}

	if patch.Username != nil {
		if err := requireUserField("username", *patch.Username); err != nil {
			status = "invalid"
			return nil, err
		}
		user.Username = *patch.Username
	}
	if patch.Email != nil {
		if err := requireUserField("email", *patch.Email); err != nil {
			status = "invalid"
			return nil, err
		}
		user.Email = *patch.Email
	}
	if patch.Password != nil {
		if err := requireUserField("password", *patch.Password); err != nil {
			status = "invalid"
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*patch.Password), s.hashCost)
		if err != nil {
			status = "error"
			span.RecordError(err)
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}
	user.UpdatedAt = s.now()

	updated, err := s.repository.UpdateUser(ctx, user)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			status = "not_found"
			return nil, ErrUserNotFound
		case errors.Is(err, repository.ErrDuplicateEmail):
			status = "conflict"
			return nil, ErrEmailTaken
		}
		status = "error"
		span.RecordError(err)
		return nil, err
	}
	return updated, nil
}

func (s *userService) DeleteUser(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "DeleteUser")
	defer span.End()

	span.SetAttributes(attribute.String("user.id", id))

	startTime := time.Now()
	status := "success"

	defer func() {
		s.metrics.Observe("DeleteUser", status, startTime)
	}()

	if err := s.repository.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			status = "not_found"
			return ErrUserNotFound
		}
		status = "error"
		span.RecordError(err)
		return err
	}
	return nil
}
