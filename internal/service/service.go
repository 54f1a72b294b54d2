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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrInvalidID     = errors.New("invalid ad ID")
	ErrAdNotFound    = errors.New("ad not found")
	ErrForbidden     = errors.New("access denied")
	ErrInvalidUser   = errors.New("invalid user ID")
	ErrInvalidType   = errors.New("invalid ad type")
	ErrMissingUserID = errors.New("missing user ID")
)

// NoAdsMessage accompanies an empty ListByOwner result.
const NoAdsMessage = "no ads found"

// OwnerAds is the result of ListByOwner. Message is set when Ads is empty.
type OwnerAds struct {
	Ads     []*domain.Ad `json:"ads"`
	Message string       `json:"message,omitempty"`
}

// UserDirectory is what the ad service needs to know about users.
type UserDirectory interface {
	Exists(ctx context.Context, userID string) (bool, error)
	AttachAd(ctx context.Context, userID string, adID int64) error
	DetachAd(ctx context.Context, userID string, adID int64) error
}

type AdService interface {
	CreateAd(ctx context.Context, ad *domain.Ad) (*domain.Ad, error)
	GetAllAds(ctx context.Context) ([]*domain.Ad, error)
	GetAdsByOwner(ctx context.Context, userID string) (*OwnerAds, error)
	GetAdByID(ctx context.Context, id int64) (*domain.Ad, error)
	UpdateAd(ctx context.Context, id int64, userID string, patch domain.Patch) (*domain.Ad, error)
	DeleteAd(ctx context.Context, id int64, userID string) error
}

type adService struct {
	repository repository.AdRepository
	users      UserDirectory
	metrics    *metrics.ServiceMetrics
	tracer     trace.Tracer
	now        func() time.Time
}

func NewAdService(repository repository.AdRepository, users UserDirectory, metrics *metrics.ServiceMetrics) AdService {
	return &adService{
		repository: repository,
		users:      users,
		metrics:    metrics,
		tracer:     otel.Tracer("classifieds/service"),
		now:        time.Now,
	}
}

func (s *adService) validationFailed(err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) && len(verr.Errors) > 0 {
		first := verr.Errors[0]
		s.metrics.ValidationFailed(string(first.Category), first.Field)
	}
}

// validate runs the checks in order: common fields, owner (when checkOwner),
// category, category fields. Only the first failing stage is reported.
func (s *adService) validate(ctx context.Context, ad *domain.Ad, checkOwner bool) error {
	if err := domain.NewValidationError(domain.ValidateCommon(ad)); err != nil {
		return err
	}

	if checkOwner {
		exists, err := s.users.Exists(ctx, ad.UserID)
		if err != nil {
			return fmt.Errorf("failed to check user: %w", err)
		}
		if !exists {
			return ErrInvalidUser
		}
	}

	if !ad.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, ad.Type)
	}

	return domain.NewValidationError(domain.ValidateDetails(ad))
}

func (s *adService) CreateAd(ctx context.Context, ad *domain.Ad) (*domain.Ad, error) {
	ctx, span := s.tracer.Start(ctx, "CreateAd")
	defer span.End()

	startTime := time.Now()
	status := "success"

	defer func() {
		s.metrics.Observe("CreateAd", status, startTime)
	}()

	candidate := ad.Clone()
	candidate.ID = 0
	candidate.Normalize()

	if err := s.validate(ctx, candidate, true); err != nil {
		status = "invalid"
		s.validationFailed(err)
		return nil, err
	}

	now := s.now()
	candidate.CreatedAt = now
	candidate.UpdatedAt = now

	createdAd, err := s.repository.CreateAd(ctx, candidate)
	if err != nil {
		status = "error"
		span.RecordError(err)
		return nil, err
	}

	if err := s.users.AttachAd(ctx, createdAd.UserID, createdAd.ID); err != nil {
		status = "error"
		span.RecordError(err)
		return nil, fmt.Errorf("failed to attach ad to owner: %w", err)
	}

	span.SetAttributes(
		attribute.Int64("ad.id", createdAd.ID),
		attribute.String("ad.type", string(createdAd.Type)),
		attribute.Float64("ad.price", createdAd.Price),
	)
	return createdAd, nil
}

func (s *adService) GetAllAds(ctx context.Context) ([]*domain.Ad, error) {
	ctx, span := s.tracer.Start(ctx, "GetAllAds")
	defer span.End()

	startTime := time.Now()
	status := "success"

	defer func() {
		s.metrics.Observe("GetAllAds", status, startTime)
	}()

	ads, err := s.repository.GetAllAds(ctx)
	if err != nil {
		status = "error"
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("ads.count", len(ads)))
	return ads, nil
}

func (s *adService) GetAdsByOwner(ctx context.Context, userID string) (*OwnerAds, error) {
	ctx, span := s.tracer.Start(ctx, "GetAdsByOwner")
	defer span.End()

	span.SetAttributes(attribute.String("user.id", userID))

	startTime := time.Now()
	status := "success"

	defer func() {
		s.metrics.Observe("GetAdsByOwner", status, startTime)
	}()

	ads, err := s.repository.GetAdsByUser(ctx, userID)
	if err != nil {
		status = "error"
		span.RecordError(err)
		return nil, err
	}

	if len(ads) == 0 {
		status = "empty"
		return &OwnerAds{Ads: []*domain.Ad{}, Message: NoAdsMessage}, nil
	}
	return &OwnerAds{Ads: ads}, nil
}

func (s *adService) GetAdByID(ctx context.Context, id int64) (*domain.Ad, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}

	ctx, span := s.tracer.Start(ctx, "GetAdByID")
	defer span.End()

	startTime := time.Now()
	status := "success"

	defer func() {
		s.metrics.Observe("GetAdByID", status, startTime)
	}()

	ad, err := s.repository.GetAdByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			status = "not_found"
			return nil, ErrAdNotFound
		}
		status = "error"
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int64("ad.id", id))
	return ad, nil
}

// owned loads the ad and checks that userID owns it.
func (s *adService) owned(ctx context.Context, id int64, userID string) (*domain.Ad, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUserID
	}

	ad, err := s.repository.GetAdByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAdNotFound
		}
		return nil, err
	}

	if ad.UserID != userID {
		return nil, ErrForbidden
	}
	return ad, nil
}

func statusOf(err error) string {
	switch {
	case errors.Is(err, ErrAdNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrInvalidID), errors.Is(err, ErrMissingUserID):
		return "invalid"
	}
	return "error"
}

// UpdateAd merges patch onto the ad owned by userID. The merged ad must pass
// the same category checks as on create, including after a type change.
func (s *adService) UpdateAd(ctx context.Context, id int64, userID string, patch domain.Patch) (*domain.Ad, error) {
	ctx, span := s.tracer.Start(ctx, "UpdateAd")
	defer span.End()

	span.SetAttributes(attribute.Int64("ad.id", id))

	startTime := time.Now()
	status := "success"

	defer func() {
		s.metrics.Observe("UpdateAd", status, startTime)
	}()

	current, err := s.owned(ctx, id, userID)
	if err != nil {
		status = statusOf(err)
		if status == "error" {
			span.RecordError(err)
		}
		return nil, err
	}

	patched, err := domain.ApplyPatch(current, patch)
	if err != nil {
		status = "invalid"
		return nil, err
	}

	if err := s.validate(ctx, patched, false); err != nil {
		status = "invalid"
		s.validationFailed(err)
		return nil, err
	}

	patched.UpdatedAt = s.now()

	updatedAd, err := s.repository.UpdateAd(ctx, patched)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			status = "not_found"
			return nil, ErrAdNotFound
		}
		status = "error"
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("ad.type", string(updatedAd.Type)),
		attribute.Float64("ad.price", updatedAd.Price),
	)
	return updatedAd, nil
}

func (s *adService) DeleteAd(ctx context.Context, id int64, userID string) error {
	ctx, span := s.tracer.Start(ctx, "DeleteAd")
	defer span.End()

	span.SetAttributes(attribute.Int64("ad.id", id))

	startTime := time.Now()
	status := "success"

	defer func() {
		s.metrics.Observe("DeleteAd", status, startTime)
	}()

	ad, err := s.owned(ctx, id, userID)
	if err != nil {
		status = statusOf(err)
		if status == "error" {
			span.RecordError(err)
		}
		return err
	}

	if err := s.repository.DeleteAd(ctx, ad.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			status = "not_found"
			return ErrAdNotFound
		}
		status = "error"
		span.RecordError(err)
		return err
	}

	if err := s.users.DetachAd(ctx, ad.UserID, ad.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		status = "error"
		span.RecordError(err)
		return fmt.Errorf("failed to detach ad from owner: %w", err)
	}

	return nil
}
