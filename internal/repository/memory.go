package repository

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"classifieds/internal/domain"
	"classifieds/internal/infrastructure/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type memoryAdRepository struct {
	mu     sync.RWMutex
	ads    []*domain.Ad
	lastID int64

	metrics *metrics.RepositoryMetrics
	tracer  trace.Tracer
}

// NewMemoryAdRepository keeps ads in process memory. The id counter starts
// from the number of seed ads, or from the highest seed id if that is larger.
func NewMemoryAdRepository(metrics *metrics.RepositoryMetrics, seed ...*domain.Ad) AdRepository {
	r := &memoryAdRepository{
		metrics: metrics,
		tracer:  otel.Tracer("classifieds/repository"),
		lastID:  int64(len(seed)),
	}
	for _, ad := range seed {
		r.ads = append(r.ads, ad.Clone())
		if ad.ID > r.lastID {
			r.lastID = ad.ID
		}
	}
	return r
}

func (r *memoryAdRepository) CreateAd(ctx context.Context, ad *domain.Ad) (*domain.Ad, error) {
	_, span := r.tracer.Start(ctx, "Repository CreateAd")
	defer span.End()

	startTime := time.Now()
	defer r.metrics.Observe(backendMemory, "CreateAd", "success", startTime)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastID++
	stored := ad.Clone()
	stored.ID = r.lastID
	r.ads = append(r.ads, stored)

	span.SetAttributes(attribute.Int64("ad.id", stored.ID))
	return stored.Clone(), nil
}

func (r *memoryAdRepository) GetAdByID(ctx context.Context, id int64) (*domain.Ad, error) {
	_, span := r.tracer.Start(ctx, "Repository GetAdByID")
	defer span.End()

	span.SetAttributes(attribute.Int64("ad.id", id))

	startTime := time.Now()
	status := "success"
	defer func() { r.metrics.Observe(backendMemory, "GetAdByID", status, startTime) }()

	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		status = "not_found"
		return nil, ErrNotFound
	}
	return r.ads[i].Clone(), nil
}

func (r *memoryAdRepository) GetAllAds(ctx context.Context) ([]*domain.Ad, error) {
	_, span := r.tracer.Start(ctx, "Repository GetAllAds")
	defer span.End()

	startTime := time.Now()
	defer r.metrics.Observe(backendMemory, "GetAllAds", "success", startTime)

	r.mu.RLock()
	defer r.mu.RUnlock()

	ads := make([]*domain.Ad, 0, len(r.ads))
	for _, ad := range r.ads {
		ads = append(ads, ad.Clone())
	}
	return ads, nil
}

func (r *memoryAdRepository) GetAdsByUser(ctx context.Context, userID string) ([]*domain.Ad, error) {
	_, span := r.tracer.Start(ctx, "Repository GetAdsByUser")
	defer span.End()

	span.SetAttributes(attribute.String("user.id", userID))

	startTime := time.Now()
	defer r.metrics.Observe(backendMemory, "GetAdsByUser", "success", startTime)

	r.mu.RLock()
	defer r.mu.RUnlock()

	ads := []*domain.Ad{}
	for _, ad := range r.ads {
		if ad.UserID == userID {
			ads = append(ads, ad.Clone())
		}
	}
	return ads, nil
}

func (r *memoryAdRepository) UpdateAd(ctx context.Context, ad *domain.Ad) (*domain.Ad, error) {
	_, span := r.tracer.Start(ctx, "Repository UpdateAd")
	defer span.End()

	span.SetAttributes(attribute.Int64("ad.id", ad.ID))

	startTime := time.Now()
	status := "success"
	defer func() { r.metrics.Observe(backendMemory, "UpdateAd", status, startTime) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(ad.ID)
	if i < 0 {
		status = "not_found"
		return nil, ErrNotFound
	}
	r.ads[i] = ad.Clone()
	return ad.Clone(), nil
}

func (r *memoryAdRepository) DeleteAd(ctx context.Context, id int64) error {
	_, span := r.tracer.Start(ctx, "Repository DeleteAd")
	defer span.End()

	span.SetAttributes(attribute.Int64("ad.id", id))

	startTime := time.Now()
	status := "success"
	defer func() { r.metrics.Observe(backendMemory, "DeleteAd", status, startTime) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		status = "not_found"
		return ErrNotFound
	}
	r.ads = slices.Delete(r.ads, i, i+1)
	return nil
}

func (r *memoryAdRepository) CountAds(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ads), nil
}

// indexOf must be called with mu held.
func (r *memoryAdRepository) indexOf(id int64) int {
	return slices.IndexFunc(r.ads, func(ad *domain.Ad) bool { return ad.ID == id })
}

type memoryUserRepository struct {
	mu    sync.RWMutex
	users []*domain.User

	metrics *metrics.RepositoryMetrics
	tracer  trace.Tracer
}

func NewMemoryUserRepository(metrics *metrics.RepositoryMetrics) UserRepository {
	return &memoryUserRepository{
		metrics: metrics,
		tracer:  otel.Tracer("classifieds/repository"),
	}
}

func (r *memoryUserRepository) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	_, span := r.tracer.Start(ctx, "Repository CreateUser")
	defer span.End()

	startTime := time.Now()
	status := "success"
	defer func() { r.metrics.Observe(backendMemory, "CreateUser", status, startTime) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexByEmail(user.Email) >= 0 {
		status = "conflict"
		return nil, ErrDuplicateEmail
	}

	stored := user.Clone()
	r.users = append(r.users, stored)
	return stored.Clone(), nil
}

func (r *memoryUserRepository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	_, span := r.tracer.Start(ctx, "Repository GetUserByID")
	defer span.End()

	startTime := time.Now()
	status := "success"
	defer func() { r.metrics.Observe(backendMemory, "GetUserByID", status, startTime) }()

	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexByID(id)
	if i < 0 {
		status = "not_found"
		return nil, ErrNotFound
	}
	return r.users[i].Clone(), nil
}

func (r *memoryUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	_, span := r.tracer.Start(ctx, "Repository GetUserByEmail")
	defer span.End()

	startTime := time.Now()
	status := "success"
	defer func() { r.metrics.Observe(backendMemory, "GetUserByEmail", status, startTime) }()

	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexByEmail(email)
	if i < 0 {
		status = "not_found"
		return nil, ErrNotFound
	}
	return r.users[i].Clone(), nil
}

func (r *memoryUserRepository) GetAllUsers(ctx context.Context) ([]*domain.User, error) {
	_, span := r.tracer.Start(ctx, "Repository GetAllUsers")
	defer span.End()

	startTime := time.Now()
	defer r.metrics.Observe(backendMemory, "GetAllUsers", "success", startTime)

	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u.Clone())
	}
	return users, nil
}

func (r *memoryUserRepository) UpdateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	_, span := r.tracer.Start(ctx, "Repository UpdateUser")
	defer span.End()

	startTime := time.Now()
	status := "success"
	defer func() { r.metrics.Observe(backendMemory, "UpdateUser", status, startTime) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexByID(user.ID)
	if i < 0 {
		status = "not_found"
		return nil, ErrNotFound
	}
	if j := r.indexByEmail(user.Email); j >= 0 && j != i {
		status = "conflict"
		return nil, ErrDuplicateEmail
	}

	stored := user.Clone()
	stored.AdIDs = slices.Clone(r.users[i].AdIDs)
	r.users[i] = stored
	return stored.Clone(), nil
}

func (r *memoryUserRepository) DeleteUser(ctx context.Context, id string) error {
	_, span := r.tracer.Start(ctx, "Repository DeleteUser")
	defer span.End()

	startTime := time.Now()
	status := "success"
	defer func() { r.metrics.Observe(backendMemory, "DeleteUser", status, startTime) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexByID(id)
	if i < 0 {
		status = "not_found"
		return ErrNotFound
	}
	r.users = slices.Delete(r.users, i, i+1)
	return nil
}

func (r *memoryUserRepository) AddAdID(ctx context.Context, userID string, adID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexByID(userID)
	if i < 0 {
		return ErrNotFound
	}
	if !slices.Contains(r.users[i].AdIDs, adID) {
		r.users[i].AdIDs = append(r.users[i].AdIDs, adID)
	}
	return nil
}

func (r *memoryUserRepository) RemoveAdID(ctx context.Context, userID string, adID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexByID(userID)
	if i < 0 {
		return ErrNotFound
	}
	r.users[i].AdIDs = slices.DeleteFunc(r.users[i].AdIDs, func(id int64) bool { return id == adID })
	return nil
}

func (r *memoryUserRepository) indexByID(id string) int {
	return slices.IndexFunc(r.users, func(u *domain.User) bool { return u.ID == id })
}

func (r *memoryUserRepository) indexByEmail(email string) int {
	return slices.IndexFunc(r.users, func(u *domain.User) bool { return strings.EqualFold(u.Email, email) })
}
