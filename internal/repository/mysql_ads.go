package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"classifieds/internal/domain"
	"classifieds/internal/infrastructure/cache"
	"classifieds/internal/infrastructure/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const adColumns = "id, name, description, location, type, price, image_url, images, details, user_id, created_at, updated_at"

type mysqlAdRepository struct {
	db       *sql.DB
	cache    cache.Cache
	cacheTTL time.Duration
	metrics  *metrics.RepositoryMetrics
	tracer   trace.Tracer
}

// NewMysqlAdRepository stores ads in MySQL. Category fields live in the
// details JSON column. Single ads and per-owner lists are cached for cacheTTL.
func NewMysqlAdRepository(db *sql.DB, c cache.Cache, cacheTTL time.Duration, metrics *metrics.RepositoryMetrics) AdRepository {
	if c == nil {
		c = cache.Noop{}
	}
	return &mysqlAdRepository{
		db:       db,
		cache:    c,
		cacheTTL: cacheTTL,
		metrics:  metrics,
		tracer:   otel.Tracer("classifieds/repository"),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAd(row rowScanner) (*domain.Ad, error) {
	var (
		ad      domain.Ad
		images  []byte
		details []byte
	)
	if err := row.Scan(
		&ad.ID,
		&ad.Name,
		&ad.Description,
		&ad.Location,
		&ad.Type,
		&ad.Price,
		&ad.ImageURL,
		&images,
		&details,
		&ad.UserID,
		&ad.CreatedAt,
		&ad.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if len(images) > 0 {
		if err := json.Unmarshal(images, &ad.Images); err != nil {
			return nil, fmt.Errorf("failed to decode images of ad %d: %w", ad.ID, err)
		}
	}

	ad.Normalize()
	if d := ad.Details(); d != nil && len(details) > 0 {
		if err := json.Unmarshal(details, d); err != nil {
			return nil, fmt.Errorf("failed to decode details of ad %d: %w", ad.ID, err)
		}
	}

	return &ad, nil
}

func encodeAd(ad *domain.Ad) (images []byte, details []byte, err error) {
	imgs := ad.Images
	if imgs == nil {
		imgs = []string{}
	}
	if images, err = json.Marshal(imgs); err != nil {
		return nil, nil, fmt.Errorf("failed to encode images: %w", err)
	}

	details = []byte("{}")
	if d := ad.Details(); d != nil {
		if details, err = json.Marshal(d); err != nil {
			return nil, nil, fmt.Errorf("failed to encode details: %w", err)
		}
	}
	return images, details, nil
}

func (r *mysqlAdRepository) cacheAd(ctx context.Context, ad *domain.Ad) {
	adJSON, err := json.Marshal(ad)
	if err != nil {
		return
	}
	cacheSpanCtx, cacheSpan := r.tracer.Start(ctx, "Redis Set")
	r.cache.Set(cacheSpanCtx, cache.AdKey(ad.ID), string(adJSON), r.cacheTTL)
	cacheSpan.End()
}

func (r *mysqlAdRepository) invalidate(ctx context.Context, keys ...string) {
	cacheSpanCtx, cacheSpan := r.tracer.Start(ctx, "Redis Delete")
	r.cache.Delete(cacheSpanCtx, keys...)
	cacheSpan.End()
}

func (r *mysqlAdRepository) CreateAd(ctx context.Context, ad *domain.Ad) (*domain.Ad, error) {
	ctx, span := r.tracer.Start(ctx, "Repository CreateAd")
	defer span.End()

	span.SetAttributes(
		attribute.String("ad.name", ad.Name),
		attribute.String("ad.type", string(ad.Type)),
		attribute.Float64("ad.price", ad.Price),
	)

	startTime := time.Now()
	status := "success"

	defer func() {
		r.metrics.Observe(backendMySQL, "CreateAd", status, startTime)
	}()

	images, details, err := encodeAd(ad)
	if err != nil {
		status = "error"
		span.RecordError(err)
		return nil, err
	}

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO ads (name, description, location, type, price, image_url, images, details, user_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		ad.Name, ad.Description, ad.Location, string(ad.Type), ad.Price, ad.ImageURL, images, details, ad.UserID, ad.CreatedAt, ad.UpdatedAt)
	if err != nil {
		status = "error"
		span.RecordError(err)
		return nil, fmt.Errorf("failed to insert ad: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		status = "error"
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	created := ad.Clone()
	created.ID = id

	r.invalidate(ctx, cache.OwnerAdsKey(ad.UserID))

	return created, nil
}

func (r *mysqlAdRepository) GetAdByID(ctx context.Context, id int64) (*domain.Ad, error) {
	ctx, span := r.tracer.Start(ctx, "Repository GetAdByID")
	defer span.End()

	span.SetAttributes(attribute.Int64("ad.id", id))

	startTime := time.Now()
	status := "success"

	defer func() {
		r.metrics.Observe(backendMySQL, "GetAdByID", status, startTime)
	}()

	cacheSpanCtx, cacheSpan := r.tracer.Start(ctx, "Redis Get")
	cachedAd, err := r.cache.Get(cacheSpanCtx, cache.AdKey(id))
	cacheSpan.End()

	if err == nil {
		var ad domain.Ad
		if err := json.Unmarshal([]byte(cachedAd), &ad); err == nil {
			status = "cache_hit"
			return &ad, nil
		}
	}

	row := r.db.QueryRowContext(ctx, "SELECT "+adColumns+" FROM ads WHERE id = ?", id)
	ad, err := scanAd(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			status = "not_found"
			return nil, ErrNotFound
		}
		status = "error"
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get ad: %w", err)
	}

	r.cacheAd(ctx, ad)

	return ad, nil
}

func (r *mysqlAdRepository) GetAllAds(ctx context.Context) ([]*domain.Ad, error) {
	ctx, span := r.tracer.Start(ctx, "Repository GetAllAds")
	defer span.End()

	startTime := time.Now()
	status := "success"

	defer func() {
		r.metrics.Observe(backendMySQL, "GetAllAds", status, startTime)
	}()

	ads, err := r.queryAds(ctx, "SELECT "+adColumns+" FROM ads ORDER BY id")
	if err != nil {
		status = "error"
		span.RecordError(err)
		return nil, err
	}
	return ads, nil
}

func (r *mysqlAdRepository) GetAdsByUser(ctx context.Context, userID string) ([]*domain.Ad, error) {
	ctx, span := r.tracer.Start(ctx, "Repository GetAdsByUser")
	defer span.End()

	span.SetAttributes(attribute.String("user.id", userID))

	startTime := time.Now()
	status := "success"

	defer func() {
		r.metrics.Observe(backendMySQL, "GetAdsByUser", status, startTime)
	}()

	cacheKey := cache.OwnerAdsKey(userID)

	cacheSpanCtx, cacheSpan := r.tracer.Start(ctx, "Redis Get")
	cachedAds, err := r.cache.Get(cacheSpanCtx, cacheKey)
	cacheSpan.End()

	if err == nil {
		var ads []*domain.Ad
		if err := json.Unmarshal([]byte(cachedAds), &ads); err == nil {
			status = "cache_hit"
			return ads, nil
		}
	}

	ads, err := r.queryAds(ctx, "SELECT "+adColumns+" FROM ads WHERE user_id = ? ORDER BY id", userID)
	if err != nil {
		status = "error"
		span.RecordError(err)
		return nil, err
	}

	if adsJSON, err := json.Marshal(ads); err == nil {
		cacheSpanCtx, cacheSpan := r.tracer.Start(ctx, "Redis Set")
		r.cache.Set(cacheSpanCtx, cacheKey, string(adsJSON), r.cacheTTL)
		cacheSpan.End()
	}

	return ads, nil
}

func (r *mysqlAdRepository) queryAds(ctx context.Context, query string, args ...any) ([]*domain.Ad, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve ads: %w", err)
	}
	defer rows.Close()

	ads := []*domain.Ad{}
	for rows.Next() {
		ad, err := scanAd(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ad: %w", err)
		}
		ads = append(ads, ad)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return ads, nil
}

func (r *mysqlAdRepository) UpdateAd(ctx context.Context, ad *domain.Ad) (*domain.Ad, error) {
	ctx, span := r.tracer.Start(ctx, "Repository UpdateAd")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("ad.id", ad.ID),
		attribute.String("ad.name", ad.Name),
		attribute.Float64("ad.price", ad.Price),
	)

	startTime := time.Now()
	status := "success"

	defer func() {
		r.metrics.Observe(backendMySQL, "UpdateAd", status, startTime)
	}()

	images, details, err := encodeAd(ad)
	if err != nil {
		status = "error"
		span.RecordError(err)
		return nil, err
	}

	query := `
		UPDATE ads
		SET name = ?, description = ?, location = ?, type = ?, price = ?, image_url = ?, images = ?, details = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		ad.Name, ad.Description, ad.Location, string(ad.Type), ad.Price, ad.ImageURL, images, details, ad.UpdatedAt, ad.ID)
	if err != nil {
		status = "error"
		span.RecordError(err)
		return nil, fmt.Errorf("failed to update ad: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		status = "error"
		span.RecordError(err)
		return nil, fmt.Errorf("failed to retrieve rows affected: %w", err)
	}

	if rowsAffected == 0 {
		status = "not_found"
		return nil, ErrNotFound
	}

	r.invalidate(ctx, cache.OwnerAdsKey(ad.UserID))
	r.cacheAd(ctx, ad)

	return ad.Clone(), nil
}

func (r *mysqlAdRepository) DeleteAd(ctx context.Context, id int64) error {
	ctx, span := r.tracer.Start(ctx, "Repository DeleteAd")
	defer span.End()

	span.SetAttributes(attribute.Int64("ad.id", id))

	startTime := time.Now()
	status := "success"

	defer func() {
		r.metrics.Observe(backendMySQL, "DeleteAd", status, startTime)
	}()

	var owner string
	err := r.db.QueryRowContext(ctx, "SELECT user_id FROM ads WHERE id = ?", id).Scan(&owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			status = "not_found"
			return ErrNotFound
		}
		status = "error"
		span.RecordError(err)
		return fmt.Errorf("failed to look up ad owner: %w", err)
	}

	result, err := r.db.ExecContext(ctx, "DELETE FROM ads WHERE id = ?", id)
	if err != nil {
		status = "error"
		span.RecordError(err)
		return fmt.Errorf("failed to delete ad: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		status = "error"
		span.RecordError(err)
		return fmt.Errorf("failed to retrieve rows affected: %w", err)
	}

	if rowsAffected == 0 {
		status = "not_found"
		return ErrNotFound
	}

	r.invalidate(ctx, cache.AdKey(id), cache.OwnerAdsKey(owner))

	return nil
}

func (r *mysqlAdRepository) CountAds(ctx context.Context) (int, error) {
	ctx, span := r.tracer.Start(ctx, "Repository CountAds")
	defer span.End()

	startTime := time.Now()
	status := "success"

	defer func() {
		r.metrics.Observe(backendMySQL, "CountAds", status, startTime)
	}()

	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ads").Scan(&count)
	if err != nil {
		status = "error"
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count ads: %w", err)
	}
	return count, nil
}
