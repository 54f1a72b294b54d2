package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"classifieds/internal/domain"
	"classifieds/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	ads      AdService
	users    UserService
	adRepo   repository.AdRepository
	userRepo repository.UserRepository
}

func newFixture(t *testing.T, owners ...string) fixture {
	t.Helper()

	adRepo := repository.NewMemoryAdRepository(nil)
	userRepo := repository.NewMemoryUserRepository(nil)
	for _, id := range owners {
		_, err := userRepo.CreateUser(context.Background(), &domain.User{ID: id, Username: id, Email: id + "@example.com"})
		require.NoError(t, err)
	}

	users := NewUserService(userRepo, nil)
	users.(*userService).hashCost = bcrypt.MinCost

	return fixture{
		ads:      NewAdService(adRepo, users, nil),
		users:    users,
		adRepo:   adRepo,
		userRepo: userRepo,
	}
}

func flat(owner string) *domain.Ad {
	return &domain.Ad{
		Name:              "Flat",
		Description:       "Nice",
		Location:          "Moscow",
		Type:              domain.CategoryRealEstate,
		Price:             1000,
		UserID:            owner,
		RealEstateDetails: &domain.RealEstateDetails{PropertyType: "Apartment", Area: 50, Rooms: 2},
	}
}

func TestCreateAdExampleScenario(t *testing.T) {
	f := newFixture(t, "u1")

	created, err := f.ads.CreateAd(context.Background(), flat("u1"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, 1000.0, created.Price)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	owner, err := f.userRepo.GetUserByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, owner.AdIDs)
}

func TestCreateAdAssignsUniqueIDs(t *testing.T) {
	f := newFixture(t, "u1")
	ctx := context.Background()

	seen := map[int64]bool{}
	for i := 0; i < 5; i++ {
		ad, err := f.ads.CreateAd(ctx, flat("u1"))
		require.NoError(t, err)
		assert.False(t, seen[ad.ID])
		seen[ad.ID] = true
	}
}

func TestCreateAdIgnoresClientID(t *testing.T) {
	f := newFixture(t, "u1")
	ad := flat("u1")
	ad.ID = 77

	created, err := f.ads.CreateAd(context.Background(), ad)
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
}

func TestCreateAdValidation(t *testing.T) {
	f := newFixture(t, "u1")
	ctx := context.Background()

	t.Run("missing rooms names the field", func(t *testing.T) {
		ad := flat("u1")
		ad.Rooms = 0

		_, err := f.ads.CreateAd(ctx, ad)
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "rooms", verr.Errors[0].Field)
		assert.Contains(t, err.Error(), "rooms")
	})

	t.Run("missing common field comes first", func(t *testing.T) {
		ad := flat("u1")
		ad.Name = ""
		ad.Rooms = 0

		_, err := f.ads.CreateAd(ctx, ad)
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "name", verr.Errors[0].Field)
	})

	t.Run("unknown owner", func(t *testing.T) {
		_, err := f.ads.CreateAd(ctx, flat("ghost"))
		assert.ErrorIs(t, err, ErrInvalidUser)
	})

	t.Run("unknown type", func(t *testing.T) {
		ad := flat("u1")
		ad.Type = "Одежда"

		_, err := f.ads.CreateAd(ctx, ad)
		assert.ErrorIs(t, err, ErrInvalidType)
	})

	t.Run("too many images", func(t *testing.T) {
		ad := flat("u1")
		ad.Images = []string{"1", "2", "3", "4", "5", "6"}

		_, err := f.ads.CreateAd(ctx, ad)
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "images", verr.Errors[0].Field)
	})

	count, err := f.adRepo.CountAds(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "rejected ads are not stored")
}

func TestGetAdByID(t *testing.T) {
	f := newFixture(t, "u1")
	ctx := context.Background()

	_, err := f.ads.GetAdByID(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = f.ads.GetAdByID(ctx, 9)
	assert.ErrorIs(t, err, ErrAdNotFound)

	created, err := f.ads.CreateAd(ctx, flat("u1"))
	require.NoError(t, err)

	got, err := f.ads.GetAdByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Flat", got.Name)
	assert.Equal(t, 2, got.Rooms)
}

func TestGetAdsByOwner(t *testing.T) {
	f := newFixture(t, "u1", "u2")
	ctx := context.Background()

	empty, err := f.ads.GetAdsByOwner(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, empty.Ads)
	assert.Equal(t, NoAdsMessage, empty.Message)

	_, err = f.ads.CreateAd(ctx, flat("u1"))
	require.NoError(t, err)

	mine, err := f.ads.GetAdsByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, mine.Ads, 1)
	assert.Empty(t, mine.Message)
}

func patchOf(t *testing.T, v map[string]any) domain.Patch {
	t.Helper()

	patch := domain.Patch{}
	for k, val := range v {
		raw, err := json.Marshal(val)
		require.NoError(t, err)
		patch[k] = raw
	}
	return patch
}

func TestUpdateAd(t *testing.T) {
	f := newFixture(t, "u1", "u2")
	ctx := context.Background()

	created, err := f.ads.CreateAd(ctx, flat("u1"))
	require.NoError(t, err)

	later := created.CreatedAt.Add(time.Hour)
	f.ads.(*adService).now = func() time.Time { return later }

	t.Run("owner updates price", func(t *testing.T) {
		updated, err := f.ads.UpdateAd(ctx, created.ID, "u1", patchOf(t, map[string]any{"price": 1500}))
		require.NoError(t, err)
		assert.Equal(t, 1500.0, updated.Price)
		assert.Equal(t, "Flat", updated.Name)
		assert.Equal(t, later, updated.UpdatedAt)
		assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	})

	t.Run("protected fields are kept", func(t *testing.T) {
		updated, err := f.ads.UpdateAd(ctx, created.ID, "u1", patchOf(t, map[string]any{"id": 99, "userId": "u2"}))
		require.NoError(t, err)
		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, "u1", updated.UserID)
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		_, err := f.ads.UpdateAd(ctx, created.ID, "u2", patchOf(t, map[string]any{"price": 1}))
		assert.ErrorIs(t, err, ErrForbidden)

		got, err := f.ads.GetAdByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, 1500.0, got.Price)
	})

	t.Run("missing user id", func(t *testing.T) {
		_, err := f.ads.UpdateAd(ctx, created.ID, "", patchOf(t, map[string]any{"price": 1}))
		assert.ErrorIs(t, err, ErrMissingUserID)
	})

	t.Run("unknown ad", func(t *testing.T) {
		_, err := f.ads.UpdateAd(ctx, 404, "u1", patchOf(t, map[string]any{"price": 1}))
		assert.ErrorIs(t, err, ErrAdNotFound)
	})

	t.Run("clearing a required field is rejected", func(t *testing.T) {
		_, err := f.ads.UpdateAd(ctx, created.ID, "u1", domain.Patch{"rooms": json.RawMessage("null")})
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "rooms", verr.Errors[0].Field)
	})

	t.Run("type change requires the new category fields", func(t *testing.T) {
		_, err := f.ads.UpdateAd(ctx, created.ID, "u1", patchOf(t, map[string]any{"type": "Авто", "brand": "VW"}))
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, domain.CategoryAuto, verr.Errors[0].Category)

		updated, err := f.ads.UpdateAd(ctx, created.ID, "u1", patchOf(t, map[string]any{
			"type": "Авто", "brand": "VW", "model": "Golf", "year": 2015, "mileage": 90000,
		}))
		require.NoError(t, err)
		require.NotNil(t, updated.AutoDetails)
		assert.Nil(t, updated.RealEstateDetails)
	})
}

func TestDeleteAd(t *testing.T) {
	f := newFixture(t, "u1", "u2")
	ctx := context.Background()

	created, err := f.ads.CreateAd(ctx, flat("u1"))
	require.NoError(t, err)

	assert.ErrorIs(t, f.ads.DeleteAd(ctx, created.ID, "u2"), ErrForbidden)
	_, err = f.ads.GetAdByID(ctx, created.ID)
	require.NoError(t, err, "forbidden delete leaves the ad in place")

	require.NoError(t, f.ads.DeleteAd(ctx, created.ID, "u1"))

	_, err = f.ads.GetAdByID(ctx, created.ID)
	assert.ErrorIs(t, err, ErrAdNotFound)

	owner, err := f.userRepo.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, owner.AdIDs)

	assert.ErrorIs(t, f.ads.DeleteAd(ctx, created.ID, "u1"), ErrAdNotFound)
}

func TestDeleteAdOfRemovedOwner(t *testing.T) {
	f := newFixture(t, "u1")
	ctx := context.Background()

	created, err := f.ads.CreateAd(ctx, flat("u1"))
	require.NoError(t, err)
	require.NoError(t, f.users.DeleteUser(ctx, "u1"))

	assert.NoError(t, f.ads.DeleteAd(ctx, created.ID, "u1"))
}
