package repository

import (
	"context"
	"sync"
	"testing"

	"classifieds/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServicesAd(owner string) *domain.Ad {
	return &domain.Ad{
		Name:            "Massage",
		Description:     "Relaxing",
		Location:        "Minsk",
		Type:            domain.CategoryServices,
		UserID:          owner,
		ServicesDetails: &domain.ServicesDetails{ServiceType: "Массаж", Experience: 2, Cost: 50},
	}
}

func TestMemoryAdRepositoryAssignsIncreasingIDs(t *testing.T) {
	repo := NewMemoryAdRepository(nil)
	ctx := context.Background()

	first, err := repo.CreateAd(ctx, newServicesAd("u1"))
	require.NoError(t, err)
	second, err := repo.CreateAd(ctx, newServicesAd("u1"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
}

func TestMemoryAdRepositorySeedsCounter(t *testing.T) {
	seeded := newServicesAd("u1")
	seeded.ID = 10
	repo := NewMemoryAdRepository(nil, seeded, newServicesAd("u2"))

	created, err := repo.CreateAd(context.Background(), newServicesAd("u1"))
	require.NoError(t, err)
	assert.Equal(t, int64(11), created.ID)

	count, err := repo.CountAds(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestMemoryAdRepositoryConcurrentCreatesAreUnique(t *testing.T) {
	repo := NewMemoryAdRepository(nil)
	ctx := context.Background()

	const n = 50
	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ad, err := repo.CreateAd(ctx, newServicesAd("u1"))
			if err == nil {
				ids <- ad.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[int64]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestMemoryAdRepositoryReturnsCopies(t *testing.T) {
	repo := NewMemoryAdRepository(nil)
	ctx := context.Background()

	created, err := repo.CreateAd(ctx, newServicesAd("u1"))
	require.NoError(t, err)
	created.Name = "changed"
	created.ServicesDetails.Cost = 1

	got, err := repo.GetAdByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Massage", got.Name)
	assert.Equal(t, 50.0, got.ServicesDetails.Cost)
}

func TestMemoryAdRepositoryCRUD(t *testing.T) {
	repo := NewMemoryAdRepository(nil)
	ctx := context.Background()

	a, _ := repo.CreateAd(ctx, newServicesAd("u1"))
	b, _ := repo.CreateAd(ctx, newServicesAd("u2"))

	mine, err := repo.GetAdsByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, a.ID, mine[0].ID)

	none, err := repo.GetAdsByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	b.Price = 700
	updated, err := repo.UpdateAd(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, 700.0, updated.Price)

	_, err = repo.UpdateAd(ctx, &domain.Ad{ID: 99})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.DeleteAd(ctx, a.ID))
	assert.ErrorIs(t, repo.DeleteAd(ctx, a.ID), ErrNotFound)

	_, err = repo.GetAdByID(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := repo.GetAllAds(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, b.ID, all[0].ID)
}

func TestMemoryUserRepository(t *testing.T) {
	repo := NewMemoryUserRepository(nil)
	ctx := context.Background()

	_, err := repo.CreateUser(ctx, &domain.User{ID: "u1", Username: "ann", Email: "ann@example.com"})
	require.NoError(t, err)

	_, err = repo.CreateUser(ctx, &domain.User{ID: "u2", Username: "ann2", Email: "ANN@example.com"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	require.NoError(t, repo.AddAdID(ctx, "u1", 4))
	require.NoError(t, repo.AddAdID(ctx, "u1", 4))
	require.NoError(t, repo.AddAdID(ctx, "u1", 5))
	assert.ErrorIs(t, repo.AddAdID(ctx, "ghost", 1), ErrNotFound)

	u, err := repo.GetUserByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 5}, u.AdIDs)

	require.NoError(t, repo.RemoveAdID(ctx, "u1", 4))
	u, err = repo.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, u.AdIDs)

	u.Username = "anna"
	u.AdIDs = nil
	updated, err := repo.UpdateUser(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, "anna", updated.Username)
	assert.Equal(t, []int64{5}, updated.AdIDs, "ad ids are owned by the repository")

	require.NoError(t, repo.DeleteUser(ctx, "u1"))
	_, err = repo.GetUserByID(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	users, err := repo.GetAllUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}
