package adclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"classifieds/internal/delivery/router"
	"classifieds/internal/delivery/schema"
	"classifieds/internal/domain"
	"classifieds/internal/repository"
	"classifieds/internal/service"
	"classifieds/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, owners ...string) *Client {
	t.Helper()

	userRepo := repository.NewMemoryUserRepository(nil)
	for _, id := range owners {
		_, err := userRepo.CreateUser(context.Background(), &domain.User{ID: id, Username: id, Email: id + "@example.com"})
		require.NoError(t, err)
	}
	users := service.NewUserService(userRepo, nil)
	ads := service.NewAdService(repository.NewMemoryAdRepository(nil), users, nil)

	loggers := logger.Discard()
	r := router.NewRouter(loggers, nil, 0)
	router.SetupAdRoutes(r, ads, schema.MustNew(), loggers, nil)
	router.SetupUserRoutes(r, users, loggers, nil)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", WithHTTPClient(srv.Client()))
}

func newAuto(owner string) *domain.Ad {
	return &domain.Ad{
		Name:        "Golf",
		Description: "Clean",
		Location:    "Riga",
		Type:        domain.CategoryAuto,
		Price:       9000,
		UserID:      owner,
		AutoDetails: &domain.AutoDetails{Brand: "VW", Model: "Golf", Year: 2015, Mileage: 90000},
	}
}

func TestClientRoundTrip(t *testing.T) {
	c := newStore(t, "u1", "u2")
	ctx := context.Background()

	created, err := c.Create(ctx, newAuto("u1"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "VW", created.Brand)

	got, err := c.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Golf", got.Name)

	list, err := c.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	owned, err := c.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, owned.Ads, 1)

	empty, err := c.ListByOwner(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, empty.Ads)
	assert.NotEmpty(t, empty.Message)

	updated, err := c.Update(ctx, created.ID, "u1", map[string]any{"price": 8500, "color": "red"})
	require.NoError(t, err)
	assert.Equal(t, 8500.0, updated.Price)
	assert.Equal(t, "red", updated.Color)

	require.NoError(t, c.Delete(ctx, created.ID, "u1"))

	_, err = c.Get(ctx, created.ID)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "ad not found", apiErr.Message)
}

func TestClientSurfacesStoreErrors(t *testing.T) {
	c := newStore(t, "u1", "u2")
	ctx := context.Background()

	bad := newAuto("u1")
	bad.Brand = ""
	_, err := c.Create(ctx, bad)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "brand")

	created, err := c.Create(ctx, newAuto("u1"))
	require.NoError(t, err)

	_, err = c.Update(ctx, created.ID, "u2", map[string]any{"price": 1})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)

	err = c.Delete(ctx, created.ID, "u2")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
}

func TestClientCheckUser(t *testing.T) {
	c := newStore(t, "u1")
	ctx := context.Background()

	ok, err := c.CheckUser(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.CheckUser(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAPIErrorPlainText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).List(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream exploded", apiErr.Message)
	assert.Contains(t, err.Error(), "502")
}
