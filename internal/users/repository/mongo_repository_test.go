package repository

import (
	"context"
	"testing"

	"github.com/govind-sing/farmBridge-backend/internal/domain"
	"github.com/govind-sing/farmBridge-backend/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

func setupTestDB(t *testing.T) *MongoRepository {
	if testing.Short() {
		t.Skip("skipping MongoDB container test in short mode")
	}
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := storage.ConnectMongoDB(ctx, uri, "testdb")
	require.NoError(t, err)
	return NewMongoRepository(db)
}

func TestGetUser_NotFound(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.GetUser(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpsertProfile(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	created, err := repo.UpsertProfile(ctx, &domain.User{ID: "u1", Name: "Asha", Role: domain.RoleBuyer})
	require.NoError(t, err)
	assert.Equal(t, "Asha", created.Name)
	assert.False(t, created.CreatedAt.IsZero())

	updated, err := repo.UpsertProfile(ctx, &domain.User{ID: "u1", Name: "Asha", Role: domain.RoleBuyer, Address: "12 Farm Rd"})
	require.NoError(t, err)
	assert.Equal(t, "12 Farm Rd", updated.Address)
	assert.Equal(t, created.CreatedAt.Unix(), updated.CreatedAt.Unix())

	got, err := repo.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleBuyer, got.Role)
	assert.Equal(t, "12 Farm Rd", got.Address)
}

func TestGetUsers(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	for _, u := range []*domain.User{
		{ID: "s1", Name: "Green Acres", Role: domain.RoleCommunity},
		{ID: "s2", Name: "Hill Farm", Role: domain.RoleCommunity},
	} {
		_, err := repo.UpsertProfile(ctx, u)
		require.NoError(t, err)
	}

	got, err := repo.GetUsers(ctx, []string{"s1", "s2", "ghost"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Green Acres", got["s1"].Name)
	assert.Equal(t, "Hill Farm", got["s2"].Name)

	empty, err := repo.GetUsers(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
