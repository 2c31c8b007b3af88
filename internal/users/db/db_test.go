package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	userdb "ms-scanner/internal/users/db"
	"ms-scanner/internal/models"
)

func setupTestDB(t *testing.T) *userdb.DB {
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	if err := bunDB.ResetModel(ctx, (*models.User)(nil)); err != nil {
		t.Fatalf("failed to reset users table: %v", err)
	}

	t.Cleanup(func() { bunDB.Close() })
	return &userdb.DB{Bun: bunDB}
}

func seedUser(t *testing.T, store *userdb.DB, name, email, phone, badge string) *models.User {
	user := &models.User{
		Name:      name,
		Email:     email,
		Phone:     phone,
		BadgeCode: badge,
		UpdatedAt: time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC),
	}
	if err := store.CreateUser(user); err != nil {
		t.Fatalf("failed to seed user %s: %v", email, err)
	}
	return user
}

func TestCreateUserAssignsID(t *testing.T) {
	store := setupTestDB(t)

	user := seedUser(t, store, "John Doe", "john@example.com", "1112223333", "give-seven-food-trade")

	assert.NotZero(t, user.ID)

	fetched, err := store.GetUserByID(user.ID)
	assert.NoError(t, err)
	assert.Equal(t, "John Doe", fetched.Name)
	assert.Equal(t, "give-seven-food-trade", fetched.BadgeCode)
}

func TestGetUserByIDNotFound(t *testing.T) {
	store := setupTestDB(t)

	user, err := store.GetUserByID(999)

	assert.Nil(t, user)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	store := setupTestDB(t)

	seedUser(t, store, "First", "dup@example.com", "1112223333", "badge-one")

	err := store.CreateUser(&models.User{
		Name:      "Second",
		Email:     "dup@example.com",
		Phone:     "4445556666",
		BadgeCode: "badge-two",
	})

	assert.Error(t, err)
}

func TestListUsersOrdered(t *testing.T) {
	store := setupTestDB(t)

	seedUser(t, store, "Alice", "alice@example.com", "1110000000", "badge-alice")
	seedUser(t, store, "Bob", "bob@example.com", "2220000000", "badge-bob")
	seedUser(t, store, "Carol", "carol@example.com", "3330000000", "badge-carol")

	users, err := store.ListUsers()

	assert.NoError(t, err)
	assert.Equal(t, 3, len(users))
	assert.Equal(t, "Alice", users[0].Name)
	assert.Equal(t, "Bob", users[1].Name)
	assert.Equal(t, "Carol", users[2].Name)
}

func TestUpdateUserOnlyNamedColumns(t *testing.T) {
	store := setupTestDB(t)

	user := seedUser(t, store, "Before", "before@example.com", "1112223333", "badge-before")

	user.Name = "After"
	user.Email = "should-not-persist@example.com"
	user.UpdatedAt = time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)

	err := store.UpdateUser(*user, []string{"updated_at", "name"})
	assert.NoError(t, err)

	fetched, err := store.GetUserByID(user.ID)
	assert.NoError(t, err)
	assert.Equal(t, "After", fetched.Name)
	// Email was not in the column list, so the old value survives
	assert.Equal(t, "before@example.com", fetched.Email)
	assert.Equal(t, time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC), fetched.UpdatedAt.UTC())
}
