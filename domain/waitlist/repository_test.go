package waitlist

import (
	"context"
	"testing"
	"time"

	"github.com/akeren/waitlist-foundry/internal/models"
	apperrors "github.com/akeren/waitlist-foundry/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.ModelRegistry...))
	return db
}

func seedOwner(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, Password: "hash"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedWaitlist(t *testing.T, db *gorm.DB, ownerID, slug string, createdAt time.Time, subscribers int) *models.Waitlist {
	t.Helper()

	w := &models.Waitlist{
		UserID:          ownerID,
		Slug:            slug,
		Title:           slug,
		Headline:        slug,
		Theme:           "dark-modern",
		PrimaryColor:    "#000000",
		BackgroundColor: "#ffffff",
		CreatedAt:       createdAt,
	}
	require.NoError(t, db.Create(w).Error)

	for i := 1; i <= subscribers; i++ {
		sub := &models.Subscriber{
			WaitlistID: w.ID,
			Email:      uuid.NewString() + "@example.com",
			Position:   i,
			CreatedAt:  createdAt.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(sub).Error)
	}
	return w
}

func TestWaitlistRepository_ListByOwner(t *testing.T) {
	db := openTestDB(t)
	repo := NewWaitlistRepository(db)
	ctx := context.Background()

	owner := seedOwner(t, db, "owner@example.com")
	other := seedOwner(t, db, "other@example.com")

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	older := seedWaitlist(t, db, owner.ID, "older", base, 3)
	newer := seedWaitlist(t, db, owner.ID, "newer", base.Add(time.Hour), 0)
	seedWaitlist(t, db, other.ID, "foreign", base, 1)

	rows, err := repo.ListByOwner(ctx, owner.ID)

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, newer.ID, rows[0].ID)
	assert.Equal(t, int64(0), rows[0].SubscriberCount)
	assert.Equal(t, older.ID, rows[1].ID)
	assert.Equal(t, int64(3), rows[1].SubscriberCount)
}

func TestWaitlistRepository_FindOwned(t *testing.T) {
	db := openTestDB(t)
	repo := NewWaitlistRepository(db)
	ctx := context.Background()

	owner := seedOwner(t, db, "owner@example.com")
	other := seedOwner(t, db, "other@example.com")
	w := seedWaitlist(t, db, owner.ID, "launch", time.Now(), 2)

	row, err := repo.FindOwned(ctx, w.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "launch", row.Slug)
	assert.Equal(t, int64(2), row.SubscriberCount)

	_, err = repo.FindOwned(ctx, w.ID, other.ID)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestWaitlistRepository_SlugTaken(t *testing.T) {
	db := openTestDB(t)
	repo := NewWaitlistRepository(db)
	ctx := context.Background()

	owner := seedOwner(t, db, "owner@example.com")
	w := seedWaitlist(t, db, owner.ID, "launch", time.Now(), 0)

	taken, err := repo.SlugTaken(ctx, "launch", "")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.SlugTaken(ctx, "launch", w.ID)
	require.NoError(t, err)
	assert.False(t, taken, "a waitlist never conflicts with itself")

	taken, err = repo.SlugTaken(ctx, "free", "")
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestWaitlistRepository_CreateDuplicateSlug(t *testing.T) {
	db := openTestDB(t)
	repo := NewWaitlistRepository(db)

	owner := seedOwner(t, db, "owner@example.com")
	seedWaitlist(t, db, owner.ID, "launch", time.Now(), 0)

	_, err := repo.Create(context.Background(), &models.Waitlist{
		UserID: owner.ID, Slug: "launch", Title: "Again", Headline: "Again",
	})

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
	assert.Equal(t, MessageSlugTaken, apperrors.GetHumanReadableMessage(err))
}

func TestWaitlistRepository_Update(t *testing.T) {
	db := openTestDB(t)
	repo := NewWaitlistRepository(db)
	ctx := context.Background()

	owner := seedOwner(t, db, "owner@example.com")
	w := seedWaitlist(t, db, owner.ID, "launch", time.Now(), 0)
	seedWaitlist(t, db, owner.ID, "taken", time.Now(), 0)

	require.NoError(t, repo.Update(ctx, w.ID, owner.ID, map[string]any{
		"title":          "Renamed",
		"countdown_date": (*time.Time)(nil),
	}))

	var reloaded models.Waitlist
	require.NoError(t, db.First(&reloaded, "id = ?", w.ID).Error)
	assert.Equal(t, "Renamed", reloaded.Title)
	assert.Nil(t, reloaded.CountdownDate)

	err := repo.Update(ctx, w.ID, owner.ID, map[string]any{"slug": "taken"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))

	err = repo.Update(ctx, w.ID, "someone-else", map[string]any{"title": "x"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestWaitlistRepository_DeleteCascadesSubscribers(t *testing.T) {
	db := openTestDB(t)
	repo := NewWaitlistRepository(db)
	ctx := context.Background()

	owner := seedOwner(t, db, "owner@example.com")
	w := seedWaitlist(t, db, owner.ID, "launch", time.Now(), 4)
	kept := seedWaitlist(t, db, owner.ID, "kept", time.Now(), 1)

	err := repo.Delete(ctx, w.ID, "someone-else")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))

	require.NoError(t, repo.Delete(ctx, w.ID, owner.ID))

	var orphans int64
	require.NoError(t, db.Model(&models.Subscriber{}).Where("waitlist_id = ?", w.ID).Count(&orphans).Error)
	assert.Zero(t, orphans)

	var remaining int64
	require.NoError(t, db.Model(&models.Subscriber{}).Where("waitlist_id = ?", kept.ID).Count(&remaining).Error)
	assert.Equal(t, int64(1), remaining)
}

func TestWaitlistRepository_ListSubscribersOldestFirst(t *testing.T) {
	db := openTestDB(t)
	repo := NewWaitlistRepository(db)

	owner := seedOwner(t, db, "owner@example.com")
	w := seedWaitlist(t, db, owner.ID, "launch", time.Now(), 3)

	subs, err := repo.ListSubscribers(context.Background(), w.ID)

	require.NoError(t, err)
	require.Len(t, subs, 3)
	for i, s := range subs {
		assert.Equal(t, i+1, s.Position)
	}
}
