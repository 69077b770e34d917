package subscription

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

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

func seedWaitlist(t *testing.T, db *gorm.DB, slug string) *models.Waitlist {
	t.Helper()

	owner := &models.User{Email: slug + "@owner.test", Password: "hash"}
	require.NoError(t, db.Create(owner).Error)

	w := &models.Waitlist{
		UserID:          owner.ID,
		Slug:            slug,
		Title:           slug,
		Headline:        slug,
		Theme:           "dark-modern",
		PrimaryColor:    "#000000",
		BackgroundColor: "#ffffff",
	}
	require.NoError(t, db.Create(w).Error)
	return w
}

func TestSubscriptionRepository_Enroll(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns consecutive positions", func(t *testing.T) {
		db := openTestDB(t)
		repo := NewSubscriptionRepository(db)
		w := seedWaitlist(t, db, "acme-app")

		first, err := repo.Enroll(ctx, &models.Subscriber{WaitlistID: w.ID, Email: "a@x.com"})
		require.NoError(t, err)
		assert.Equal(t, 1, first.Subscriber.Position)
		assert.Equal(t, "acme-app", first.WaitlistSlug)

		second, err := repo.Enroll(ctx, &models.Subscriber{WaitlistID: w.ID, Email: "b@x.com"})
		require.NoError(t, err)
		assert.Equal(t, 2, second.Subscriber.Position)
	})

	t.Run("rejects a duplicate email without consuming a position", func(t *testing.T) {
		db := openTestDB(t)
		repo := NewSubscriptionRepository(db)
		w := seedWaitlist(t, db, "dupes")

		_, err := repo.Enroll(ctx, &models.Subscriber{WaitlistID: w.ID, Email: "a@x.com"})
		require.NoError(t, err)

		_, err = repo.Enroll(ctx, &models.Subscriber{WaitlistID: w.ID, Email: "a@x.com"})
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
		assert.Equal(t, MessageAlreadySubscribed, apperrors.GetHumanReadableMessage(err))

		next, err := repo.Enroll(ctx, &models.Subscriber{WaitlistID: w.ID, Email: "c@x.com"})
		require.NoError(t, err)
		assert.Equal(t, 2, next.Subscriber.Position)
	})

	t.Run("positions are counted per waitlist", func(t *testing.T) {
		db := openTestDB(t)
		repo := NewSubscriptionRepository(db)
		a := seedWaitlist(t, db, "first")
		b := seedWaitlist(t, db, "second")

		_, err := repo.Enroll(ctx, &models.Subscriber{WaitlistID: a.ID, Email: "a@x.com"})
		require.NoError(t, err)

		other, err := repo.Enroll(ctx, &models.Subscriber{WaitlistID: b.ID, Email: "a@x.com"})
		require.NoError(t, err)
		assert.Equal(t, 1, other.Subscriber.Position)
	})

	t.Run("unknown waitlist is not found", func(t *testing.T) {
		repo := NewSubscriptionRepository(openTestDB(t))

		_, err := repo.Enroll(ctx, &models.Subscriber{WaitlistID: uuid.NewString(), Email: "a@x.com"})
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})

	t.Run("stores optional fields and custom data", func(t *testing.T) {
		db := openTestDB(t)
		repo := NewSubscriptionRepository(db)
		w := seedWaitlist(t, db, "extras")
		name := "Ada"

		_, err := repo.Enroll(ctx, &models.Subscriber{
			WaitlistID: w.ID,
			Email:      "ada@x.com",
			Name:       &name,
			CustomData: map[string]any{"role": "cto"},
		})
		require.NoError(t, err)

		var stored models.Subscriber
		require.NoError(t, db.Where("email = ?", "ada@x.com").Take(&stored).Error)
		require.NotNil(t, stored.Name)
		assert.Equal(t, "Ada", *stored.Name)
		assert.Nil(t, stored.Company)
		assert.Equal(t, "cto", stored.CustomData["role"])
	})
}

func TestSubscriptionRepository_ConcurrentEnrollments(t *testing.T) {
	db := openTestDB(t)
	repo := NewSubscriptionRepository(db)
	w := seedWaitlist(t, db, "rush")

	const n = 12
	positions := make([]int, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			enrollment, err := repo.Enroll(context.Background(), &models.Subscriber{
				WaitlistID: w.ID,
				Email:      fmt.Sprintf("user%d@x.com", i),
			})
			errs[i] = err
			if err == nil {
				positions[i] = enrollment.Subscriber.Position
			}
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	sort.Ints(positions)
	for i, p := range positions {
		assert.Equal(t, i+1, p)
	}
}
