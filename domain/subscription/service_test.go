package subscription

import (
	"context"
	"testing"

	"github.com/akeren/waitlist-foundry/internal/log"
	"github.com/akeren/waitlist-foundry/internal/models"
	apperrors "github.com/akeren/waitlist-foundry/pkg/errors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const waitlistID = "0b6f4b9e-8f7c-4d38-9a51-3c2f0d9c1e11"

type recordingInvalidator struct {
	slugs []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, slugs ...string) {
	r.slugs = append(r.slugs, slugs...)
}

func strPtr(s string) *string { return &s }

func newService(t *testing.T) (*MockSubscriptionRepository, *recordingInvalidator, *Metrics, SubscriptionService) {
	ctrl := gomock.NewController(t)
	repo := NewMockSubscriptionRepository(ctrl)
	inv := &recordingInvalidator{}
	metrics := NewMetrics(prometheus.NewRegistry())
	return repo, inv, metrics, NewSubscriptionService(log.NewLoggerWithJSONOutput(), repo, inv, metrics)
}

func TestSubscriptionService_Subscribe(t *testing.T) {
	t.Run("trims the email and returns the position", func(t *testing.T) {
		repo, inv, metrics, service := newService(t)

		repo.EXPECT().
			Enroll(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, s *models.Subscriber) (*Enrollment, error) {
				assert.Equal(t, "A@X.com", s.Email, "submitted casing is kept")
				assert.Equal(t, waitlistID, s.WaitlistID)
				require.NotNil(t, s.Name)
				assert.Equal(t, "Ada", *s.Name)
				assert.Nil(t, s.Company, "blank company is stored as null")
				s.Position = 3
				return &Enrollment{Subscriber: s, WaitlistSlug: "acme-app"}, nil
			})

		result, err := service.Subscribe(context.Background(), &SubscribeRequest{
			WaitlistID: waitlistID,
			Email:      "  A@X.com ",
			Name:       strPtr(" Ada "),
			Company:    strPtr("   "),
		})

		require.NoError(t, err)
		assert.Equal(t, 3, result.Position)
		assert.Equal(t, MessageSubscribed, result.Message)
		assert.Equal(t, []string{"acme-app"}, inv.slugs)
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.subscriptions.WithLabelValues(resultCreated)))
	})

	t.Run("missing fields", func(t *testing.T) {
		_, _, metrics, service := newService(t)

		for _, req := range []*SubscribeRequest{
			nil,
			{Email: "a@x.com"},
			{WaitlistID: waitlistID, Email: "   "},
		} {
			_, err := service.Subscribe(context.Background(), req)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidRequest))
			assert.Equal(t, MessageFieldsMissing, apperrors.GetHumanReadableMessage(err))
		}
		assert.Equal(t, 3.0, testutil.ToFloat64(metrics.subscriptions.WithLabelValues(resultInvalid)))
	})

	t.Run("email format is not a precondition", func(t *testing.T) {
		repo, _, _, service := newService(t)

		repo.EXPECT().
			Enroll(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, s *models.Subscriber) (*Enrollment, error) {
				assert.Equal(t, "bob", s.Email)
				s.Position = 1
				return &Enrollment{Subscriber: s, WaitlistSlug: "acme-app"}, nil
			})

		result, err := service.Subscribe(context.Background(), &SubscribeRequest{WaitlistID: waitlistID, Email: "bob"})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Position)
	})

	t.Run("unknown waitlist wins over any email content", func(t *testing.T) {
		repo, _, _, service := newService(t)

		repo.EXPECT().
			Enroll(gomock.Any(), gomock.Any()).
			Return(nil, apperrors.NewNotFoundError(MessageWaitlistNotFound, nil))

		_, err := service.Subscribe(context.Background(), &SubscribeRequest{WaitlistID: uuid.Nil.String(), Email: "bob"})
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})

	t.Run("non uuid waitlist id is not found", func(t *testing.T) {
		_, _, metrics, service := newService(t)

		_, err := service.Subscribe(context.Background(), &SubscribeRequest{WaitlistID: "nope", Email: "a@x.com"})
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.subscriptions.WithLabelValues(resultNotFound)))
	})

	t.Run("duplicate does not invalidate", func(t *testing.T) {
		repo, inv, metrics, service := newService(t)

		repo.EXPECT().
			Enroll(gomock.Any(), gomock.Any()).
			Return(nil, apperrors.NewConflictError(MessageAlreadySubscribed, nil))

		_, err := service.Subscribe(context.Background(), &SubscribeRequest{WaitlistID: waitlistID, Email: "a@x.com"})
		require.Error(t, err)
		assert.Equal(t, 400, apperrors.HTTPStatusCode(err))
		assert.Empty(t, inv.slugs)
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.subscriptions.WithLabelValues(resultDuplicate)))
	})
}

func TestResultLabel(t *testing.T) {
	assert.Equal(t, resultCreated, resultLabel(nil))
	assert.Equal(t, resultError, resultLabel(apperrors.NewDatabaseError("boom", nil)))
}
