package waitlist

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/akeren/waitlist-foundry/internal/log"
	"github.com/akeren/waitlist-foundry/internal/models"
	"github.com/akeren/waitlist-foundry/pkg/constants"
	"github.com/akeren/waitlist-foundry/pkg/countdown"
	apperrors "github.com/akeren/waitlist-foundry/pkg/errors"
	"github.com/akeren/waitlist-foundry/pkg/logo"
	"github.com/akeren/waitlist-foundry/pkg/slug"
	"github.com/akeren/waitlist-foundry/pkg/storage"
	"github.com/akeren/waitlist-foundry/pkg/theme"
)

var exportHeader = []string{"Position", "Email", "Nom", "Entreprise", "Date d'inscription"}

// ProjectionInvalidator drops cached public pages after a write.
type ProjectionInvalidator interface {
	Invalidate(ctx context.Context, slugs ...string)
}

type WaitlistService interface {
	// List returns the owner's waitlists, newest first.
	List(ctx context.Context, ownerID string) ([]WaitlistResponse, error)

	// Create validates the slug and stores a new waitlist with defaults applied.
	Create(ctx context.Context, ownerID string, req *CreateWaitlistRequest) (*WaitlistResponse, error)

	// Get returns one owned waitlist with its subscriber count.
	Get(ctx context.Context, ownerID, id string) (*WaitlistResponse, error)

	// Update rewrites the editable fields of an owned waitlist.
	Update(ctx context.Context, ownerID, id string, req *UpdateWaitlistRequest) (*WaitlistResponse, error)

	// Delete removes an owned waitlist and all of its subscribers.
	Delete(ctx context.Context, ownerID, id string) error

	// Subscribers lists the subscribers of an owned waitlist, oldest first.
	Subscribers(ctx context.Context, ownerID, id string) ([]SubscriberResponse, error)

	// Export renders the subscribers of an owned waitlist as CSV.
	Export(ctx context.Context, ownerID, id string) (*Export, error)

	// CheckSlug reports whether candidate can be used, ignoring excludeID's own slug.
	CheckSlug(ctx context.Context, candidate, excludeID string) (*SlugAvailability, error)

	// SuggestSlug derives a slug from a title and checks it.
	SuggestSlug(ctx context.Context, title, excludeID string) (*SlugSuggestion, error)

	// Share builds the public links of an owned waitlist.
	Share(ctx context.Context, ownerID, id string) (*ShareLinks, error)
}

type waitlistService struct {
	logger        *log.Logger
	repository    WaitlistRepository
	invalidator   ProjectionInvalidator
	publicBaseURL string
}

func NewWaitlistService(
	logger *log.Logger,
	repository WaitlistRepository,
	invalidator ProjectionInvalidator,
	publicBaseURL string,
) WaitlistService {
	return &waitlistService{
		logger:        logger,
		repository:    repository,
		invalidator:   invalidator,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (s *waitlistService) List(ctx context.Context, ownerID string) ([]WaitlistResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	rows, err := s.repository.ListByOwner(ctx, ownerID)
	if err != nil {
		logger.Error("Failed to list waitlists", "owner_id", ownerID, "error", err)
		return nil, err
	}

	responses := make([]WaitlistResponse, 0, len(rows))
	for i := range rows {
		responses = append(responses, ToWaitlistResponse(&rows[i].Waitlist, rows[i].SubscriberCount))
	}

	return responses, nil
}

func (s *waitlistService) Create(ctx context.Context, ownerID string, req *CreateWaitlistRequest) (*WaitlistResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if req == nil {
		return nil, apperrors.NewInvalidRequestError(MessageSlugTitleMissing, nil)
	}

	slugValue := req.Slug
	title := strings.TrimSpace(req.Title)
	if slugValue == "" || title == "" {
		return nil, apperrors.NewInvalidRequestError(MessageSlugTitleMissing, nil)
	}

	if err := s.ensureSlugUsable(ctx, slugValue, ""); err != nil {
		logger.Info("Waitlist slug rejected", "slug", slugValue, "error", err)
		return nil, err
	}

	logoValue, err := validateLogo(req.LogoURL)
	if err != nil {
		return nil, err
	}

	countdownEnabled := boolOr(req.CountdownEnabled, false)
	countdownDate, err := resolveCountdownDate(countdownEnabled, req.CountdownDate, nil)
	if err != nil {
		return nil, err
	}

	waitlist := &models.Waitlist{
		UserID:           ownerID,
		Slug:             slugValue,
		Title:            title,
		Description:      optionalText(req.Description),
		Headline:         textOr(req.Headline, title),
		Subheadline:      optionalText(req.Subheadline),
		Theme:            textOr(req.Theme, theme.DefaultID),
		PrimaryColor:     textOr(req.PrimaryColor, constants.DefaultPrimaryColor),
		BackgroundColor:  textOr(req.BackgroundColor, constants.DefaultBackgroundColor),
		CollectName:      boolOr(req.CollectName, constants.DefaultCollectName),
		CollectCompany:   boolOr(req.CollectCompany, constants.DefaultCollectCompany),
		CountdownEnabled: countdownEnabled,
		CountdownDate:    countdownDate,
	}
	waitlist.SetLogo(logoValue)

	created, err := s.repository.Create(ctx, waitlist)
	if err != nil {
		logger.Warn("Failed to create waitlist", "slug", slugValue, "error", err)
		return nil, err
	}

	logger.Info("Waitlist created", "waitlist_id", created.ID, "slug", created.Slug)

	response := ToWaitlistResponse(created, 0)
	return &response, nil
}

func (s *waitlistService) Get(ctx context.Context, ownerID, id string) (*WaitlistResponse, error) {
	row, err := s.repository.FindOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	response := ToWaitlistResponse(&row.Waitlist, row.SubscriberCount)
	return &response, nil
}

func (s *waitlistService) Update(ctx context.Context, ownerID, id string, req *UpdateWaitlistRequest) (*WaitlistResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if req == nil {
		return nil, apperrors.NewInvalidRequestError(MessageInvalidPayload, nil)
	}

	existing, err := s.repository.FindOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}

	if req.Slug != nil {
		candidate := *req.Slug
		if candidate == "" {
			return nil, apperrors.NewInvalidRequestError(MessageSlugTitleMissing, nil)
		}
		if candidate != existing.Slug {
			if err := s.ensureSlugUsable(ctx, candidate, existing.ID); err != nil {
				logger.Info("Waitlist slug rejected", "slug", candidate, "error", err)
				return nil, err
			}
			updates["slug"] = candidate
		}
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, apperrors.NewInvalidRequestError(MessageSlugTitleMissing, nil)
		}
		updates["title"] = title
	}

	if headline := optionalText(req.Headline); headline != nil {
		updates["headline"] = *headline
	}
	if v := optionalText(req.Theme); v != nil {
		updates["theme"] = *v
	}
	if v := optionalText(req.PrimaryColor); v != nil {
		updates["primary_color"] = *v
	}
	if v := optionalText(req.BackgroundColor); v != nil {
		updates["background_color"] = *v
	}
	if req.CollectName != nil {
		updates["collect_name"] = *req.CollectName
	}
	if req.CollectCompany != nil {
		updates["collect_company"] = *req.CollectCompany
	}

	updates["description"] = optionalText(req.Description)
	updates["subheadline"] = optionalText(req.Subheadline)

	logoValue, err := validateLogo(req.LogoURL)
	if err != nil {
		return nil, err
	}
	updates["logo_url"] = logoValue.Stored()

	countdownEnabled := boolOr(req.CountdownEnabled, existing.CountdownEnabled)
	countdownDate, err := resolveCountdownDate(countdownEnabled, req.CountdownDate, existing.CountdownDate)
	if err != nil {
		return nil, err
	}
	updates["countdown_enabled"] = countdownEnabled
	updates["countdown_date"] = countdownDate

	if err := s.repository.Update(ctx, existing.ID, ownerID, updates); err != nil {
		logger.Warn("Failed to update waitlist", "waitlist_id", existing.ID, "error", err)
		return nil, err
	}

	s.invalidate(ctx, existing.Slug)
	if newSlug, ok := updates["slug"].(string); ok {
		s.invalidate(ctx, newSlug)
	}

	logger.Info("Waitlist updated", "waitlist_id", existing.ID)

	return s.Get(ctx, ownerID, existing.ID)
}

func (s *waitlistService) Delete(ctx context.Context, ownerID, id string) error {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	existing, err := s.repository.FindOwned(ctx, id, ownerID)
	if err != nil {
		return err
	}

	if err := s.repository.Delete(ctx, existing.ID, ownerID); err != nil {
		logger.Error("Failed to delete waitlist", "waitlist_id", existing.ID, "error", err)
		return err
	}

	s.invalidate(ctx, existing.Slug)
	logger.Info("Waitlist deleted", "waitlist_id", existing.ID, "subscribers", existing.SubscriberCount)

	return nil
}

func (s *waitlistService) Subscribers(ctx context.Context, ownerID, id string) ([]SubscriberResponse, error) {
	subscribers, err := s.ownedSubscribers(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	responses := make([]SubscriberResponse, 0, len(subscribers))
	for i := range subscribers {
		responses = append(responses, ToSubscriberResponse(&subscribers[i]))
	}
	return responses, nil
}

func (s *waitlistService) Export(ctx context.Context, ownerID, id string) (*Export, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	subscribers, err := s.ownedSubscribers(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeader); err != nil {
		return nil, apperrors.NewInternalServerError("unable to write export", err)
	}
	for _, sub := range subscribers {
		record := []string{
			strconv.Itoa(sub.Position),
			sub.Email,
			deref(sub.Name),
			deref(sub.Company),
			sub.CreatedAt.Format(constants.ExportDateFormat),
		}
		if err := w.Write(record); err != nil {
			return nil, apperrors.NewInternalServerError("unable to write export", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, apperrors.NewInternalServerError("unable to write export", err)
	}

	logger.Info("Subscribers exported", "waitlist_id", id, "rows", len(subscribers))

	return &Export{
		FileName:    fmt.Sprintf("subscribers-%s.csv", id),
		ContentType: "text/csv; charset=utf-8",
		Body:        buf.Bytes(),
	}, nil
}

func (s *waitlistService) CheckSlug(ctx context.Context, candidate, excludeID string) (*SlugAvailability, error) {
	if candidate == "" {
		return nil, apperrors.NewInvalidRequestError(MessageSlugMissing, nil)
	}

	return s.availability(ctx, candidate, excludeID)
}

func (s *waitlistService) SuggestSlug(ctx context.Context, title, excludeID string) (*SlugSuggestion, error) {
	if strings.TrimSpace(title) == "" {
		return nil, apperrors.NewInvalidRequestError(MessageTitleMissing, nil)
	}

	derived := slug.Derive(title)

	availability, err := s.availability(ctx, derived, excludeID)
	if err != nil {
		return nil, err
	}

	return &SlugSuggestion{Slug: derived, SlugAvailability: *availability}, nil
}

func (s *waitlistService) Share(ctx context.Context, ownerID, id string) (*ShareLinks, error) {
	row, err := s.repository.FindOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	publicURL := s.publicBaseURL + "/w/" + url.PathEscape(row.Slug)
	embedURL := publicURL + "?embed=true"

	return &ShareLinks{
		PublicURL: publicURL,
		EmbedURL:  embedURL,
		Iframe: fmt.Sprintf(
			`<iframe src="%s" width="100%%" height="500" frameborder="0" style="border-radius: 8px; max-width: 600px;"></iframe>`,
			embedURL,
		),
	}, nil
}

func (s *waitlistService) availability(ctx context.Context, candidate, excludeID string) (*SlugAvailability, error) {
	if reason, message, ok := slug.Validate(candidate); !ok {
		return &SlugAvailability{Available: false, Reason: string(reason), Message: message}, nil
	}

	taken, err := s.repository.SlugTaken(ctx, candidate, excludeID)
	if err != nil {
		return nil, err
	}
	if taken {
		return &SlugAvailability{Available: false, Reason: string(slug.ReasonTaken), Message: slug.MessageTaken}, nil
	}

	return &SlugAvailability{Available: true, Message: slug.MessageAvailable}, nil
}

// ensureSlugUsable is the write-path form of availability: format and length
// failures are validation errors, a taken slug is a conflict.
func (s *waitlistService) ensureSlugUsable(ctx context.Context, candidate, excludeID string) error {
	availability, err := s.availability(ctx, candidate, excludeID)
	if err != nil {
		return err
	}
	if availability.Available {
		return nil
	}
	if availability.Reason == string(slug.ReasonTaken) {
		return apperrors.NewConflictError(MessageSlugTaken, nil)
	}
	return apperrors.NewInvalidRequestError(availability.Message, nil)
}

func (s *waitlistService) ownedSubscribers(ctx context.Context, ownerID, id string) ([]models.Subscriber, error) {
	if _, err := s.repository.FindOwned(ctx, id, ownerID); err != nil {
		return nil, err
	}
	return s.repository.ListSubscribers(ctx, id)
}

func (s *waitlistService) invalidate(ctx context.Context, slugs ...string) {
	if s.invalidator == nil {
		return
	}
	s.invalidator.Invalidate(ctx, slugs...)
}

// resolveCountdownDate keeps the date only while the countdown is on. An
// enabled countdown without a new date keeps existing.
func resolveCountdownDate(enabled bool, raw *string, existing *time.Time) (*time.Time, error) {
	if !enabled {
		return nil, nil
	}

	if raw != nil && strings.TrimSpace(*raw) != "" {
		target, err := countdown.ParseTarget(*raw)
		if err != nil {
			return nil, apperrors.NewInvalidRequestError(MessageInvalidCountdown, err)
		}
		return &target, nil
	}

	return existing, nil
}

// validateLogo only lets image URLs point under /uploads/ or at http(s) hosts.
func validateLogo(l *logo.Logo) (logo.Logo, error) {
	if l == nil {
		return logo.None(), nil
	}

	if u, ok := l.URL(); ok {
		relative := strings.HasPrefix(u, storage.DefaultURLPrefix+"/") && !strings.Contains(u, "..")
		absolute := strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
		if !relative && !absolute {
			return logo.None(), apperrors.NewInvalidRequestError(MessageInvalidLogo, nil)
		}
	}

	return *l, nil
}

func optionalText(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func textOr(s *string, fallback string) string {
	if v := optionalText(s); v != nil {
		return *v
	}
	return fallback
}

func boolOr(b *bool, fallback bool) bool {
	if b == nil {
		return fallback
	}
	return *b
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
