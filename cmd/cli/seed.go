package main

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/akeren/waitlist-foundry/internal/models"
	"github.com/akeren/waitlist-foundry/pkg/constants"
	"github.com/akeren/waitlist-foundry/pkg/logo"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	demoEmail    = "demo@waitlist.com"
	demoPassword = "demo123"
	demoName     = "Demo User"
)

type demoWaitlist struct {
	slug           string
	title          string
	description    string
	theme          string
	primaryColor   string
	background     string
	logo           logo.Logo
	collectCompany bool
	countdownDays  int
	subscribers    int
}

var demoWaitlists = []demoWaitlist{
	{"salesforce-next", "SalesForce Next", "CRM nouvelle génération avec IA intégrée. Gérez vos ventes, automatisez vos processus et boostez votre chiffre d'affaires.", "dark-modern", "#3B82F6", "#111827", logo.Icon(1), true, 30, 23},
	{"designflow", "DesignFlow", "Plateforme collaborative de design UI/UX. Créez, prototypagez et collaborez avec votre équipe en temps réel.", "light-minimal", "#000000", "#FFFFFF", logo.None(), true, 0, 15},
	{"taskmaster-pro", "TaskMaster Pro", "Gestion de projet intelligente avec automatisation des workflows. Organisez vos équipes et livrez vos projets à temps.", "light-gray", "#6366F1", "#F5F5F5", logo.Icon(2), true, 45, 31},
	{"financely", "Financely", "Comptabilité automatisée pour les PME. Générez vos factures, suivez vos dépenses et préparez vos déclarations en quelques clics.", "light-minimal", "#000000", "#FFFFFF", logo.Icon(3), true, 0, 18},
	{"marketo-ai", "Marketo AI", "Marketing automation alimenté par l'IA. Personnalisez vos campagnes, optimisez vos conversions et multipliez vos revenus.", "vibrant-purple", "#A855F7", "#0F0F1E", logo.None(), true, 21, 27},
	{"meetflow", "MeetFlow", "Visioconférence haute qualité avec transcription automatique et notes intelligentes. Réunissez-vous comme jamais.", "dark-modern", "#3B82F6", "#111827", logo.Icon(4), false, 0, 12},
	{"learnwise", "LearnWise", "Plateforme d'e-learning avec parcours personnalisés. Créez des formations engageantes et suivez la progression de vos apprenants.", "light-gray", "#6366F1", "#F5F5F5", logo.Icon(5), true, 60, 35},
	{"inventory-smart", "Inventory Smart", "Gestion d'inventaire intelligente avec prévisions de stock. Optimisez vos stocks, réduisez vos coûts et évitez les ruptures.", "light-minimal", "#000000", "#FFFFFF", logo.None(), true, 0, 19},
	{"analytics-pro", "Analytics Pro", "Analytics avancées avec tableaux de bord personnalisables. Visualisez vos données, découvrez des insights et prenez de meilleures décisions.", "vibrant-purple", "#A855F7", "#0F0F1E", logo.Icon(6), true, 14, 29},
	{"collab-space", "CollabSpace", "Espace de collaboration tout-en-un. Chat, documents, calendrier et tâches dans une seule plateforme intuitive.", "dark-modern", "#3B82F6", "#111827", logo.Icon(7), false, 0, 16},
}

var (
	firstNames = []string{"Alexandre", "Sophie", "Thomas", "Marie", "Julien", "Camille", "Nicolas", "Julie", "Antoine", "Laura", "Maxime", "Claire", "Pierre", "Émilie", "David", "Sarah", "Romain", "Pauline", "Vincent", "Marion", "Emma", "Lucas", "Léa", "Hugo", "Chloé", "Louis", "Manon", "Nathan", "Inès", "Noah"}
	lastNames  = []string{"Martin", "Bernard", "Dubois", "Thomas", "Robert", "Richard", "Petit", "Durand", "Leroy", "Moreau", "Simon", "Laurent", "Lefebvre", "Michel", "Garcia", "David", "Bertrand", "Roux", "Vincent", "Fournier", "Girard", "Bonnet", "Dupont", "Lambert", "Fontaine", "Rousseau", "Blanc", "Garnier", "Lemoine", "Fabre"}
	companies  = []string{"TechCorp", "InnovateLab", "DigitalAgency", "CloudTech", "DataSolutions", "FutureWorks", "SmartBiz", "TechVenture", "InnovationHub", "DigitalFirst", "CloudFirst", "TechStart", "FutureTech", "SmartSolutions", "StartupXYZ", "NextGen", "InnovateNow", "TechFlow", "DataDriven", "CloudScale"}
)

type SeedReport struct {
	Email     string
	Waitlists []seededWaitlist
}

type seededWaitlist struct {
	Title       string
	Slug        string
	Subscribers int
}

func (r *SeedReport) Print(w io.Writer, publicBaseURL string) {
	base := strings.TrimRight(publicBaseURL, "/")

	fmt.Fprintln(w, "Seed terminé")
	fmt.Fprintf(w, "Compte de démo: %s / %s\n", r.Email, demoPassword)
	for _, wl := range r.Waitlists {
		fmt.Fprintf(w, "  - %s (%d abonnés): %s/w/%s\n", wl.Title, wl.Subscribers, base, wl.Slug)
	}
}

// Seed upserts the demo account and recreates its demo waitlists with
// generated subscribers numbered 1..N.
func Seed(ctx context.Context, db *gorm.DB, now time.Time) (*SeedReport, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}

	report := &SeedReport{Email: demoEmail}
	rng := rand.New(rand.NewPCG(uint64(now.UnixNano()), 42))

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		name := demoName
		user := models.User{}
		if err := tx.Where(models.User{Email: demoEmail}).
			Attrs(models.User{Password: string(hash), Name: &name}).
			FirstOrCreate(&user).Error; err != nil {
			return fmt.Errorf("upsert demo user: %w", err)
		}

		slugs := make([]string, 0, len(demoWaitlists))
		for _, d := range demoWaitlists {
			slugs = append(slugs, d.slug)
		}

		stale := tx.Model(&models.Waitlist{}).Select("id").Where("user_id = ? OR slug IN ?", user.ID, slugs)
		if err := tx.Where("waitlist_id IN (?)", stale).Delete(&models.Subscriber{}).Error; err != nil {
			return fmt.Errorf("clear demo subscribers: %w", err)
		}
		if err := tx.Where("user_id = ? OR slug IN ?", user.ID, slugs).Delete(&models.Waitlist{}).Error; err != nil {
			return fmt.Errorf("clear demo waitlists: %w", err)
		}

		for i, d := range demoWaitlists {
			waitlist := d.model(user.ID, now)
			if err := tx.Create(waitlist).Error; err != nil {
				return fmt.Errorf("create waitlist %s: %w", d.slug, err)
			}

			subscribers := generateSubscribers(rng, waitlist.ID, d.subscribers, d.collectCompany, i, now)
			if err := tx.CreateInBatches(subscribers, 100).Error; err != nil {
				return fmt.Errorf("create subscribers for %s: %w", d.slug, err)
			}

			report.Waitlists = append(report.Waitlists, seededWaitlist{
				Title:       d.title,
				Slug:        d.slug,
				Subscribers: len(subscribers),
			})
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return report, nil
}

// model mirrors what the dashboard form creates: the headline repeats the
// title and there is no subheadline.
func (d demoWaitlist) model(ownerID string, now time.Time) *models.Waitlist {
	description := d.description

	w := &models.Waitlist{
		UserID:           ownerID,
		Slug:             d.slug,
		Title:            d.title,
		Description:      &description,
		Headline:         d.title,
		Theme:            d.theme,
		PrimaryColor:     d.primaryColor,
		BackgroundColor:  d.background,
		CollectName:      constants.DefaultCollectName,
		CollectCompany:   d.collectCompany,
		CountdownEnabled: d.countdownDays > 0,
	}
	if d.countdownDays > 0 {
		launch := now.UTC().Add(time.Duration(d.countdownDays) * 24 * time.Hour)
		w.CountdownDate = &launch
	}
	w.SetLogo(d.logo)

	return w
}

func generateSubscribers(rng *rand.Rand, waitlistID string, count int, withCompany bool, waitlistIndex int, now time.Time) []*models.Subscriber {
	subscribers := make([]*models.Subscriber, 0, count)

	for i := 0; i < count; i++ {
		first := firstNames[rng.IntN(len(firstNames))]
		last := lastNames[rng.IntN(len(lastNames))]
		name := first + " " + last

		s := &models.Subscriber{
			WaitlistID: waitlistID,
			Email:      fmt.Sprintf("%s.%s.%d@example.com", strings.ToLower(first), strings.ToLower(last), waitlistIndex*1000+i),
			Name:       &name,
			Position:   i + 1,
			CreatedAt:  now.Add(time.Duration(i-count) * time.Hour),
		}
		if withCompany {
			company := companies[rng.IntN(len(companies))]
			s.Company = &company
		}

		subscribers = append(subscribers, s)
	}

	return subscribers
}
