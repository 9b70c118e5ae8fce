// Package seed fills a development database with fake neighbours,
// communities and notifications.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/auth"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/logger"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/models"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/notifications"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DevPassword is the password of every seeded account
const DevPassword = "password123"

var communitySuffixes = []string{"Residents", "Walkers", "Parents", "Gardeners", "Cyclists", "Traders", "Book Club"}

var seededTypes = []models.NotificationType{
	models.NotificationComment,
	models.NotificationReply,
	models.NotificationVote,
	models.NotificationMention,
	models.NotificationPoll,
	models.NotificationSystem,
}

// Counts controls how much data SeedDev creates
type Counts struct {
	Users                int
	Communities          int
	NotificationsPerUser int
}

// DefaultCounts is a small but browsable dataset
var DefaultCounts = Counts{Users: 50, Communities: 8, NotificationsPerUser: 15}

// Result reports what was created
type Result struct {
	Users         []*models.User
	Communities   []*models.Community
	Memberships   int
	Notifications int
}

// Seeder handles database seeding operations
type Seeder struct {
	db            *gorm.DB
	users         repository.UserRepository
	communities   repository.CommunityRepository
	notifications *notifications.Service
	hashCost      int
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{
		db:            db,
		users:         repository.NewUserRepository(db),
		communities:   repository.NewCommunityRepository(db),
		notifications: notifications.NewService(notifications.NewRepository(db)),
		hashCost:      bcrypt.DefaultCost,
	}
}

// SeedDev creates users, communities with their creators as admins, random
// memberships and a backlog of notifications per user.
func (s *Seeder) SeedDev(ctx context.Context, counts Counts) (*Result, error) {
	result := &Result{}

	logger.Log.Info("Creating users...", zap.Int("count", counts.Users))
	users, err := s.seedUsers(ctx, counts.Users)
	if err != nil {
		return nil, fmt.Errorf("failed to seed users: %w", err)
	}
	result.Users = users
	if len(users) == 0 {
		return result, nil
	}

	logger.Log.Info("Creating communities...", zap.Int("count", counts.Communities))
	communities, err := s.seedCommunities(ctx, users, counts.Communities)
	if err != nil {
		return nil, fmt.Errorf("failed to seed communities: %w", err)
	}
	result.Communities = communities

	logger.Log.Info("Creating memberships...")
	result.Memberships, err = s.seedMemberships(ctx, users, communities)
	if err != nil {
		return nil, fmt.Errorf("failed to seed memberships: %w", err)
	}

	logger.Log.Info("Creating notifications...", zap.Int("per_user", counts.NotificationsPerUser))
	result.Notifications, err = s.seedNotifications(ctx, users, counts.NotificationsPerUser)
	if err != nil {
		return nil, fmt.Errorf("failed to seed notifications: %w", err)
	}

	logger.Log.Info("Seeding complete",
		zap.Int("users", len(result.Users)),
		zap.Int("communities", len(result.Communities)),
		zap.Int("memberships", result.Memberships),
		zap.Int("notifications", result.Notifications),
	)
	return result, nil
}

func (s *Seeder) seedUsers(ctx context.Context, count int) ([]*models.User, error) {
	if count <= 0 {
		return nil, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DevPassword), s.hashCost)
	if err != nil {
		return nil, err
	}
	hashed := string(hash)

	users := make([]*models.User, 0, count)
	for i := 0; i < count; i++ {
		name := gofakeit.Name()
		user := &models.User{
			// the index keeps emails unique across runs of the faker
			Email:        fmt.Sprintf("%s.%d@theglocal.dev", auth.Slugify(name), i),
			Handle:       auth.GenerateHandle(name),
			DisplayName:  name,
			PasswordHash: &hashed,
			Location:     gofakeit.City(),
		}
		if err := s.users.CreateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("user %s: %w", user.Email, err)
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) seedCommunities(ctx context.Context, users []*models.User, count int) ([]*models.Community, error) {
	communities := make([]*models.Community, 0, count)
	for i := 0; i < count; i++ {
		city := gofakeit.City()
		name := city + " " + gofakeit.RandomString(communitySuffixes)
		community := &models.Community{
			Slug:        fmt.Sprintf("%s-%d", auth.Slugify(name), i),
			Name:        name,
			Description: gofakeit.HipsterSentence(),
			Location:    city,
			CreatedBy:   users[i%len(users)].ID,
		}
		if err := s.communities.CreateCommunity(ctx, community); err != nil {
			return nil, fmt.Errorf("community %s: %w", community.Slug, err)
		}
		communities = append(communities, community)
	}
	return communities, nil
}

// seedMemberships has every user join about a third of the communities.
// One extra member per community is promoted to moderator.
func (s *Seeder) seedMemberships(ctx context.Context, users []*models.User, communities []*models.Community) (int, error) {
	created := 0
	for _, community := range communities {
		var moderatorSet bool
		for _, user := range users {
			if user.ID == community.CreatedBy || gofakeit.Number(0, 2) != 0 {
				continue
			}
			if _, err := s.communities.Join(ctx, community.ID, user.ID); err != nil {
				return created, fmt.Errorf("join %s: %w", community.Slug, err)
			}
			created++

			if !moderatorSet {
				if err := s.communities.ChangeRole(ctx, community.ID, user.ID, models.MemberRoleModerator); err != nil {
					return created, err
				}
				moderatorSet = true
			}
		}
	}
	return created, nil
}

func (s *Seeder) seedNotifications(ctx context.Context, users []*models.User, perUser int) (int, error) {
	created := 0
	for _, user := range users {
		for i := 0; i < perUser; i++ {
			actor := users[gofakeit.Number(0, len(users)-1)]
			in := notifications.CreateInput{
				UserID:  user.ID,
				Type:    seededTypes[gofakeit.Number(0, len(seededTypes)-1)],
				Title:   notificationTitle(actor.DisplayName),
				Body:    gofakeit.HipsterSentence(),
				ActorID: actor.ID,
			}
			if _, err := s.notifications.Notify(ctx, in); err != nil {
				return created, err
			}
			created++
		}

		// Read about half of them so unread filters have something to do.
		if perUser < 2 {
			continue
		}
		oldest := s.db.Model(&models.Notification{}).Select("id").
			Where("user_id = ?", user.ID).Order("created_at ASC").Limit(perUser / 2)
		if err := s.db.WithContext(ctx).Model(&models.Notification{}).
			Where("id IN (?)", oldest).
			Updates(map[string]any{"is_read": true, "read_at": time.Now().UTC()}).Error; err != nil {
			return created, err
		}
	}
	return created, nil
}

func notificationTitle(actor string) string {
	title := fmt.Sprintf("%s %s", actor, gofakeit.RandomString([]string{
		"commented on your post",
		"replied to you",
		"voted in your poll",
		"mentioned you",
		"shared an update nearby",
	}))
	if len(title) > 200 {
		title = strings.TrimSpace(title[:200])
	}
	return title
}
