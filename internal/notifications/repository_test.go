package notifications

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/database"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/models"
	"gorm.io/gorm"
)

const (
	alice = "11111111-1111-1111-1111-111111111111"
	bob   = "22222222-2222-2222-2222-222222222222"
)

type RepositoryTestSuite struct {
	suite.Suite
	db   *gorm.DB
	repo Repository
	ctx  context.Context
	base time.Time
}

func (s *RepositoryTestSuite) SetupTest() {
	db, err := database.OpenSQLite("file::memory:")
	require.NoError(s.T(), err)
	s.db = db
	s.repo = NewRepository(db)
	s.ctx = context.Background()
	s.base = time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
}

func (s *RepositoryTestSuite) TearDownTest() {
	if sqlDB, err := s.db.DB(); err == nil {
		sqlDB.Close()
	}
}

// insert writes a notification created offset seconds after the base time
func (s *RepositoryTestSuite) insert(userID, id string, offset int, read bool) {
	created := s.base.Add(time.Duration(offset) * time.Second)
	s.Require().NoError(s.db.Create(&models.Notification{
		ID:        id,
		UserID:    userID,
		Type:      models.NotificationComment,
		Title:     "comment " + id,
		IsRead:    read,
		CreatedAt: created,
		ExpiresAt: created.Add(models.DefaultNotificationTTL),
	}).Error)
}

func (s *RepositoryTestSuite) TestListPageKeyset() {
	for i := 0; i < 5; i++ {
		s.insert(alice, fmt.Sprintf("n%d", i), i, false)
	}
	s.insert(bob, "other", 10, false)

	page, err := s.repo.ListPage(s.ctx, alice, PageQuery{Limit: 2})
	s.Require().NoError(err)
	s.Equal([]string{"n4", "n3"}, ids(page.Items))
	s.True(page.HasMore)
	s.NotEmpty(page.NextCursor)
	s.Equal(FilterAll, page.Filter)

	page2, err := s.repo.ListPage(s.ctx, alice, PageQuery{Limit: 2, Cursor: page.NextCursor})
	s.Require().NoError(err)
	s.Equal([]string{"n2", "n1"}, ids(page2.Items))

	page3, err := s.repo.ListPage(s.ctx, alice, PageQuery{Limit: 2, Cursor: page2.NextCursor})
	s.Require().NoError(err)
	s.Equal([]string{"n0"}, ids(page3.Items))
	s.False(page3.HasMore)
	s.Empty(page3.NextCursor)

	merged := Merge([]Page{*page, *page2, *page3})
	s.Len(merged, 5)
}

func (s *RepositoryTestSuite) TestListPageTiesBrokenByID() {
	s.insert(alice, "a", 0, false)
	s.insert(alice, "b", 0, false)
	s.insert(alice, "c", 0, false)

	page, err := s.repo.ListPage(s.ctx, alice, PageQuery{Limit: 2})
	s.Require().NoError(err)
	s.Equal([]string{"c", "b"}, ids(page.Items))

	page2, err := s.repo.ListPage(s.ctx, alice, PageQuery{Limit: 2, Cursor: page.NextCursor})
	s.Require().NoError(err)
	s.Equal([]string{"a"}, ids(page2.Items))
}

func (s *RepositoryTestSuite) TestListPageFiltersAndExpiry() {
	s.insert(alice, "unread", 1, false)
	s.insert(alice, "read", 2, true)
	s.Require().NoError(s.db.Create(&models.Notification{
		ID: "expired", UserID: alice, Type: models.NotificationSystem, Title: "old",
		CreatedAt: s.base.Add(-48 * time.Hour), ExpiresAt: s.base.Add(-24 * time.Hour),
	}).Error)

	all, err := s.repo.ListPage(s.ctx, alice, PageQuery{})
	s.Require().NoError(err)
	s.Equal([]string{"read", "unread"}, ids(all.Items))
	s.Equal(DefaultPageSize, all.Limit)

	unread, err := s.repo.ListPage(s.ctx, alice, PageQuery{Filter: FilterUnread})
	s.Require().NoError(err)
	s.Equal([]string{"unread"}, ids(unread.Items))

	read, err := s.repo.ListPage(s.ctx, alice, PageQuery{Filter: FilterRead, Limit: 1000})
	s.Require().NoError(err)
	s.Equal([]string{"read"}, ids(read.Items))
	s.Equal(MaxPageSize, read.Limit)

	_, err = s.repo.ListPage(s.ctx, alice, PageQuery{Cursor: "garbage!"})
	s.ErrorIs(err, ErrInvalidCursor)
}

func (s *RepositoryTestSuite) TestSummary() {
	empty, err := s.repo.Summary(s.ctx, alice)
	s.Require().NoError(err)
	s.EqualValues(0, empty.UnreadCount)
	s.Nil(empty.Latest)

	s.insert(alice, "old-unread", 1, false)
	s.insert(alice, "newest-read", 5, true)
	s.insert(alice, "mid-unread", 3, false)
	s.insert(bob, "bobs", 9, false)

	summary, err := s.repo.Summary(s.ctx, alice)
	s.Require().NoError(err)
	s.EqualValues(2, summary.UnreadCount)
	s.Require().NotNil(summary.Latest)
	s.Equal("newest-read", summary.Latest.ID)
	s.True(s.base.Add(5 * time.Second).Equal(summary.Latest.CreatedAt))
}

func (s *RepositoryTestSuite) TestCreateBatchesOpenKey() {
	key := "post:42:votes"
	first := &models.Notification{UserID: alice, Type: models.NotificationVote, Title: "1 vote", BatchKey: &key}
	batched, err := s.repo.Create(s.ctx, first)
	s.Require().NoError(err)
	s.False(batched)
	s.NotEmpty(first.ID)

	second := &models.Notification{UserID: alice, Type: models.NotificationVote, Title: "2 votes", BatchKey: &key}
	batched, err = s.repo.Create(s.ctx, second)
	s.Require().NoError(err)
	s.True(batched)
	s.Equal(first.ID, second.ID)
	s.Equal(2, second.BatchCount)
	s.Equal("2 votes", second.Title)

	page, err := s.repo.ListPage(s.ctx, alice, PageQuery{})
	s.Require().NoError(err)
	s.Len(page.Items, 1)

	// Once read, the batch is closed and a new row starts
	_, err = s.repo.MarkAllRead(s.ctx, alice)
	s.Require().NoError(err)
	third := &models.Notification{UserID: alice, Type: models.NotificationVote, Title: "1 vote", BatchKey: &key}
	batched, err = s.repo.Create(s.ctx, third)
	s.Require().NoError(err)
	s.False(batched)
	s.NotEqual(first.ID, third.ID)
}

func (s *RepositoryTestSuite) TestCreateRevivesExpiredOpenBatch() {
	key := "post:42:votes"
	stale := s.base.Add(-30 * 24 * time.Hour)
	s.Require().NoError(s.db.Create(&models.Notification{
		ID:        "stale",
		UserID:    alice,
		Type:      models.NotificationVote,
		Title:     "1 vote",
		BatchKey:  &key,
		CreatedAt: stale,
		ExpiresAt: stale.Add(20 * 24 * time.Hour),
	}).Error)

	n := &models.Notification{UserID: alice, Type: models.NotificationVote, Title: "2 votes", BatchKey: &key}
	batched, err := s.repo.Create(s.ctx, n)
	s.Require().NoError(err)
	s.True(batched)
	s.Equal("stale", n.ID)
	s.Equal(2, n.BatchCount)
	s.True(n.ExpiresAt.After(time.Now()), "fold renews the expiry")

	page, err := s.repo.ListPage(s.ctx, alice, PageQuery{})
	s.Require().NoError(err)
	s.Require().Len(page.Items, 1)
	s.Equal("2 votes", page.Items[0].Title)
}

func (s *RepositoryTestSuite) TestCreateWithoutBatchKeyAlwaysInserts() {
	empty := ""
	for i := 0; i < 2; i++ {
		batched, err := s.repo.Create(s.ctx, &models.Notification{UserID: alice, Type: models.NotificationReply, Title: "reply", BatchKey: &empty})
		s.Require().NoError(err)
		s.False(batched)
	}
	summary, err := s.repo.Summary(s.ctx, alice)
	s.Require().NoError(err)
	s.EqualValues(2, summary.UnreadCount)
}

func (s *RepositoryTestSuite) TestMarkReadAndDelete() {
	s.insert(alice, "a", 1, false)
	s.insert(alice, "b", 2, false)
	s.insert(bob, "c", 3, false)

	changed, err := s.repo.MarkRead(s.ctx, alice, []string{"a", "c"})
	s.Require().NoError(err)
	s.EqualValues(1, changed, "other users' notifications are untouched")

	changed, err = s.repo.MarkRead(s.ctx, alice, []string{"a"})
	s.Require().NoError(err)
	s.EqualValues(0, changed)

	var a models.Notification
	s.Require().NoError(s.db.First(&a, "id = ?", "a").Error)
	s.True(a.IsRead)
	s.NotNil(a.ReadAt)

	changed, err = s.repo.MarkAllRead(s.ctx, alice)
	s.Require().NoError(err)
	s.EqualValues(1, changed)

	s.ErrorIs(s.repo.Delete(s.ctx, alice, "c"), ErrNotFound)
	s.NoError(s.repo.Delete(s.ctx, alice, "a"))
	s.ErrorIs(s.repo.Delete(s.ctx, alice, "a"), ErrNotFound)
}

func (s *RepositoryTestSuite) TestDeleteExpired() {
	s.insert(alice, "live", 1, false)
	s.Require().NoError(s.db.Create(&models.Notification{
		ID: "expired", UserID: alice, Type: models.NotificationSystem, Title: "old",
		CreatedAt: s.base.Add(-48 * time.Hour), ExpiresAt: s.base.Add(-24 * time.Hour),
	}).Error)

	deleted, err := s.repo.DeleteExpired(s.ctx)
	s.Require().NoError(err)
	s.EqualValues(1, deleted)

	var count int64
	s.Require().NoError(s.db.Model(&models.Notification{}).Count(&count).Error)
	s.EqualValues(1, count)
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}
