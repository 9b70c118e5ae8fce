package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/models"
	"gorm.io/gorm"
)

func TestOpenSQLiteMigrates(t *testing.T) {
	db, err := OpenSQLite("file::memory:")
	require.NoError(t, err)

	for _, model := range []any{&models.User{}, &models.Community{}, &models.CommunityMember{}, &models.Notification{}} {
		assert.True(t, db.Migrator().HasTable(model))
	}
}

func TestDuplicateKeyIsTranslated(t *testing.T) {
	db, err := OpenSQLite("file::memory:")
	require.NoError(t, err)

	require.NoError(t, db.Create(&models.User{Email: "a@example.com", Handle: "asha", DisplayName: "Asha"}).Error)
	err = db.Create(&models.User{Email: "b@example.com", Handle: "asha", DisplayName: "Asha B"}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestMigrateNilDB(t *testing.T) {
	assert.Error(t, Migrate(nil))
}

func TestEmailUniqueIgnoresCase(t *testing.T) {
	db, err := OpenSQLite("file::memory:")
	require.NoError(t, err)

	require.NoError(t, db.Create(&models.User{Email: "Foo@example.com", Handle: "foo", DisplayName: "Foo"}).Error)
	err = db.Create(&models.User{Email: "foo@example.com", Handle: "foo-2", DisplayName: "Foo"}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestOneOpenBatchPerKey(t *testing.T) {
	db, err := OpenSQLite("file::memory:")
	require.NoError(t, err)

	key := "post:7:votes"
	open := func(read bool) error {
		return db.Create(&models.Notification{
			UserID:   "11111111-1111-1111-1111-111111111111",
			Type:     models.NotificationVote,
			Title:    "votes",
			BatchKey: &key,
			IsRead:   read,
		}).Error
	}

	require.NoError(t, open(true))
	require.NoError(t, open(true), "read rows are closed batches")
	require.NoError(t, open(false))
	assert.ErrorIs(t, open(false), gorm.ErrDuplicatedKey)
}
