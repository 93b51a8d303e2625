package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"inkwell/models"
)

// newTestDB opens a fresh in-memory sqlite database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps every query on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Article{}, &models.Tag{}, &models.User{}, &models.Clap{}, &models.SearchLog{},
	))
	return db
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func daysAgo(n int) *time.Time {
	t := time.Now().AddDate(0, 0, -n)
	return &t
}

func createTag(t *testing.T, db *gorm.DB, name string) models.Tag {
	t.Helper()
	tag := models.Tag{Name: name, Slug: name}
	require.NoError(t, db.Create(&tag).Error)
	return tag
}

func createUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{Username: username}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createClap(t *testing.T, db *gorm.DB, userID, articleID uint, count int) {
	t.Helper()
	require.NoError(t, db.Create(&models.Clap{UserID: userID, ArticleID: articleID, Count: count}).Error)
}

// articleSpec keeps article fixtures terse; zero values mean "published
// just now by author 1 with no engagement".
type articleSpec struct {
	Title    string
	Subtitle string
	Content  string
	AuthorID uint
	DaysAgo  int
	Views    int
	Claps    int
	Comments int
	Status   string
	Tags     []models.Tag
}

func createArticle(t *testing.T, db *gorm.DB, spec articleSpec) models.Article {
	t.Helper()
	status := spec.Status
	if status == "" {
		status = models.StatusPublished
	}
	authorID := spec.AuthorID
	if authorID == 0 {
		authorID = 1
	}
	article := models.Article{
		AuthorID:     authorID,
		Title:        spec.Title,
		Subtitle:     spec.Subtitle,
		Content:      spec.Content,
		Status:       status,
		ViewCount:    spec.Views,
		ClapCount:    spec.Claps,
		CommentCount: spec.Comments,
		Tags:         spec.Tags,
	}
	if status == models.StatusPublished {
		article.PublishedAt = daysAgo(spec.DaysAgo)
	}
	require.NoError(t, db.Create(&article).Error)
	return article
}
