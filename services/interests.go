package services

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"inkwell/models"
)

// InterestModel derives a weighted tag-interest profile for a user from
// their clap history. Profiles are request-scoped: recomputed on every
// call, never cached here.
type InterestModel struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewInterestModel creates a new InterestModel.
func NewInterestModel(db *gorm.DB, logger *zap.Logger) *InterestModel {
	return &InterestModel{DB: db, Logger: logger}
}

// DeriveInterests returns the user's tags ordered by descending clap
// weight. Every tag on an article receives the article's full clap count;
// weight is deliberately not split across tags. A user with no claps gets
// an empty profile, not an error.
func (m *InterestModel) DeriveInterests(userID uint) ([]models.TagWeight, error) {
	var weights []models.TagWeight
	err := m.DB.Model(&models.Clap{}).
		Select("tags.name AS tag, SUM(claps.count) AS weight").
		Joins("JOIN article_tags ON article_tags.article_id = claps.article_id").
		Joins("JOIN tags ON tags.id = article_tags.tag_id").
		Where("claps.user_id = ?", userID).
		Group("tags.name").
		Order("weight DESC, tags.name ASC").
		Scan(&weights).Error
	if err != nil {
		m.Logger.Error("interest derivation query failed", zap.Uint("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("derive interests for user %d: %w", userID, err)
	}
	return weights, nil
}
