package models

import (
	"time"
)

// MaxClapCount bounds the claps a single user may give one article.
const MaxClapCount = 50

// Clap records how often a user clapped for an article. At most one row
// exists per (user, article) pair; the write path caps Count at
// MaxClapCount. The ranking core treats claps as its strongest
// per-user engagement signal.
type Clap struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID    uint `json:"user_id" gorm:"uniqueIndex:idx_claps_user_article;not null"`
	ArticleID uint `json:"article_id" gorm:"uniqueIndex:idx_claps_user_article;not null"`
	Count     int  `json:"count" gorm:"not null;default:1"` // 1..MaxClapCount
}

// TableName sets the explicit table name.
func (Clap) TableName() string {
	return "claps"
}
