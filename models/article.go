package models

import (
	"time"
)

// Article lifecycle states. Only published articles are visible to
// search and feeds.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// Article represents a story on the platform together with the engagement
// counters the ranking layer reads. Counters are maintained by the
// engagement write path; this core never mutates them.
type Article struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	AuthorID uint   `json:"author_id" gorm:"index"`
	Title    string `json:"title" gorm:"not null"`
	Subtitle string `json:"subtitle,omitempty"`
	Content  string `json:"content" gorm:"type:text"`

	Status      string     `json:"status" gorm:"index;default:'draft'"` // draft, published, archived
	PublishedAt *time.Time `json:"published_at,omitempty" gorm:"index"`

	ViewCount          int `json:"view_count" gorm:"default:0"`
	ClapCount          int `json:"clap_count" gorm:"default:0"`
	CommentCount       int `json:"comment_count" gorm:"default:0"`
	ReadingTimeMinutes int `json:"reading_time_minutes,omitempty"`

	Tags []Tag `json:"tags" gorm:"many2many:article_tags"`
}

// TableName sets the explicit table name.
func (Article) TableName() string {
	return "articles"
}

// IsVisible reports whether the article belongs to the search/feed universe.
func (a *Article) IsVisible() bool {
	return a.Status == StatusPublished && a.PublishedAt != nil
}
