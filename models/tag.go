package models

// Tag labels articles for discovery. Names are normalized to lowercase on
// creation; slugs are URL-safe and unique.
type Tag struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"uniqueIndex;not null"` // e.g. "javascript"
	Slug string `json:"slug" gorm:"uniqueIndex;not null"`
}

// TableName sets the explicit table name.
func (Tag) TableName() string {
	return "tags"
}
