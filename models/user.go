package models

// User is owned by the account subsystem; the ranking core only reads the
// id and username (author filtering and suggestions).
type User struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Username string `json:"username" gorm:"uniqueIndex;not null"`
}

// TableName sets the explicit table name.
func (User) TableName() string {
	return "users"
}
