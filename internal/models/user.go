package models

import "time"

type User struct {
	ID       string `json:"id" gorm:"primaryKey;size:36"`
	FullName string `json:"full_name" gorm:"not null;size:100"`
	Email    string `json:"email" gorm:"uniqueIndex;not null;size:255"`

	// Credentials: salted PBKDF2 hash, both hex-encoded
	PasswordHash string `json:"-" gorm:"not null;size:64"`
	Salt         string `json:"-" gorm:"not null;size:32"`

	// Profile info
	College *string `json:"college" gorm:"size:200"`
	Branch  *string `json:"branch" gorm:"size:100"`
	Year    *int    `json:"year"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Deletion is a hard delete: the email must become free for
	// re-registration immediately, so no soft-delete column may shadow the
	// unique index.
	Notes []Note `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (User) TableName() string {
	return "users"
}
