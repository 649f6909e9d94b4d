package models

import (
	"time"
)

// Post is a feed entry authored by a user. Likes is a plain counter that only
// ever increases; it is mutated with an atomic UPDATE at the storage layer.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null" json:"user_id"`
	Content   string    `gorm:"not null" json:"content"`
	ImageURL  string    `json:"image_url"`
	Likes     int       `gorm:"not null;default:0" json:"likes"`
	CreatedAt time.Time `json:"created_at"`
	User      User      `gorm:"foreignKey:UserID" json:"user"`
	Comments  []Comment `gorm:"foreignKey:PostID" json:"comments"`
}
