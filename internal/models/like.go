package models

import "time"

// Like represents a user's like on a post. The combination of UserID and
// PostID is unique; the database constraint is the serialization point for
// concurrent toggles. Likes are only ever created or hard-deleted, never
// updated, so the row carries no UpdatedAt and no soft-delete marker.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_user_post" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Post Post `gorm:"foreignKey:PostID" json:"post,omitempty"`
}
