// Package models contains data structures for the moderation engine's domain.
package models

import "time"

// MemberStatus defines lifecycle states for board members.
type MemberStatus string

const (
	// MemberStatusActive indicates the member is in good standing.
	MemberStatusActive MemberStatus = "active"
	// MemberStatusSuspended indicates the member is temporarily locked out.
	MemberStatusSuspended MemberStatus = "suspended"
	// MemberStatusDeleted indicates the member account was removed.
	MemberStatusDeleted MemberStatus = "deleted"
)

// Member is a board identity. The moderation engine references members by id
// and never mutates them outside of seeding and operator tooling.
type Member struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	Nickname  string       `gorm:"size:60;uniqueIndex;not null" json:"nickname"`
	Email     string       `gorm:"size:120;uniqueIndex;not null" json:"email"`
	Status    MemberStatus `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Post is a content reference owned by the external content store. Only its
// existence matters to the engine.
type Post struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	AuthorMemberID uint      `gorm:"not null;index" json:"author_member_id"`
	Title          string    `gorm:"size:200" json:"title"`
	CreatedAt      time.Time `json:"created_at"`
}

// Comment is a content reference owned by the external content store.
type Comment struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	PostID         uint      `gorm:"not null;index" json:"post_id"`
	AuthorMemberID uint      `gorm:"not null;index" json:"author_member_id"`
	CreatedAt      time.Time `json:"created_at"`
}
