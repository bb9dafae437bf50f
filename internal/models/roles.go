package models

import "time"

// Administrator is a role-grant record marking a member as a board
// administrator. Administrators are created by operator tooling at bootstrap
// and are the sole authority for moderator escalation, appeal resolution,
// and hard deletes.
type Administrator struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	MemberID  uint      `gorm:"uniqueIndex;not null" json:"member_id"`
	Member    *Member   `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	GrantedAt time.Time `gorm:"not null" json:"granted_at"`
}

// ModeratorGrant is a time-bounded moderator role on a member. At most one
// non-revoked grant may exist per member; revocation is recorded, never
// deleted, so the grant history stays auditable.
type ModeratorGrant struct {
	ID                        uint           `gorm:"primaryKey" json:"id"`
	MemberID                  uint           `gorm:"not null;index" json:"member_id"`
	Member                    *Member        `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	AssignedByAdministratorID uint           `gorm:"not null" json:"assigned_by_administrator_id"`
	AssignedBy                *Administrator `gorm:"foreignKey:AssignedByAdministratorID" json:"assigned_by,omitempty"`
	AssignedAt                time.Time      `gorm:"not null" json:"assigned_at"`
	RevokedAt                 *time.Time     `gorm:"index" json:"revoked_at"`
}

// Active reports whether the grant is currently in force.
func (g *ModeratorGrant) Active() bool {
	return g.RevokedAt == nil
}
