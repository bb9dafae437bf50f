package models

import "time"

// ModerationActionType enumerates the enforcement decisions a moderator can
// record against content or a member.
type ModerationActionType string

const (
	ActionTypeWarn          ModerationActionType = "warn"
	ActionTypeMute          ModerationActionType = "mute"
	ActionTypeRemoveContent ModerationActionType = "remove_content"
	ActionTypeBanUser       ModerationActionType = "ban_user"
	ActionTypeRestrict      ModerationActionType = "restrict"
	ActionTypeRestore       ModerationActionType = "restore"
	ActionTypeEscalate      ModerationActionType = "escalate"
)

// ValidActionType reports whether t is a recognized action type.
func ValidActionType(t ModerationActionType) bool {
	switch t {
	case ActionTypeWarn, ActionTypeMute, ActionTypeRemoveContent,
		ActionTypeBanUser, ActionTypeRestrict, ActionTypeRestore, ActionTypeEscalate:
		return true
	}
	return false
}

// ModerationActionStatus defines lifecycle states for a moderation action.
type ModerationActionStatus string

const (
	// ActionStatusActive indicates the action is currently in force.
	ActionStatusActive ModerationActionStatus = "active"
	// ActionStatusCompleted indicates the action ran its course.
	ActionStatusCompleted ModerationActionStatus = "completed"
	// ActionStatusReversed indicates the action was overturned.
	ActionStatusReversed ModerationActionStatus = "reversed"
)

var actionTransitions = map[ModerationActionStatus][]ModerationActionStatus{
	ActionStatusActive:    {ActionStatusCompleted, ActionStatusReversed},
	ActionStatusCompleted: {ActionStatusReversed},
	ActionStatusReversed:  {},
}

// CanTransition reports whether the action status may move to next.
func (s ModerationActionStatus) CanTransition(next ModerationActionStatus) bool {
	for _, allowed := range actionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ValidActionStatus reports whether s is a recognized action status.
func ValidActionStatus(s ModerationActionStatus) bool {
	_, ok := actionTransitions[s]
	return ok
}

// ModerationAction is the central audit unit: a recorded enforcement decision
// by a moderator against a member, post, or comment. Moderator, type, and
// target references are immutable after creation.
type ModerationAction struct {
	ID                uint                   `gorm:"primaryKey" json:"id"`
	ModeratorID       uint                   `gorm:"not null;index" json:"moderator_id"`
	Moderator         *ModeratorGrant        `gorm:"foreignKey:ModeratorID" json:"moderator,omitempty"`
	TargetMemberID    *uint                  `gorm:"index" json:"target_member_id"`
	TargetPostID      *uint                  `gorm:"index" json:"target_post_id"`
	TargetCommentID   *uint                  `gorm:"index" json:"target_comment_id"`
	ActionType        ModerationActionType   `gorm:"type:varchar(20);not null;index" json:"action_type"`
	ActionReason      string                 `gorm:"type:text;not null" json:"action_reason"`
	DecisionNarrative string                 `gorm:"type:text" json:"decision_narrative"`
	Details           string                 `gorm:"type:text" json:"details"`
	Status            ModerationActionStatus `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	EffectiveFrom     time.Time              `gorm:"not null" json:"effective_from"`
	EffectiveUntil    *time.Time             `json:"effective_until"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
	Logs              []ModerationLog        `gorm:"foreignKey:ActionID;constraint:OnDelete:CASCADE" json:"logs,omitempty"`
}

// HasTarget reports whether at least one target reference is populated.
func (a *ModerationAction) HasTarget() bool {
	return a.TargetMemberID != nil || a.TargetPostID != nil || a.TargetCommentID != nil
}

// ModerationActionSummary is the lightweight listing row: identifiers and
// window only, no narrative text.
type ModerationActionSummary struct {
	ID              uint                   `json:"id"`
	ModeratorID     uint                   `json:"moderator_id"`
	TargetMemberID  *uint                  `json:"target_member_id"`
	TargetPostID    *uint                  `json:"target_post_id"`
	TargetCommentID *uint                  `json:"target_comment_id"`
	ActionType      ModerationActionType   `json:"action_type"`
	Status          ModerationActionStatus `json:"status"`
	EffectiveFrom   time.Time              `json:"effective_from"`
	EffectiveUntil  *time.Time             `json:"effective_until"`
	CreatedAt       time.Time              `json:"created_at"`
}
