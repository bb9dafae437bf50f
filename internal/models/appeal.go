package models

import "time"

// AppealStatus defines lifecycle states for member appeals.
type AppealStatus string

const (
	// AppealStatusPending indicates the appeal awaits administrator review.
	AppealStatusPending AppealStatus = "pending"
	// AppealStatusInReview indicates an administrator picked up the appeal.
	AppealStatusInReview AppealStatus = "in_review"
	// AppealStatusAccepted indicates the appeal succeeded (terminal).
	AppealStatusAccepted AppealStatus = "accepted"
	// AppealStatusDismissed indicates the appeal was rejected (terminal).
	AppealStatusDismissed AppealStatus = "dismissed"
)

// Fast-track resolution directly from pending is permitted.
var appealTransitions = map[AppealStatus][]AppealStatus{
	AppealStatusPending:   {AppealStatusInReview, AppealStatusAccepted, AppealStatusDismissed},
	AppealStatusInReview:  {AppealStatusAccepted, AppealStatusDismissed},
	AppealStatusAccepted:  {},
	AppealStatusDismissed: {},
}

// CanTransition reports whether the appeal status may move to next.
func (s AppealStatus) CanTransition(next AppealStatus) bool {
	for _, allowed := range appealTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the status permits no further transitions.
func (s AppealStatus) Terminal() bool {
	return s == AppealStatusAccepted || s == AppealStatusDismissed
}

// ValidAppealStatus reports whether s is a recognized appeal status.
func ValidAppealStatus(s AppealStatus) bool {
	_, ok := appealTransitions[s]
	return ok
}

// Appeal is a member's contest of a moderation action or flag-report
// outcome. Exactly one parent reference is set. The rationale is frozen at
// submission for audit fidelity; only administrators move the status, and
// terminal resolutions stamp resolved_at.
type Appeal struct {
	ID                 uint              `gorm:"primaryKey" json:"id"`
	AppellantMemberID  uint              `gorm:"not null;index" json:"appellant_member_id"`
	Appellant          *Member           `gorm:"foreignKey:AppellantMemberID" json:"appellant,omitempty"`
	ModerationActionID *uint             `gorm:"index" json:"moderation_action_id"`
	ModerationAction   *ModerationAction `gorm:"foreignKey:ModerationActionID" json:"moderation_action,omitempty"`
	FlagReportID       *uint             `gorm:"index" json:"flag_report_id"`
	FlagReport         *FlagReport       `gorm:"foreignKey:FlagReportID" json:"flag_report,omitempty"`
	AppealRationale    string            `gorm:"type:text;not null" json:"appeal_rationale"`
	Status             AppealStatus      `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ResolutionNotes    string            `gorm:"type:text" json:"resolution_notes"`
	ResolvedAt         *time.Time        `json:"resolved_at"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}
