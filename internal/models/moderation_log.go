package models

import "time"

// Recommended moderation log event types. Event types are descriptive, not
// semantically branching: unrecognized non-empty values are accepted.
const (
	LogEventActionTaken       = "action_taken"
	LogEventStatusUpdate      = "status_update"
	LogEventReportReceived    = "report_received"
	LogEventAdminEscalation   = "admin_escalation_recorded"
	LogEventDetailsCorrection = "details_correction"
)

// ModerationLog is an append-only audit entry attached to a moderation
// action. Only event_details may change after creation, and only through the
// privileged correction path; everything else is immutable.
type ModerationLog struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	EventID       string    `gorm:"size:36;uniqueIndex;not null" json:"event_id"`
	ActionID      uint      `gorm:"not null;index" json:"related_action_id"`
	ActorMemberID *uint     `gorm:"index" json:"actor_member_id"`
	Actor         *Member   `gorm:"foreignKey:ActorMemberID" json:"actor,omitempty"`
	EventType     string    `gorm:"size:64;not null;index" json:"event_type"`
	EventDetails  string    `gorm:"type:text" json:"event_details"`
	CreatedAt     time.Time `json:"created_at"`
}
