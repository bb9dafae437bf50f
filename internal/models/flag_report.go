package models

import "time"

// FlagReason is the controlled vocabulary for member-submitted flags.
type FlagReason string

const (
	FlagReasonSpam          FlagReason = "spam"
	FlagReasonHarassment    FlagReason = "harassment"
	FlagReasonHateSpeech    FlagReason = "hate_speech"
	FlagReasonInappropriate FlagReason = "inappropriate_content"
	FlagReasonMisinfo       FlagReason = "misinformation"
	FlagReasonOther         FlagReason = "other"
)

// FlagReasons lists the accepted reason vocabulary in a stable order.
var FlagReasons = []FlagReason{
	FlagReasonSpam,
	FlagReasonHarassment,
	FlagReasonHateSpeech,
	FlagReasonInappropriate,
	FlagReasonMisinfo,
	FlagReasonOther,
}

// ValidFlagReason reports whether r belongs to the controlled vocabulary.
func ValidFlagReason(r FlagReason) bool {
	for _, known := range FlagReasons {
		if known == r {
			return true
		}
	}
	return false
}

// FlagReportStatus defines triage states for a flag report.
type FlagReportStatus string

const (
	// FlagStatusPending indicates the report awaits triage.
	FlagStatusPending FlagReportStatus = "pending"
	// FlagStatusTriaged indicates staff looked at the report.
	FlagStatusTriaged FlagReportStatus = "triaged"
	// FlagStatusAccepted indicates the report was upheld (terminal).
	FlagStatusAccepted FlagReportStatus = "accepted"
	// FlagStatusDismissed indicates the report was rejected (terminal).
	FlagStatusDismissed FlagReportStatus = "dismissed"
	// FlagStatusEscalated indicates the report needs an administrator.
	FlagStatusEscalated FlagReportStatus = "escalated"
)

// An escalated report still awaits a final accept/dismiss.
var flagTransitions = map[FlagReportStatus][]FlagReportStatus{
	FlagStatusPending:   {FlagStatusTriaged, FlagStatusAccepted, FlagStatusDismissed, FlagStatusEscalated},
	FlagStatusTriaged:   {FlagStatusAccepted, FlagStatusDismissed, FlagStatusEscalated},
	FlagStatusEscalated: {FlagStatusAccepted, FlagStatusDismissed},
	FlagStatusAccepted:  {},
	FlagStatusDismissed: {},
}

// CanTransition reports whether the flag-report status may move to next.
func (s FlagReportStatus) CanTransition(next FlagReportStatus) bool {
	for _, allowed := range flagTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the status permits no further transitions.
func (s FlagReportStatus) Terminal() bool {
	return s == FlagStatusAccepted || s == FlagStatusDismissed
}

// ValidFlagStatus reports whether s is a recognized flag-report status.
func ValidFlagStatus(s FlagReportStatus) bool {
	_, ok := flagTransitions[s]
	return ok
}

// FlagReport is a member-submitted complaint about a post or comment,
// subject to staff triage. Exactly one content reference is set; leaving
// pending stamps reviewed_at and the reviewer.
type FlagReport struct {
	ID                 uint             `gorm:"primaryKey" json:"id"`
	ReporterID         uint             `gorm:"not null;index" json:"reporter_id"`
	Reporter           *Member          `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`
	PostID             *uint            `gorm:"index" json:"post_id"`
	CommentID          *uint            `gorm:"index" json:"comment_id"`
	Reason             FlagReason       `gorm:"type:varchar(32);not null;index" json:"reason"`
	Details            string           `gorm:"type:text" json:"details"`
	Status             FlagReportStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ReviewedByMemberID *uint            `json:"reviewed_by_member_id"`
	ReviewedBy         *Member          `gorm:"foreignKey:ReviewedByMemberID" json:"reviewed_by,omitempty"`
	ReviewedAt         *time.Time       `json:"reviewed_at"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// HasContentRef reports whether exactly one content reference is populated.
func (f *FlagReport) HasContentRef() bool {
	return (f.PostID != nil) != (f.CommentID != nil)
}
