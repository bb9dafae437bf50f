package server

import (
	"context"
	"encoding/json"
	"log"
)

// Event type constants prevent typos in event names.
const (
	EventActionRecorded      = "action_recorded"
	EventActionStatusChanged = "action_status_changed"
	EventAppealSubmitted     = "appeal_submitted"
	EventAppealResolved      = "appeal_resolved"
	EventFlagSubmitted       = "flag_submitted"
	EventFlagTriaged         = "flag_triaged"
	EventModeratorGranted    = "moderator_granted"
	EventModeratorRevoked    = "moderator_revoked"
)

// publishMemberEvent pushes an event to one member's notification channel,
// e.g. the appellant learning their appeal was resolved.
func (s *Server) publishMemberEvent(memberID uint, eventType string, payload map[string]interface{}) {
	event := map[string]interface{}{
		"type":    eventType,
		"payload": payload,
	}
	eventJSON, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to marshal %s event: %v", eventType, err)
		return
	}
	if s.notifier != nil {
		if err := s.notifier.PublishMember(context.Background(), memberID, string(eventJSON)); err != nil {
			log.Printf("failed to publish %s event to member %d: %v", eventType, memberID, err)
		}
	}
}

// publishModerationEvent pushes an event to the staff moderation feed. The
// feed is opt-in via the moderation_feed feature flag.
func (s *Server) publishModerationEvent(eventType string, payload map[string]interface{}) {
	if s.featureFlags != nil && !s.featureFlags.Enabled("moderation_feed", 0) {
		return
	}
	event := map[string]interface{}{
		"type":    eventType,
		"payload": payload,
	}
	eventJSON, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to marshal %s event: %v", eventType, err)
		return
	}
	if s.notifier != nil {
		if err := s.notifier.PublishModeration(context.Background(), string(eventJSON)); err != nil {
			log.Printf("failed to publish %s moderation event: %v", eventType, err)
		}
	}
}
