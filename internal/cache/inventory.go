package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	MemberKeyPrefix      = "member:%d"
	MemberRolesKeyPrefix = "member:%d:roles"
	ActionKeyPrefix      = "action:%d"
	AppealKeyPrefix      = "appeal:%d"
	FlagReportKeyPrefix  = "flag:%d"
)

const (
	MemberTTL     = 5 * time.Minute
	RolesTTL      = 2 * time.Minute
	ActionTTL     = 10 * time.Minute
	AppealTTL     = 5 * time.Minute
	FlagReportTTL = 5 * time.Minute
)

func MemberKey(memberID uint) string {
	return fmt.Sprintf(MemberKeyPrefix, memberID)
}

// MemberRolesKey caches the evaluated admin/moderator role pair for a member.
func MemberRolesKey(memberID uint) string {
	return fmt.Sprintf(MemberRolesKeyPrefix, memberID)
}

func ActionKey(actionID uint) string {
	return fmt.Sprintf(ActionKeyPrefix, actionID)
}

func AppealKey(appealID uint) string {
	return fmt.Sprintf(AppealKeyPrefix, appealID)
}

func FlagReportKey(reportID uint) string {
	return fmt.Sprintf(FlagReportKeyPrefix, reportID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateMember(ctx context.Context, memberID uint) {
	Invalidate(ctx, MemberKey(memberID))
	Invalidate(ctx, MemberRolesKey(memberID))
}

// InvalidateMemberRoles drops only the cached role evaluation. Role grants
// and revocations call this so staff gates see the change immediately.
func InvalidateMemberRoles(ctx context.Context, memberID uint) {
	Invalidate(ctx, MemberRolesKey(memberID))
}

func InvalidateAction(ctx context.Context, actionID uint) {
	Invalidate(ctx, ActionKey(actionID))
}

func InvalidateAppeal(ctx context.Context, appealID uint) {
	Invalidate(ctx, AppealKey(appealID))
}

func InvalidateFlagReport(ctx context.Context, reportID uint) {
	Invalidate(ctx, FlagReportKey(reportID))
}
