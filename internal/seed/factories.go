// Package seed creates demo and test data for the moderation engine's
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"tribunal/internal/models"
	"tribunal/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them to the database. It is a
// thin helper used by seed presets and tests.
type Factory struct {
	db   *gorm.DB
	rand *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		db: db,
		//nolint:gosec // Weak random number generator is fine for seeding
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// pastTime returns a timestamp up to maxDays in the past, so seeded records
// spread out like organic activity.
func (f *Factory) pastTime(maxDays int) time.Time {
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.rand.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rand.Intn(24))*time.Hour +
		time.Duration(f.rand.Intn(60))*time.Minute
	return time.Now().UTC().Add(-back)
}

// nickname derives a valid, roughly unique member nickname.
func (f *Factory) nickname(i int) string {
	base := strings.ToLower(gofakeit.Username())
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, base)
	candidate := fmt.Sprintf("%s%d", strings.Trim(base, "_"), i)
	if err := validation.ValidateNickname(candidate); err != nil {
		candidate = fmt.Sprintf("member%d", i)
	}
	return candidate
}

// CreateMember persists a member with generated identity fields.
func (f *Factory) CreateMember(i int, overrides ...func(*models.Member)) (*models.Member, error) {
	nickname := f.nickname(i)
	member := &models.Member{
		Nickname:  nickname,
		Email:     fmt.Sprintf("%s@example.com", nickname),
		Status:    models.MemberStatusActive,
		CreatedAt: f.pastTime(365),
	}
	for _, override := range overrides {
		override(member)
	}
	if err := f.db.Create(member).Error; err != nil {
		return nil, err
	}
	return member, nil
}

// CreatePost persists a content reference authored by the given member.
func (f *Factory) CreatePost(author *models.Member) (*models.Post, error) {
	post := &models.Post{
		AuthorMemberID: author.ID,
		Title:          gofakeit.Sentence(5),
		CreatedAt:      f.pastTime(90),
	}
	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment persists a content reference under the given post.
func (f *Factory) CreateComment(post *models.Post, author *models.Member) (*models.Comment, error) {
	comment := &models.Comment{
		PostID:         post.ID,
		AuthorMemberID: author.ID,
		CreatedAt:      f.pastTime(60),
	}
	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateAdministrator marks the member as an administrator.
func (f *Factory) CreateAdministrator(member *models.Member) (*models.Administrator, error) {
	admin := &models.Administrator{
		MemberID:  member.ID,
		GrantedAt: time.Now().UTC(),
	}
	if err := f.db.Create(admin).Error; err != nil {
		return nil, err
	}
	return admin, nil
}

// CreateGrant assigns an active moderator grant to the member.
func (f *Factory) CreateGrant(member *models.Member, assignedBy *models.Administrator) (*models.ModeratorGrant, error) {
	grant := &models.ModeratorGrant{
		MemberID:                  member.ID,
		AssignedByAdministratorID: assignedBy.ID,
		AssignedAt:                f.pastTime(180),
	}
	if err := f.db.Create(grant).Error; err != nil {
		return nil, err
	}
	return grant, nil
}

// CreateAction persists an action and its opening log entry the way the
// service layer records them: one action_taken entry per action, event ID
// assigned here.
func (f *Factory) CreateAction(
	grant *models.ModeratorGrant,
	actionType models.ModerationActionType,
	overrides ...func(*models.ModerationAction),
) (*models.ModerationAction, error) {
	created := f.pastTime(90)
	action := &models.ModerationAction{
		ModeratorID:       grant.ID,
		ActionType:        actionType,
		ActionReason:      gofakeit.Sentence(6),
		DecisionNarrative: gofakeit.Paragraph(1, 2, 8, "\n"),
		Status:            models.ActionStatusActive,
		EffectiveFrom:     created,
		CreatedAt:         created,
	}
	for _, override := range overrides {
		override(action)
	}

	return action, f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(action).Error; err != nil {
			return err
		}
		actor := grant.MemberID
		entry := &models.ModerationLog{
			EventID:       uuid.NewString(),
			ActionID:      action.ID,
			ActorMemberID: &actor,
			EventType:     models.LogEventActionTaken,
			EventDetails:  action.ActionReason,
			CreatedAt:     created,
		}
		return tx.Create(entry).Error
	})
}

// CreateFlag persists a pending flag report against the post or comment.
func (f *Factory) CreateFlag(reporter *models.Member, postID, commentID *uint) (*models.FlagReport, error) {
	report := &models.FlagReport{
		ReporterID: reporter.ID,
		PostID:     postID,
		CommentID:  commentID,
		Reason:     models.FlagReasons[f.rand.Intn(len(models.FlagReasons))],
		Details:    gofakeit.Sentence(10),
		Status:     models.FlagStatusPending,
		CreatedAt:  f.pastTime(30),
	}
	if err := f.db.Create(report).Error; err != nil {
		return nil, err
	}
	return report, nil
}

// CreateAppeal persists a pending appeal against the moderation action.
func (f *Factory) CreateAppeal(appellant *models.Member, actionID uint) (*models.Appeal, error) {
	appeal := &models.Appeal{
		AppellantMemberID:  appellant.ID,
		ModerationActionID: &actionID,
		AppealRationale:    gofakeit.Paragraph(1, 2, 6, "\n"),
		Status:             models.AppealStatusPending,
		CreatedAt:          f.pastTime(14),
	}
	if err := f.db.Create(appeal).Error; err != nil {
		return nil, err
	}
	return appeal, nil
}
