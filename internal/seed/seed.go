package seed

import (
	"fmt"
	"log"

	"tribunal/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder.
type Options struct {
	NumMembers  int
	NumPosts    int
	NumActions  int
	NumFlags    int
	ShouldClean bool
}

// Distribution is the share of each action type in seeded moderation
// activity, expressed in tenths.
type Distribution struct {
	Warn          int
	Mute          int
	RemoveContent int
	BanMember     int
}

// Most boards warn far more than they ban.
var defaultDistribution = Distribution{Warn: 5, Mute: 2, RemoveContent: 2, BanMember: 1}

// computeCounts splits total across action types according to d. Rounding
// remainder lands on warns.
func computeCounts(total int, d Distribution) (warn, mute, remove, ban int) {
	sum := d.Warn + d.Mute + d.RemoveContent + d.BanMember
	if sum == 0 {
		return total, 0, 0, 0
	}
	mute = total * d.Mute / sum
	remove = total * d.RemoveContent / sum
	ban = total * d.BanMember / sum
	warn = total - mute - remove - ban
	return warn, mute, remove, ban
}

// Seed populates the database with demo moderation data.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("Seeding %d members, %d posts, %d actions, %d flags...",
		opts.NumMembers, opts.NumPosts, opts.NumActions, opts.NumFlags)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("Warning: could not clear all existing data, continuing anyway...")
		}
	}

	f := NewFactory(db)

	admin, members, err := createMembers(f, opts.NumMembers)
	if err != nil {
		return fmt.Errorf("failed to create members: %w", err)
	}
	log.Printf("created %d members", len(members)+1)

	posts, comments, err := createContent(f, members, opts.NumPosts)
	if err != nil {
		return fmt.Errorf("failed to create content: %w", err)
	}
	log.Printf("created %d posts and %d comments", len(posts), len(comments))

	grants, err := createGrants(f, admin, members)
	if err != nil {
		return fmt.Errorf("failed to create moderator grants: %w", err)
	}
	log.Printf("created %d moderator grants", len(grants))

	actions, err := createActions(f, grants, members, posts, comments, opts.NumActions)
	if err != nil {
		return fmt.Errorf("failed to create actions: %w", err)
	}
	log.Printf("created %d actions with opening log entries", len(actions))

	if err := createFlags(f, members, posts, comments, opts.NumFlags); err != nil {
		return fmt.Errorf("failed to create flag reports: %w", err)
	}
	log.Printf("created %d flag reports", opts.NumFlags)

	if err := createAppeals(f, members, actions); err != nil {
		return fmt.Errorf("failed to create appeals: %w", err)
	}

	log.Println("Seeding completed.")
	return nil
}

func clearData(db *gorm.DB) error {
	log.Println("Clearing existing data...")
	sql := `TRUNCATE TABLE appeals, moderation_logs, moderation_actions, flag_reports,
		moderator_grants, administrators, comments, posts, members RESTART IDENTITY CASCADE;`
	return db.Exec(sql).Error
}

// createMembers seeds one administrator plus count regular members.
func createMembers(f *Factory, count int) (*models.Administrator, []models.Member, error) {
	rootMember, err := f.CreateMember(0, func(m *models.Member) {
		m.Nickname = "board_keeper"
		m.Email = "keeper@example.com"
	})
	if err != nil {
		return nil, nil, err
	}
	admin, err := f.CreateAdministrator(rootMember)
	if err != nil {
		return nil, nil, err
	}

	members := make([]models.Member, 0, count)
	for i := 1; i <= count; i++ {
		m, err := f.CreateMember(i)
		if err != nil {
			log.Printf("failed to create member %d: %v", i, err)
			continue
		}
		members = append(members, *m)
		if i%100 == 0 {
			log.Printf("created %d members...", i)
		}
	}
	if len(members) == 0 {
		return nil, nil, fmt.Errorf("no members created")
	}
	return admin, members, nil
}

func createContent(f *Factory, members []models.Member, count int) ([]models.Post, []models.Comment, error) {
	posts := make([]models.Post, 0, count)
	comments := make([]models.Comment, 0, count)

	for i := 0; i < count; i++ {
		author := members[f.rand.Intn(len(members))]
		post, err := f.CreatePost(&author)
		if err != nil {
			return nil, nil, err
		}
		posts = append(posts, *post)

		for c := f.rand.Intn(4); c > 0; c-- {
			commenter := members[f.rand.Intn(len(members))]
			comment, err := f.CreateComment(post, &commenter)
			if err != nil {
				return nil, nil, err
			}
			comments = append(comments, *comment)
		}
	}
	return posts, comments, nil
}

// createGrants promotes roughly one in ten members to moderator.
func createGrants(f *Factory, admin *models.Administrator, members []models.Member) ([]models.ModeratorGrant, error) {
	count := len(members) / 10
	if count == 0 {
		count = 1
	}
	grants := make([]models.ModeratorGrant, 0, count)
	for i := 0; i < count && i < len(members); i++ {
		grant, err := f.CreateGrant(&members[i], admin)
		if err != nil {
			return nil, err
		}
		grants = append(grants, *grant)
	}
	return grants, nil
}

func createActions(
	f *Factory,
	grants []models.ModeratorGrant,
	members []models.Member,
	posts []models.Post,
	comments []models.Comment,
	total int,
) ([]models.ModerationAction, error) {
	warn, mute, remove, ban := computeCounts(total, defaultDistribution)

	plan := make([]models.ModerationActionType, 0, total)
	for i := 0; i < warn; i++ {
		plan = append(plan, models.ActionTypeWarn)
	}
	for i := 0; i < mute; i++ {
		plan = append(plan, models.ActionTypeMute)
	}
	for i := 0; i < remove; i++ {
		plan = append(plan, models.ActionTypeRemoveContent)
	}
	for i := 0; i < ban; i++ {
		plan = append(plan, models.ActionTypeBanUser)
	}

	actions := make([]models.ModerationAction, 0, total)
	for _, actionType := range plan {
		grant := grants[f.rand.Intn(len(grants))]
		action, err := f.CreateAction(&grant, actionType, func(a *models.ModerationAction) {
			if actionType == models.ActionTypeRemoveContent && len(posts) > 0 {
				if len(comments) > 0 && f.rand.Intn(2) == 0 {
					a.TargetCommentID = &comments[f.rand.Intn(len(comments))].ID
				} else {
					a.TargetPostID = &posts[f.rand.Intn(len(posts))].ID
				}
				return
			}
			a.TargetMemberID = &members[f.rand.Intn(len(members))].ID
		})
		if err != nil {
			return nil, err
		}
		actions = append(actions, *action)
	}
	return actions, nil
}

func createFlags(f *Factory, members []models.Member, posts []models.Post, comments []models.Comment, count int) error {
	for i := 0; i < count; i++ {
		reporter := members[f.rand.Intn(len(members))]
		if len(comments) > 0 && f.rand.Intn(3) == 0 {
			if _, err := f.CreateFlag(&reporter, nil, &comments[f.rand.Intn(len(comments))].ID); err != nil {
				return err
			}
			continue
		}
		if len(posts) == 0 {
			return nil
		}
		if _, err := f.CreateFlag(&reporter, &posts[f.rand.Intn(len(posts))].ID, nil); err != nil {
			return err
		}
	}
	return nil
}

// createAppeals opens an appeal for roughly one in five member-targeted
// actions, filed by the targeted member.
func createAppeals(f *Factory, members []models.Member, actions []models.ModerationAction) error {
	count := 0
	for _, action := range actions {
		if action.TargetMemberID == nil || f.rand.Intn(5) != 0 {
			continue
		}
		for _, m := range members {
			if m.ID == *action.TargetMemberID {
				if _, err := f.CreateAppeal(&m, action.ID); err != nil {
					return err
				}
				count++
				break
			}
		}
	}
	log.Printf("created %d appeals", count)
	return nil
}
