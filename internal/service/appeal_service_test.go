package service

import (
	"context"
	"testing"
	"time"

	"tribunal/internal/models"
	"tribunal/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newStubAppealService(appealRepo *appealRepoStub, actionRepo *actionRepoStub, flagRepo *flagRepoStub) *AppealService {
	return NewAppealService(nil, appealRepo, actionRepo, flagRepo, noopDirectoryRepo(), nil, alwaysAdmin, alwaysStaff)
}

func TestAppealService_SubmitAppeal_Validation(t *testing.T) {
	t.Parallel()

	svc := newStubAppealService(noopAppealRepo(), noopActionRepo(), noopFlagRepo())
	ctx := context.Background()

	tests := []struct {
		name  string
		input SubmitAppealInput
	}{
		{
			name:  "missing rationale",
			input: SubmitAppealInput{AppellantMemberID: 1, ModerationActionID: uintPtr(1)},
		},
		{
			name:  "no parent",
			input: SubmitAppealInput{AppellantMemberID: 1, Rationale: "r"},
		},
		{
			name: "both parents",
			input: SubmitAppealInput{
				AppellantMemberID:  1,
				ModerationActionID: uintPtr(1),
				FlagReportID:       uintPtr(2),
				Rationale:          "r",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SubmitAppeal(ctx, tt.input)
			assertValidationError(t, err)
		})
	}
}

func TestAppealService_SubmitAppeal_Eligibility(t *testing.T) {
	t.Parallel()

	t.Run("Action Target Mismatch", func(t *testing.T) {
		actionRepo := noopActionRepo()
		actionRepo.getByIDFn = func(_ context.Context, id uint) (*models.ModerationAction, error) {
			return &models.ModerationAction{ID: id, TargetMemberID: uintPtr(7), Status: models.ActionStatusActive}, nil
		}
		svc := newStubAppealService(noopAppealRepo(), actionRepo, noopFlagRepo())

		_, err := svc.SubmitAppeal(context.Background(), SubmitAppealInput{
			AppellantMemberID:  1,
			ModerationActionID: uintPtr(5),
			Rationale:          "not me",
		})
		assertForbiddenError(t, err)
	})

	t.Run("Content Action Appealable By Author", func(t *testing.T) {
		db := setupServiceDB(t)
		seedAppealFixtures(t, db)
		svc := newDBAppealService(db)

		// Action 1 targets post 1, authored by member 3.
		appeal, err := svc.SubmitAppeal(context.Background(), SubmitAppealInput{
			AppellantMemberID:  3,
			ModerationActionID: uintPtr(1),
			Rationale:          "the post was satire",
		})
		require.NoError(t, err)
		assert.Equal(t, models.AppealStatusPending, appeal.Status)
	})

	t.Run("Flag Not Terminal", func(t *testing.T) {
		flagRepo := noopFlagRepo()
		flagRepo.getByIDFn = func(_ context.Context, id uint) (*models.FlagReport, error) {
			return &models.FlagReport{ID: id, ReporterID: 1, Status: models.FlagStatusPending}, nil
		}
		svc := newStubAppealService(noopAppealRepo(), noopActionRepo(), flagRepo)

		_, err := svc.SubmitAppeal(context.Background(), SubmitAppealInput{
			AppellantMemberID: 1,
			FlagReportID:      uintPtr(4),
			Rationale:         "wrongly dismissed",
		})
		assertValidationError(t, err)
	})

	t.Run("Flag Reporter Mismatch", func(t *testing.T) {
		flagRepo := noopFlagRepo()
		flagRepo.getByIDFn = func(_ context.Context, id uint) (*models.FlagReport, error) {
			return &models.FlagReport{ID: id, ReporterID: 9, Status: models.FlagStatusDismissed}, nil
		}
		svc := newStubAppealService(noopAppealRepo(), noopActionRepo(), flagRepo)

		_, err := svc.SubmitAppeal(context.Background(), SubmitAppealInput{
			AppellantMemberID: 1,
			FlagReportID:      uintPtr(4),
			Rationale:         "wrongly dismissed",
		})
		assertForbiddenError(t, err)
	})
}

func TestAppealService_SubmitAppeal_DuplicatePending(t *testing.T) {
	db := setupServiceDB(t)
	seedAppealFixtures(t, db)
	svc := newDBAppealService(db)
	ctx := context.Background()

	first, err := svc.SubmitAppeal(ctx, SubmitAppealInput{
		AppellantMemberID:  3,
		ModerationActionID: uintPtr(2),
		Rationale:          "the mute was excessive",
	})
	require.NoError(t, err)
	assert.Equal(t, models.AppealStatusPending, first.Status)

	_, err = svc.SubmitAppeal(ctx, SubmitAppealInput{
		AppellantMemberID:  3,
		ModerationActionID: uintPtr(2),
		Rationale:          "trying again",
	})
	assertConflictError(t, err)
}

func TestAppealService_ResolveAppeal_AdminOnly(t *testing.T) {
	t.Parallel()

	svc := NewAppealService(nil, noopAppealRepo(), noopActionRepo(), noopFlagRepo(), noopDirectoryRepo(), nil, neverAdmin, neverStaff)
	_, err := svc.ResolveAppeal(context.Background(), ResolveAppealInput{
		AdminMemberID: 5,
		AppealID:      1,
		NextStatus:    models.AppealStatusAccepted,
	})
	assertForbiddenError(t, err)
}

func TestAppealService_ResolveAppeal_TerminalRequiresNotes(t *testing.T) {
	t.Parallel()

	svc := NewAppealService(nil, noopAppealRepo(), noopActionRepo(), noopFlagRepo(), noopDirectoryRepo(), nil, alwaysAdmin, alwaysStaff)
	ctx := context.Background()

	for _, status := range []models.AppealStatus{models.AppealStatusAccepted, models.AppealStatusDismissed} {
		_, err := svc.ResolveAppeal(ctx, ResolveAppealInput{
			AdminMemberID: 1,
			AppealID:      1,
			NextStatus:    status,
		})
		assertValidationError(t, err)
	}
}

func TestAppealService_ResolveAppeal_AcceptReversesAction(t *testing.T) {
	db := setupServiceDB(t)
	seedAppealFixtures(t, db)
	svc := newDBAppealService(db)
	ctx := context.Background()

	appeal, err := svc.SubmitAppeal(ctx, SubmitAppealInput{
		AppellantMemberID:  3,
		ModerationActionID: uintPtr(2),
		Rationale:          "the mute was excessive",
	})
	require.NoError(t, err)

	resolved, err := svc.ResolveAppeal(ctx, ResolveAppealInput{
		AdminMemberID:   1,
		AppealID:        appeal.ID,
		NextStatus:      models.AppealStatusAccepted,
		ResolutionNotes: "agreed, reversing",
	})
	require.NoError(t, err)
	assert.Equal(t, models.AppealStatusAccepted, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)

	var action models.ModerationAction
	require.NoError(t, db.First(&action, 2).Error)
	assert.Equal(t, models.ActionStatusReversed, action.Status)

	// Terminal appeals accept no further transitions.
	_, err = svc.ResolveAppeal(ctx, ResolveAppealInput{
		AdminMemberID:   1,
		AppealID:        appeal.ID,
		NextStatus:      models.AppealStatusDismissed,
		ResolutionNotes: "second opinion",
	})
	assertConflictError(t, err)
}

func TestAppealService_ResolveAppeal_DismissLeavesAction(t *testing.T) {
	db := setupServiceDB(t)
	seedAppealFixtures(t, db)
	svc := newDBAppealService(db)
	ctx := context.Background()

	appeal, err := svc.SubmitAppeal(ctx, SubmitAppealInput{
		AppellantMemberID:  3,
		ModerationActionID: uintPtr(2),
		Rationale:          "the mute was excessive",
	})
	require.NoError(t, err)

	// pending -> in_review -> dismissed
	_, err = svc.ResolveAppeal(ctx, ResolveAppealInput{
		AdminMemberID: 1,
		AppealID:      appeal.ID,
		NextStatus:    models.AppealStatusInReview,
	})
	require.NoError(t, err)

	resolved, err := svc.ResolveAppeal(ctx, ResolveAppealInput{
		AdminMemberID:   1,
		AppealID:        appeal.ID,
		NextStatus:      models.AppealStatusDismissed,
		ResolutionNotes: "the mute stands",
	})
	require.NoError(t, err)
	assert.Equal(t, models.AppealStatusDismissed, resolved.Status)
	assert.NotNil(t, resolved.ResolvedAt)

	var action models.ModerationAction
	require.NoError(t, db.First(&action, 2).Error)
	assert.Equal(t, models.ActionStatusActive, action.Status)
}

func TestAppealService_GetAppeal_Visibility(t *testing.T) {
	t.Parallel()

	appealRepo := noopAppealRepo()
	appealRepo.getByIDFn = func(_ context.Context, id uint) (*models.Appeal, error) {
		return &models.Appeal{ID: id, AppellantMemberID: 3, Status: models.AppealStatusPending}, nil
	}
	svc := NewAppealService(nil, appealRepo, noopActionRepo(), noopFlagRepo(), noopDirectoryRepo(), nil, neverAdmin, neverStaff)

	// The appellant sees their own appeal.
	appeal, err := svc.GetAppeal(context.Background(), 3, 1)
	require.NoError(t, err)
	assert.Equal(t, uint(3), appeal.AppellantMemberID)

	// A stranger does not.
	_, err = svc.GetAppeal(context.Background(), 4, 1)
	assertForbiddenError(t, err)
}

// newDBAppealService wires an AppealService (and its ActionService) against
// a real database.
func newDBAppealService(db *gorm.DB) *AppealService {
	actionRepo := repository.NewActionRepository(db)
	logRepo := repository.NewLogRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	dirRepo := repository.NewDirectoryRepository(db)
	actionSvc := NewActionService(db, actionRepo, logRepo, roleRepo, dirRepo, alwaysAdmin)
	return NewAppealService(db, repository.NewAppealRepository(db), actionRepo, repository.NewFlagRepository(db), dirRepo, actionSvc, alwaysAdmin, alwaysStaff)
}

// seedAppealFixtures seeds the action-service fixtures plus post 1 by
// member 3, action 1 (remove_content on post 1), and action 2 (mute on
// member 3).
func seedAppealFixtures(t *testing.T, db *gorm.DB) {
	t.Helper()
	seedActionFixtures(t, db)
	require.NoError(t, db.Create(&models.Post{ID: 1, AuthorMemberID: 3, Title: "hot take"}).Error)
	require.NoError(t, db.Create(&models.ModerationAction{
		ID:            1,
		ModeratorID:   1,
		TargetPostID:  uintPtr(1),
		ActionType:    models.ActionTypeRemoveContent,
		ActionReason:  "rule violation",
		Status:        models.ActionStatusActive,
		EffectiveFrom: time.Now().UTC(),
	}).Error)
	require.NoError(t, db.Create(&models.ModerationAction{
		ID:             2,
		ModeratorID:    1,
		TargetMemberID: uintPtr(3),
		ActionType:     models.ActionTypeMute,
		ActionReason:   "repeated spam",
		Status:         models.ActionStatusActive,
		EffectiveFrom:  time.Now().UTC(),
	}).Error)
}
