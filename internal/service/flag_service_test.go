package service

import (
	"context"
	"testing"
	"time"

	"tribunal/internal/models"
	"tribunal/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagService_SubmitFlag_Validation(t *testing.T) {
	t.Parallel()

	svc := NewFlagService(nil, noopFlagRepo(), noopDirectoryRepo(), neverAdmin, neverStaff)
	ctx := context.Background()

	tests := []struct {
		name  string
		input SubmitFlagInput
	}{
		{
			name:  "invalid reason",
			input: SubmitFlagInput{ReporterID: 1, PostID: uintPtr(2), Reason: "i just dislike it"},
		},
		{
			name:  "no content reference",
			input: SubmitFlagInput{ReporterID: 1, Reason: models.FlagReasonSpam},
		},
		{
			name: "both content references",
			input: SubmitFlagInput{
				ReporterID: 1,
				PostID:     uintPtr(2),
				CommentID:  uintPtr(3),
				Reason:     models.FlagReasonSpam,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SubmitFlag(ctx, tt.input)
			assertValidationError(t, err)
		})
	}
}

func TestFlagService_SubmitFlag_UnknownContent(t *testing.T) {
	t.Parallel()

	dirRepo := noopDirectoryRepo()
	dirRepo.getPostFn = func(_ context.Context, id uint) (*models.Post, error) {
		return nil, models.NewNotFoundError("Post", id)
	}
	svc := NewFlagService(nil, noopFlagRepo(), dirRepo, neverAdmin, neverStaff)

	_, err := svc.SubmitFlag(context.Background(), SubmitFlagInput{
		ReporterID: 1,
		PostID:     uintPtr(404),
		Reason:     models.FlagReasonSpam,
	})
	assertNotFoundError(t, err)
}

func TestFlagService_SubmitFlag_Success(t *testing.T) {
	t.Parallel()

	var created *models.FlagReport
	flagRepo := noopFlagRepo()
	flagRepo.createFn = func(_ context.Context, r *models.FlagReport) error {
		r.ID = 6
		created = r
		return nil
	}
	svc := NewFlagService(nil, flagRepo, noopDirectoryRepo(), neverAdmin, neverStaff)

	report, err := svc.SubmitFlag(context.Background(), SubmitFlagInput{
		ReporterID: 1,
		CommentID:  uintPtr(3),
		Reason:     models.FlagReasonHarassment,
		Details:    "targeted insults in replies",
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, models.FlagStatusPending, report.Status)
	assert.Nil(t, report.ReviewedAt)
}

func TestFlagService_TriageFlag_StaffOnly(t *testing.T) {
	t.Parallel()

	svc := NewFlagService(nil, noopFlagRepo(), noopDirectoryRepo(), neverAdmin, neverStaff)
	_, err := svc.TriageFlag(context.Background(), TriageFlagInput{
		ReviewerMemberID: 5,
		FlagID:           1,
		NextStatus:       models.FlagStatusTriaged,
	})
	assertForbiddenError(t, err)
}

func TestFlagService_TriageFlag_Lifecycle(t *testing.T) {
	db := setupServiceDB(t)
	seedActionFixtures(t, db)
	require.NoError(t, db.Create(&models.Post{ID: 1, AuthorMemberID: 3, Title: "hot take"}).Error)

	svc := NewFlagService(db, repository.NewFlagRepository(db), repository.NewDirectoryRepository(db), neverAdmin, alwaysStaff)
	ctx := context.Background()

	report, err := svc.SubmitFlag(ctx, SubmitFlagInput{
		ReporterID: 3,
		PostID:     uintPtr(1),
		Reason:     models.FlagReasonMisinfo,
	})
	require.NoError(t, err)

	triaged, err := svc.TriageFlag(ctx, TriageFlagInput{
		ReviewerMemberID: 2,
		FlagID:           report.ID,
		NextStatus:       models.FlagStatusTriaged,
		Details:          "confirmed misinformation, linked sources are fabricated",
	})
	require.NoError(t, err)
	assert.Equal(t, models.FlagStatusTriaged, triaged.Status)
	assert.Equal(t, "confirmed misinformation, linked sources are fabricated", triaged.Details)

	var persisted models.FlagReport
	require.NoError(t, db.First(&persisted, report.ID).Error)
	assert.Equal(t, "confirmed misinformation, linked sources are fabricated", persisted.Details)
	require.NotNil(t, triaged.ReviewedAt, "leaving pending stamps the review")
	require.NotNil(t, triaged.ReviewedByMemberID)
	assert.Equal(t, uint(2), *triaged.ReviewedByMemberID)
	firstReview := *triaged.ReviewedAt

	dismissed, err := svc.TriageFlag(ctx, TriageFlagInput{
		ReviewerMemberID: 2,
		FlagID:           report.ID,
		NextStatus:       models.FlagStatusDismissed,
	})
	require.NoError(t, err)
	assert.Equal(t, models.FlagStatusDismissed, dismissed.Status)
	assert.True(t, dismissed.ReviewedAt.Equal(firstReview), "the review stamp is set once")

	// Dismissed is terminal.
	_, err = svc.TriageFlag(ctx, TriageFlagInput{
		ReviewerMemberID: 2,
		FlagID:           report.ID,
		NextStatus:       models.FlagStatusTriaged,
	})
	assertConflictError(t, err)
}

func TestFlagService_TriageFlag_EscalatedNeedsAdmin(t *testing.T) {
	db := setupServiceDB(t)
	seedActionFixtures(t, db)
	reviewer := uint(2)
	reviewedAt := time.Now().UTC()
	require.NoError(t, db.Create(&models.FlagReport{
		ID:                 1,
		ReporterID:         3,
		PostID:             uintPtr(1),
		Reason:             models.FlagReasonHateSpeech,
		Status:             models.FlagStatusEscalated,
		ReviewedByMemberID: &reviewer,
		ReviewedAt:         &reviewedAt,
	}).Error)

	flagRepo := repository.NewFlagRepository(db)
	dirRepo := repository.NewDirectoryRepository(db)
	ctx := context.Background()

	// A moderator cannot settle an escalated report.
	modSvc := NewFlagService(db, flagRepo, dirRepo, neverAdmin, alwaysStaff)
	_, err := modSvc.TriageFlag(ctx, TriageFlagInput{
		ReviewerMemberID: 2,
		FlagID:           1,
		NextStatus:       models.FlagStatusAccepted,
	})
	assertForbiddenError(t, err)

	// An administrator can.
	adminSvc := NewFlagService(db, flagRepo, dirRepo, alwaysAdmin, alwaysStaff)
	accepted, err := adminSvc.TriageFlag(ctx, TriageFlagInput{
		ReviewerMemberID: 1,
		FlagID:           1,
		NextStatus:       models.FlagStatusAccepted,
	})
	require.NoError(t, err)
	assert.Equal(t, models.FlagStatusAccepted, accepted.Status)
}
