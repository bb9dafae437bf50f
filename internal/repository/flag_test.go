package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"tribunal/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestFlagRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewFlagRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "flag_reports"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(6))
	mock.ExpectCommit()

	postID := uint(12)
	report := &models.FlagReport{
		ReporterID: 5,
		PostID:     &postID,
		Reason:     models.FlagReasonSpam,
		Status:     models.FlagStatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), report))
	assert.Equal(t, uint(6), report.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFlagRepository_GetByID_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewFlagRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "flag_reports" WHERE "flag_reports"."id" = $1`)).
		WithArgs(99, 1).
		WillReturnError(gorm.ErrRecordNotFound)

	report, err := repo.GetByID(context.Background(), 99)
	assert.Nil(t, report)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFlagRepository_List_ByReasonAndStatus(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewFlagRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "flag_reports" WHERE reason = $1 AND status = $2`)).
		WithArgs("spam", "pending").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "flag_reports" WHERE reason = $1 AND status = $2 ORDER BY created_at DESC`)).
		WithArgs("spam", "pending", 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "reporter_id", "reason", "status"}).
			AddRow(6, 5, "spam", "pending"))

	reports, total, err := repo.List(context.Background(), FlagFilter{
		Reason: models.FlagReasonSpam,
		Status: models.FlagStatusPending,
	}, 20, 0)

	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, reports, 1)
	assert.Equal(t, models.FlagReasonSpam, reports[0].Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFlagRepository_UpdateTriage(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewFlagRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "flag_reports" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	reviewer := uint(2)
	now := time.Now().UTC()
	report := &models.FlagReport{
		ID:                 6,
		Status:             models.FlagStatusTriaged,
		ReviewedByMemberID: &reviewer,
		ReviewedAt:         &now,
	}
	assert.NoError(t, repo.UpdateTriage(context.Background(), nil, report))
	assert.NoError(t, mock.ExpectationsWereMet())
}
