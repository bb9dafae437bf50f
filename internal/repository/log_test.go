package repository

import (
	"context"
	"regexp"
	"testing"

	"tribunal/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogRepository_Append(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLogRepository(db)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "moderation_logs"`)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectCommit()

		entry := &models.ModerationLog{
			EventID:   uuid.NewString(),
			ActionID:  9,
			EventType: models.LogEventActionTaken,
		}
		require.NoError(t, repo.Append(context.Background(), nil, entry))
		assert.Equal(t, uint(1), entry.ID)
	})

	t.Run("Duplicate Event ID", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "moderation_logs"`)).
			WillReturnError(errDuplicateKey)
		mock.ExpectRollback()

		entry := &models.ModerationLog{
			EventID:   uuid.NewString(),
			ActionID:  9,
			EventType: models.LogEventStatusUpdate,
		}
		err := repo.Append(context.Background(), nil, entry)

		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.CodeConflict, appErr.Code)
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogRepository_ListByAction_OldestFirst(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLogRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "moderation_logs" WHERE action_id = $1`)).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "moderation_logs" WHERE action_id = $1 ORDER BY created_at ASC, id ASC`)).
		WithArgs(9, 50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "action_id", "event_type"}).
			AddRow(1, "e1", 9, "action_taken").
			AddRow(2, "e2", 9, "status_update"))

	entries, total, err := repo.ListByAction(context.Background(), 9, 0, 50, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, entries, 2)
	assert.Equal(t, "action_taken", entries[0].EventType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogRepository_GetByEventID_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLogRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "moderation_logs" WHERE event_id = $1`)).
		WithArgs("missing", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	entry, err := repo.GetByEventID(context.Background(), "missing")
	assert.Nil(t, entry)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogRepository_UpdateDetails(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLogRepository(db)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "moderation_logs" SET "event_details"=$1 WHERE id = $2`)).
			WithArgs("corrected wording", 5).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		assert.NoError(t, repo.UpdateDetails(context.Background(), nil, 5, "corrected wording"))
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "moderation_logs" SET "event_details"=$1 WHERE id = $2`)).
			WithArgs("x", 99).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		err := repo.UpdateDetails(context.Background(), nil, 99, "x")

		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.CodeNotFound, appErr.Code)
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}
