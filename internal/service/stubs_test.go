package service

import (
	"context"
	"errors"
	"testing"

	"tribunal/internal/models"
	"tribunal/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupServiceDB opens an in-memory SQLite database with the full schema
// for transactional service tests.
func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A pooled second connection would see an empty :memory: database.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Member{},
		&models.Post{},
		&models.Comment{},
		&models.Administrator{},
		&models.ModeratorGrant{},
		&models.ModerationAction{},
		&models.ModerationLog{},
		&models.FlagReport{},
		&models.Appeal{},
	))
	require.NoError(t, db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_moderator_grants_active_member ON moderator_grants (member_id) WHERE revoked_at IS NULL`,
	).Error)
	return db
}

func alwaysAdmin(_ context.Context, _ uint) (bool, error) { return true, nil }
func neverAdmin(_ context.Context, _ uint) (bool, error)  { return false, nil }
func alwaysStaff(_ context.Context, _ uint) (bool, error) { return true, nil }
func neverStaff(_ context.Context, _ uint) (bool, error)  { return false, nil }

// directoryRepoStub is a stub for repository.DirectoryRepository.
type directoryRepoStub struct {
	getMemberFn     func(context.Context, uint) (*models.Member, error)
	searchMembersFn func(context.Context, string, int, int) ([]models.Member, error)
	getPostFn       func(context.Context, uint) (*models.Post, error)
	getCommentFn    func(context.Context, uint) (*models.Comment, error)
}

func (s *directoryRepoStub) GetMember(ctx context.Context, id uint) (*models.Member, error) {
	return s.getMemberFn(ctx, id)
}
func (s *directoryRepoStub) SearchMembers(ctx context.Context, q string, limit, offset int) ([]models.Member, error) {
	return s.searchMembersFn(ctx, q, limit, offset)
}
func (s *directoryRepoStub) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.getPostFn(ctx, id)
}
func (s *directoryRepoStub) GetComment(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getCommentFn(ctx, id)
}

func noopDirectoryRepo() *directoryRepoStub {
	return &directoryRepoStub{
		getMemberFn: func(_ context.Context, id uint) (*models.Member, error) {
			return &models.Member{ID: id, Status: models.MemberStatusActive}, nil
		},
		searchMembersFn: func(_ context.Context, _ string, _, _ int) ([]models.Member, error) { return nil, nil },
		getPostFn: func(_ context.Context, id uint) (*models.Post, error) {
			return &models.Post{ID: id, AuthorMemberID: 1}, nil
		},
		getCommentFn: func(_ context.Context, id uint) (*models.Comment, error) {
			return &models.Comment{ID: id, AuthorMemberID: 1}, nil
		},
	}
}

// roleRepoStub is a stub for repository.RoleRepository.
type roleRepoStub struct {
	createAdministratorFn          func(context.Context, *models.Administrator) error
	deleteAdministratorFn          func(context.Context, uint) error
	getAdministratorByMemberFn     func(context.Context, uint) (*models.Administrator, error)
	listAdministratorsFn           func(context.Context) ([]models.Administrator, error)
	isAdministratorFn              func(context.Context, uint) (bool, error)
	createGrantFn                  func(context.Context, *models.ModeratorGrant) error
	getGrantFn                     func(context.Context, uint) (*models.ModeratorGrant, error)
	getActiveGrantByMemberFn       func(context.Context, uint) (*models.ModeratorGrant, error)
	getActiveGrantForUpdateFn      func(context.Context, *gorm.DB, uint) (*models.ModeratorGrant, error)
	revokeGrantFn                  func(context.Context, *gorm.DB, *models.ModeratorGrant) error
	listGrantsByMemberFn           func(context.Context, uint, int, int) ([]models.ModeratorGrant, int64, error)
	listActiveGrantsFn             func(context.Context, int, int) ([]models.ModeratorGrant, int64, error)
	hasActiveGrantFn               func(context.Context, uint) (bool, error)
}

func (s *roleRepoStub) CreateAdministrator(ctx context.Context, a *models.Administrator) error {
	return s.createAdministratorFn(ctx, a)
}
func (s *roleRepoStub) DeleteAdministrator(ctx context.Context, id uint) error {
	return s.deleteAdministratorFn(ctx, id)
}
func (s *roleRepoStub) GetAdministratorByMember(ctx context.Context, id uint) (*models.Administrator, error) {
	return s.getAdministratorByMemberFn(ctx, id)
}
func (s *roleRepoStub) ListAdministrators(ctx context.Context) ([]models.Administrator, error) {
	return s.listAdministratorsFn(ctx)
}
func (s *roleRepoStub) IsAdministrator(ctx context.Context, id uint) (bool, error) {
	return s.isAdministratorFn(ctx, id)
}
func (s *roleRepoStub) CreateGrant(ctx context.Context, g *models.ModeratorGrant) error {
	return s.createGrantFn(ctx, g)
}
func (s *roleRepoStub) GetGrant(ctx context.Context, id uint) (*models.ModeratorGrant, error) {
	return s.getGrantFn(ctx, id)
}
func (s *roleRepoStub) GetActiveGrantByMember(ctx context.Context, id uint) (*models.ModeratorGrant, error) {
	return s.getActiveGrantByMemberFn(ctx, id)
}
func (s *roleRepoStub) GetActiveGrantByMemberForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.ModeratorGrant, error) {
	return s.getActiveGrantForUpdateFn(ctx, tx, id)
}
func (s *roleRepoStub) RevokeGrant(ctx context.Context, tx *gorm.DB, g *models.ModeratorGrant) error {
	return s.revokeGrantFn(ctx, tx, g)
}
func (s *roleRepoStub) ListGrantsByMember(ctx context.Context, id uint, limit, offset int) ([]models.ModeratorGrant, int64, error) {
	return s.listGrantsByMemberFn(ctx, id, limit, offset)
}
func (s *roleRepoStub) ListActiveGrants(ctx context.Context, limit, offset int) ([]models.ModeratorGrant, int64, error) {
	return s.listActiveGrantsFn(ctx, limit, offset)
}
func (s *roleRepoStub) HasActiveGrant(ctx context.Context, id uint) (bool, error) {
	return s.hasActiveGrantFn(ctx, id)
}

func noopRoleRepo() *roleRepoStub {
	return &roleRepoStub{
		createAdministratorFn: func(_ context.Context, _ *models.Administrator) error { return nil },
		deleteAdministratorFn: func(_ context.Context, _ uint) error { return nil },
		getAdministratorByMemberFn: func(_ context.Context, id uint) (*models.Administrator, error) {
			return &models.Administrator{ID: 1, MemberID: id}, nil
		},
		listAdministratorsFn: func(_ context.Context) ([]models.Administrator, error) { return nil, nil },
		isAdministratorFn:    func(_ context.Context, _ uint) (bool, error) { return false, nil },
		createGrantFn:        func(_ context.Context, _ *models.ModeratorGrant) error { return nil },
		getGrantFn: func(_ context.Context, id uint) (*models.ModeratorGrant, error) {
			return &models.ModeratorGrant{ID: id}, nil
		},
		getActiveGrantByMemberFn: func(_ context.Context, id uint) (*models.ModeratorGrant, error) {
			return &models.ModeratorGrant{ID: 1, MemberID: id}, nil
		},
		getActiveGrantForUpdateFn: func(_ context.Context, _ *gorm.DB, id uint) (*models.ModeratorGrant, error) {
			return &models.ModeratorGrant{ID: 1, MemberID: id}, nil
		},
		revokeGrantFn:        func(_ context.Context, _ *gorm.DB, _ *models.ModeratorGrant) error { return nil },
		listGrantsByMemberFn: func(_ context.Context, _ uint, _, _ int) ([]models.ModeratorGrant, int64, error) { return nil, 0, nil },
		listActiveGrantsFn:   func(_ context.Context, _, _ int) ([]models.ModeratorGrant, int64, error) { return nil, 0, nil },
		hasActiveGrantFn:     func(_ context.Context, _ uint) (bool, error) { return false, nil },
	}
}

// actionRepoStub is a stub for repository.ActionRepository.
type actionRepoStub struct {
	createFn           func(context.Context, *gorm.DB, *models.ModerationAction) error
	getByIDFn          func(context.Context, uint) (*models.ModerationAction, error)
	getByIDForUpdateFn func(context.Context, *gorm.DB, uint) (*models.ModerationAction, error)
	listFn             func(context.Context, repository.ActionFilter, int, int) ([]models.ModerationActionSummary, int64, error)
	updateStatusFn     func(context.Context, *gorm.DB, *models.ModerationAction) error
	updateMutableFn    func(context.Context, *gorm.DB, *models.ModerationAction) error
	deleteFn           func(context.Context, uint) error
}

func (s *actionRepoStub) Create(ctx context.Context, tx *gorm.DB, a *models.ModerationAction) error {
	return s.createFn(ctx, tx, a)
}
func (s *actionRepoStub) GetByID(ctx context.Context, id uint) (*models.ModerationAction, error) {
	return s.getByIDFn(ctx, id)
}
func (s *actionRepoStub) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.ModerationAction, error) {
	return s.getByIDForUpdateFn(ctx, tx, id)
}
func (s *actionRepoStub) List(ctx context.Context, f repository.ActionFilter, limit, offset int) ([]models.ModerationActionSummary, int64, error) {
	return s.listFn(ctx, f, limit, offset)
}
func (s *actionRepoStub) UpdateStatus(ctx context.Context, tx *gorm.DB, a *models.ModerationAction) error {
	return s.updateStatusFn(ctx, tx, a)
}
func (s *actionRepoStub) UpdateMutable(ctx context.Context, tx *gorm.DB, a *models.ModerationAction) error {
	return s.updateMutableFn(ctx, tx, a)
}
func (s *actionRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopActionRepo() *actionRepoStub {
	return &actionRepoStub{
		createFn: func(_ context.Context, _ *gorm.DB, _ *models.ModerationAction) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.ModerationAction, error) {
			return &models.ModerationAction{ID: id, Status: models.ActionStatusActive}, nil
		},
		getByIDForUpdateFn: func(_ context.Context, _ *gorm.DB, id uint) (*models.ModerationAction, error) {
			return &models.ModerationAction{ID: id, Status: models.ActionStatusActive}, nil
		},
		listFn: func(_ context.Context, _ repository.ActionFilter, _, _ int) ([]models.ModerationActionSummary, int64, error) {
			return nil, 0, nil
		},
		updateStatusFn:  func(_ context.Context, _ *gorm.DB, _ *models.ModerationAction) error { return nil },
		updateMutableFn: func(_ context.Context, _ *gorm.DB, _ *models.ModerationAction) error { return nil },
		deleteFn:        func(_ context.Context, _ uint) error { return nil },
	}
}

// logRepoStub is a stub for repository.LogRepository.
type logRepoStub struct {
	appendFn        func(context.Context, *gorm.DB, *models.ModerationLog) error
	getByIDFn       func(context.Context, uint) (*models.ModerationLog, error)
	getByEventIDFn  func(context.Context, string) (*models.ModerationLog, error)
	listByActionFn  func(context.Context, uint, uint, int, int) ([]models.ModerationLog, int64, error)
	updateDetailsFn func(context.Context, *gorm.DB, uint, string) error
}

func (s *logRepoStub) Append(ctx context.Context, tx *gorm.DB, e *models.ModerationLog) error {
	return s.appendFn(ctx, tx, e)
}
func (s *logRepoStub) GetByID(ctx context.Context, id uint) (*models.ModerationLog, error) {
	return s.getByIDFn(ctx, id)
}
func (s *logRepoStub) GetByEventID(ctx context.Context, eventID string) (*models.ModerationLog, error) {
	return s.getByEventIDFn(ctx, eventID)
}
func (s *logRepoStub) ListByAction(ctx context.Context, actionID, actorMemberID uint, limit, offset int) ([]models.ModerationLog, int64, error) {
	return s.listByActionFn(ctx, actionID, actorMemberID, limit, offset)
}
func (s *logRepoStub) UpdateDetails(ctx context.Context, tx *gorm.DB, id uint, details string) error {
	return s.updateDetailsFn(ctx, tx, id, details)
}

func noopLogRepo() *logRepoStub {
	return &logRepoStub{
		appendFn: func(_ context.Context, _ *gorm.DB, _ *models.ModerationLog) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.ModerationLog, error) {
			return &models.ModerationLog{ID: id, EventID: "stub-event", ActionID: 1}, nil
		},
		getByEventIDFn: func(_ context.Context, eventID string) (*models.ModerationLog, error) {
			return &models.ModerationLog{ID: 1, EventID: eventID, ActionID: 1}, nil
		},
		listByActionFn:  func(_ context.Context, _, _ uint, _, _ int) ([]models.ModerationLog, int64, error) { return nil, 0, nil },
		updateDetailsFn: func(_ context.Context, _ *gorm.DB, _ uint, _ string) error { return nil },
	}
}

// flagRepoStub is a stub for repository.FlagRepository.
type flagRepoStub struct {
	createFn           func(context.Context, *models.FlagReport) error
	getByIDFn          func(context.Context, uint) (*models.FlagReport, error)
	getByIDForUpdateFn func(context.Context, *gorm.DB, uint) (*models.FlagReport, error)
	listFn             func(context.Context, repository.FlagFilter, int, int) ([]models.FlagReport, int64, error)
	updateTriageFn     func(context.Context, *gorm.DB, *models.FlagReport) error
}

func (s *flagRepoStub) Create(ctx context.Context, r *models.FlagReport) error {
	return s.createFn(ctx, r)
}
func (s *flagRepoStub) GetByID(ctx context.Context, id uint) (*models.FlagReport, error) {
	return s.getByIDFn(ctx, id)
}
func (s *flagRepoStub) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.FlagReport, error) {
	return s.getByIDForUpdateFn(ctx, tx, id)
}
func (s *flagRepoStub) List(ctx context.Context, f repository.FlagFilter, limit, offset int) ([]models.FlagReport, int64, error) {
	return s.listFn(ctx, f, limit, offset)
}
func (s *flagRepoStub) UpdateTriage(ctx context.Context, tx *gorm.DB, r *models.FlagReport) error {
	return s.updateTriageFn(ctx, tx, r)
}

func noopFlagRepo() *flagRepoStub {
	return &flagRepoStub{
		createFn: func(_ context.Context, _ *models.FlagReport) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.FlagReport, error) {
			return &models.FlagReport{ID: id, Status: models.FlagStatusPending}, nil
		},
		getByIDForUpdateFn: func(_ context.Context, _ *gorm.DB, id uint) (*models.FlagReport, error) {
			return &models.FlagReport{ID: id, Status: models.FlagStatusPending}, nil
		},
		listFn:         func(_ context.Context, _ repository.FlagFilter, _, _ int) ([]models.FlagReport, int64, error) { return nil, 0, nil },
		updateTriageFn: func(_ context.Context, _ *gorm.DB, _ *models.FlagReport) error { return nil },
	}
}

// appealRepoStub is a stub for repository.AppealRepository.
type appealRepoStub struct {
	createFn                 func(context.Context, *gorm.DB, *models.Appeal) error
	getByIDFn                func(context.Context, uint) (*models.Appeal, error)
	getByIDForUpdateFn       func(context.Context, *gorm.DB, uint) (*models.Appeal, error)
	listFn                   func(context.Context, repository.AppealFilter, int, int) ([]models.Appeal, int64, error)
	countOpenForActionFn     func(context.Context, *gorm.DB, uint, uint) (int64, error)
	countOpenForFlagReportFn func(context.Context, *gorm.DB, uint, uint) (int64, error)
	updateResolutionFn       func(context.Context, *gorm.DB, *models.Appeal) error
}

func (s *appealRepoStub) Create(ctx context.Context, tx *gorm.DB, a *models.Appeal) error {
	return s.createFn(ctx, tx, a)
}
func (s *appealRepoStub) GetByID(ctx context.Context, id uint) (*models.Appeal, error) {
	return s.getByIDFn(ctx, id)
}
func (s *appealRepoStub) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Appeal, error) {
	return s.getByIDForUpdateFn(ctx, tx, id)
}
func (s *appealRepoStub) List(ctx context.Context, f repository.AppealFilter, limit, offset int) ([]models.Appeal, int64, error) {
	return s.listFn(ctx, f, limit, offset)
}
func (s *appealRepoStub) CountOpenForAction(ctx context.Context, tx *gorm.DB, appellantID, actionID uint) (int64, error) {
	return s.countOpenForActionFn(ctx, tx, appellantID, actionID)
}
func (s *appealRepoStub) CountOpenForFlagReport(ctx context.Context, tx *gorm.DB, appellantID, reportID uint) (int64, error) {
	return s.countOpenForFlagReportFn(ctx, tx, appellantID, reportID)
}
func (s *appealRepoStub) UpdateResolution(ctx context.Context, tx *gorm.DB, a *models.Appeal) error {
	return s.updateResolutionFn(ctx, tx, a)
}

func noopAppealRepo() *appealRepoStub {
	return &appealRepoStub{
		createFn: func(_ context.Context, _ *gorm.DB, _ *models.Appeal) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Appeal, error) {
			return &models.Appeal{ID: id, Status: models.AppealStatusPending}, nil
		},
		getByIDForUpdateFn: func(_ context.Context, _ *gorm.DB, id uint) (*models.Appeal, error) {
			return &models.Appeal{ID: id, Status: models.AppealStatusPending}, nil
		},
		listFn:                   func(_ context.Context, _ repository.AppealFilter, _, _ int) ([]models.Appeal, int64, error) { return nil, 0, nil },
		countOpenForActionFn:     func(_ context.Context, _ *gorm.DB, _, _ uint) (int64, error) { return 0, nil },
		countOpenForFlagReportFn: func(_ context.Context, _ *gorm.DB, _, _ uint) (int64, error) { return 0, nil },
		updateResolutionFn:       func(_ context.Context, _ *gorm.DB, _ *models.Appeal) error { return nil },
	}
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeValidation)
}

// assertForbiddenError asserts that err is an AppError with code FORBIDDEN.
func assertForbiddenError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeForbidden)
}

// assertConflictError asserts that err is an AppError with code CONFLICT.
func assertConflictError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeConflict)
}

// assertNotFoundError asserts that err is an AppError with code NOT_FOUND.
func assertNotFoundError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeNotFound)
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}
