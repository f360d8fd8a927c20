package repository_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"taskflow/internal/model"
	"taskflow/internal/repository"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		DSN:                  "sqlmock_db_0",
		DriverName:           "postgres",
		Conn:                 db,
		PreferSimpleProtocol: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	assert.NoError(t, err)

	return gormDB, mock
}

func TestNewInviteCode_Lowercase(t *testing.T) {
	code := repository.NewInviteCode()

	parsed, err := uuid.Parse(code)
	assert.NoError(t, err)
	assert.Equal(t, parsed.String(), code)
}

func TestTeamRepository_Create_RetriesOnCodeCollision(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	teamRepo := repository.NewTeamRepository(gormDB)

	teamID := uuid.New()
	team := &model.Team{
		Name:     "Platform",
		LeadID:   uuid.New(),
		IsActive: true,
	}

	// First attempt hits a unique violation on the invite code.
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "teams"`).
		WillReturnError(gorm.ErrDuplicatedKey)
	mock.ExpectRollback()

	// Second attempt succeeds with a regenerated code.
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "teams"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(teamID.String()))
	mock.ExpectExec(`INSERT INTO team_members`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Act
	err := teamRepo.Create(context.Background(), team)

	// Assert
	assert.NoError(t, err)
	assert.NotEmpty(t, team.InviteCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeamRepository_GetByInviteCode_NormalizesAndFiltersActive(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	teamRepo := repository.NewTeamRepository(gormDB)

	// Lookup is lowercased and restricted to active teams. A deactivated
	// team's code behaves like an unknown one.
	mock.ExpectQuery(`SELECT .* FROM "teams" WHERE invite_code = .* AND is_active = .*`).
		WithArgs("abc-code", true, 1).
		WillReturnError(gorm.ErrRecordNotFound)

	// Act
	team, err := teamRepo.GetByInviteCode(context.Background(), "ABC-CODE")

	// Assert
	assert.NoError(t, err)
	assert.Nil(t, team)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeamRepository_IsMember_LeadCountsAsMember(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	teamRepo := repository.NewTeamRepository(gormDB)

	teamID := uuid.New()
	leadID := uuid.New()

	// The lead check matches, so the member table is never consulted.
	mock.ExpectQuery(`SELECT count\(\*\) FROM "teams" WHERE id = .* AND lead_id = .*`).
		WithArgs(teamID, leadID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	// Act
	isMember, err := teamRepo.IsMember(context.Background(), teamID, leadID)

	// Assert
	assert.NoError(t, err)
	assert.True(t, isMember)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeamRepository_IsMember_ChecksMembershipTable(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	teamRepo := repository.NewTeamRepository(gormDB)

	teamID := uuid.New()
	userID := uuid.New()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "teams" WHERE id = .* AND lead_id = .*`).
		WithArgs(teamID, userID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "team_members" WHERE team_id = .* AND user_id = .*`).
		WithArgs(teamID, userID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	// Act
	isMember, err := teamRepo.IsMember(context.Background(), teamID, userID)

	// Assert
	assert.NoError(t, err)
	assert.True(t, isMember)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeamRepository_AddMember_Idempotent(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	teamRepo := repository.NewTeamRepository(gormDB)

	teamID := uuid.New()
	userID := uuid.New()

	// ON CONFLICT DO NOTHING: a second insert affects zero rows but does
	// not error.
	mock.ExpectExec(`INSERT INTO team_members .* ON CONFLICT DO NOTHING`).
		WithArgs(teamID, userID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	// Act
	err := teamRepo.AddMember(context.Background(), teamID, userID)

	// Assert
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeamRepository_Deactivate_NotFound(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	teamRepo := repository.NewTeamRepository(gormDB)

	teamID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "teams" SET "is_active"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	// Act
	err := teamRepo.Deactivate(context.Background(), teamID)

	// Assert
	assert.ErrorIs(t, err, repository.ErrTeamNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeamRepository_MemberCount_IncludesLead(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	teamRepo := repository.NewTeamRepository(gormDB)

	teamID := uuid.New()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	// Act
	count, err := teamRepo.MemberCount(context.Background(), teamID)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
