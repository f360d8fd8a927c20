package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskflow/internal/model"
)

// inviteCodeAttempts bounds regenerate-and-retry on code collisions.
const inviteCodeAttempts = 5

type TeamRepository struct {
	db *gorm.DB
}

func NewTeamRepository(db *gorm.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

// NewInviteCode produces a lowercase UUID-shaped join token.
func NewInviteCode() string {
	return strings.ToLower(uuid.NewString())
}

// Create inserts the team with a fresh invite code and the lead as the
// first member. Uniqueness of the code is enforced by the database;
// a collision regenerates the code and retries instead of pre-checking,
// so concurrent creators cannot race past each other.
func (r *TeamRepository) Create(ctx context.Context, team *model.Team) error {
	for attempt := 0; attempt < inviteCodeAttempts; attempt++ {
		team.InviteCode = NewInviteCode()
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(team).Error; err != nil {
				return err
			}
			return tx.Exec(
				"INSERT INTO team_members (team_id, user_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
				team.ID, team.LeadID,
			).Error
		})
		if err == nil {
			return nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			team.ID = uuid.Nil
			continue
		}
		return err
	}
	return ErrInviteCodeExhausted
}

// GetByID returns the team with its lead and members, or nil when absent.
func (r *TeamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Team, error) {
	var team model.Team
	err := r.db.WithContext(ctx).
		Preload("Lead").
		Preload("Members").
		Where("id = ?", id).
		First(&team).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &team, nil
}

// GetByInviteCode resolves a join code against active teams only.
// A deactivated team's code behaves exactly like a code that never
// existed. Codes are matched case-insensitively.
func (r *TeamRepository) GetByInviteCode(ctx context.Context, code string) (*model.Team, error) {
	var team model.Team
	err := r.db.WithContext(ctx).
		Preload("Lead").
		Preload("Members").
		Where("invite_code = ? AND is_active = ?", strings.ToLower(code), true).
		First(&team).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &team, nil
}

// IsMember reports whether the user is the team lead or in the member
// set. The lead counts even without a membership row.
func (r *TeamRepository) IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Team{}).
		Where("id = ? AND lead_id = ?", teamID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}
	err = r.db.WithContext(ctx).
		Table("team_members").
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Count(&count).Error
	return count > 0, err
}

// AddMember adds the user to the member set. Adding an existing member
// is a no-op at the storage layer, which makes Join idempotent under
// concurrent calls.
func (r *TeamRepository) AddMember(ctx context.Context, teamID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(
		"INSERT INTO team_members (team_id, user_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
		teamID, userID,
	).Error
}

// RemoveMember deletes the membership row. Callers are responsible for
// refusing to remove the lead.
func (r *TeamRepository) RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(
		"DELETE FROM team_members WHERE team_id = ? AND user_id = ?",
		teamID, userID,
	).Error
}

// VisibleTeams returns the active teams where the user is lead or
// member. Every other resource manager scopes against this set.
func (r *TeamRepository) VisibleTeams(ctx context.Context, userID uuid.UUID) ([]model.Team, error) {
	var teams []model.Team
	err := r.db.WithContext(ctx).
		Preload("Lead").
		Preload("Members").
		Where("is_active = ?", true).
		Where("lead_id = ? OR id IN (SELECT team_id FROM team_members WHERE user_id = ?)", userID, userID).
		Order("created_at").
		Find(&teams).Error
	return teams, err
}

// VisibleTeamIDs is the id-only variant used for query scoping.
func (r *TeamRepository) VisibleTeamIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	teams, err := r.VisibleTeams(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(teams))
	for i, t := range teams {
		ids[i] = t.ID
	}
	return ids, nil
}

func (r *TeamRepository) Update(ctx context.Context, team *model.Team) error {
	return r.db.WithContext(ctx).Save(team).Error
}

// Deactivate soft-deletes the team. Its invite code stops resolving but
// the row stays in storage.
func (r *TeamRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&model.Team{}).
		Where("id = ?", id).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTeamNotFound
	}
	return nil
}

// MemberCount counts distinct members including the lead.
func (r *TeamRepository) MemberCount(ctx context.Context, teamID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM (
			SELECT user_id FROM team_members WHERE team_id = @id
			UNION
			SELECT lead_id FROM teams WHERE id = @id
		) AS members`,
		map[string]interface{}{"id": teamID},
	).Scan(&count).Error
	return count, err
}
