package invite

import (
	"context"

	"github.com/google/uuid"

	"taskflow/internal/model"
)

// TeamJoiner is the slice of the team repository the redeemer needs.
type TeamJoiner interface {
	GetByInviteCode(ctx context.Context, code string) (*model.Team, error)
	AddMember(ctx context.Context, teamID, userID uuid.UUID) error
}

// Redeemer consumes a session's pending invite after authentication.
type Redeemer struct {
	store *Store
	teams TeamJoiner
}

func NewRedeemer(store *Store, teams TeamJoiner) *Redeemer {
	return &Redeemer{store: store, teams: teams}
}

// Redeem runs unconditionally after every successful login or
// registration. The stored code is consumed exactly once whether or not
// it resolves; an unknown or deactivated code is simply dropped. The
// joined team is returned so the auth response can report it.
func (r *Redeemer) Redeem(ctx context.Context, sessionID string, userID uuid.UUID) (*model.Team, error) {
	if sessionID == "" {
		return nil, nil
	}
	code, err := r.store.Consume(ctx, sessionID)
	if err != nil || code == "" {
		return nil, err
	}

	team, err := r.teams.GetByInviteCode(ctx, code)
	if err != nil || team == nil {
		return nil, err
	}

	if err := r.teams.AddMember(ctx, team.ID, userID); err != nil {
		return nil, err
	}
	return team, nil
}
