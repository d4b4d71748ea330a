// Package teams queries teams and memberships and wires the team to
// membership deletion cascade.
package teams

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/waikato-ufdl/simple-teams/internal/ensure"
	"github.com/waikato-ufdl/simple-teams/internal/log"
	"github.com/waikato-ufdl/simple-teams/internal/models"
	"github.com/waikato-ufdl/simple-teams/internal/softdelete"
)

// ErrInconsistentMemberships means the storage holds more than one active
// membership for a user and team. The unique index should make that
// impossible, so callers must not try to recover from it.
var ErrInconsistentMemberships = errors.New("more than one active membership")

// TeamSet is a query set over teams.
type TeamSet = softdelete.QuerySet[models.Team]

// MembershipSet is a query set over memberships.
type MembershipSet = softdelete.QuerySet[models.Membership]

var teamHooks = softdelete.Hooks[models.Team]{
	PreDelete: func(ctx context.Context, tx *gorm.DB, team *models.Team) error {
		memberships := Memberships(tx)
		active, err := memberships.Active().Filter("team_id = ?", team.ID).Find(ctx)
		if err != nil {
			return fmt.Errorf("failed to load memberships of team %s: %w", team.ID, err)
		}
		for i := range active {
			if err := memberships.DeleteOne(ctx, &active[i]); err != nil {
				return err
			}
		}
		return nil
	},
	PreDeleteBulk: func(ctx context.Context, teams *TeamSet) error {
		return Memberships(teams.DB()).Filter("team_id IN (?)", teams.Subquery("id")).Delete(ctx)
	},
}

// Teams returns the query set over every team. Deleting through it also
// deletes the teams' memberships.
func Teams(db *gorm.DB) *TeamSet {
	return softdelete.New[models.Team](db, teamHooks)
}

// Memberships returns the query set over every membership.
func Memberships(db *gorm.DB) *MembershipSet {
	return softdelete.New[models.Membership](db, softdelete.Hooks[models.Membership]{})
}

// Unscoped is a preload condition that also loads soft-deleted associations.
func Unscoped(db *gorm.DB) *gorm.DB {
	return db.Unscoped()
}

// ActiveMembers returns the users with an active membership of the team.
func ActiveMembers(ctx context.Context, db *gorm.DB, team models.TeamOwned) ([]models.User, error) {
	t, err := ensure.Model[models.Team](team)
	if err != nil {
		return nil, err
	}

	memberIDs := Memberships(db).Active().Filter("team_id = ?", t.ID).Subquery("user_id")

	var users []models.User
	err = db.WithContext(ctx).
		Model(&models.User{}).
		Where("? IN (?)", clause.Column{Table: clause.CurrentTable, Name: "id"}, memberIDs).
		Order("username").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get active members of team %s: %w", t.ID, err)
	}

	return users, nil
}

// UserIsAdminFor restricts qs to the teams the user administers. Anonymous
// users administer nothing; superusers and staff administer everything.
func UserIsAdminFor(qs *TeamSet, user models.Principal) (*TeamSet, error) {
	if err := ensure.User(user, true); err != nil {
		return nil, err
	}

	if !user.IsAuthenticated() {
		return qs.None(), nil
	}

	if user.IsSuperuser() || user.IsStaff() {
		return qs.All(), nil
	}

	u, err := ensure.Model[models.User](user)
	if err != nil {
		return nil, err
	}
	adminOf := Memberships(qs.DB()).
		Active().
		Filter("user_id = ? AND permissions = ?", u.ID, models.PermissionAdmin).
		Subquery("team_id")

	return qs.Filter("? IN (?)", clause.Column{Table: clause.CurrentTable, Name: "id"}, adminOf), nil
}

// ActiveMembership returns the user's active membership of the team, or nil
// if there is none.
func ActiveMembership(ctx context.Context, db *gorm.DB, user models.Principal, team models.TeamOwned) (*models.Membership, error) {
	if err := ensure.User(user, false); err != nil {
		return nil, err
	}
	u, err := ensure.Model[models.User](user)
	if err != nil {
		return nil, err
	}

	t, err := ensure.Model[models.Team](team)
	if err != nil {
		return nil, err
	}

	memberships, err := Memberships(db).
		Active().
		Filter("user_id = ? AND team_id = ?", u.ID, t.ID).
		Preload("User").
		Preload("Team", Unscoped).
		Find(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	switch len(memberships) {
	case 0:
		return nil, nil
	case 1:
		return &memberships[0], nil
	}

	log.Log.WithFields(log.Member(u.ID.String(), t.ID.String())).
		WithField("count", len(memberships)).
		Error("found more than one active membership")

	return nil, fmt.Errorf("each user should have at most one active membership with a team, but %s has %d with %s: %w",
		u, len(memberships), t, ErrInconsistentMemberships)
}
