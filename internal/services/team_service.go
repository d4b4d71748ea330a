package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/waikato-ufdl/simple-teams/internal/log"
	"github.com/waikato-ufdl/simple-teams/internal/models"
	"github.com/waikato-ufdl/simple-teams/internal/softdelete"
	"github.com/waikato-ufdl/simple-teams/internal/teams"
)

type TeamService struct {
	db *gorm.DB
}

func NewTeamService(db *gorm.DB) *TeamService {
	return &TeamService{db: db}
}

// CreateTeam creates a team on behalf of creator. Names are unique among
// active teams only, so a deleted team's name can be reused.
func (s *TeamService) CreateTeam(ctx context.Context, creator *models.User, name string) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > models.MaxTeamNameLength {
		return nil, fmt.Errorf("%w: must be between 1 and %d characters", ErrInvalidTeamName, models.MaxTeamNameLength)
	}

	team := &models.Team{Name: name}
	team.CreatorID = creator.ID

	if err := s.db.WithContext(ctx).Create(team).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %q", ErrTeamNameTaken, name)
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	log.Log.WithFields(log.Team(team.ID.String())).
		WithField(log.UserField, creator.ID.String()).
		WithField("name", team.Name).
		Info("team created")

	return team, nil
}

// CreateTeamWithAdmin creates a team and makes creator its administrator in
// one transaction, so a failed membership leaves no team behind.
func (s *TeamService) CreateTeamWithAdmin(ctx context.Context, creator *models.User, name string) (*models.Team, *models.Membership, error) {
	var (
		team       *models.Team
		membership *models.Membership
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		svc := NewTeamService(tx)

		var err error
		if team, err = svc.CreateTeam(ctx, creator, name); err != nil {
			return err
		}
		membership, err = svc.AddMember(ctx, creator, creator, team, models.PermissionAdmin)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	return team, membership, nil
}

// GetTeam returns the active team with the given name.
func (s *TeamService) GetTeam(ctx context.Context, name string) (*models.Team, error) {
	team, err := teams.Teams(s.db).Active().Filter("name = ?", name).First(ctx)
	if err != nil {
		if errors.Is(err, softdelete.ErrNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrTeamNotFound, name)
		}
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return team, nil
}

// DeleteTeam soft-deletes the team and its memberships. With hard set the
// rows are removed afterwards.
func (s *TeamService) DeleteTeam(ctx context.Context, team *models.Team, hard bool) error {
	qs := teams.Teams(s.db)

	var err error
	if hard {
		err = qs.HardDeleteOne(ctx, team)
	} else {
		err = qs.DeleteOne(ctx, team)
	}
	if err != nil {
		return fmt.Errorf("failed to delete team %q: %w", team.Name, err)
	}

	log.Log.WithFields(log.Team(team.ID.String())).
		WithField("hard", hard).
		Info("team deleted")

	return nil
}

// AddMember makes user a member of an active team.
func (s *TeamService) AddMember(ctx context.Context, creator, user *models.User, team *models.Team, permission models.Permission) (*models.Membership, error) {
	membership := &models.Membership{
		UserID:      user.ID,
		TeamID:      team.ID,
		Permissions: permission,
	}
	membership.CreatorID = creator.ID

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		active, err := teams.Teams(tx).Active().Filter("id = ?", team.ID).Exists(ctx)
		if err != nil {
			return fmt.Errorf("failed to check team: %w", err)
		}
		if !active {
			return fmt.Errorf("%w: %q", ErrTeamDeleted, team.Name)
		}

		return tx.Omit(clause.Associations).Create(membership).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s in %q", ErrAlreadyMember, user.Username, team.Name)
		}
		if errors.Is(err, ErrTeamDeleted) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	membership.User = user
	membership.Team = team

	log.Log.WithFields(log.Member(user.ID.String(), team.ID.String())).
		WithField(log.MembershipField, membership.ID.String()).
		WithField("permissions", membership.Permissions.String()).
		Info("member added")

	return membership, nil
}

func (s *TeamService) activeMembership(ctx context.Context, user *models.User, team *models.Team) (*models.Membership, error) {
	membership, err := teams.ActiveMembership(ctx, s.db, user, team)
	if err != nil {
		return nil, err
	}
	if membership == nil {
		return nil, fmt.Errorf("%w: %s in %q", ErrNotMember, user.Username, team.Name)
	}
	return membership, nil
}

// SetPermission changes the permissions of the user's active membership.
func (s *TeamService) SetPermission(ctx context.Context, user *models.User, team *models.Team, permission models.Permission) (*models.Membership, error) {
	membership, err := s.activeMembership(ctx, user, team)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).
		Model(membership).
		Omit(clause.Associations).
		Update("permissions", permission).Error
	if err != nil {
		return nil, fmt.Errorf("failed to set permissions: %w", err)
	}
	membership.Permissions = permission

	log.Log.WithFields(log.Member(user.ID.String(), team.ID.String())).
		WithField("permissions", permission.String()).
		Info("member permissions changed")

	return membership, nil
}

// RemoveMember soft-deletes the user's active membership.
func (s *TeamService) RemoveMember(ctx context.Context, user *models.User, team *models.Team) error {
	membership, err := s.activeMembership(ctx, user, team)
	if err != nil {
		return err
	}

	if err := teams.Memberships(s.db).DeleteOne(ctx, membership); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	log.Log.WithFields(log.Member(user.ID.String(), team.ID.String())).
		WithField(log.MembershipField, membership.ID.String()).
		Info("member removed")

	return nil
}

// Members returns the team's active members ordered by username.
func (s *TeamService) Members(ctx context.Context, team *models.Team) ([]models.User, error) {
	return teams.ActiveMembers(ctx, s.db, team)
}

// Administers reports whether the principal may manage the team.
func (s *TeamService) Administers(ctx context.Context, principal models.Principal, team *models.Team) (bool, error) {
	qs, err := teams.UserIsAdminFor(teams.Teams(s.db).Active().Filter("id = ?", team.ID), principal)
	if err != nil {
		return false, err
	}
	return qs.Exists(ctx)
}

// Authorize fails with ErrPermissionDenied unless the principal may manage
// the team.
func (s *TeamService) Authorize(ctx context.Context, principal models.Principal, team *models.Team) error {
	ok, err := s.Administers(ctx, principal, team)
	if err != nil {
		return fmt.Errorf("failed to check permissions: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %v cannot manage team %q", ErrPermissionDenied, principal, team.Name)
	}
	return nil
}

// AdminTeams returns the active teams the principal administers.
func (s *TeamService) AdminTeams(ctx context.Context, principal models.Principal) ([]models.Team, error) {
	qs, err := teams.UserIsAdminFor(teams.Teams(s.db).Active(), principal)
	if err != nil {
		return nil, err
	}

	result, err := qs.Order("name").Find(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list administered teams: %w", err)
	}
	return result, nil
}
