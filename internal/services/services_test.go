package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/waikato-ufdl/simple-teams/internal/database/dbtest"
	"github.com/waikato-ufdl/simple-teams/internal/models"
	"github.com/waikato-ufdl/simple-teams/internal/services"
	"github.com/waikato-ufdl/simple-teams/internal/teams"
)

type ServicesTestSuite struct {
	suite.Suite
	ctx   context.Context
	conn  *gorm.DB
	users *services.UserService
	teams *services.TeamService
	admin *models.User
}

func TestServicesTestSuite(t *testing.T) {
	suite.Run(t, new(ServicesTestSuite))
}

func (s *ServicesTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.conn = dbtest.ConnectForTests(s.T())
	s.users = services.NewUserService(s.conn)
	s.teams = services.NewTeamService(s.conn)

	admin, err := s.users.CreateUser(s.ctx, &models.User{Username: "admin", Superuser: true, Staff: true})
	s.Require().NoError(err)
	s.admin = admin
}

func (s *ServicesTestSuite) newUser(name string) *models.User {
	user, err := s.users.CreateUser(s.ctx, &models.User{Username: name})
	s.Require().NoError(err)
	return user
}

func (s *ServicesTestSuite) newTeam(name string) *models.Team {
	team, err := s.teams.CreateTeam(s.ctx, s.admin, name)
	s.Require().NoError(err)
	return team
}

func (s *ServicesTestSuite) TestCreateUser() {
	alice := s.newUser("  alice ")
	s.Equal("alice", alice.Username)

	found, err := s.users.GetUser(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(alice.ID, found.ID)

	_, err = s.users.CreateUser(s.ctx, &models.User{Username: "alice"})
	s.ErrorIs(err, services.ErrUsernameTaken)

	_, err = s.users.CreateUser(s.ctx, &models.User{Username: " "})
	s.ErrorIs(err, services.ErrInvalidUsername)

	_, err = s.users.GetUser(s.ctx, "nobody")
	s.ErrorIs(err, services.ErrUserNotFound)
}

func (s *ServicesTestSuite) TestCreateUser_LengthCountsCharacters() {
	longest := strings.Repeat("é", 150)
	user, err := s.users.CreateUser(s.ctx, &models.User{Username: longest})
	s.Require().NoError(err)
	s.Equal(longest, user.Username)

	_, err = s.users.CreateUser(s.ctx, &models.User{Username: strings.Repeat("ü", 151)})
	s.ErrorIs(err, services.ErrInvalidUsername)
}

func (s *ServicesTestSuite) TestCreateTeam() {
	team := s.newTeam("crew")
	s.Equal(s.admin.ID, team.CreatorID)
	s.True(team.IsActive())

	found, err := s.teams.GetTeam(s.ctx, "crew")
	s.Require().NoError(err)
	s.Equal(team.ID, found.ID)

	_, err = s.teams.CreateTeam(s.ctx, s.admin, "crew")
	s.ErrorIs(err, services.ErrTeamNameTaken)

	_, err = s.teams.CreateTeam(s.ctx, s.admin, "")
	s.ErrorIs(err, services.ErrInvalidTeamName)

	_, err = s.teams.CreateTeam(s.ctx, s.admin, strings.Repeat("x", models.MaxTeamNameLength+1))
	s.ErrorIs(err, services.ErrInvalidTeamName)

	_, err = s.teams.GetTeam(s.ctx, "missing")
	s.ErrorIs(err, services.ErrTeamNotFound)
}

func (s *ServicesTestSuite) TestCreateTeamWithAdmin() {
	alice := s.newUser("alice")

	team, membership, err := s.teams.CreateTeamWithAdmin(s.ctx, alice, "crew")
	s.Require().NoError(err)
	s.Equal("crew", team.Name)
	s.True(membership.IsAdmin())
	s.Equal(alice.ID, membership.UserID)

	administered, err := s.teams.AdminTeams(s.ctx, alice)
	s.Require().NoError(err)
	s.Require().Len(administered, 1)
	s.Equal(team.ID, administered[0].ID)

	_, _, err = s.teams.CreateTeamWithAdmin(s.ctx, alice, "crew")
	s.ErrorIs(err, services.ErrTeamNameTaken)
}

func (s *ServicesTestSuite) TestCreateTeamWithAdmin_RollsBackTeam() {
	// Never stored, so the membership's user reference cannot be satisfied.
	ghost := &models.User{ID: uuid.New(), Username: "ghost"}

	_, _, err := s.teams.CreateTeamWithAdmin(s.ctx, ghost, "crew")
	s.Require().Error(err)

	_, err = s.teams.GetTeam(s.ctx, "crew")
	s.ErrorIs(err, services.ErrTeamNotFound)

	count, err := teams.Teams(s.conn).Count(s.ctx)
	s.Require().NoError(err)
	s.Zero(count)

	s.newTeam("crew")
}

func (s *ServicesTestSuite) TestDeleteTeam_FreesName() {
	team := s.newTeam("crew")
	alice := s.newUser("alice")
	_, err := s.teams.AddMember(s.ctx, s.admin, alice, team, models.PermissionRead)
	s.Require().NoError(err)

	s.Require().NoError(s.teams.DeleteTeam(s.ctx, team, false))
	s.True(team.IsDeleted())

	_, err = s.teams.GetTeam(s.ctx, "crew")
	s.ErrorIs(err, services.ErrTeamNotFound)

	replacement := s.newTeam("crew")
	s.NotEqual(team.ID, replacement.ID)

	members, err := s.teams.Members(s.ctx, team)
	s.Require().NoError(err)
	s.Empty(members)
}

func (s *ServicesTestSuite) TestDeleteTeam_Hard() {
	team := s.newTeam("crew")
	s.Require().NoError(s.teams.DeleteTeam(s.ctx, team, true))

	count, err := teams.Teams(s.conn).Count(s.ctx)
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *ServicesTestSuite) TestMembershipLifecycle() {
	team := s.newTeam("crew")
	alice := s.newUser("alice")
	bob := s.newUser("bob")

	membership, err := s.teams.AddMember(s.ctx, s.admin, alice, team, models.PermissionWrite)
	s.Require().NoError(err)
	s.Equal(models.PermissionWrite, membership.Permissions)
	s.Equal(s.admin.ID, membership.CreatorID)

	_, err = s.teams.AddMember(s.ctx, s.admin, alice, team, models.PermissionRead)
	s.ErrorIs(err, services.ErrAlreadyMember)

	_, err = s.teams.AddMember(s.ctx, s.admin, bob, team, models.PermissionRead)
	s.Require().NoError(err)

	members, err := s.teams.Members(s.ctx, team)
	s.Require().NoError(err)
	s.Len(members, 2)

	updated, err := s.teams.SetPermission(s.ctx, alice, team, models.PermissionAdmin)
	s.Require().NoError(err)
	s.True(updated.IsAdmin())

	administered, err := s.teams.AdminTeams(s.ctx, alice)
	s.Require().NoError(err)
	s.Len(administered, 1)
	s.Equal(team.ID, administered[0].ID)

	s.Require().NoError(s.teams.RemoveMember(s.ctx, bob, team))
	s.ErrorIs(s.teams.RemoveMember(s.ctx, bob, team), services.ErrNotMember)

	_, err = s.teams.SetPermission(s.ctx, bob, team, models.PermissionRead)
	s.ErrorIs(err, services.ErrNotMember)

	rejoined, err := s.teams.AddMember(s.ctx, s.admin, bob, team, models.PermissionRead)
	s.Require().NoError(err)
	s.Equal(models.PermissionRead, rejoined.Permissions)
}

func (s *ServicesTestSuite) TestAddMember_DeletedTeam() {
	team := s.newTeam("crew")
	alice := s.newUser("alice")

	stale := *team
	s.Require().NoError(s.teams.DeleteTeam(s.ctx, team, false))

	_, err := s.teams.AddMember(s.ctx, s.admin, alice, &stale, models.PermissionRead)
	s.ErrorIs(err, services.ErrTeamDeleted)
}

func (s *ServicesTestSuite) TestAdminTeams() {
	a := s.newTeam("a")
	s.newTeam("b")
	deleted := s.newTeam("deleted")
	s.Require().NoError(s.teams.DeleteTeam(s.ctx, deleted, false))

	alice := s.newUser("alice")
	_, err := s.teams.AddMember(s.ctx, s.admin, alice, a, models.PermissionAdmin)
	s.Require().NoError(err)

	for _, scenario := range []struct {
		Name      string
		Principal models.Principal
		Expected  []string
	}{
		{Name: "superuser sees every active team", Principal: s.admin, Expected: []string{"a", "b"}},
		{Name: "member sees administered teams", Principal: alice, Expected: []string{"a"}},
		{Name: "anonymous sees nothing", Principal: models.AnonymousUser{}, Expected: nil},
	} {
		s.Run(scenario.Name, func() {
			found, err := s.teams.AdminTeams(s.ctx, scenario.Principal)
			s.Require().NoError(err)

			var names []string
			for _, t := range found {
				names = append(names, t.Name)
			}
			s.Equal(scenario.Expected, names)
		})
	}
}

func (s *ServicesTestSuite) TestAuthorize() {
	team := s.newTeam("crew")
	other := s.newTeam("other")
	alice := s.newUser("alice")
	bob := s.newUser("bob")

	_, err := s.teams.AddMember(s.ctx, s.admin, alice, team, models.PermissionAdmin)
	s.Require().NoError(err)
	_, err = s.teams.AddMember(s.ctx, s.admin, bob, team, models.PermissionWrite)
	s.Require().NoError(err)

	s.NoError(s.teams.Authorize(s.ctx, s.admin, team))
	s.NoError(s.teams.Authorize(s.ctx, alice, team))
	s.ErrorIs(s.teams.Authorize(s.ctx, alice, other), services.ErrPermissionDenied)
	s.ErrorIs(s.teams.Authorize(s.ctx, bob, team), services.ErrPermissionDenied)
	s.ErrorIs(s.teams.Authorize(s.ctx, models.AnonymousUser{}, team), services.ErrPermissionDenied)

	s.Require().NoError(s.teams.DeleteTeam(s.ctx, team, false))
	s.ErrorIs(s.teams.Authorize(s.ctx, s.admin, team), services.ErrPermissionDenied)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, services.IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, services.IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, services.IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, services.IsUniqueViolation(errors.New("constraint failed: UNIQUE constraint failed: teams.name (2067)")))
	assert.False(t, services.IsUniqueViolation(errors.New("disk I/O error")))
	assert.False(t, services.IsUniqueViolation(nil))
}
