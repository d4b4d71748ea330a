package dbtest

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/waikato-ufdl/simple-teams/internal/models"
)

func NewUser(t *testing.T, user models.User) models.User {
	t.Helper()

	result := models.User{
		ID:       uuid.New(),
		Username: "user-" + uuid.NewString()[:8],
	}

	if user.ID != uuid.Nil {
		result.ID = user.ID
	}
	if user.Username != "" {
		result.Username = user.Username
	}
	result.Email = user.Email
	result.Superuser = user.Superuser
	result.Staff = user.Staff

	return result
}

func CreateUsers(t *testing.T, conn *gorm.DB, users ...models.User) []models.User {
	t.Helper()

	var records []models.User
	for _, u := range users {
		records = append(records, NewUser(t, u))
	}

	require.NoError(t, conn.Create(&records).Error)
	return records
}

func NewTeam(t *testing.T, team models.Team) models.Team {
	t.Helper()

	result := models.Team{
		ID:   uuid.New(),
		Name: "team-" + uuid.NewString()[:8],
	}
	result.CreatorID = uuid.New()

	if team.ID != uuid.Nil {
		result.ID = team.ID
	}
	if team.Name != "" {
		result.Name = team.Name
	}
	if team.CreatorID != uuid.Nil {
		result.CreatorID = team.CreatorID
	}
	result.DeletionTime = team.DeletionTime

	return result
}

func CreateTeams(t *testing.T, conn *gorm.DB, teams ...models.Team) []models.Team {
	t.Helper()

	var records []models.Team
	for _, team := range teams {
		records = append(records, NewTeam(t, team))
	}

	require.NoError(t, conn.Create(&records).Error)
	return records
}

func NewMembership(t *testing.T, membership models.Membership) models.Membership {
	t.Helper()

	result := models.Membership{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		TeamID:      uuid.New(),
		Permissions: models.PermissionRead,
	}
	result.CreatorID = uuid.New()

	if membership.ID != uuid.Nil {
		result.ID = membership.ID
	}
	if membership.UserID != uuid.Nil {
		result.UserID = membership.UserID
	}
	if membership.TeamID != uuid.Nil {
		result.TeamID = membership.TeamID
	}
	if membership.Permissions != "" {
		result.Permissions = membership.Permissions
	}
	if membership.CreatorID != uuid.Nil {
		result.CreatorID = membership.CreatorID
	}
	result.DeletionTime = membership.DeletionTime

	return result
}

func CreateMemberships(t *testing.T, conn *gorm.DB, memberships ...models.Membership) []models.Membership {
	t.Helper()

	var records []models.Membership
	for _, m := range memberships {
		records = append(records, NewMembership(t, m))
	}

	require.NoError(t, conn.Omit(clause.Associations).Create(&records).Error)
	return records
}

// Deleted is a deletion time for records created already deleted.
func Deleted(at time.Time) gorm.DeletedAt {
	return gorm.DeletedAt{Time: at, Valid: true}
}
