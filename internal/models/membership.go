package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/waikato-ufdl/simple-teams/internal/softdelete"
)

type Permission string

const (
	PermissionRead  Permission = "R"
	PermissionWrite Permission = "W"
	PermissionAdmin Permission = "A"
)

// ParsePermission accepts either the stored code or the permission's name.
func ParsePermission(s string) (Permission, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "r", "read":
		return PermissionRead, nil
	case "w", "write":
		return PermissionWrite, nil
	case "a", "admin":
		return PermissionAdmin, nil
	}
	return "", fmt.Errorf("unknown permission %q: expected read, write or admin", s)
}

func (p Permission) String() string {
	switch p {
	case PermissionRead:
		return "read"
	case PermissionWrite:
		return "write"
	case PermissionAdmin:
		return "admin"
	}
	return string(p)
}

// Membership is a user's membership of a team. A user has at most one
// active membership per team.
type Membership struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:one_active_membership_per_user_per_team,where:deletion_time IS NULL" json:"user_id"`
	TeamID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:one_active_membership_per_user_per_team,where:deletion_time IS NULL" json:"team_id"`
	Permissions Permission `gorm:"type:varchar(1);not null;default:'R'" json:"permissions"`

	softdelete.Model

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Team *Team `gorm:"foreignKey:TeamID;constraint:OnDelete:CASCADE" json:"team,omitempty"`
}

func (m *Membership) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Permissions == "" {
		m.Permissions = PermissionRead
	}
	return nil
}

// IsAdmin reports whether the member administers the team.
func (m *Membership) IsAdmin() bool {
	return m.Permissions == PermissionAdmin
}

func (m *Membership) OwningTeam() (*Team, error) {
	if m.Team == nil {
		return nil, fmt.Errorf("membership %s: %w", m.ID, ErrOwnerNotLoaded)
	}
	return m.Team, nil
}

func (m *Membership) String() string {
	user, team := m.UserID.String(), m.TeamID.String()
	if m.User != nil {
		user = m.User.Username
	}
	if m.Team != nil {
		team = m.Team.Name
	}
	return fmt.Sprintf("User %q in team %q", user, team)
}
