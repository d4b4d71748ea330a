package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/waikato-ufdl/simple-teams/internal/softdelete"
)

// MaxTeamNameLength bounds Team.Name.
const MaxTeamNameLength = 200

// Team is a collection of users, joined to it through memberships.
type Team struct {
	ID   uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name string    `gorm:"size:200;not null;uniqueIndex:unique_active_team_names,where:deletion_time IS NULL" json:"name"`

	softdelete.Model
}

func (t *Team) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (t *Team) OwningTeam() (*Team, error) {
	return t, nil
}

func (t *Team) String() string {
	return t.Name
}
