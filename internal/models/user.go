package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Principal is whoever a query is being run on behalf of.
type Principal interface {
	IsAuthenticated() bool
	IsSuperuser() bool
	IsStaff() bool
}

type User struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Username   string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email      string    `json:"email"`
	Superuser  bool      `gorm:"default:false" json:"superuser"`
	Staff      bool      `gorm:"default:false" json:"staff"`
	DateJoined time.Time `gorm:"autoCreateTime" json:"date_joined"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u *User) IsAuthenticated() bool { return true }
func (u *User) IsSuperuser() bool     { return u.Superuser }
func (u *User) IsStaff() bool         { return u.Staff }

func (u *User) String() string {
	return u.Username
}

// AnonymousUser stands in for a principal that has not logged in.
type AnonymousUser struct{}

func (AnonymousUser) IsAuthenticated() bool { return false }
func (AnonymousUser) IsSuperuser() bool     { return false }
func (AnonymousUser) IsStaff() bool         { return false }

func (AnonymousUser) String() string {
	return "AnonymousUser"
}
