package services

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrInvalidTeamName  = errors.New("invalid team name")
	ErrTeamNameTaken    = errors.New("an active team with that name already exists")
	ErrTeamNotFound     = errors.New("team not found")
	ErrTeamDeleted      = errors.New("team has been deleted")
	ErrAlreadyMember    = errors.New("user is already an active member of the team")
	ErrNotMember        = errors.New("user is not an active member of the team")
	ErrPermissionDenied = errors.New("permission denied")

	ErrInvalidUsername = errors.New("invalid username")
	ErrUsernameTaken   = errors.New("username already taken")
	ErrUserNotFound    = errors.New("user not found")
)

// uniqueViolation is the SQLSTATE postgres reports for a unique index conflict.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
