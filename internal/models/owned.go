package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotImplemented is returned by capabilities a concrete type claims but does not provide.
	ErrNotImplemented = errors.New("not implemented")
	// ErrOwnerNotLoaded is returned when the owning team association was not loaded.
	ErrOwnerNotLoaded = errors.New("owning team not loaded")
)

// TeamOwned is implemented by records that belong to exactly one team.
type TeamOwned interface {
	OwningTeam() (*Team, error)
}

// TeamOwnedModel can be embedded by records that will resolve their owning
// team themselves. Until they do, OwningTeam fails.
type TeamOwnedModel struct{}

func (TeamOwnedModel) OwningTeam() (*Team, error) {
	return nil, fmt.Errorf("OwningTeam: %w", ErrNotImplemented)
}
