// Package softdelete records deletion as a timestamp instead of removing rows,
// and provides query sets that partition records into active and deleted.
package softdelete

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeletionColumn is the column holding the deletion time. NULL means active.
const DeletionColumn = "deletion_time"

// Model is embedded by every soft-deletable entity.
type Model struct {
	// The user that created the record
	CreatorID uuid.UUID `gorm:"type:uuid;not null;index" json:"creator_id"`

	CreationTime time.Time `gorm:"autoCreateTime;not null" json:"creation_time"`

	DeletionTime gorm.DeletedAt `gorm:"index" json:"deletion_time,omitempty"`
}

// IsActive reports whether the record has not been deleted.
func (m Model) IsActive() bool {
	return !m.DeletionTime.Valid
}

// IsDeleted reports whether the record has been deleted.
func (m Model) IsDeleted() bool {
	return !m.IsActive()
}

func (m *Model) markDeleted(at time.Time) {
	m.DeletionTime = gorm.DeletedAt{Time: at, Valid: true}
}

// Entity is implemented by pointers to structs embedding Model.
type Entity interface {
	IsActive() bool
	IsDeleted() bool
	markDeleted(at time.Time)
}
