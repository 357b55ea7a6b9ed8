package gorm

import (
	"time"

	"seaborne/voyagedesk/internal/constants"
)

// User is a captain or shore office account.
type User struct {
	ID        string         `gorm:"column:id;primaryKey;type:uuid"`
	Email     string         `gorm:"column:email;uniqueIndex;not null"`
	Name      string         `gorm:"column:name"`
	Role      constants.Role `gorm:"column:role;type:varchar(20);not null"`
	VesselID  *string        `gorm:"column:vessel_id;type:uuid;index"`
	IsActive  bool           `gorm:"column:is_active;default:true"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`

	// Relationships
	Vessel *Vessel `gorm:"foreignKey:VesselID"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}
