package gorm

import (
	"time"

	"seaborne/voyagedesk/internal/domain/bunker"
)

type Vessel struct {
	ID                  string `gorm:"column:id;primaryKey;type:uuid"`
	Name                string `gorm:"column:name;not null"`
	IMO                 string `gorm:"column:imo;uniqueIndex;type:varchar(10)"`
	LastDestinationPort string `gorm:"column:last_destination_port"`

	// Set once by the first approved departure, never changed afterwards.
	InitialROB    bunker.Snapshot `gorm:"embedded;embeddedPrefix:initial_rob_"`
	InitialROBSet bool            `gorm:"column:initial_rob_set;default:false"`

	IsActive  bool      `gorm:"column:is_active;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`

	// Relationships
	Voyages []Voyage `gorm:"foreignKey:VesselID"`
}

// TableName specifies the table name for GORM
func (Vessel) TableName() string {
	return "vessels"
}
