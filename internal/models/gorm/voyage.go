package gorm

import (
	"time"

	"github.com/shopspring/decimal"
)

// Voyage is created when a departure report is approved. It has no closing
// record; a later departure of the same vessel completes it.
type Voyage struct {
	ID                string          `gorm:"column:id;primaryKey;type:uuid"`
	VesselID          string          `gorm:"column:vessel_id;type:uuid;not null;index"`
	DepartureReportID string          `gorm:"column:departure_report_id;type:uuid;uniqueIndex"`
	DeparturePort     string          `gorm:"column:departure_port;not null"`
	DestinationPort   string          `gorm:"column:destination_port;not null"`
	TotalDistance     decimal.Decimal `gorm:"column:total_distance;type:numeric(10,1);not null"`
	CargoType         string          `gorm:"column:cargo_type"`
	CargoQuantity     decimal.Decimal `gorm:"column:cargo_quantity;type:numeric(14,2)"`
	CargoStatus       string          `gorm:"column:cargo_status"`
	DepartedAt        time.Time       `gorm:"column:departed_at;not null"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`

	// Relationships
	Vessel Vessel `gorm:"foreignKey:VesselID"`
}

// TableName specifies the table name for GORM
func (Voyage) TableName() string {
	return "voyages"
}
