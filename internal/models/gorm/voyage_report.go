package gorm

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"seaborne/voyagedesk/internal/constants"
	"seaborne/voyagedesk/internal/domain/bunker"
)

// VoyageReport is the persisted form of every report variant. Shared
// bunker and distance blocks are columns; variant details are JSON.
type VoyageReport struct {
	ID         string                 `gorm:"column:id;primaryKey;type:uuid"`
	VesselID   string                 `gorm:"column:vessel_id;type:uuid;not null;index:idx_voyage_reports_vessel_order,priority:1"`
	VoyageID   *string                `gorm:"column:voyage_id;type:uuid;index:idx_voyage_reports_voyage_order,priority:1"`
	ReportType constants.ReportType   `gorm:"column:report_type;type:varchar(32);not null"`
	Status     constants.ReportStatus `gorm:"column:status;type:varchar(32);not null;index"`
	ReportedAt time.Time              `gorm:"column:reported_at;not null;index:idx_voyage_reports_vessel_order,priority:2;index:idx_voyage_reports_voyage_order,priority:2"`
	Sequence   int64                  `gorm:"column:sequence;not null"`

	// General block
	Latitude  *float64 `gorm:"column:latitude"`
	Longitude *float64 `gorm:"column:longitude"`
	Remarks   string   `gorm:"column:remarks;type:text"`

	// Bunker block
	Inputs           bunker.Inputs   `gorm:"embedded"`
	InitialROB       bunker.Snapshot `gorm:"embedded;embeddedPrefix:initial_rob_"`
	HasInitialROB    bool            `gorm:"column:has_initial_rob;default:false"`
	CurrentROB       bunker.Snapshot `gorm:"embedded;embeddedPrefix:rob_"`
	TotalConsumption bunker.Snapshot `gorm:"embedded;embeddedPrefix:total_"`

	// Distance block
	DistanceSinceLastReport decimal.Decimal `gorm:"column:distance_since_last_report;type:numeric(10,1);not null;default:0"`
	HarbourDistance         decimal.Decimal `gorm:"column:harbour_distance;type:numeric(10,1);not null;default:0"`
	TotalDistanceTravelled  decimal.Decimal `gorm:"column:total_distance_travelled;type:numeric(10,1);not null;default:0"`
	DistanceToGo            decimal.Decimal `gorm:"column:distance_to_go;type:numeric(10,1);not null;default:0"`

	Details             datatypes.JSON `gorm:"column:details"`
	Checklist           datatypes.JSON `gorm:"column:checklist"`
	ModificationHistory datatypes.JSON `gorm:"column:modification_history"`

	// Review
	SubmittedBy   string     `gorm:"column:submitted_by;type:uuid"`
	ReviewedBy    string     `gorm:"column:reviewed_by"`
	ReviewComment string     `gorm:"column:review_comment;type:text"`
	ReviewedAt    *time.Time `gorm:"column:reviewed_at"`

	// Incremented on every write; guards chain commits.
	Version   int64     `gorm:"column:version;not null;default:1"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (VoyageReport) TableName() string {
	return "voyage_reports"
}
