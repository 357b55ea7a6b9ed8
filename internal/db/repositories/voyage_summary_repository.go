package repositories

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// VoyageSummary is a read-only row of the voyage overview.
type VoyageSummary struct {
	VoyageID          string              `db:"voyage_id" json:"voyageId"`
	VesselID          string              `db:"vessel_id" json:"vesselId"`
	DeparturePort     string              `db:"departure_port" json:"departurePort"`
	DestinationPort   string              `db:"destination_port" json:"destinationPort"`
	TotalDistance     decimal.Decimal     `db:"total_distance" json:"totalDistance"`
	DepartedAt        time.Time           `db:"departed_at" json:"departedAt"`
	ReportCount       int                 `db:"report_count" json:"reportCount"`
	ApprovedCount     int                 `db:"approved_count" json:"approvedCount"`
	OutstandingCount  int                 `db:"outstanding_count" json:"outstandingCount"`
	DistanceTravelled decimal.NullDecimal `db:"distance_travelled" json:"distanceTravelled"`
	Completed         bool                `db:"completed" json:"completed"`
}

const voyageSummariesQuery = `
	SELECT
		v.id AS voyage_id,
		v.vessel_id,
		v.departure_port,
		v.destination_port,
		v.total_distance,
		v.departed_at,
		COUNT(r.id) AS report_count,
		COALESCE(SUM(CASE WHEN r.status = 'approved' THEN 1 ELSE 0 END), 0) AS approved_count,
		COALESCE(SUM(CASE WHEN r.status IN ('pending', 'changes_requested') THEN 1 ELSE 0 END), 0) AS outstanding_count,
		(
			SELECT lr.total_distance_travelled
			FROM voyage_reports lr
			WHERE lr.voyage_id = v.id AND lr.status = 'approved'
			ORDER BY lr.reported_at DESC, lr.sequence DESC
			LIMIT 1
		) AS distance_travelled,
		EXISTS (
			SELECT 1 FROM voyages nv
			WHERE nv.vessel_id = v.vessel_id AND nv.departed_at > v.departed_at
		) AS completed
	FROM voyages v
	LEFT JOIN voyage_reports r ON r.voyage_id = v.id
	WHERE v.vessel_id = ?
	GROUP BY v.id, v.vessel_id, v.departure_port, v.destination_port, v.total_distance, v.departed_at
	ORDER BY v.departed_at DESC
`

// VoyageSummaryRepo serves the voyage overview with hand written SQL.
type VoyageSummaryRepo struct {
	db *sqlx.DB
}

func NewVoyageSummaryRepo(db *sqlx.DB) *VoyageSummaryRepo {
	return &VoyageSummaryRepo{db}
}

// ListByVessel returns every voyage of a vessel, newest first. A voyage is
// completed once the vessel has departed again.
func (r *VoyageSummaryRepo) ListByVessel(ctx context.Context, vesselID string) ([]VoyageSummary, error) {
	summaries := []VoyageSummary{}
	err := r.db.SelectContext(ctx, &summaries, r.db.Rebind(voyageSummariesQuery), vesselID)
	if err != nil {
		return nil, err
	}
	return summaries, nil
}
