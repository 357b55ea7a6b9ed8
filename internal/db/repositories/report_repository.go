package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"seaborne/voyagedesk/internal/constants"
	"seaborne/voyagedesk/internal/domain/report"
	"seaborne/voyagedesk/internal/domain/voyagestate"
	models "seaborne/voyagedesk/internal/models/gorm"
)

// ReportRepo is the report record store.
type ReportRepo struct {
	db *gorm.DB
}

func NewReportRepo(db *gorm.DB) *ReportRepo {
	return &ReportRepo{db: db}
}

// WithTx returns a repository bound to an open transaction.
func (r *ReportRepo) WithTx(tx *gorm.DB) *ReportRepo {
	return &ReportRepo{db: tx}
}

// GetReport loads one report of any status.
func (r *ReportRepo) GetReport(ctx context.Context, id string) (*report.Report, error) {
	var row models.VoyageReport
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", constants.ErrReportNotFound, id)
		}
		return nil, fmt.Errorf("failed to fetch report: %w", err)
	}
	return rowToReport(&row)
}

// GetVoyageReportChain returns the approved reports of a voyage in
// chronological order.
func (r *ReportRepo) GetVoyageReportChain(ctx context.Context, voyageID string) ([]*report.Report, error) {
	var rows []models.VoyageReport
	err := r.db.WithContext(ctx).
		Where("voyage_id = ? AND status = ?", voyageID, constants.StatusApproved).
		Order("reported_at ASC, sequence ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch voyage chain: %w", err)
	}
	return rowsToReports(rows)
}

// GetVoyageReports returns every report of a voyage regardless of status.
func (r *ReportRepo) GetVoyageReports(ctx context.Context, voyageID string) ([]*report.Report, error) {
	var rows []models.VoyageReport
	err := r.db.WithContext(ctx).
		Where("voyage_id = ?", voyageID).
		Order("reported_at ASC, sequence ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch voyage reports: %w", err)
	}
	return rowsToReports(rows)
}

// GetPendingReports lists outstanding reports, newest first. An empty
// vesselID lists every vessel.
func (r *ReportRepo) GetPendingReports(ctx context.Context, vesselID string) ([]*report.Report, error) {
	q := r.db.WithContext(ctx).
		Where("status IN ?", []constants.ReportStatus{constants.StatusPending, constants.StatusChangesRequested})
	if vesselID != "" {
		q = q.Where("vessel_id = ?", vesselID)
	}
	var rows []models.VoyageReport
	if err := q.Order("reported_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch pending reports: %w", err)
	}
	return rowsToReports(rows)
}

// GetVesselHeads returns type and status of every report of a vessel in
// chronological order.
func (r *ReportRepo) GetVesselHeads(ctx context.Context, vesselID string) ([]voyagestate.Head, error) {
	return r.heads(ctx, "vessel_id = ?", vesselID)
}

// GetVoyageHeads is GetVesselHeads scoped to one voyage.
func (r *ReportRepo) GetVoyageHeads(ctx context.Context, voyageID string) ([]voyagestate.Head, error) {
	return r.heads(ctx, "voyage_id = ?", voyageID)
}

func (r *ReportRepo) heads(ctx context.Context, where string, arg string) ([]voyagestate.Head, error) {
	var rows []struct {
		ReportType constants.ReportType
		Status     constants.ReportStatus
	}
	err := r.db.WithContext(ctx).
		Model(&models.VoyageReport{}).
		Select("report_type, status").
		Where(where, arg).
		Order("reported_at ASC, sequence ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch report history: %w", err)
	}
	heads := make([]voyagestate.Head, len(rows))
	for i, row := range rows {
		heads[i] = voyagestate.Head{Type: row.ReportType, Status: row.Status}
	}
	return heads, nil
}

// GetLatestReport returns the newest non-rejected report of a vessel, or
// nil when the vessel has none.
func (r *ReportRepo) GetLatestReport(ctx context.Context, vesselID string) (*report.Report, error) {
	return r.latest(ctx, r.db.WithContext(ctx).
		Where("vessel_id = ? AND status <> ?", vesselID, constants.StatusRejected))
}

// GetLatestApproved returns the newest approved report of a vessel, or nil.
func (r *ReportRepo) GetLatestApproved(ctx context.Context, vesselID string) (*report.Report, error) {
	return r.latest(ctx, r.db.WithContext(ctx).
		Where("vessel_id = ? AND status = ?", vesselID, constants.StatusApproved))
}

// GetPrecedingApproved returns the approved report of the vessel directly
// before the given position, or nil.
func (r *ReportRepo) GetPrecedingApproved(ctx context.Context, vesselID string, reportedAt time.Time, sequence int64) (*report.Report, error) {
	return r.latest(ctx, r.db.WithContext(ctx).
		Where("vessel_id = ? AND status = ?", vesselID, constants.StatusApproved).
		Where("reported_at < ? OR (reported_at = ? AND sequence < ?)", reportedAt.UTC(), reportedAt.UTC(), sequence))
}

func (r *ReportRepo) latest(ctx context.Context, q *gorm.DB) (*report.Report, error) {
	var row models.VoyageReport
	err := q.Order("reported_at DESC, sequence DESC").First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch latest report: %w", err)
	}
	return rowToReport(&row)
}

// NextSequence returns the next submission counter for a vessel.
func (r *ReportRepo) NextSequence(ctx context.Context, vesselID string) (int64, error) {
	var max *int64
	err := r.db.WithContext(ctx).
		Model(&models.VoyageReport{}).
		Select("MAX(sequence)").
		Where("vessel_id = ?", vesselID).
		Scan(&max).Error
	if err != nil {
		return 0, fmt.Errorf("failed to compute report sequence: %w", err)
	}
	if max == nil {
		return 1, nil
	}
	return *max + 1, nil
}

// Create inserts a new report at version 1.
func (r *ReportRepo) Create(ctx context.Context, rep *report.Report) error {
	rep.Version = 1
	row, err := reportToRow(rep)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	rep.CreatedAt, rep.UpdatedAt = row.CreatedAt, row.UpdatedAt
	return nil
}

// SaveReports writes every report in one transaction. Each row is only
// updated if its stored version still equals the version it was read at;
// otherwise nothing is written and ErrStalePreview is returned.
func (r *ReportRepo) SaveReports(ctx context.Context, reports []*report.Report) error {
	rows := make([]*models.VoyageReport, len(reports))
	for i, rep := range reports {
		row, err := reportToRow(rep)
		if err != nil {
			return err
		}
		row.Version = rep.Version + 1
		rows[i] = row
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, row := range rows {
			res := tx.Model(&models.VoyageReport{}).
				Where("id = ? AND version = ?", row.ID, reports[i].Version).
				Select("*").
				Omit("id", "created_at").
				Updates(row)
			if res.Error != nil {
				return fmt.Errorf("failed to update report %s: %w", row.ID, res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("%w: report %s was modified concurrently", constants.ErrStalePreview, row.ID)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for i, rep := range reports {
		rep.Version = rows[i].Version
		rep.UpdatedAt = rows[i].UpdatedAt
	}
	return nil
}
