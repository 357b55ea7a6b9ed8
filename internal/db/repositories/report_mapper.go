package repositories

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"seaborne/voyagedesk/internal/domain/report"
	models "seaborne/voyagedesk/internal/models/gorm"
)

// reportToRow flattens a report variant into its table row.
func reportToRow(r *report.Report) (*models.VoyageReport, error) {
	details, err := json.Marshal(r.Details)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report details: %w", err)
	}
	checklist, err := json.Marshal(r.Checklist)
	if err != nil {
		return nil, fmt.Errorf("failed to encode checklist: %w", err)
	}
	history := []byte("[]")
	if len(r.History) > 0 {
		if history, err = json.Marshal(r.History); err != nil {
			return nil, fmt.Errorf("failed to encode modification history: %w", err)
		}
	}

	row := &models.VoyageReport{
		ID:                      r.ID,
		VesselID:                r.VesselID,
		VoyageID:                r.VoyageID,
		ReportType:              r.Type(),
		Status:                  r.Status,
		ReportedAt:              r.ReportedAt.UTC(),
		Sequence:                r.Sequence,
		Latitude:                r.General.Latitude,
		Longitude:               r.General.Longitude,
		Remarks:                 r.General.Remarks,
		Inputs:                  r.Bunker.Inputs,
		CurrentROB:              r.Bunker.CurrentROB,
		TotalConsumption:        r.Bunker.TotalConsumption,
		DistanceSinceLastReport: r.Distance.SinceLastReport,
		HarbourDistance:         r.Distance.Harbour,
		TotalDistanceTravelled:  r.Distance.TotalDistanceTravelled,
		DistanceToGo:            r.Distance.DistanceToGo,
		Details:                 datatypes.JSON(details),
		Checklist:               datatypes.JSON(checklist),
		ModificationHistory:     datatypes.JSON(history),
		SubmittedBy:             r.SubmittedBy,
		ReviewedBy:              r.ReviewedBy,
		ReviewComment:           r.ReviewComment,
		ReviewedAt:              r.ReviewedAt,
		Version:                 r.Version,
		CreatedAt:               r.CreatedAt,
		UpdatedAt:               r.UpdatedAt,
	}
	if r.Bunker.InitialROB != nil {
		row.InitialROB = *r.Bunker.InitialROB
		row.HasInitialROB = true
	}
	return row, nil
}

// rowToReport rebuilds the tagged variant from a stored row.
func rowToReport(row *models.VoyageReport) (*report.Report, error) {
	details, err := report.NewDetails(row.ReportType)
	if err != nil {
		return nil, err
	}
	if len(row.Details) > 0 {
		if err := json.Unmarshal(row.Details, details); err != nil {
			return nil, fmt.Errorf("failed to decode details of report %s: %w", row.ID, err)
		}
	}

	r := &report.Report{
		ID:         row.ID,
		VesselID:   row.VesselID,
		VoyageID:   row.VoyageID,
		Status:     row.Status,
		ReportedAt: row.ReportedAt.UTC(),
		Sequence:   row.Sequence,
		General: report.General{
			Latitude:  row.Latitude,
			Longitude: row.Longitude,
			Remarks:   row.Remarks,
		},
		Bunker: report.BunkerBlock{
			Inputs:           row.Inputs,
			CurrentROB:       row.CurrentROB,
			TotalConsumption: row.TotalConsumption,
		},
		Distance: report.DistanceBlock{
			SinceLastReport:        row.DistanceSinceLastReport,
			Harbour:                row.HarbourDistance,
			TotalDistanceTravelled: row.TotalDistanceTravelled,
			DistanceToGo:           row.DistanceToGo,
		},
		Details:       details,
		SubmittedBy:   row.SubmittedBy,
		ReviewedBy:    row.ReviewedBy,
		ReviewComment: row.ReviewComment,
		ReviewedAt:    row.ReviewedAt,
		Version:       row.Version,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
	if row.HasInitialROB {
		rob := row.InitialROB
		r.Bunker.InitialROB = &rob
	}
	if len(row.Checklist) > 0 && string(row.Checklist) != "null" {
		if err := json.Unmarshal(row.Checklist, &r.Checklist); err != nil {
			return nil, fmt.Errorf("failed to decode checklist of report %s: %w", row.ID, err)
		}
	}
	if len(row.ModificationHistory) > 0 {
		if err := json.Unmarshal(row.ModificationHistory, &r.History); err != nil {
			return nil, fmt.Errorf("failed to decode history of report %s: %w", row.ID, err)
		}
	}
	return r, nil
}

func rowsToReports(rows []models.VoyageReport) ([]*report.Report, error) {
	out := make([]*report.Report, 0, len(rows))
	for i := range rows {
		r, err := rowToReport(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
