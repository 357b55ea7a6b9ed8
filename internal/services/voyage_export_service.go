package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/xuri/excelize/v2"

	"seaborne/voyagedesk/internal/db/repositories"
	"seaborne/voyagedesk/internal/domain/bunker"
	"seaborne/voyagedesk/internal/domain/report"
)

// VoyageExportService renders a voyage's approved reports for download.
type VoyageExportService struct {
	reports *repositories.ReportRepo
	voyages *repositories.VoyageRepo
}

func NewVoyageExportService(reports *repositories.ReportRepo, voyages *repositories.VoyageRepo) *VoyageExportService {
	return &VoyageExportService{reports: reports, voyages: voyages}
}

const exportSheet = "Voyage"

// ExportVoyageXLSX writes one row per approved report with its bunker and
// distance figures.
func (s *VoyageExportService) ExportVoyageXLSX(ctx context.Context, voyageID string) (*bytes.Buffer, string, error) {
	voyage, err := s.voyages.GetVoyage(ctx, voyageID)
	if err != nil {
		return nil, "", err
	}
	chain, err := s.reports.GetVoyageReportChain(ctx, voyageID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	title := fmt.Sprintf("%s to %s, departed %s", voyage.DeparturePort, voyage.DestinationPort, voyage.DepartedAt.UTC().Format("2006-01-02 15:04"))
	f.SetCellValue(exportSheet, "A1", title)
	f.SetCellStyle(exportSheet, "A1", "A1", titleStyle)
	f.SetCellValue(exportSheet, "A2", fmt.Sprintf("Voyage distance: %s nm", voyage.TotalDistance.StringFixed(1)))
	f.SetCellValue(exportSheet, "A3", fmt.Sprintf("Generated: %s", time.Now().UTC().Format("2006-01-02 15:04:05")))

	headers := []string{"Reported at (UTC)", "Type", "Leg (nm)", "Travelled (nm)", "To go (nm)"}
	for _, c := range bunker.Categories {
		headers = append(headers, fmt.Sprintf("%s consumed (%s)", c.Label(), c.Unit()))
	}
	for _, c := range bunker.Categories {
		headers = append(headers, fmt.Sprintf("%s ROB (%s)", c.Label(), c.Unit()))
	}
	headers = append(headers, "Remarks")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"1F4E78"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	const headerRow = 5
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, headerRow)
		f.SetCellValue(exportSheet, cell, h)
		f.SetCellStyle(exportSheet, cell, cell, headerStyle)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	f.SetColWidth(exportSheet, "A", lastCol, 16)

	for i, r := range chain {
		row := []any{
			r.ReportedAt.UTC().Format("2006-01-02 15:04"),
			string(r.Type()),
			r.LegDistance().InexactFloat64(),
			r.Distance.TotalDistanceTravelled.InexactFloat64(),
			r.Distance.DistanceToGo.InexactFloat64(),
		}
		consumed := r.Bunker.Inputs.Consumed()
		for _, c := range bunker.Categories {
			row = append(row, consumed.Get(c).InexactFloat64())
		}
		for _, c := range bunker.Categories {
			row = append(row, r.Bunker.CurrentROB.Get(c).InexactFloat64())
		}
		row = append(row, r.General.Remarks)

		cell, _ := excelize.CoordinatesToCellName(1, headerRow+1+i)
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, "", fmt.Errorf("failed to write row: %w", err)
		}
	}
	f.DeleteSheet("Sheet1")

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to render workbook: %w", err)
	}
	filename := fmt.Sprintf("voyage_%s_%s.xlsx", voyage.DepartedAt.UTC().Format("20060102"), voyage.ID[:8])
	return buf, filename, nil
}

// VoyageTrack returns the reported positions of a voyage as GeoJSON: one
// point per positioned report plus the connecting track line.
func (s *VoyageExportService) VoyageTrack(ctx context.Context, voyageID string) (*geojson.FeatureCollection, error) {
	voyage, err := s.voyages.GetVoyage(ctx, voyageID)
	if err != nil {
		return nil, err
	}
	chain, err := s.reports.GetVoyageReportChain(ctx, voyageID)
	if err != nil {
		return nil, err
	}

	fc := geojson.NewFeatureCollection()
	track := orb.LineString{}
	for _, r := range chain {
		pt, ok := position(r)
		if !ok {
			continue
		}
		track = append(track, pt)

		feature := geojson.NewFeature(pt)
		feature.Properties["reportId"] = r.ID
		feature.Properties["reportType"] = string(r.Type())
		feature.Properties["reportedAt"] = r.ReportedAt.UTC().Format(time.RFC3339)
		feature.Properties["distanceToGo"] = r.Distance.DistanceToGo.StringFixed(1)
		fc.Append(feature)
	}

	if len(track) >= 2 {
		line := geojson.NewFeature(track)
		line.Properties["voyageId"] = voyage.ID
		line.Properties["from"] = voyage.DeparturePort
		line.Properties["to"] = voyage.DestinationPort
		fc.Append(line)
	}
	return fc, nil
}

func position(r *report.Report) (orb.Point, bool) {
	if r.General.Latitude == nil || r.General.Longitude == nil {
		return orb.Point{}, false
	}
	// GeoJSON orders coordinates longitude first
	return orb.Point{*r.General.Longitude, *r.General.Latitude}, true
}
