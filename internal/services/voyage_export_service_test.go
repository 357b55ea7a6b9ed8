package services

import (
	"context"
	"testing"

	"github.com/paulmach/orb"
	"github.com/xuri/excelize/v2"
)

func TestExportVoyageXLSX(t *testing.T) {
	env := setupTestEnv(t)
	dep, _, _ := env.seedVoyage(t)

	buf, filename, err := env.export.ExportVoyageXLSX(context.Background(), *dep.VoyageID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if filename == "" {
		t.Error("Expected a file name")
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("Failed to open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	if err != nil {
		t.Fatalf("Expected sheet %s, got %v", exportSheet, err)
	}
	// title, distance, generated, blank, header, three reports
	if len(rows) != 8 {
		t.Fatalf("Expected 8 rows, got %d", len(rows))
	}
	if rows[5][1] != "departure" || rows[7][1] != "noon" {
		t.Errorf("Expected departure then noons, got %s and %s", rows[5][1], rows[7][1])
	}
}

func TestVoyageTrack(t *testing.T) {
	env := setupTestEnv(t)
	dep, _, _ := env.seedVoyage(t)

	fc, err := env.export.VoyageTrack(context.Background(), *dep.VoyageID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	// only the departure carries a position
	if len(fc.Features) != 1 {
		t.Fatalf("Expected 1 feature, got %d", len(fc.Features))
	}
	pt, ok := fc.Features[0].Geometry.(orb.Point)
	if !ok {
		t.Fatalf("Expected a point, got %T", fc.Features[0].Geometry)
	}
	if pt.Lon() != 103.84 || pt.Lat() != 1.26 {
		t.Errorf("Expected lon 103.84 lat 1.26, got %v", pt)
	}
}
