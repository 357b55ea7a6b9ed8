package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"seaborne/voyagedesk/internal/constants"
	"seaborne/voyagedesk/internal/domain/report"
	"seaborne/voyagedesk/internal/domain/voyagestate"
)

func TestDeriveVesselState_CachedUntilInvalidated(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	state, err := env.state.DeriveVesselState(ctx, env.vesselID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if state != voyagestate.NoVoyageActive {
		t.Fatalf("Expected %s, got %s", voyagestate.NoVoyageActive, state)
	}

	// written behind the service's back, so nothing invalidates the cache
	initial := lsifo("500")
	req := env.departureRequest(t, env.start, &initial)
	rep, err := buildReport(env.vesselID, req)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	rep.ID = uuid.NewString()
	rep.Sequence = 1
	rep.Status = constants.StatusPending
	if err := env.reports.Create(ctx, rep); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	state, _ = env.state.DeriveVesselState(ctx, env.vesselID)
	if state != voyagestate.NoVoyageActive {
		t.Errorf("Expected cached %s, got %s", voyagestate.NoVoyageActive, state)
	}

	env.state.Invalidate(env.vesselID, "")
	state, _ = env.state.DeriveVesselState(ctx, env.vesselID)
	if state != voyagestate.ReportPending {
		t.Errorf("Expected %s after invalidation, got %s", voyagestate.ReportPending, state)
	}
}

func TestDeriveVoyageState_UnknownVoyage(t *testing.T) {
	env := setupTestEnv(t)

	_, err := env.state.DeriveVoyageState(context.Background(), uuid.NewString())
	if !errors.Is(err, constants.ErrVoyageNotFound) {
		t.Fatalf("Expected voyage not found, got %v", err)
	}
}

func TestDeriveVoyageState_FollowsChain(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	dep, _, _ := env.seedVoyage(t)

	arrival := &report.Arrival{ArrivalPort: "NLRTM", AverageSpeed: dec("12")}
	req := env.noonRequest(t, env.start.Add(72*time.Hour), "20", "200")
	req.ReportType = constants.ReportArrival
	req.Details = rawDetails(t, arrival)
	env.submitAndApprove(t, req)

	state, err := env.state.DeriveVoyageState(ctx, *dep.VoyageID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if state != voyagestate.Arrived {
		t.Errorf("Expected %s, got %s", voyagestate.Arrived, state)
	}

	allowed := env.state.AllowedNextReports(state)
	if len(allowed) != 2 || allowed[0] != constants.ReportArrivalAnchorNoon || allowed[1] != constants.ReportBerth {
		t.Errorf("Expected anchor noon or berth next, got %v", allowed)
	}
}
