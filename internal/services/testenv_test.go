package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"seaborne/voyagedesk/internal/auth"
	"seaborne/voyagedesk/internal/common"
	"seaborne/voyagedesk/internal/constants"
	"seaborne/voyagedesk/internal/db"
	"seaborne/voyagedesk/internal/db/repositories"
	"seaborne/voyagedesk/internal/domain/bunker"
	"seaborne/voyagedesk/internal/domain/report"
	"seaborne/voyagedesk/internal/metrics"
	"seaborne/voyagedesk/internal/models/dtos"
	models "seaborne/voyagedesk/internal/models/gorm"
)

// testEnv wires every service over a private sqlite database migrated with
// the production migrations.
type testEnv struct {
	db      *gorm.DB
	reports *repositories.ReportRepo
	voyages *repositories.VoyageRepo
	vessels *repositories.VesselRepo
	events  *common.MemoryEventStream
	locker  *common.LocalVoyageLocker

	state      *VoyageStateService
	submission *ReportSubmissionService
	review     *ReviewService
	cascade    *CascadeService
	export     *VoyageExportService

	vesselID string
	captain  auth.UserClaims
	office   auth.UserClaims
	start    time.Time
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	env := &testEnv{
		db:      gdb,
		reports: repositories.NewReportRepo(gdb),
		voyages: repositories.NewVoyageRepo(gdb),
		vessels: repositories.NewVesselRepo(gdb),
		events:  common.NewMemoryEventStream(64),
		start:   time.Date(2026, 9, 1, 6, 0, 0, 0, time.UTC),
	}

	m := metrics.NewMetricsRegistry(prometheus.NewRegistry())
	locker := common.NewLocalVoyageLocker()
	env.locker = locker
	cache := common.NewCacheService(time.Minute, 10*time.Minute)

	env.state = NewVoyageStateService(env.reports, env.voyages, cache, time.Minute, m)
	env.submission = NewReportSubmissionService(env.reports, env.voyages, env.vessels, locker, env.events, env.state, m)
	env.review = NewReviewService(gdb, env.reports, env.voyages, env.vessels, locker, env.events, env.state, m)
	env.cascade = NewCascadeService(gdb, env.reports, env.voyages, env.vessels, locker, env.events, env.state, m)
	env.export = NewVoyageExportService(env.reports, env.voyages)

	vessel := &models.Vessel{ID: uuid.NewString(), Name: "MV Northern Star", IMO: "9321483", IsActive: true}
	if err := env.vessels.Upsert(context.Background(), vessel); err != nil {
		t.Fatalf("Failed to create vessel: %v", err)
	}
	env.vesselID = vessel.ID
	env.captain = &auth.JWTClaims{UserUUID: uuid.NewString(), RoleValue: constants.RoleCaptain, VesselUUID: vessel.ID}
	env.office = &auth.JWTClaims{UserUUID: uuid.NewString(), RoleValue: constants.RoleOffice}
	return env
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func lsifo(v string) bunker.Snapshot { return bunker.Snapshot{LSIFO: dec(v)} }

func rawDetails(t *testing.T, d report.Details) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Failed to encode details: %v", err)
	}
	return b
}

func (env *testEnv) departureRequest(t *testing.T, at time.Time, initial *bunker.Snapshot) *dtos.SubmitReportRequest {
	lat, lon := 1.26, 103.84
	return &dtos.SubmitReportRequest{
		ReportType: constants.ReportDeparture,
		ReportedAt: at,
		General:    report.General{Latitude: &lat, Longitude: &lon},
		Bunker: dtos.BunkerInput{
			Inputs:     bunker.Inputs{Harbour: lsifo("2")},
			InitialROB: initial,
		},
		Distance: dtos.DistanceInput{Harbour: dec("10")},
		Details: rawDetails(t, &report.Departure{
			DeparturePort:   "SGSIN",
			DestinationPort: "NLRTM",
			VoyageDistance:  dec("8000"),
			CargoType:       "containers",
			CargoQuantity:   dec("42000"),
		}),
	}
}

func (env *testEnv) noonRequest(t *testing.T, at time.Time, meLSIFO, sinceLast string) *dtos.SubmitReportRequest {
	return &dtos.SubmitReportRequest{
		ReportType: constants.ReportNoon,
		ReportedAt: at,
		Bunker:     dtos.BunkerInput{Inputs: bunker.Inputs{MainEngine: lsifo(meLSIFO)}},
		Distance:   dtos.DistanceInput{SinceLastReport: dec(sinceLast)},
		Details:    rawDetails(t, &report.Noon{Course: dec("270"), AverageSpeed: dec("12.5"), WindForce: 4, SeaState: 3}),
	}
}

func (env *testEnv) submitAndApprove(t *testing.T, req *dtos.SubmitReportRequest) *report.Report {
	t.Helper()
	ctx := context.Background()
	rep, err := env.submission.SubmitReport(ctx, env.captain, env.vesselID, req)
	if err != nil {
		t.Fatalf("Expected no error submitting %s, got %v", req.ReportType, err)
	}
	approved, err := env.review.Approve(ctx, env.office, rep.ID, "")
	if err != nil {
		t.Fatalf("Expected no error approving %s, got %v", req.ReportType, err)
	}
	return approved
}

// seedVoyage files and approves a departure with an initial ROB of 500 MT
// LSIFO and two noon reports. The ROB is 498, 468 and 443.
func (env *testEnv) seedVoyage(t *testing.T) (dep, noon1, noon2 *report.Report) {
	t.Helper()
	initial := bunker.Snapshot{LSIFO: dec("500"), LSMGO: dec("100"), CylOil: dec("1000"), MEOil: dec("800"), AEOil: dec("600")}
	dep = env.submitAndApprove(t, env.departureRequest(t, env.start, &initial))
	noon1 = env.submitAndApprove(t, env.noonRequest(t, env.start.Add(24*time.Hour), "30", "300"))
	noon2 = env.submitAndApprove(t, env.noonRequest(t, env.start.Add(48*time.Hour), "25", "280"))
	return dep, noon1, noon2
}

func expectDecimal(t *testing.T, what string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("Expected %s %s, got %s", what, want, got)
	}
}
