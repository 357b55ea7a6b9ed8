package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"seaborne/voyagedesk/internal/auth"
	"seaborne/voyagedesk/internal/common"
	"seaborne/voyagedesk/internal/constants"
	"seaborne/voyagedesk/internal/db/repositories"
	"seaborne/voyagedesk/internal/domain/report"
	"seaborne/voyagedesk/internal/domain/voyagestate"
	"seaborne/voyagedesk/internal/logging"
	"seaborne/voyagedesk/internal/metrics"
	"seaborne/voyagedesk/internal/models/dtos"
)

// lockWait bounds how long a write waits for another write on the same
// vessel.
const lockWait = 5 * time.Second

// ReportSubmissionService files new captain reports.
type ReportSubmissionService struct {
	stores ledgerStores
	locker common.VoyageLocker
	notify notifier
}

func NewReportSubmissionService(
	reports *repositories.ReportRepo,
	voyages *repositories.VoyageRepo,
	vessels *repositories.VesselRepo,
	locker common.VoyageLocker,
	events common.EventStream,
	state *VoyageStateService,
	m *metrics.MetricsRegistry,
) *ReportSubmissionService {
	return &ReportSubmissionService{
		stores: ledgerStores{reports: reports, voyages: voyages, vessels: vessels},
		locker: locker,
		notify: notifier{events: events, state: state, metrics: m},
	}
}

// SubmitReport validates a captain's report against the vessel's state and
// the last approved report, computes its derived blocks and stores it as
// pending.
func (s *ReportSubmissionService) SubmitReport(
	ctx context.Context,
	claims auth.UserClaims,
	vesselID string,
	req *dtos.SubmitReportRequest,
) (*report.Report, error) {
	if !auth.CanActForVessel(claims, vesselID) {
		return nil, fmt.Errorf("%w: cannot file reports for vessel %s", constants.ErrForbidden, vesselID)
	}
	if _, err := s.stores.vessels.GetVessel(ctx, vesselID); err != nil {
		return nil, err
	}

	r, err := buildReport(vesselID, req)
	if err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	release, err := s.locker.Lock(ctx, vesselLockKey(vesselID), lockWait)
	if err != nil {
		return nil, err
	}
	defer release()

	heads, err := s.stores.reports.GetVesselHeads(ctx, vesselID)
	if err != nil {
		return nil, err
	}
	if _, err := voyagestate.Next(voyagestate.Derive(heads), r.Type()); err != nil {
		return nil, err
	}

	latest, err := s.stores.reports.GetLatestReport(ctx, vesselID)
	if err != nil {
		return nil, err
	}
	if latest != nil && !r.ReportedAt.After(latest.ReportedAt) {
		return nil, fmt.Errorf("%w: report time must be later than the previous report (%s)",
			constants.ErrValidation, latest.ReportedAt.UTC().Format(time.RFC3339))
	}

	tail, err := s.stores.tailFor(ctx, r)
	if err != nil {
		return nil, err
	}
	if err := derive(r, tail); err != nil {
		return nil, err
	}
	r.VoyageID = tail.voyageID

	seq, err := s.stores.reports.NextSequence(ctx, vesselID)
	if err != nil {
		return nil, err
	}
	r.ID = uuid.NewString()
	r.Sequence = seq
	r.Status = constants.StatusPending
	r.SubmittedBy = claims.UserID()

	if err := s.stores.reports.Create(ctx, r); err != nil {
		return nil, err
	}

	logging.Info("Report submitted",
		"report_id", r.ID,
		"vessel_id", vesselID,
		"report_type", r.Type(),
		"sequence", r.Sequence,
	)
	if s.notify.metrics != nil {
		s.notify.metrics.ReportsSubmittedTotal.WithLabelValues(string(r.Type())).Inc()
	}
	s.notify.committed(ctx, constants.EventReportSubmitted, r, claims.UserID())
	return r, nil
}

// buildReport decodes the variant details for the requested report type.
func buildReport(vesselID string, req *dtos.SubmitReportRequest) (*report.Report, error) {
	details, err := report.NewDetails(req.ReportType)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown report type %q", constants.ErrValidation, req.ReportType)
	}
	if len(req.Details) > 0 {
		if err := json.Unmarshal(req.Details, details); err != nil {
			return nil, fmt.Errorf("%w: invalid %s details: %v", constants.ErrValidation, req.ReportType, err)
		}
	}

	return &report.Report{
		VesselID:   vesselID,
		ReportedAt: req.ReportedAt.UTC(),
		General:    req.General,
		Bunker: report.BunkerBlock{
			Inputs:     req.Bunker.Inputs,
			InitialROB: req.Bunker.InitialROB,
		},
		Distance: report.DistanceBlock{
			SinceLastReport: req.Distance.SinceLastReport,
			Harbour:         req.Distance.Harbour,
		},
		Details: details,
	}, nil
}

// vesselLockKey is the lock held by every write to a vessel's reports:
// submission, review, resubmission and cascade apply. A voyage belongs to
// one vessel, so this also serializes writes within a voyage.
func vesselLockKey(vesselID string) string {
	return "vessel:" + vesselID
}
