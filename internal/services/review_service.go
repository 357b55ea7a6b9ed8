package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"seaborne/voyagedesk/internal/auth"
	"seaborne/voyagedesk/internal/common"
	"seaborne/voyagedesk/internal/constants"
	"seaborne/voyagedesk/internal/db/repositories"
	"seaborne/voyagedesk/internal/domain/report"
	"seaborne/voyagedesk/internal/domain/voyagestate"
	"seaborne/voyagedesk/internal/logging"
	"seaborne/voyagedesk/internal/metrics"
	models "seaborne/voyagedesk/internal/models/gorm"
)

// ReviewService moves reports through office review and captain
// resubmission.
type ReviewService struct {
	db     *gorm.DB
	stores ledgerStores
	locker common.VoyageLocker
	notify notifier
}

func NewReviewService(
	db *gorm.DB,
	reports *repositories.ReportRepo,
	voyages *repositories.VoyageRepo,
	vessels *repositories.VesselRepo,
	locker common.VoyageLocker,
	events common.EventStream,
	state *VoyageStateService,
	m *metrics.MetricsRegistry,
) *ReviewService {
	return &ReviewService{
		db:     db,
		stores: ledgerStores{reports: reports, voyages: voyages, vessels: vessels},
		locker: locker,
		notify: notifier{events: events, state: state, metrics: m},
	}
}

// Approve accepts a pending report. Its derived blocks are recomputed from
// the current chain tail; approving a departure opens the voyage.
func (s *ReviewService) Approve(ctx context.Context, claims auth.UserClaims, reportID, comment string) (*report.Report, error) {
	return s.review(ctx, claims, reportID, "approve", func(ctx context.Context, r *report.Report) error {
		heads, err := s.stores.reports.GetVesselHeads(ctx, r.VesselID)
		if err != nil {
			return err
		}
		if _, err := voyagestate.Next(voyagestate.Derive(approvedOnly(heads)), r.Type()); err != nil {
			return err
		}

		tail, err := s.stores.tailFor(ctx, r)
		if err != nil {
			return err
		}
		if err := derive(r, tail); err != nil {
			return err
		}
		r.VoyageID = tail.voyageID
		r.Status = constants.StatusApproved
		r.ReviewComment = comment

		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if d := r.Departure(); d != nil {
				if err := s.openVoyage(ctx, tx, r, d); err != nil {
					return err
				}
			}
			return s.stores.reports.WithTx(tx).SaveReports(ctx, []*report.Report{r})
		})
	})
}

// openVoyage creates the voyage of an approved departure and records the
// vessel's destination and, on its first departure, its initial ROB.
func (s *ReviewService) openVoyage(ctx context.Context, tx *gorm.DB, r *report.Report, d *report.Departure) error {
	voyage := &models.Voyage{
		ID:                uuid.NewString(),
		VesselID:          r.VesselID,
		DepartureReportID: r.ID,
		DeparturePort:     d.DeparturePort,
		DestinationPort:   d.DestinationPort,
		TotalDistance:     d.VoyageDistance,
		CargoType:         d.CargoType,
		CargoQuantity:     d.CargoQuantity,
		CargoStatus:       d.CargoStatus,
		DepartedAt:        r.ReportedAt,
	}
	if err := s.stores.voyages.WithTx(tx).Create(ctx, voyage); err != nil {
		return err
	}
	r.VoyageID = &voyage.ID

	vessels := s.stores.vessels.WithTx(tx)
	if err := vessels.SetLastDestinationPort(ctx, r.VesselID, d.DestinationPort); err != nil {
		return err
	}
	if r.Bunker.InitialROB != nil {
		if err := vessels.SetInitialROB(ctx, r.VesselID, *r.Bunker.InitialROB); err != nil {
			return err
		}
	}
	return nil
}

// Reject closes a pending report. The vessel's state falls back to its
// last approved report.
func (s *ReviewService) Reject(ctx context.Context, claims auth.UserClaims, reportID, comment string) (*report.Report, error) {
	if strings.TrimSpace(comment) == "" {
		return nil, fmt.Errorf("%w: a comment is required when rejecting", constants.ErrValidation)
	}
	return s.review(ctx, claims, reportID, "reject", func(ctx context.Context, r *report.Report) error {
		r.Status = constants.StatusRejected
		r.ReviewComment = comment
		return s.stores.reports.SaveReports(ctx, []*report.Report{r})
	})
}

// RequestChanges returns a pending report to the captain with the field
// groups they may change.
func (s *ReviewService) RequestChanges(ctx context.Context, claims auth.UserClaims, reportID, comment string, groups []report.Group) (*report.Report, error) {
	checklist, err := report.NewChecklist(groups...)
	if err != nil {
		return nil, err
	}
	if checklist.Empty() {
		return nil, fmt.Errorf("%w: at least one field group must be unlocked", constants.ErrValidation)
	}
	return s.review(ctx, claims, reportID, "request_changes", func(ctx context.Context, r *report.Report) error {
		r.Status = constants.StatusChangesRequested
		r.ReviewComment = comment
		r.Checklist = checklist
		return s.stores.reports.SaveReports(ctx, []*report.Report{r})
	})
}

func (s *ReviewService) review(
	ctx context.Context,
	claims auth.UserClaims,
	reportID string,
	decision string,
	apply func(context.Context, *report.Report) error,
) (*report.Report, error) {
	if claims == nil || !claims.Role().IsShore() {
		return nil, fmt.Errorf("%w: only office staff review reports", constants.ErrForbidden)
	}

	r, err := s.stores.reports.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}

	release, err := s.locker.Lock(ctx, vesselLockKey(r.VesselID), lockWait)
	if err != nil {
		return nil, err
	}
	defer release()

	// re-read under the lock
	r, err = s.stores.reports.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if r.Status != constants.StatusPending {
		return nil, fmt.Errorf("%w: report %s is %s", constants.ErrInvalidTransition, reportID, r.Status)
	}

	now := time.Now().UTC()
	r.ReviewedBy = claims.UserID()
	r.ReviewedAt = &now
	r.Checklist = nil

	if err := apply(ctx, r); err != nil {
		return nil, err
	}

	logging.Info("Report reviewed",
		"report_id", r.ID,
		"vessel_id", r.VesselID,
		"decision", decision,
		"reviewed_by", r.ReviewedBy,
	)
	if s.notify.metrics != nil {
		s.notify.metrics.ReportsReviewedTotal.WithLabelValues(decision).Inc()
	}
	s.notify.committed(ctx, constants.EventReportReviewed, r, claims.UserID())
	return r, nil
}

// Resubmit applies a captain's corrections to a report returned with
// requested changes and puts it back in review.
func (s *ReviewService) Resubmit(ctx context.Context, claims auth.UserClaims, reportID string, changes []report.FieldModification) (*report.Report, error) {
	r, err := s.stores.reports.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if !auth.CanActForVessel(claims, r.VesselID) {
		return nil, fmt.Errorf("%w: cannot resubmit reports of vessel %s", constants.ErrForbidden, r.VesselID)
	}

	release, err := s.locker.Lock(ctx, vesselLockKey(r.VesselID), lockWait)
	if err != nil {
		return nil, err
	}
	defer release()

	r, err = s.stores.reports.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if r.Status != constants.StatusChangesRequested {
		return nil, fmt.Errorf("%w: report %s is %s", constants.ErrInvalidTransition, reportID, r.Status)
	}
	if err := checkOldValues(r, changes); err != nil {
		return nil, err
	}
	if err := r.Apply(changes, r.Checklist); err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	tail, err := s.stores.tailFor(ctx, r)
	if err != nil {
		return nil, err
	}
	if err := derive(r, tail); err != nil {
		return nil, err
	}
	r.VoyageID = tail.voyageID
	r.Status = constants.StatusPending
	r.Checklist = nil

	if err := s.stores.reports.SaveReports(ctx, []*report.Report{r}); err != nil {
		return nil, err
	}

	logging.Info("Report resubmitted", "report_id", r.ID, "vessel_id", r.VesselID, "changes", len(changes))
	s.notify.committed(ctx, constants.EventReportSubmitted, r, claims.UserID())
	return r, nil
}

// AuthorizeModification unlocks field groups of an approved report so its
// captain can correct it through a cascade.
func (s *ReviewService) AuthorizeModification(ctx context.Context, claims auth.UserClaims, reportID string, groups []report.Group) (*report.Report, error) {
	if claims == nil || !claims.Role().IsShore() {
		return nil, fmt.Errorf("%w: only office staff authorize modifications", constants.ErrForbidden)
	}
	checklist, err := report.NewChecklist(groups...)
	if err != nil {
		return nil, err
	}
	if checklist.Empty() {
		return nil, fmt.Errorf("%w: at least one field group must be unlocked", constants.ErrValidation)
	}
	if _, ok := checklist[report.GroupInitialROB]; ok {
		return nil, fmt.Errorf("%w: initial ROB cannot be modified once approved", constants.ErrStructural)
	}

	r, err := s.stores.reports.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if r.Status != constants.StatusApproved {
		return nil, fmt.Errorf("%w: report %s is %s", constants.ErrInvalidTransition, reportID, r.Status)
	}
	r.Checklist = checklist
	if err := s.stores.reports.SaveReports(ctx, []*report.Report{r}); err != nil {
		return nil, err
	}

	logging.Info("Modification authorized", "report_id", r.ID, "groups", checklist.Groups(), "authorized_by", claims.UserID())
	return r, nil
}

func approvedOnly(heads []voyagestate.Head) []voyagestate.Head {
	out := heads[:0:0]
	for _, h := range heads {
		if h.Status == constants.StatusApproved {
			out = append(out, h)
		}
	}
	return out
}

// checkOldValues rejects changes whose old value no longer matches the
// stored report. A nil old value is not checked.
func checkOldValues(r *report.Report, changes []report.FieldModification) error {
	for _, ch := range changes {
		ok, err := r.Matches(ch.FieldName, ch.OldValue)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s changed since it was read", constants.ErrStalePreview, ch.FieldName)
		}
	}
	return nil
}
