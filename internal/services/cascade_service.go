package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"seaborne/voyagedesk/internal/auth"
	"seaborne/voyagedesk/internal/common"
	"seaborne/voyagedesk/internal/constants"
	"seaborne/voyagedesk/internal/db/repositories"
	"seaborne/voyagedesk/internal/domain/cascade"
	"seaborne/voyagedesk/internal/domain/report"
	"seaborne/voyagedesk/internal/logging"
	"seaborne/voyagedesk/internal/metrics"
)

// CascadeService previews and applies edits to approved reports,
// recalculating every later report of the same voyage.
type CascadeService struct {
	db     *gorm.DB
	stores ledgerStores
	locker common.VoyageLocker
	notify notifier
}

func NewCascadeService(
	db *gorm.DB,
	reports *repositories.ReportRepo,
	voyages *repositories.VoyageRepo,
	vessels *repositories.VesselRepo,
	locker common.VoyageLocker,
	events common.EventStream,
	state *VoyageStateService,
	m *metrics.MetricsRegistry,
) *CascadeService {
	return &CascadeService{
		db:     db,
		stores: ledgerStores{reports: reports, voyages: voyages, vessels: vessels},
		locker: locker,
		notify: notifier{events: events, state: state, metrics: m},
	}
}

// plan is a cascade computed from one read of the chain.
type plan struct {
	target  *report.Report
	chain   cascade.Chain
	changes []report.FieldModification
	result  cascade.Result
}

// PreviewCascade computes the effect of changes on the report and all
// later reports of its voyage without writing anything.
func (s *CascadeService) PreviewCascade(ctx context.Context, claims auth.UserClaims, reportID string, changes []report.FieldModification) (*cascade.Result, error) {
	start := time.Now()
	p, err := s.plan(ctx, claims, reportID, changes)
	s.observe("preview", start, p, err)
	if err != nil {
		return nil, err
	}
	return &p.result, nil
}

// ApplyCascade recomputes the preview under the vessel lock and commits it
// if the chain still matches chainVersion and the result is valid. An
// invalid result is returned together with an ErrValidation error and
// nothing is written.
func (s *CascadeService) ApplyCascade(
	ctx context.Context,
	claims auth.UserClaims,
	reportID string,
	changes []report.FieldModification,
	chainVersion string,
) (*cascade.Result, *report.ModificationRecord, error) {
	start := time.Now()
	if chainVersion == "" {
		return nil, nil, fmt.Errorf("%w: chainVersion from the preview is required", constants.ErrStalePreview)
	}

	target, err := s.stores.reports.GetReport(ctx, reportID)
	if err != nil {
		return nil, nil, err
	}
	if target.VoyageID == nil {
		return nil, nil, fmt.Errorf("%w: report %s is not part of a voyage", constants.ErrStructural, reportID)
	}

	// same key as submission and review: every write that reads or extends
	// a vessel's chain is serialized
	release, err := s.locker.Lock(ctx, vesselLockKey(target.VesselID), lockWait)
	if err != nil {
		return nil, nil, err
	}
	defer release()

	p, err := s.plan(ctx, claims, reportID, changes)
	if err != nil {
		s.observe("apply", start, p, err)
		return nil, nil, err
	}
	if p.result.ChainVersion != chainVersion {
		err := fmt.Errorf("%w: voyage %s", constants.ErrStalePreview, p.chain.VoyageID)
		s.observe("apply", start, p, err)
		return nil, nil, err
	}
	if !p.result.IsValid {
		err := fmt.Errorf("%w: %d report(s) would become inconsistent", constants.ErrValidation, countInvalid(p.result))
		s.observe("apply", start, p, err)
		return &p.result, nil, err
	}

	record := s.record(claims, p)
	edited := p.result.Recomputed[0]
	edited.History = append(edited.History, record)
	edited.Checklist = nil

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.stores.reports.WithTx(tx).SaveReports(ctx, p.result.Recomputed); err != nil {
			return err
		}
		if d := edited.Departure(); d != nil {
			if err := s.stores.voyages.WithTx(tx).SyncFromDeparture(ctx, p.chain.VoyageID, d); err != nil {
				return err
			}
			active, err := s.stores.voyages.WithTx(tx).GetActiveVoyage(ctx, edited.VesselID)
			if err != nil {
				return err
			}
			if active != nil && active.ID == p.chain.VoyageID {
				return s.stores.vessels.WithTx(tx).SetLastDestinationPort(ctx, edited.VesselID, d.DestinationPort)
			}
		}
		return nil
	})
	s.observe("apply", start, p, err)
	if err != nil {
		return nil, nil, err
	}

	s.notify.committed(ctx, constants.EventCascadeApplied, edited, claims.UserID())
	return &p.result, &record, nil
}

// plan reads the voyage chain, checks the caller's rights and the proposed
// changes, and walks the chain.
func (s *CascadeService) plan(ctx context.Context, claims auth.UserClaims, reportID string, changes []report.FieldModification) (*plan, error) {
	target, err := s.stores.reports.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if target.Status != constants.StatusApproved {
		return nil, fmt.Errorf("%w: report %s is %s, only approved reports can be modified", constants.ErrStructural, reportID, target.Status)
	}
	if target.VoyageID == nil {
		return nil, fmt.Errorf("%w: report %s is not part of a voyage", constants.ErrStructural, reportID)
	}

	checklist, err := s.checklistFor(claims, target)
	if err != nil {
		return nil, err
	}
	for _, ch := range changes {
		if g, ok := report.GroupOf(ch.FieldName); ok && g == report.GroupInitialROB {
			return nil, fmt.Errorf("%w: initial ROB cannot be modified once approved", constants.ErrStructural)
		}
	}
	if err := checkOldValues(target, changes); err != nil {
		return nil, err
	}

	edited := target.Clone()
	if err := edited.Apply(changes, checklist); err != nil {
		return nil, err
	}
	if err := edited.Validate(); err != nil {
		return nil, err
	}

	chain, err := s.loadChain(ctx, *target.VoyageID)
	if err != nil {
		return nil, err
	}
	idx := chain.Index(target.ID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: report %s is missing from its voyage chain", constants.ErrStructural, target.ID)
	}

	p := &plan{target: target, chain: chain, changes: changes}
	p.result = cascade.Walk(chain, idx, edited)
	return p, nil
}

// checklistFor returns the groups the caller may change. Shore staff edit
// freely (nil checklist); a captain needs an office authorization.
func (s *CascadeService) checklistFor(claims auth.UserClaims, target *report.Report) (report.Checklist, error) {
	if claims == nil {
		return nil, fmt.Errorf("%w: no caller identity", constants.ErrForbidden)
	}
	if claims.Role().IsShore() {
		return nil, nil
	}
	if !auth.CanActForVessel(claims, target.VesselID) {
		return nil, fmt.Errorf("%w: cannot modify reports of vessel %s", constants.ErrForbidden, target.VesselID)
	}
	if target.Checklist.Empty() {
		return nil, fmt.Errorf("%w: no modification has been authorized for report %s", constants.ErrForbiddenField, target.ID)
	}
	return target.Checklist, nil
}

// loadChain reads the approved chain of a voyage and the ROB it opened with.
func (s *CascadeService) loadChain(ctx context.Context, voyageID string) (cascade.Chain, error) {
	reports, err := s.stores.reports.GetVoyageReportChain(ctx, voyageID)
	if err != nil {
		return cascade.Chain{}, err
	}
	chain := cascade.Chain{VoyageID: voyageID, Reports: reports}
	if len(reports) == 0 {
		return chain, chain.Validate()
	}

	first := reports[0]
	switch {
	case first.Bunker.InitialROB != nil:
		chain.Opening.ROB = *first.Bunker.InitialROB
	default:
		prev, err := s.stores.reports.GetPrecedingApproved(ctx, first.VesselID, first.ReportedAt, first.Sequence)
		if err != nil {
			return cascade.Chain{}, err
		}
		if prev != nil {
			chain.Opening.ROB = prev.Bunker.CurrentROB
		} else {
			rob, _, err := s.stores.vessels.GetVesselInitialRob(ctx, first.VesselID)
			if err != nil {
				return cascade.Chain{}, err
			}
			chain.Opening.ROB = rob
		}
	}
	return chain, chain.Validate()
}

func (s *CascadeService) record(claims auth.UserClaims, p *plan) report.ModificationRecord {
	changes := make([]report.FieldModification, len(p.changes))
	for i, ch := range p.changes {
		old, _ := p.target.Value(ch.FieldName)
		changes[i] = report.FieldModification{FieldName: ch.FieldName, OldValue: old, NewValue: ch.NewValue}
	}
	ids := make([]string, len(p.result.AffectedReports))
	for i, a := range p.result.AffectedReports {
		ids[i] = a.ReportID
	}
	return report.ModificationRecord{
		ID:              uuid.NewString(),
		AppliedAt:       time.Now().UTC(),
		AppliedBy:       claims.UserID(),
		Changes:         changes,
		Checklist:       p.target.Checklist.Groups(),
		AffectedReports: ids,
	}
}

func (s *CascadeService) observe(op string, start time.Time, p *plan, err error) {
	outcome := "ok"
	switch {
	case err != nil:
		code, _ := constants.Classify(err)
		outcome = code
	case p != nil && !p.result.IsValid:
		outcome = constants.ErrCodeValidation
	}

	fields := []any{"operation", op, "outcome", outcome, "duration_ms", time.Since(start).Milliseconds()}
	if p != nil {
		fields = append(fields,
			"report_id", p.target.ID,
			"voyage_id", p.chain.VoyageID,
			"chain_length", len(p.chain.Reports),
			"valid", p.result.IsValid,
			"affected_reports", len(p.result.AffectedReports),
		)
	}
	if err != nil {
		fields = append(fields, "error", err.Error())
	}
	logging.Info("Cascade "+op, fields...)

	m := s.notify.metrics
	if m == nil {
		return
	}
	m.CascadeRunsTotal.WithLabelValues(op, outcome).Inc()
	m.CascadeDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if p != nil && op == "apply" && err == nil {
		m.CascadeChainLength.Observe(float64(len(p.result.AffectedReports)))
	}
}

func countInvalid(res cascade.Result) int {
	n := 0
	for _, a := range res.AffectedReports {
		if len(a.Errors) > 0 {
			n++
		}
	}
	if n == 0 && len(res.Errors) > 0 {
		n = 1
	}
	return n
}
