package jobs

import (
	"context"
	"time"

	"seaborne/voyagedesk/internal/domain/report"
	"seaborne/voyagedesk/internal/domain/voyagestate"
	"seaborne/voyagedesk/internal/logging"
	"seaborne/voyagedesk/internal/metrics"
	models "seaborne/voyagedesk/internal/models/gorm"
)

type VesselLister interface {
	ListActive(ctx context.Context) ([]models.Vessel, error)
}

type PendingLister interface {
	GetPendingReports(ctx context.Context, vesselID string) ([]*report.Report, error)
}

type StateWarmer interface {
	DeriveVesselState(ctx context.Context, vesselID string) (voyagestate.State, error)
}

// ReviewBacklogJob walks every active vessel, publishes its pending report
// count and re-derives its voyage state so the cache is warm for captains
// opening the submission screen.
type ReviewBacklogJob struct {
	vessels VesselLister
	reports PendingLister
	states  StateWarmer
	metrics *metrics.MetricsRegistry
	overdue time.Duration
	now     func() time.Time
}

// RunResult summarises one pass.
type RunResult struct {
	Vessels int
	Pending int
	Overdue int
	Failed  int
}

func NewReviewBacklogJob(
	vessels VesselLister,
	reports PendingLister,
	states StateWarmer,
	m *metrics.MetricsRegistry,
	overdue time.Duration,
) *ReviewBacklogJob {
	return &ReviewBacklogJob{
		vessels: vessels,
		reports: reports,
		states:  states,
		metrics: m,
		overdue: overdue,
		now:     time.Now,
	}
}

// Run executes one pass. A failing vessel is logged and skipped.
func (j *ReviewBacklogJob) Run(ctx context.Context) (RunResult, error) {
	start := j.now()
	var res RunResult

	vessels, err := j.vessels.ListActive(ctx)
	if err != nil {
		return res, err
	}
	res.Vessels = len(vessels)

	for _, v := range vessels {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		pending, err := j.reports.GetPendingReports(ctx, v.ID)
		if err != nil {
			logging.Error("[ReviewBacklogJob] pending lookup failed", "vessel_id", v.ID, "error", err)
			res.Failed++
			continue
		}
		res.Pending += len(pending)
		if j.metrics != nil {
			j.metrics.ReportsAwaitingReview.WithLabelValues(v.ID).Set(float64(len(pending)))
		}
		for _, rep := range pending {
			if age := start.Sub(rep.CreatedAt); j.overdue > 0 && age > j.overdue {
				res.Overdue++
				logging.Warn("[ReviewBacklogJob] report awaiting review",
					"vessel_id", v.ID,
					"vessel", v.Name,
					"report_id", rep.ID,
					"report_type", rep.Type(),
					"age", age.Round(time.Minute).String(),
				)
			}
		}

		if _, err := j.states.DeriveVesselState(ctx, v.ID); err != nil {
			logging.Error("[ReviewBacklogJob] state derivation failed", "vessel_id", v.ID, "error", err)
			res.Failed++
		}
	}

	logging.Info("[ReviewBacklogJob] pass complete",
		"vessels", res.Vessels,
		"pending", res.Pending,
		"overdue", res.Overdue,
		"failed", res.Failed,
		"duration", j.now().Sub(start).String(),
	)
	return res, nil
}

// RunScheduled runs once immediately and then on every tick until ctx ends.
func (j *ReviewBacklogJob) RunScheduled(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if _, err := j.Run(ctx); err != nil {
		logging.Error("[ReviewBacklogJob] initial run failed", "error", err)
	}

	for {
		select {
		case <-ticker.C:
			if _, err := j.Run(ctx); err != nil {
				logging.Error("[ReviewBacklogJob] scheduled run failed", "error", err)
			}
		case <-ctx.Done():
			logging.Info("[ReviewBacklogJob] shutting down")
			return
		}
	}
}
