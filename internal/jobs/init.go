package jobs

import (
	"context"
	"time"

	"seaborne/voyagedesk/internal/metrics"
)

// InitializeJobs starts the periodic jobs in the background.
func InitializeJobs(
	ctx context.Context,
	vessels VesselLister,
	reports PendingLister,
	states StateWarmer,
	m *metrics.MetricsRegistry,
	interval time.Duration,
	overdue time.Duration,
) *ReviewBacklogJob {
	backlog := NewReviewBacklogJob(vessels, reports, states, m, overdue)

	go backlog.RunScheduled(ctx, interval)

	return backlog
}
