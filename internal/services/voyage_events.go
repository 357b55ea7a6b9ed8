package services

import (
	"context"
	"time"

	"seaborne/voyagedesk/internal/common"
	"seaborne/voyagedesk/internal/domain/report"
	"seaborne/voyagedesk/internal/logging"
	"seaborne/voyagedesk/internal/metrics"
)

// notifier runs after a committed write: it drops cached states and
// announces the change on the event stream.
type notifier struct {
	events  common.EventStream
	state   *VoyageStateService
	metrics *metrics.MetricsRegistry
}

func (n notifier) committed(ctx context.Context, eventType string, r *report.Report, actor string) {
	voyageID := ""
	if r.VoyageID != nil {
		voyageID = *r.VoyageID
	}
	if n.state != nil {
		n.state.Invalidate(r.VesselID, voyageID)
	}
	if n.events == nil {
		return
	}

	ev := &common.VoyageEvent{
		Type:       eventType,
		VesselID:   r.VesselID,
		VoyageID:   voyageID,
		ReportID:   r.ID,
		Actor:      actor,
		OccurredAt: time.Now().UTC(),
	}
	if err := n.events.Publish(ctx, ev); err != nil {
		// the write is committed; consumers only refresh caches
		logging.Warn("Failed to publish voyage event", "type", eventType, "report_id", r.ID, "error", err)
		return
	}
	if n.metrics != nil {
		n.metrics.VoyageEventsTotal.WithLabelValues(eventType, "published").Inc()
	}
}
