package workers

import (
	"context"
	"os"

	"seaborne/voyagedesk/internal/common"
	"seaborne/voyagedesk/internal/metrics"
)

type WorkersContainer struct {
	VoyageEvents *VoyageEventWorker
}

// InitWorkers starts the background consumers. They stop when ctx is
// cancelled.
func InitWorkers(
	ctx context.Context,
	stream common.EventStream,
	invalidator StateInvalidator,
	m *metrics.MetricsRegistry,
) *WorkersContainer {
	host, _ := os.Hostname()
	if host == "" {
		host = "voyagedesk"
	}

	events := NewVoyageEventWorker(host, stream, invalidator, m)
	go events.Start(ctx, 2)

	return &WorkersContainer{
		VoyageEvents: events,
	}
}
