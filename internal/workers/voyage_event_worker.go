package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"seaborne/voyagedesk/internal/common"
	"seaborne/voyagedesk/internal/logging"
	"seaborne/voyagedesk/internal/metrics"
)

// StateInvalidator drops cached voyage and vessel states.
type StateInvalidator interface {
	Invalidate(vesselID, voyageID string)
}

// VoyageEventWorker consumes voyage events and invalidates the derived
// state caches, so every server instance sees committed changes.
type VoyageEventWorker struct {
	workerID    string
	stream      common.EventStream
	invalidator StateInvalidator
	metrics     *metrics.MetricsRegistry

	blockTime     time.Duration
	claimInterval time.Duration
	minIdle       time.Duration
}

func NewVoyageEventWorker(
	workerID string,
	stream common.EventStream,
	invalidator StateInvalidator,
	m *metrics.MetricsRegistry,
) *VoyageEventWorker {
	return &VoyageEventWorker{
		workerID:      workerID,
		stream:        stream,
		invalidator:   invalidator,
		metrics:       m,
		blockTime:     5 * time.Second,
		claimInterval: 2 * time.Minute,
		minIdle:       5 * time.Minute,
	}
}

// Start runs numWorkers consumers and a stale message claimer until ctx is
// cancelled.
func (w *VoyageEventWorker) Start(ctx context.Context, numWorkers int) {
	logging.Info("Starting voyage event workers", "worker_id", w.workerID, "count", numWorkers)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		consumer := fmt.Sprintf("%s-%d", w.workerID, i)
		go func() {
			defer wg.Done()
			w.consume(ctx, consumer)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		w.claimStale(ctx)
	}()

	wg.Wait()
	logging.Info("Voyage event workers stopped", "worker_id", w.workerID)
}

func (w *VoyageEventWorker) consume(ctx context.Context, consumer string) {
	handled := 0
	for {
		select {
		case <-ctx.Done():
			logging.Info("Voyage event consumer shutting down", "consumer", consumer, "handled", handled)
			return
		default:
		}

		ev, messageID, err := w.stream.Read(ctx, consumer, w.blockTime)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			logging.Warn("Error reading voyage events", "consumer", consumer, "error", err)
			if messageID != "" {
				// undecodable message, never retried
				_ = w.stream.Ack(ctx, messageID)
			}
			time.Sleep(time.Second)
			continue
		}
		if ev == nil {
			continue
		}

		w.handle(ev)
		handled++
		if err := w.stream.Ack(ctx, messageID); err != nil {
			logging.Warn("Error acknowledging voyage event", "message_id", messageID, "error", err)
		}
	}
}

func (w *VoyageEventWorker) handle(ev *common.VoyageEvent) {
	w.invalidator.Invalidate(ev.VesselID, ev.VoyageID)
	logging.Debug("Voyage event handled",
		"type", ev.Type,
		"vessel_id", ev.VesselID,
		"voyage_id", ev.VoyageID,
		"report_id", ev.ReportID,
	)
	if w.metrics != nil {
		w.metrics.VoyageEventsTotal.WithLabelValues(ev.Type, "consumed").Inc()
	}
}

// claimStale takes over events left pending by consumers that died.
func (w *VoyageEventWorker) claimStale(ctx context.Context) {
	ticker := time.NewTicker(w.claimInterval)
	defer ticker.Stop()

	claimer := w.workerID + "-claimer"
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			events, ids, err := w.stream.ClaimStale(ctx, claimer, w.minIdle)
			if err != nil {
				logging.Warn("Error claiming stale voyage events", "error", err)
				continue
			}
			if len(events) > 0 {
				logging.Info("Claimed stale voyage events", "count", len(events))
			}
			for i, ev := range events {
				w.handle(ev)
				if err := w.stream.Ack(ctx, ids[i]); err != nil {
					logging.Warn("Error acknowledging claimed event", "message_id", ids[i], "error", err)
				}
			}
		}
	}
}
