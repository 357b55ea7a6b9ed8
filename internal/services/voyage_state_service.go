package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"seaborne/voyagedesk/internal/common"
	"seaborne/voyagedesk/internal/constants"
	"seaborne/voyagedesk/internal/db/repositories"
	"seaborne/voyagedesk/internal/domain/voyagestate"
	"seaborne/voyagedesk/internal/metrics"
)

// VoyageStateService derives voyage and vessel states from report history.
// Results are cached; concurrent misses for one key share a single load.
type VoyageStateService struct {
	reports *repositories.ReportRepo
	voyages *repositories.VoyageRepo
	cache   common.CacheInterface
	ttl     time.Duration
	metrics *metrics.MetricsRegistry
	group   singleflight.Group
}

func NewVoyageStateService(
	reports *repositories.ReportRepo,
	voyages *repositories.VoyageRepo,
	cache common.CacheInterface,
	ttl time.Duration,
	m *metrics.MetricsRegistry,
) *VoyageStateService {
	return &VoyageStateService{
		reports: reports,
		voyages: voyages,
		cache:   cache,
		ttl:     ttl,
		metrics: m,
	}
}

// DeriveVoyageState returns the state of one voyage.
func (s *VoyageStateService) DeriveVoyageState(ctx context.Context, voyageID string) (voyagestate.State, error) {
	if _, err := s.voyages.GetVoyage(ctx, voyageID); err != nil {
		return "", err
	}
	return s.cached(ctx, constants.CachePrefixVoyageState, voyageID, s.reports.GetVoyageHeads)
}

// DeriveVesselState returns the state of a vessel across all its voyages,
// including a first departure that has no voyage yet.
func (s *VoyageStateService) DeriveVesselState(ctx context.Context, vesselID string) (voyagestate.State, error) {
	return s.cached(ctx, constants.CachePrefixVesselState, vesselID, s.reports.GetVesselHeads)
}

// Invalidate drops cached states after the reports of a vessel changed.
func (s *VoyageStateService) Invalidate(vesselID, voyageID string) {
	if vesselID != "" {
		s.cache.Delete(common.StateKey(constants.CachePrefixVesselState, vesselID))
	}
	if voyageID != "" {
		s.cache.Delete(common.StateKey(constants.CachePrefixVoyageState, voyageID))
	}
}

// AllowedNextReports lists the report types that may be filed in state.
func (s *VoyageStateService) AllowedNextReports(state voyagestate.State) []constants.ReportType {
	return voyagestate.Allowed(state)
}

func (s *VoyageStateService) cached(
	ctx context.Context,
	prefix constants.CachePrefix,
	id string,
	load func(context.Context, string) ([]voyagestate.Head, error),
) (voyagestate.State, error) {
	key := common.StateKey(prefix, id)

	if val, found := s.cache.Get(key); found {
		// go-cache returns the stored string, Redis the decoded JSON string
		if str, ok := val.(string); ok {
			s.countCache(prefix, true)
			return voyagestate.State(str), nil
		}
	}
	s.countCache(prefix, false)

	val, err, _ := s.group.Do(key, func() (any, error) {
		heads, err := load(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load report history: %w", err)
		}
		state := voyagestate.Derive(heads)
		s.cache.Set(key, string(state), s.ttl)
		return state, nil
	})
	if err != nil {
		return "", err
	}
	return val.(voyagestate.State), nil
}

func (s *VoyageStateService) countCache(prefix constants.CachePrefix, hit bool) {
	if s.metrics == nil {
		return
	}
	if hit {
		s.metrics.CacheHitsTotal.WithLabelValues(string(prefix)).Inc()
	} else {
		s.metrics.CacheMissesTotal.WithLabelValues(string(prefix)).Inc()
	}
}
