package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"seaborne/voyagedesk/internal/constants"
	"seaborne/voyagedesk/internal/db/repositories"
	"seaborne/voyagedesk/internal/domain/bunker"
	"seaborne/voyagedesk/internal/domain/distance"
	"seaborne/voyagedesk/internal/domain/report"
)

// chainTail is the point a vessel's next report continues from.
type chainTail struct {
	rob         bunker.Snapshot
	total       bunker.Snapshot
	travelled   decimal.Decimal
	voyageTotal decimal.Decimal
	voyageID    *string
}

// ledgerStores is the read side needed to place a new report on its chain.
type ledgerStores struct {
	reports *repositories.ReportRepo
	voyages *repositories.VoyageRepo
	vessels *repositories.VesselRepo
}

// tailFor resolves the opening figures for r from the vessel's latest
// approved report. A departure opens a new voyage: consumption and
// distance restart while ROB carries over.
func (s ledgerStores) tailFor(ctx context.Context, r *report.Report) (chainTail, error) {
	prev, err := s.reports.GetLatestApproved(ctx, r.VesselID)
	if err != nil {
		return chainTail{}, err
	}

	if d := r.Departure(); d != nil {
		tail := chainTail{voyageTotal: d.VoyageDistance, voyageID: r.VoyageID}
		if prev != nil {
			if r.Bunker.InitialROB != nil {
				return chainTail{}, fmt.Errorf("%w: initial ROB is only accepted on the vessel's first departure", constants.ErrValidation)
			}
			tail.rob = prev.Bunker.CurrentROB
			return tail, nil
		}

		rob, set, err := s.vessels.GetVesselInitialRob(ctx, r.VesselID)
		if err != nil {
			return chainTail{}, err
		}
		switch {
		case set && r.Bunker.InitialROB != nil:
			return chainTail{}, fmt.Errorf("%w: initial ROB of this vessel is already recorded", constants.ErrValidation)
		case set:
			tail.rob = rob
		case r.Bunker.InitialROB != nil:
			tail.rob = *r.Bunker.InitialROB
		default:
			return chainTail{}, fmt.Errorf("%w: initial ROB is required on the vessel's first departure", constants.ErrValidation)
		}
		return tail, nil
	}

	if prev == nil || prev.VoyageID == nil {
		return chainTail{}, fmt.Errorf("%w: vessel has no active voyage", constants.ErrSubmissionBlocked)
	}
	voyage, err := s.voyages.GetVoyage(ctx, *prev.VoyageID)
	if err != nil {
		return chainTail{}, err
	}
	voyageID := voyage.ID
	return chainTail{
		rob:         prev.Bunker.CurrentROB,
		total:       prev.Bunker.TotalConsumption,
		travelled:   prev.Distance.TotalDistanceTravelled,
		voyageTotal: voyage.TotalDistance,
		voyageID:    &voyageID,
	}, nil
}

// derive fills the derived bunker and distance blocks of r. A negative
// closing ROB is a validation error.
func derive(r *report.Report, tail chainTail) error {
	ledger := bunker.Compute(tail.rob, tail.total, r.Bunker.Inputs)
	dist := distance.Compute(distance.Totals{Travelled: tail.travelled, VoyageTotal: tail.voyageTotal}, r.LegDistance())

	r.Bunker.CurrentROB = ledger.Closing
	r.Bunker.TotalConsumption = ledger.TotalConsumption
	r.Distance.TotalDistanceTravelled = dist.Travelled
	r.Distance.DistanceToGo = dist.ToGo

	if neg := ledger.NegativeROB(); len(neg) > 0 {
		parts := make([]string, len(neg))
		for i, c := range neg {
			parts[i] = fmt.Sprintf("%s ROB would be %s %s", c.Label(), ledger.Closing.Get(c).StringFixed(c.Precision()), c.Unit())
		}
		return fmt.Errorf("%w: %s", constants.ErrValidation, strings.Join(parts, "; "))
	}
	return nil
}
