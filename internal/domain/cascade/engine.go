// Package cascade recomputes the derived bunker and distance figures of a
// voyage chain after one of its reports has been edited.
package cascade

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"seaborne/voyagedesk/internal/constants"
	"seaborne/voyagedesk/internal/domain/bunker"
	"seaborne/voyagedesk/internal/domain/distance"
	"seaborne/voyagedesk/internal/domain/report"
	"seaborne/voyagedesk/internal/domain/voyagestate"
)

// Opening is the state a voyage starts from: the ROB carried over from the
// vessel's previous report, or its initial ROB for the first departure.
type Opening struct {
	ROB bunker.Snapshot `json:"rob"`
}

// Chain is the approved report chain of one voyage in chronological order.
type Chain struct {
	VoyageID string
	Opening  Opening
	Reports  []*report.Report
}

// Delta is the old and new value of one field.
type Delta struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// AffectedReport describes how one report would change.
type AffectedReport struct {
	ReportID   string               `json:"reportId"`
	ReportType constants.ReportType `json:"reportType"`
	Updates    map[string]any       `json:"updates"`
	Deltas     map[string]Delta     `json:"deltas"`
	Errors     []string             `json:"errors"`
}

// Result is the outcome of walking a chain.
type Result struct {
	IsValid         bool             `json:"isValid"`
	AffectedReports []AffectedReport `json:"affectedReports"`
	Errors          []string         `json:"errors"`
	ChainVersion    string           `json:"chainVersion"`
	// Recomputed holds the full recalculated copies of affected reports.
	Recomputed []*report.Report `json:"-"`
}

// Validate checks that the chain is structurally sound: it starts with a
// departure, follows the state machine and contains only approved reports
// of the voyage in strictly increasing order.
func (c Chain) Validate() error {
	if len(c.Reports) == 0 {
		return fmt.Errorf("%w: voyage %s has no approved reports", constants.ErrStructural, c.VoyageID)
	}
	types := make([]constants.ReportType, len(c.Reports))
	for i, r := range c.Reports {
		if r.Status != constants.StatusApproved {
			return fmt.Errorf("%w: report %s in voyage chain is %s", constants.ErrStructural, r.ID, r.Status)
		}
		if r.VoyageID == nil || *r.VoyageID != c.VoyageID {
			return fmt.Errorf("%w: report %s does not belong to voyage %s", constants.ErrStructural, r.ID, c.VoyageID)
		}
		if i > 0 && !before(c.Reports[i-1], r) {
			return fmt.Errorf("%w: report %s is out of chronological order", constants.ErrStructural, r.ID)
		}
		types[i] = r.Type()
	}
	if err := voyagestate.ValidateSequence(types); err != nil {
		return fmt.Errorf("%w: %v", constants.ErrStructural, err)
	}
	return nil
}

func before(a, b *report.Report) bool {
	if a.ReportedAt.Equal(b.ReportedAt) {
		return a.Sequence < b.Sequence
	}
	return a.ReportedAt.Before(b.ReportedAt)
}

// Index returns the position of reportID in the chain, or -1.
func (c Chain) Index(reportID string) int {
	for i, r := range c.Reports {
		if r.ID == reportID {
			return i
		}
	}
	return -1
}

// Walk replaces the report at idx with edited and recomputes it and every
// later report. Earlier reports are left untouched. Negative ROB does not
// stop the walk; every failing report is reported.
func Walk(c Chain, idx int, edited *report.Report) Result {
	res := Result{IsValid: true, ChainVersion: Fingerprint(c), AffectedReports: []AffectedReport{}, Errors: []string{}}

	voyageTotal := c.Reports[0].Departure().VoyageDistance
	if idx == 0 {
		voyageTotal = edited.Departure().VoyageDistance
	}
	if !voyageTotal.IsPositive() {
		res.IsValid = false
		res.Errors = append(res.Errors, "voyage distance must be greater than zero")
	}

	openROB, priorTotal, travelled := c.Opening.ROB, bunker.Snapshot{}, decimal.Zero
	if idx > 0 {
		prev := c.Reports[idx-1]
		openROB = prev.Bunker.CurrentROB
		priorTotal = prev.Bunker.TotalConsumption
		travelled = prev.Distance.TotalDistanceTravelled
	}

	for i := idx; i < len(c.Reports); i++ {
		stored := c.Reports[i]
		next := stored.Clone()
		if i == idx {
			next = edited.Clone()
		}

		ledger := bunker.Compute(openROB, priorTotal, next.Bunker.Inputs)
		dist := distance.Compute(distance.Totals{Travelled: travelled, VoyageTotal: voyageTotal}, next.LegDistance())
		next.Bunker.CurrentROB = ledger.Closing
		next.Bunker.TotalConsumption = ledger.TotalConsumption
		next.Distance.TotalDistanceTravelled = dist.Travelled
		next.Distance.DistanceToGo = dist.ToGo

		var errs []string
		for _, cat := range ledger.NegativeROB() {
			errs = append(errs, fmt.Sprintf("%s report %s (%s): %s ROB would be %s %s",
				next.Type(), next.ID, next.ReportedAt.UTC().Format("2006-01-02 15:04"),
				cat.Label(), ledger.Closing.Get(cat).StringFixed(cat.Precision()), cat.Unit()))
		}
		// ToGo is clamped at zero, so an overrun only shows in Travelled
		if voyageTotal.IsPositive() && dist.Travelled.GreaterThan(voyageTotal) {
			errs = append(errs, fmt.Sprintf("%s report %s: distance travelled %s nm exceeds voyage distance %s nm",
				next.Type(), next.ID, dist.Travelled.StringFixed(distance.Precision), voyageTotal.StringFixed(distance.Precision)))
		}

		updates, deltas := diff(stored, next)
		if i == idx || len(updates) > 0 || len(errs) > 0 {
			res.AffectedReports = append(res.AffectedReports, AffectedReport{
				ReportID:   next.ID,
				ReportType: next.Type(),
				Updates:    updates,
				Deltas:     deltas,
				Errors:     append([]string{}, errs...),
			})
			res.Recomputed = append(res.Recomputed, next)
		}
		if len(errs) > 0 {
			res.IsValid = false
			res.Errors = append(res.Errors, errs...)
		}

		openROB, priorTotal, travelled = ledger.Closing, ledger.TotalConsumption, dist.Travelled
	}
	return res
}

// diff lists every modifiable or derived field whose value differs.
func diff(old, cur *report.Report) (map[string]any, map[string]Delta) {
	updates := map[string]any{}
	deltas := map[string]Delta{}
	add := func(name string, o, n any) {
		updates[name] = n
		deltas[name] = Delta{Old: o, New: n}
	}

	for _, f := range report.FieldsFor(cur.Type()) {
		o, _ := old.Value(f)
		n, _ := cur.Value(f)
		if !sameValue(o, n) {
			add(string(f), o, n)
		}
	}
	for _, c := range bunker.Categories {
		if o, n := old.Bunker.CurrentROB.Get(c), cur.Bunker.CurrentROB.Get(c); !o.Equal(n) {
			add(string(report.BunkerField("currentRob", c)), o, n)
		}
		if o, n := old.Bunker.TotalConsumption.Get(c), cur.Bunker.TotalConsumption.Get(c); !o.Equal(n) {
			add(string(report.BunkerField("totalConsumption", c)), o, n)
		}
	}
	if o, n := old.Distance.TotalDistanceTravelled, cur.Distance.TotalDistanceTravelled; !o.Equal(n) {
		add("totalDistanceTravelled", o, n)
	}
	if o, n := old.Distance.DistanceToGo, cur.Distance.DistanceToGo; !o.Equal(n) {
		add("distanceToGo", o, n)
	}
	return updates, deltas
}

func sameValue(a, b any) bool {
	da, okA := a.(decimal.Decimal)
	db, okB := b.(decimal.Decimal)
	if okA && okB {
		return da.Equal(db)
	}
	return a == b
}

// Fingerprint identifies the stored state of a chain. Two reads of an
// unchanged chain produce the same fingerprint.
func Fingerprint(c Chain) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	_ = enc.Encode(c.VoyageID)
	_ = enc.Encode(c.Opening.ROB.Round())
	for _, r := range c.Reports {
		norm := r.Clone()
		norm.Bunker.Inputs = bunker.Inputs{
			MainEngine: r.Bunker.Inputs.MainEngine.Round(),
			Boiler:     r.Bunker.Inputs.Boiler.Round(),
			Auxiliary:  r.Bunker.Inputs.Auxiliary.Round(),
			Harbour:    r.Bunker.Inputs.Harbour.Round(),
			Supply:     r.Bunker.Inputs.Supply.Round(),
		}
		norm.Bunker.CurrentROB = r.Bunker.CurrentROB.Round()
		norm.Bunker.TotalConsumption = r.Bunker.TotalConsumption.Round()
		norm.Distance.SinceLastReport = r.Distance.SinceLastReport.Round(distance.Precision)
		norm.Distance.Harbour = r.Distance.Harbour.Round(distance.Precision)
		norm.Distance.TotalDistanceTravelled = r.Distance.TotalDistanceTravelled.Round(distance.Precision)
		norm.Distance.DistanceToGo = r.Distance.DistanceToGo.Round(distance.Precision)
		_ = enc.Encode(norm)
	}
	return hex.EncodeToString(h.Sum(nil))
}
