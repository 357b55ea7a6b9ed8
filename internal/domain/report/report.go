// Package report defines the report variants filed by captains and the
// typed field registry used to modify them.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"seaborne/voyagedesk/internal/constants"
	"seaborne/voyagedesk/internal/domain/bunker"
	"seaborne/voyagedesk/internal/domain/distance"
)

// General carries position and free text shared by every variant.
type General struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Remarks   string   `json:"remarks,omitempty"`
}

// BunkerBlock is the bunker section shared by every variant. CurrentROB and
// TotalConsumption are always derived server side.
type BunkerBlock struct {
	Inputs           bunker.Inputs    `json:"inputs"`
	InitialROB       *bunker.Snapshot `json:"initialRob,omitempty"`
	CurrentROB       bunker.Snapshot  `json:"currentRob"`
	TotalConsumption bunker.Snapshot  `json:"totalConsumption"`
}

// DistanceBlock is the distance section shared by every variant.
type DistanceBlock struct {
	SinceLastReport        decimal.Decimal `json:"distanceSinceLastReport"`
	Harbour                decimal.Decimal `json:"harbourDistance"`
	TotalDistanceTravelled decimal.Decimal `json:"totalDistanceTravelled"`
	DistanceToGo           decimal.Decimal `json:"distanceToGo"`
}

// Details is implemented by the variant specific field sets.
type Details interface {
	Type() constants.ReportType
	clone() Details
}

type Departure struct {
	DeparturePort   string          `json:"departurePort"`
	DestinationPort string          `json:"destinationPort"`
	VoyageDistance  decimal.Decimal `json:"voyageDistance"`
	CargoType       string          `json:"cargoType,omitempty"`
	CargoQuantity   decimal.Decimal `json:"cargoQuantity"`
	CargoStatus     string          `json:"cargoStatus,omitempty"`
	ETD             *time.Time      `json:"etd,omitempty"`
}

type Noon struct {
	Course       decimal.Decimal `json:"course"`
	AverageSpeed decimal.Decimal `json:"averageSpeed"`
	WindForce    int             `json:"windForce"`
	SeaState     int             `json:"seaState"`
}

type Arrival struct {
	ArrivalPort  string          `json:"arrivalPort"`
	ETA          *time.Time      `json:"eta,omitempty"`
	AverageSpeed decimal.Decimal `json:"averageSpeed"`
}

type ArrivalAnchorNoon struct {
	Anchorage string `json:"anchorage"`
	WindForce int    `json:"windForce"`
	SeaState  int    `json:"seaState"`
}

type Berth struct {
	BerthName     string          `json:"berthName"`
	CargoOpsStart *time.Time      `json:"cargoOpsStart,omitempty"`
	CargoOpsEnd   *time.Time      `json:"cargoOpsEnd,omitempty"`
	CargoLoaded   decimal.Decimal `json:"cargoLoaded"`
	CargoUnloaded decimal.Decimal `json:"cargoUnloaded"`
}

func (*Departure) Type() constants.ReportType         { return constants.ReportDeparture }
func (*Noon) Type() constants.ReportType              { return constants.ReportNoon }
func (*Arrival) Type() constants.ReportType           { return constants.ReportArrival }
func (*ArrivalAnchorNoon) Type() constants.ReportType { return constants.ReportArrivalAnchorNoon }
func (*Berth) Type() constants.ReportType             { return constants.ReportBerth }

func (d *Departure) clone() Details         { c := *d; c.ETD = cloneTime(d.ETD); return &c }
func (d *Noon) clone() Details              { c := *d; return &c }
func (d *Arrival) clone() Details           { c := *d; c.ETA = cloneTime(d.ETA); return &c }
func (d *ArrivalAnchorNoon) clone() Details { c := *d; return &c }
func (d *Berth) clone() Details {
	c := *d
	c.CargoOpsStart = cloneTime(d.CargoOpsStart)
	c.CargoOpsEnd = cloneTime(d.CargoOpsEnd)
	return &c
}

// NewDetails returns an empty variant for t.
func NewDetails(t constants.ReportType) (Details, error) {
	switch t {
	case constants.ReportDeparture:
		return &Departure{}, nil
	case constants.ReportNoon:
		return &Noon{}, nil
	case constants.ReportArrival:
		return &Arrival{}, nil
	case constants.ReportArrivalAnchorNoon:
		return &ArrivalAnchorNoon{}, nil
	case constants.ReportBerth:
		return &Berth{}, nil
	}
	return nil, fmt.Errorf("%w: unknown report type %q", constants.ErrStructural, t)
}

// Report is one operational snapshot of a vessel.
type Report struct {
	ID         string                 `json:"id"`
	VesselID   string                 `json:"vesselId"`
	VoyageID   *string                `json:"voyageId,omitempty"`
	Status     constants.ReportStatus `json:"status"`
	ReportedAt time.Time              `json:"reportedAt"`
	Sequence   int64                  `json:"sequence"`
	General    General                `json:"general"`
	Bunker     BunkerBlock            `json:"bunker"`
	Distance   DistanceBlock          `json:"distance"`
	Details    Details                `json:"details"`
	Checklist  Checklist              `json:"checklist,omitempty"`
	History    []ModificationRecord   `json:"history,omitempty"`

	SubmittedBy   string     `json:"submittedBy"`
	ReviewedBy    string     `json:"reviewedBy,omitempty"`
	ReviewComment string     `json:"reviewComment,omitempty"`
	ReviewedAt    *time.Time `json:"reviewedAt,omitempty"`
	Version       int64      `json:"version"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// ModificationRecord is an applied post-approval edit kept on the report.
type ModificationRecord struct {
	ID              string              `json:"id"`
	AppliedAt       time.Time           `json:"appliedAt"`
	AppliedBy       string              `json:"appliedBy"`
	Changes         []FieldModification `json:"changes"`
	Checklist       []Group             `json:"checklist,omitempty"`
	AffectedReports []string            `json:"affectedReports"`
}

// Type returns the variant discriminator.
func (r *Report) Type() constants.ReportType {
	if r.Details == nil {
		return ""
	}
	return r.Details.Type()
}

// Clone returns a deep copy safe to mutate.
func (r *Report) Clone() *Report {
	c := *r
	if r.VoyageID != nil {
		v := *r.VoyageID
		c.VoyageID = &v
	}
	if r.General.Latitude != nil {
		v := *r.General.Latitude
		c.General.Latitude = &v
	}
	if r.General.Longitude != nil {
		v := *r.General.Longitude
		c.General.Longitude = &v
	}
	if r.Bunker.InitialROB != nil {
		v := *r.Bunker.InitialROB
		c.Bunker.InitialROB = &v
	}
	if r.Details != nil {
		c.Details = r.Details.clone()
	}
	c.Checklist = r.Checklist.clone()
	c.ReviewedAt = cloneTime(r.ReviewedAt)
	if r.History != nil {
		c.History = append([]ModificationRecord(nil), r.History...)
	}
	return &c
}

// LegDistance is the distance this report adds to the voyage. Harbour legs
// count on departure, arrival and berth reports; sea legs on noon, arrival
// and anchor noon reports.
func (r *Report) LegDistance() decimal.Decimal {
	switch r.Type() {
	case constants.ReportDeparture, constants.ReportBerth:
		return r.Distance.Harbour
	case constants.ReportArrival:
		return r.Distance.SinceLastReport.Add(r.Distance.Harbour)
	default:
		return r.Distance.SinceLastReport
	}
}

// Departure returns the departure details, or nil for other variants.
func (r *Report) Departure() *Departure {
	d, _ := r.Details.(*Departure)
	return d
}

// Validate checks captain-entered inputs before any calculation.
func (r *Report) Validate() error {
	var problems []string
	if r.Details == nil {
		return fmt.Errorf("%w: report has no type", constants.ErrStructural)
	}
	if r.ReportedAt.IsZero() {
		problems = append(problems, "report date and time are required")
	}
	if lat := r.General.Latitude; lat != nil && (*lat < -90 || *lat > 90) {
		problems = append(problems, "latitude must be between -90 and 90")
	}
	if lon := r.General.Longitude; lon != nil && (*lon < -180 || *lon > 180) {
		problems = append(problems, "longitude must be between -180 and 180")
	}
	if err := bunker.ValidateInputs(r.Bunker.Inputs); err != nil {
		problems = append(problems, err.Error())
	}
	if r.Bunker.InitialROB != nil {
		if neg := r.Bunker.InitialROB.Negative(); len(neg) > 0 {
			problems = append(problems, fmt.Sprintf("initial ROB for %s must not be negative", neg[0].Label()))
		}
	}
	for _, leg := range []decimal.Decimal{r.Distance.SinceLastReport, r.Distance.Harbour} {
		if err := distance.ValidateLeg(leg); err != nil {
			problems = append(problems, err.Error())
			break
		}
	}
	if !inTypes(r.Type(), harbourTypes) {
		if !r.Bunker.Inputs.Harbour.Equal(bunker.Snapshot{}) {
			problems = append(problems, fmt.Sprintf("harbour consumption is not reported on %s reports", r.Type()))
		}
		if !r.Distance.Harbour.IsZero() {
			problems = append(problems, fmt.Sprintf("harbour distance is not reported on %s reports", r.Type()))
		}
	}
	if !inTypes(r.Type(), seaLegTypes) && !r.Distance.SinceLastReport.IsZero() {
		problems = append(problems, fmt.Sprintf("distance since last report is not reported on %s reports", r.Type()))
	}
	if r.Bunker.InitialROB != nil && r.Type() != constants.ReportDeparture {
		problems = append(problems, "initial ROB can only be given on a departure report")
	}
	if d := r.Departure(); d != nil {
		if strings.TrimSpace(d.DeparturePort) == "" || strings.TrimSpace(d.DestinationPort) == "" {
			problems = append(problems, "departure and destination ports are required")
		}
		if !d.VoyageDistance.IsPositive() {
			problems = append(problems, "voyage distance must be greater than zero")
		}
		if d.CargoQuantity.IsNegative() {
			problems = append(problems, "cargo quantity must not be negative")
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", constants.ErrValidation, strings.Join(problems, "; "))
	}
	return nil
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func inTypes(t constants.ReportType, types []constants.ReportType) bool {
	for _, k := range types {
		if k == t {
			return true
		}
	}
	return false
}
