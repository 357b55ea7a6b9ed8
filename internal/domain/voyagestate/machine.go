// Package voyagestate derives the logical phase of a voyage from its latest
// report and decides which report type may be filed next.
package voyagestate

import (
	"fmt"

	"seaborne/voyagedesk/internal/constants"
)

type State string

const (
	NoVoyageActive State = "NO_VOYAGE_ACTIVE"
	Departed       State = "DEPARTED"
	AtSea          State = "AT_SEA"
	Arrived        State = "ARRIVED"
	AtAnchor       State = "AT_ANCHOR"
	Berthed        State = "BERTHED"
	ReportPending  State = "REPORT_PENDING"
)

func (s State) String() string { return string(s) }

// legal lists the report types accepted from each settled state.
var legal = map[State][]constants.ReportType{
	NoVoyageActive: {constants.ReportDeparture},
	Departed:       {constants.ReportNoon, constants.ReportArrival},
	AtSea:          {constants.ReportNoon, constants.ReportArrival},
	Arrived:        {constants.ReportArrivalAnchorNoon, constants.ReportBerth},
	AtAnchor:       {constants.ReportArrivalAnchorNoon, constants.ReportBerth},
	Berthed:        {constants.ReportDeparture},
	ReportPending:  nil,
}

// entered is the state a report type moves the voyage into.
var entered = map[constants.ReportType]State{
	constants.ReportDeparture:         Departed,
	constants.ReportNoon:              AtSea,
	constants.ReportArrival:           Arrived,
	constants.ReportArrivalAnchorNoon: AtAnchor,
	constants.ReportBerth:             Berthed,
}

// ForReport returns the state entered once a report of type t is approved.
func ForReport(t constants.ReportType) (State, error) {
	s, ok := entered[t]
	if !ok {
		return "", fmt.Errorf("unknown report type %q", t)
	}
	return s, nil
}

// Allowed returns the report types that may be submitted from state s.
func Allowed(s State) []constants.ReportType {
	out := make([]constants.ReportType, len(legal[s]))
	copy(out, legal[s])
	return out
}

// CanSubmit reports whether a report of type t may be filed from state s.
func CanSubmit(s State, t constants.ReportType) bool {
	for _, a := range legal[s] {
		if a == t {
			return true
		}
	}
	return false
}

// Next applies an approved report of type t to the current state. Berth
// followed by a departure starts a new voyage at Departed; the machine has
// no terminal state.
func Next(current State, t constants.ReportType) (State, error) {
	if current == ReportPending {
		return current, fmt.Errorf("%w: a report is awaiting review", constants.ErrSubmissionBlocked)
	}
	if !CanSubmit(current, t) {
		return current, fmt.Errorf("%w: %s report not expected in state %s", constants.ErrSubmissionBlocked, t, current)
	}
	return ForReport(t)
}

// Head is the minimal view of a report needed to derive state.
type Head struct {
	Type   constants.ReportType
	Status constants.ReportStatus
}

// Derive computes the state from the reports of a vessel or voyage in
// chronological order. The latest outstanding report forces ReportPending;
// rejected reports are ignored; otherwise the latest approved report decides.
func Derive(history []Head) State {
	for i := len(history) - 1; i >= 0; i-- {
		h := history[i]
		switch {
		case h.Status.Outstanding():
			return ReportPending
		case h.Status == constants.StatusApproved:
			return entered[h.Type]
		}
	}
	return NoVoyageActive
}

// ValidateSequence walks an approved chain from an empty vessel and reports
// the first report type that is out of order.
func ValidateSequence(types []constants.ReportType) error {
	state := NoVoyageActive
	for i, t := range types {
		next, err := Next(state, t)
		if err != nil {
			return fmt.Errorf("report %d: %w", i+1, err)
		}
		state = next
	}
	return nil
}
