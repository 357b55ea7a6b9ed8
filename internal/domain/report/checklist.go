package report

import (
	"encoding/json"
	"fmt"
	"sort"

	"seaborne/voyagedesk/internal/constants"
)

// Group is a named set of fields an office reviewer can unlock together.
type Group string

const (
	GroupPosition          Group = "position"
	GroupRemarks           Group = "remarks"
	GroupBunkerConsumption Group = "bunker_consumption"
	GroupBunkerSupply      Group = "bunker_supply"
	GroupInitialROB        Group = "initial_rob"
	GroupDistance          Group = "distance"
	GroupVoyagePlan        Group = "voyage_plan"
	GroupCargo             Group = "cargo"
	GroupWeather           Group = "weather"
	GroupNavigation        Group = "navigation"
)

var Groups = []Group{
	GroupPosition, GroupRemarks, GroupBunkerConsumption, GroupBunkerSupply, GroupInitialROB,
	GroupDistance, GroupVoyagePlan, GroupCargo, GroupWeather, GroupNavigation,
}

// Checklist is the capability set of field groups unlocked on one report.
// It serialises as a sorted JSON array of group names.
type Checklist map[Group]struct{}

// NewChecklist builds a checklist, rejecting unknown group names.
func NewChecklist(groups ...Group) (Checklist, error) {
	c := Checklist{}
	for _, g := range groups {
		if !g.valid() {
			return nil, fmt.Errorf("%w: unknown field group %q", constants.ErrStructural, g)
		}
		c[g] = struct{}{}
	}
	return c, nil
}

func (g Group) valid() bool {
	for _, k := range Groups {
		if g == k {
			return true
		}
	}
	return false
}

// Empty reports whether nothing has been unlocked.
func (c Checklist) Empty() bool { return len(c) == 0 }

// Allows reports whether field f belongs to an unlocked group.
func (c Checklist) Allows(f Field) bool {
	spec, ok := registry[f]
	if !ok {
		return false
	}
	_, ok = c[spec.group]
	return ok
}

// Groups returns the unlocked groups in sorted order.
func (c Checklist) Groups() []Group {
	out := make([]Group, 0, len(c))
	for g := range c {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (c Checklist) clone() Checklist {
	if c == nil {
		return nil
	}
	out := make(Checklist, len(c))
	for g := range c {
		out[g] = struct{}{}
	}
	return out
}

func (c Checklist) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Groups())
}

func (c *Checklist) UnmarshalJSON(b []byte) error {
	var groups []Group
	if err := json.Unmarshal(b, &groups); err != nil {
		return err
	}
	parsed, err := NewChecklist(groups...)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
