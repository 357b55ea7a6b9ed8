package report

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"seaborne/voyagedesk/internal/constants"
	"seaborne/voyagedesk/internal/domain/bunker"
)

// Field names a modifiable report field on the wire.
type Field string

// FieldModification is one proposed change to a report field.
type FieldModification struct {
	FieldName Field `json:"fieldName"`
	OldValue  any   `json:"oldValue"`
	NewValue  any   `json:"newValue"`
}

type kind int

const (
	kindDecimal kind = iota
	kindString
	kindInt
	kindFloat
)

type fieldSpec struct {
	group Group
	kind  kind
	// types restricts the field to some variants; nil means every variant.
	types    []constants.ReportType
	nonNeg   bool
	decimals int32
	ref      func(r *Report) any
}

func (s fieldSpec) on(t constants.ReportType) bool {
	if s.types == nil {
		return true
	}
	for _, k := range s.types {
		if k == t {
			return true
		}
	}
	return false
}

var registry = map[Field]fieldSpec{}

var (
	harbourTypes = []constants.ReportType{constants.ReportDeparture, constants.ReportArrival, constants.ReportBerth}
	seaLegTypes  = []constants.ReportType{constants.ReportNoon, constants.ReportArrival, constants.ReportArrivalAnchorNoon}
	only         = func(t ...constants.ReportType) []constants.ReportType { return t }
)

func init() {
	registry["latitude"] = fieldSpec{group: GroupPosition, kind: kindFloat, ref: func(r *Report) any { return &r.General.Latitude }}
	registry["longitude"] = fieldSpec{group: GroupPosition, kind: kindFloat, ref: func(r *Report) any { return &r.General.Longitude }}
	registry["remarks"] = fieldSpec{group: GroupRemarks, kind: kindString, ref: func(r *Report) any { return &r.General.Remarks }}

	sources := []struct {
		prefix string
		group  Group
		types  []constants.ReportType
		snap   func(r *Report) *bunker.Snapshot
	}{
		{"meConsumption", GroupBunkerConsumption, nil, func(r *Report) *bunker.Snapshot { return &r.Bunker.Inputs.MainEngine }},
		{"boilerConsumption", GroupBunkerConsumption, nil, func(r *Report) *bunker.Snapshot { return &r.Bunker.Inputs.Boiler }},
		{"auxConsumption", GroupBunkerConsumption, nil, func(r *Report) *bunker.Snapshot { return &r.Bunker.Inputs.Auxiliary }},
		{"harbourConsumption", GroupBunkerConsumption, harbourTypes, func(r *Report) *bunker.Snapshot { return &r.Bunker.Inputs.Harbour }},
		{"supply", GroupBunkerSupply, nil, func(r *Report) *bunker.Snapshot { return &r.Bunker.Inputs.Supply }},
		{"initialRob", GroupInitialROB, only(constants.ReportDeparture), func(r *Report) *bunker.Snapshot {
			if r.Bunker.InitialROB == nil {
				r.Bunker.InitialROB = &bunker.Snapshot{}
			}
			return r.Bunker.InitialROB
		}},
	}
	for _, src := range sources {
		for _, c := range bunker.Categories {
			src, c := src, c
			registry[BunkerField(src.prefix, c)] = fieldSpec{
				group: src.group, kind: kindDecimal, types: src.types, nonNeg: true, decimals: c.Precision(),
				ref: func(r *Report) any { return categoryRef(src.snap(r), c) },
			}
		}
	}

	registry["distanceSinceLastReport"] = fieldSpec{group: GroupDistance, kind: kindDecimal, types: seaLegTypes, nonNeg: true, decimals: 1,
		ref: func(r *Report) any { return &r.Distance.SinceLastReport }}
	registry["harbourDistance"] = fieldSpec{group: GroupDistance, kind: kindDecimal, types: harbourTypes, nonNeg: true, decimals: 1,
		ref: func(r *Report) any { return &r.Distance.Harbour }}

	dep := only(constants.ReportDeparture)
	registry["departurePort"] = fieldSpec{group: GroupVoyagePlan, kind: kindString, types: dep, ref: func(r *Report) any { return &r.Departure().DeparturePort }}
	registry["destinationPort"] = fieldSpec{group: GroupVoyagePlan, kind: kindString, types: dep, ref: func(r *Report) any { return &r.Departure().DestinationPort }}
	registry["voyageDistance"] = fieldSpec{group: GroupVoyagePlan, kind: kindDecimal, types: dep, nonNeg: true, decimals: 1,
		ref: func(r *Report) any { return &r.Departure().VoyageDistance }}
	registry["cargoType"] = fieldSpec{group: GroupCargo, kind: kindString, types: dep, ref: func(r *Report) any { return &r.Departure().CargoType }}
	registry["cargoQuantity"] = fieldSpec{group: GroupCargo, kind: kindDecimal, types: dep, nonNeg: true, decimals: 2,
		ref: func(r *Report) any { return &r.Departure().CargoQuantity }}
	registry["cargoStatus"] = fieldSpec{group: GroupCargo, kind: kindString, types: dep, ref: func(r *Report) any { return &r.Departure().CargoStatus }}

	registry["course"] = fieldSpec{group: GroupNavigation, kind: kindDecimal, types: only(constants.ReportNoon), decimals: 1,
		ref: func(r *Report) any { return &r.Details.(*Noon).Course }}
	registry["averageSpeed"] = fieldSpec{group: GroupNavigation, kind: kindDecimal, types: only(constants.ReportNoon, constants.ReportArrival), nonNeg: true, decimals: 1,
		ref: func(r *Report) any {
			if a, ok := r.Details.(*Arrival); ok {
				return &a.AverageSpeed
			}
			return &r.Details.(*Noon).AverageSpeed
		}}
	registry["windForce"] = fieldSpec{group: GroupWeather, kind: kindInt, types: only(constants.ReportNoon, constants.ReportArrivalAnchorNoon),
		ref: func(r *Report) any {
			if a, ok := r.Details.(*ArrivalAnchorNoon); ok {
				return &a.WindForce
			}
			return &r.Details.(*Noon).WindForce
		}}
	registry["seaState"] = fieldSpec{group: GroupWeather, kind: kindInt, types: only(constants.ReportNoon, constants.ReportArrivalAnchorNoon),
		ref: func(r *Report) any {
			if a, ok := r.Details.(*ArrivalAnchorNoon); ok {
				return &a.SeaState
			}
			return &r.Details.(*Noon).SeaState
		}}
	registry["arrivalPort"] = fieldSpec{group: GroupVoyagePlan, kind: kindString, types: only(constants.ReportArrival),
		ref: func(r *Report) any { return &r.Details.(*Arrival).ArrivalPort }}
	registry["anchorage"] = fieldSpec{group: GroupNavigation, kind: kindString, types: only(constants.ReportArrivalAnchorNoon),
		ref: func(r *Report) any { return &r.Details.(*ArrivalAnchorNoon).Anchorage }}
	registry["berthName"] = fieldSpec{group: GroupNavigation, kind: kindString, types: only(constants.ReportBerth),
		ref: func(r *Report) any { return &r.Details.(*Berth).BerthName }}
	registry["cargoLoaded"] = fieldSpec{group: GroupCargo, kind: kindDecimal, types: only(constants.ReportBerth), nonNeg: true, decimals: 2,
		ref: func(r *Report) any { return &r.Details.(*Berth).CargoLoaded }}
	registry["cargoUnloaded"] = fieldSpec{group: GroupCargo, kind: kindDecimal, types: only(constants.ReportBerth), nonNeg: true, decimals: 2,
		ref: func(r *Report) any { return &r.Details.(*Berth).CargoUnloaded }}
}

// BunkerField builds the wire name of a bunker field, e.g. meConsumptionLsifo.
func BunkerField(prefix string, c bunker.Category) Field {
	name := string(c)
	return Field(prefix + strings.ToUpper(name[:1]) + name[1:])
}

func categoryRef(s *bunker.Snapshot, c bunker.Category) *decimal.Decimal {
	switch c {
	case bunker.LSIFO:
		return &s.LSIFO
	case bunker.LSMGO:
		return &s.LSMGO
	case bunker.CylOil:
		return &s.CylOil
	case bunker.MEOil:
		return &s.MEOil
	default:
		return &s.AEOil
	}
}

// FieldsFor lists the modifiable fields of a report type, sorted by name.
func FieldsFor(t constants.ReportType) []Field {
	var out []Field
	for f, spec := range registry {
		if spec.on(t) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// GroupOf returns the checklist group of a field.
func GroupOf(f Field) (Group, bool) {
	spec, ok := registry[f]
	return spec.group, ok
}

func (r *Report) spec(f Field) (fieldSpec, error) {
	spec, ok := registry[f]
	if !ok {
		return fieldSpec{}, fmt.Errorf("%w: unknown field %q", constants.ErrStructural, f)
	}
	if !spec.on(r.Type()) {
		return fieldSpec{}, fmt.Errorf("%w: field %q is not part of a %s report", constants.ErrStructural, f, r.Type())
	}
	return spec, nil
}

// Value returns the current value of f in its wire form.
func (r *Report) Value(f Field) (any, error) {
	spec, err := r.spec(f)
	if err != nil {
		return nil, err
	}
	if spec.group == GroupInitialROB && r.Bunker.InitialROB == nil {
		return nil, nil
	}
	switch p := spec.ref(r).(type) {
	case *decimal.Decimal:
		return *p, nil
	case *string:
		return *p, nil
	case *int:
		return *p, nil
	case **float64:
		if *p == nil {
			return nil, nil
		}
		return **p, nil
	}
	return nil, fmt.Errorf("%w: field %q has no accessor", constants.ErrStructural, f)
}

// Matches reports whether v equals the current value of f. A nil v always
// matches so callers may omit old values.
func (r *Report) Matches(f Field, v any) (bool, error) {
	if v == nil {
		return true, nil
	}
	spec, err := r.spec(f)
	if err != nil {
		return false, err
	}
	cur, err := r.Value(f)
	if err != nil {
		return false, err
	}
	if cur == nil {
		return false, nil
	}
	switch spec.kind {
	case kindDecimal:
		want, err := toDecimal(v)
		if err != nil {
			return false, nil
		}
		return cur.(decimal.Decimal).Equal(want), nil
	case kindFloat:
		want, err := toDecimal(v)
		if err != nil {
			return false, nil
		}
		return decimal.NewFromFloat(cur.(float64)).Equal(want), nil
	case kindInt:
		want, err := toDecimal(v)
		if err != nil {
			return false, nil
		}
		return want.Equal(decimal.NewFromInt(int64(cur.(int)))), nil
	default:
		s, ok := v.(string)
		return ok && s == cur.(string), nil
	}
}

// Set assigns a wire value to f.
func (r *Report) Set(f Field, v any) error {
	spec, err := r.spec(f)
	if err != nil {
		return err
	}
	switch spec.kind {
	case kindDecimal:
		d, err := toDecimal(v)
		if err != nil {
			return fmt.Errorf("%w: field %q: %v", constants.ErrStructural, f, err)
		}
		if spec.nonNeg && d.IsNegative() {
			return fmt.Errorf("%w: %s must not be negative", constants.ErrValidation, f)
		}
		*spec.ref(r).(*decimal.Decimal) = d.Round(spec.decimals)
	case kindFloat:
		p := spec.ref(r).(**float64)
		if v == nil {
			*p = nil
			return nil
		}
		d, err := toDecimal(v)
		if err != nil {
			return fmt.Errorf("%w: field %q: %v", constants.ErrStructural, f, err)
		}
		fv, _ := d.Float64()
		*p = &fv
	case kindInt:
		d, err := toDecimal(v)
		if err != nil || !d.Equal(d.Truncate(0)) {
			return fmt.Errorf("%w: field %q expects a whole number", constants.ErrStructural, f)
		}
		*spec.ref(r).(*int) = int(d.IntPart())
	case kindString:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("%w: field %q expects text", constants.ErrStructural, f)
		}
		*spec.ref(r).(*string) = s
	}
	return nil
}

// Apply validates every change against the report type and, when checklist
// is not nil, against the unlocked groups, then assigns them in order.
// Nothing is assigned if any change is malformed.
func (r *Report) Apply(changes []FieldModification, checklist Checklist) error {
	if len(changes) == 0 {
		return fmt.Errorf("%w: no changes proposed", constants.ErrStructural)
	}
	seen := map[Field]bool{}
	for _, ch := range changes {
		if _, err := r.spec(ch.FieldName); err != nil {
			return err
		}
		if seen[ch.FieldName] {
			return fmt.Errorf("%w: field %q changed twice", constants.ErrStructural, ch.FieldName)
		}
		seen[ch.FieldName] = true
		if checklist != nil && !checklist.Allows(ch.FieldName) {
			return fmt.Errorf("%w: %s", constants.ErrForbiddenField, ch.FieldName)
		}
	}
	work := r.Clone()
	for _, ch := range changes {
		if err := work.Set(ch.FieldName, ch.NewValue); err != nil {
			return err
		}
	}
	*r = *work
	return nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero, fmt.Errorf("not a finite number")
		}
		return decimal.NewFromFloat(n), nil
	case float32:
		return decimal.NewFromFloat32(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case json.Number:
		return decimal.NewFromString(n.String())
	case string:
		if _, err := strconv.ParseFloat(n, 64); err != nil {
			return decimal.Zero, fmt.Errorf("%q is not a number", n)
		}
		return decimal.NewFromString(n)
	}
	return decimal.Zero, fmt.Errorf("expected a number, got %T", v)
}
