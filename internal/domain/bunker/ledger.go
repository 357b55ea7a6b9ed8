// Package bunker computes remaining-on-board and cumulative consumption
// figures for the five bunker categories carried on every report.
package bunker

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Category identifies one fuel or lube oil tracked on board.
type Category string

const (
	LSIFO  Category = "lsifo"
	LSMGO  Category = "lsmgo"
	CylOil Category = "cylOil"
	MEOil  Category = "meOil"
	AEOil  Category = "aeOil"
)

// Categories lists every category in reporting order.
var Categories = []Category{LSIFO, LSMGO, CylOil, MEOil, AEOil}

// Precision is the number of decimal places the category is reported in:
// fuels in metric tonnes use 2, oils in litres use 1.
func (c Category) Precision() int32 {
	switch c {
	case LSIFO, LSMGO:
		return 2
	default:
		return 1
	}
}

// Unit returns the reporting unit of the category.
func (c Category) Unit() string {
	if c.Precision() == 2 {
		return "MT"
	}
	return "L"
}

// Label is the display name used in exports and error messages.
func (c Category) Label() string {
	switch c {
	case LSIFO:
		return "LSIFO"
	case LSMGO:
		return "LSMGO"
	case CylOil:
		return "Cylinder oil"
	case MEOil:
		return "ME oil"
	case AEOil:
		return "AE oil"
	}
	return string(c)
}

// Snapshot holds one quantity per category.
type Snapshot struct {
	LSIFO  decimal.Decimal `json:"lsifo" gorm:"column:lsifo;type:numeric(12,2);not null;default:0"`
	LSMGO  decimal.Decimal `json:"lsmgo" gorm:"column:lsmgo;type:numeric(12,2);not null;default:0"`
	CylOil decimal.Decimal `json:"cylOil" gorm:"column:cyl_oil;type:numeric(12,1);not null;default:0"`
	MEOil  decimal.Decimal `json:"meOil" gorm:"column:me_oil;type:numeric(12,1);not null;default:0"`
	AEOil  decimal.Decimal `json:"aeOil" gorm:"column:ae_oil;type:numeric(12,1);not null;default:0"`
}

// Get returns the quantity of category c.
func (s Snapshot) Get(c Category) decimal.Decimal {
	switch c {
	case LSIFO:
		return s.LSIFO
	case LSMGO:
		return s.LSMGO
	case CylOil:
		return s.CylOil
	case MEOil:
		return s.MEOil
	case AEOil:
		return s.AEOil
	}
	panic(fmt.Sprintf("bunker: unknown category %q", c))
}

// With returns a copy of s with category c set to v.
func (s Snapshot) With(c Category, v decimal.Decimal) Snapshot {
	switch c {
	case LSIFO:
		s.LSIFO = v
	case LSMGO:
		s.LSMGO = v
	case CylOil:
		s.CylOil = v
	case MEOil:
		s.MEOil = v
	case AEOil:
		s.AEOil = v
	default:
		panic(fmt.Sprintf("bunker: unknown category %q", c))
	}
	return s
}

// Map applies fn to every category and collects the results.
func (s Snapshot) Map(fn func(c Category, v decimal.Decimal) decimal.Decimal) Snapshot {
	out := Snapshot{}
	for _, c := range Categories {
		out = out.With(c, fn(c, s.Get(c)))
	}
	return out
}

// Add returns s + o per category.
func (s Snapshot) Add(o Snapshot) Snapshot {
	return s.Map(func(c Category, v decimal.Decimal) decimal.Decimal { return v.Add(o.Get(c)) })
}

// Sub returns s - o per category.
func (s Snapshot) Sub(o Snapshot) Snapshot {
	return s.Map(func(c Category, v decimal.Decimal) decimal.Decimal { return v.Sub(o.Get(c)) })
}

// Round rounds every category to its reporting precision.
func (s Snapshot) Round() Snapshot {
	return s.Map(func(c Category, v decimal.Decimal) decimal.Decimal { return v.Round(c.Precision()) })
}

// Equal compares two snapshots numerically.
func (s Snapshot) Equal(o Snapshot) bool {
	for _, c := range Categories {
		if !s.Get(c).Equal(o.Get(c)) {
			return false
		}
	}
	return true
}

// Negative returns the categories holding a value below zero.
func (s Snapshot) Negative() []Category {
	var out []Category
	for _, c := range Categories {
		if s.Get(c).IsNegative() {
			out = append(out, c)
		}
	}
	return out
}

// Inputs are the captain-entered bunker figures of one report.
type Inputs struct {
	MainEngine Snapshot `json:"me" gorm:"embedded;embeddedPrefix:me_"`
	Boiler     Snapshot `json:"boiler" gorm:"embedded;embeddedPrefix:boiler_"`
	Auxiliary  Snapshot `json:"aux" gorm:"embedded;embeddedPrefix:aux_"`
	Harbour    Snapshot `json:"harbour" gorm:"embedded;embeddedPrefix:harbour_"`
	Supply     Snapshot `json:"supply" gorm:"embedded;embeddedPrefix:supply_"`
}

// Consumed is the total consumed in this report across all sources.
func (in Inputs) Consumed() Snapshot {
	return in.MainEngine.Add(in.Boiler).Add(in.Auxiliary).Add(in.Harbour)
}

// Ledger is the outcome of applying one report's inputs to an opening ROB.
type Ledger struct {
	Opening          Snapshot `json:"opening"`
	Consumed         Snapshot `json:"consumed"`
	Supplied         Snapshot `json:"supplied"`
	Closing          Snapshot `json:"closing"`
	TotalConsumption Snapshot `json:"totalConsumption"`
}

// Compute applies in to the opening ROB. priorTotal is the cumulative
// consumption of the voyage before this report (zero for a departure).
//
//	closing = opening - consumed + supplied
//	total   = priorTotal + consumed
//
// A negative closing figure is returned as is; callers check NegativeROB.
func Compute(opening, priorTotal Snapshot, in Inputs) Ledger {
	consumed := in.Consumed().Round()
	supplied := in.Supply.Round()
	return Ledger{
		Opening:          opening,
		Consumed:         consumed,
		Supplied:         supplied,
		Closing:          opening.Sub(consumed).Add(supplied).Round(),
		TotalConsumption: priorTotal.Add(consumed).Round(),
	}
}

// NegativeROB lists the categories whose closing ROB fell below zero.
func (l Ledger) NegativeROB() []Category {
	return l.Closing.Negative()
}

// ValidateInputs rejects negative consumption or supply figures.
func ValidateInputs(in Inputs) error {
	sources := []struct {
		name string
		s    Snapshot
	}{
		{"main engine consumption", in.MainEngine},
		{"boiler consumption", in.Boiler},
		{"auxiliary consumption", in.Auxiliary},
		{"harbour consumption", in.Harbour},
		{"supply", in.Supply},
	}
	for _, src := range sources {
		if neg := src.s.Negative(); len(neg) > 0 {
			return fmt.Errorf("%s for %s must not be negative", src.name, neg[0].Label())
		}
	}
	return nil
}
