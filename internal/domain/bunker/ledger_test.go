package bunker

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCompute_ConservesPerCategory(t *testing.T) {
	opening := Snapshot{LSIFO: d("100.00"), LSMGO: d("50.00"), CylOil: d("1000.0"), MEOil: d("800.0"), AEOil: d("600.0")}
	in := Inputs{
		MainEngine: Snapshot{LSIFO: d("12.35"), CylOil: d("35.5"), MEOil: d("10.0")},
		Boiler:     Snapshot{LSIFO: d("1.10"), LSMGO: d("0.40")},
		Auxiliary:  Snapshot{LSMGO: d("2.25"), AEOil: d("12.3")},
		Supply:     Snapshot{LSMGO: d("20.00"), CylOil: d("200.0")},
	}

	l := Compute(opening, Snapshot{LSIFO: d("5.00")}, in)

	want := Snapshot{LSIFO: d("86.55"), LSMGO: d("67.35"), CylOil: d("1164.5"), MEOil: d("790.0"), AEOil: d("587.7")}
	if !l.Closing.Equal(want) {
		t.Fatalf("Expected closing %+v, got %+v", want, l.Closing)
	}
	for _, c := range Categories {
		expected := opening.Get(c).Sub(l.Consumed.Get(c)).Add(l.Supplied.Get(c))
		if !l.Closing.Get(c).Equal(expected) {
			t.Errorf("%s: closing %s != opening - consumed + supplied %s", c, l.Closing.Get(c), expected)
		}
	}
	if !l.TotalConsumption.LSIFO.Equal(d("18.45")) {
		t.Errorf("Expected cumulative LSIFO 18.45, got %s", l.TotalConsumption.LSIFO)
	}
	if len(l.NegativeROB()) != 0 {
		t.Errorf("Expected no negative ROB, got %v", l.NegativeROB())
	}
}

func TestCompute_NegativeClosingIsReportedNotClamped(t *testing.T) {
	l := Compute(Snapshot{LSIFO: d("10")}, Snapshot{}, Inputs{MainEngine: Snapshot{LSIFO: d("12.5")}})

	if !l.Closing.LSIFO.Equal(d("-2.5")) {
		t.Fatalf("Expected closing -2.5, got %s", l.Closing.LSIFO)
	}
	neg := l.NegativeROB()
	if len(neg) != 1 || neg[0] != LSIFO {
		t.Errorf("Expected LSIFO flagged negative, got %v", neg)
	}
}

func TestCompute_RoundsToCategoryPrecision(t *testing.T) {
	l := Compute(Snapshot{LSIFO: d("10"), AEOil: d("10")}, Snapshot{}, Inputs{
		MainEngine: Snapshot{LSIFO: d("1.234")},
		Auxiliary:  Snapshot{AEOil: d("1.26")},
	})

	if l.Closing.LSIFO.String() != "8.77" {
		t.Errorf("Expected LSIFO 8.77, got %s", l.Closing.LSIFO)
	}
	if l.Closing.AEOil.String() != "8.7" {
		t.Errorf("Expected AE oil 8.7, got %s", l.Closing.AEOil)
	}
}

func TestValidateInputs_RejectsNegativeSupply(t *testing.T) {
	err := ValidateInputs(Inputs{Supply: Snapshot{MEOil: d("-1")}})
	if err == nil {
		t.Fatal("Expected error for negative supply")
	}
}
