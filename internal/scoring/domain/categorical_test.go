package scoring

import (
	"testing"
	"time"
)

func expectScore(t *testing.T, label string, got Score, want int) {
	t.Helper()
	v, ok := got.Get()
	if !ok {
		t.Fatalf("%s: expected %d, got N/A", label, want)
	}
	if v != float64(want) {
		t.Fatalf("%s: expected %d, got %v", label, want, v)
	}
}

func expectMissing(t *testing.T, label string, got Score) {
	t.Helper()
	if got.IsPresent() {
		t.Fatalf("%s: expected N/A, got %v", label, got)
	}
}

func TestMarketScore(t *testing.T) {
	cases := map[string]int{
		"PJM":          3,
		"nyiso":        3,
		"ISO-NE":       3,
		"MISO North":   2,
		"MISO N":       2,
		"SERC":         2,
		"SPP":          1,
		"MISO South":   1,
		"miso s":       1,
		"ERCOT":        0,
		"CAISO":        0,
		"WECC":         0,
		"Unknown Grid": 1,
	}
	for raw, want := range cases {
		expectScore(t, raw, MarketScore(raw), want)
	}
	expectMissing(t, "empty", MarketScore(""))
	expectMissing(t, "#N/A", MarketScore("#N/A"))
}

func TestCODScore(t *testing.T) {
	expectScore(t, "1998", CODScore("1998"), 3)
	expectScore(t, "1999", CODScore(1999), 3)
	expectScore(t, "2000", CODScore("2000"), 2)
	expectScore(t, "2005", CODScore("COD 2005"), 2)
	expectScore(t, "2006", CODScore("2006-06-01"), 1)
	expectMissing(t, "#N/A", CODScore("#N/A"))
	expectMissing(t, "no year", CODScore("TBD"))
	expectMissing(t, "pre 1900", CODScore("1850"))
	expectMissing(t, "five digits", CODScore("19985"))
}

func TestCapacityFactorScore(t *testing.T) {
	expectScore(t, "0.05", CapacityFactorScore(0.05), 3)
	expectScore(t, "9%", CapacityFactorScore("9"), 3)
	expectScore(t, "0.10", CapacityFactorScore(0.10), 2)
	expectScore(t, "25", CapacityFactorScore(25), 2)
	expectScore(t, "0.26", CapacityFactorScore(0.26), 1)
	expectScore(t, "60%", CapacityFactorScore("60%"), 1)
	expectScore(t, "0", CapacityFactorScore(0), 3)
	expectMissing(t, "text", CapacityFactorScore("unknown"))
}

func TestCapacityFactorScorePercentText(t *testing.T) {
	expectScore(t, "1%", CapacityFactorScore("1%"), 3)
	expectScore(t, "0.5%", CapacityFactorScore("0.5%"), 3)
	expectScore(t, "10%", CapacityFactorScore("10%"), 2)
	expectScore(t, "25.0%", CapacityFactorScore(" 25.0% "), 2)
	expectScore(t, "26%", CapacityFactorScore("26%"), 1)
	if got := FractionOf("1%").Float(); got != 0.01 {
		t.Fatalf("expected 0.01, got %v", got)
	}
	if got := FractionOf("12 MW").Float(); got != 12 {
		t.Fatalf("expected plain number kept, got %v", got)
	}
}

func TestYearToken(t *testing.T) {
	if year, ok := YearToken("06/15/1998"); !ok || year != 1998 {
		t.Fatalf("expected 1998, got %d %v", year, ok)
	}
	if year, ok := YearToken("1700"); !ok || year != 1700 {
		t.Fatalf("expected 1700, got %d %v", year, ok)
	}
	if _, ok := ExtractYear("1700"); ok {
		t.Fatalf("expected 1700 rejected as a commissioning year")
	}
}

func TestTransactabilityScore(t *testing.T) {
	expectScore(t, "code 1", TransactabilityScore(1), 3)
	expectScore(t, "code 2", TransactabilityScore("2"), 2)
	expectScore(t, "code 3", TransactabilityScore(3), 1)
	expectScore(t, "bilateral developed", TransactabilityScore("Bilateral w/ developed relationship"), 3)
	expectScore(t, "bilateral", TransactabilityScore("Bilateral"), 2)
	expectScore(t, "process", TransactabilityScore("Competitive Process"), 2)
	expectScore(t, "competitive", TransactabilityScore("Competitive"), 1)
	expectScore(t, "other", TransactabilityScore("Unclear"), 2)
	expectScore(t, "code 7", TransactabilityScore(7), 2)
	expectMissing(t, "empty", TransactabilityScore(""))
	expectMissing(t, "#VALUE!", TransactabilityScore("#VALUE!"))
}

func TestInferStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		legacy, redev any
		want          Status
	}{
		{legacy: "1998", redev: nil, want: StatusOperating},
		{legacy: "1998", redev: "2028", want: StatusFuture},
		{legacy: "2030", redev: "2026", want: StatusOperating},
		{legacy: nil, redev: "#N/A", want: StatusUnknown},
		{legacy: "TBD", redev: "", want: StatusUnknown},
	}
	for _, tc := range cases {
		if got := InferStatus(tc.legacy, tc.redev, now); got != tc.want {
			t.Fatalf("InferStatus(%v, %v): expected %s, got %s", tc.legacy, tc.redev, tc.want, got)
		}
	}
}

func TestSupplementScores(t *testing.T) {
	expectScore(t, "60 MW", CapacitySizeScore(60, false), 1)
	expectScore(t, "50 MW", CapacitySizeScore("50", false), 0)
	expectScore(t, "120 MW portfolio", CapacitySizeScore(120, true), 0)
	expectScore(t, "151 MW portfolio", CapacitySizeScore(151, true), 1)
	expectMissing(t, "capacity missing", CapacitySizeScore("#N/A", false))

	expectScore(t, "natural gas", FuelScore("Natural Gas"), 1)
	expectScore(t, "oil", FuelScore("Fuel Oil"), 1)
	expectScore(t, "coal", FuelScore("Coal"), 0)
	expectScore(t, "hydrogen", FuelScore("Hydrogen"), 0)
	expectMissing(t, "fuel missing", FuelScore(""))
}
