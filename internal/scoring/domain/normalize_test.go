package scoring

import (
	"encoding/json"
	"testing"
)

func TestCleanMissingTokens(t *testing.T) {
	missing := []any{nil, "", "   ", "#N/A", "N/A", "n/a", "#VALUE!", "#REF!",
		"=XLOOKUP(A2,B:B,C:C)", "=B2*3", "_xlfn.XLOOKUP(A1)", (*string)(nil), (*float64)(nil)}
	for _, raw := range missing {
		if !IsNA(raw) {
			t.Fatalf("expected %#v to be missing", raw)
		}
	}
}

func TestCleanZeroIsPresent(t *testing.T) {
	for _, raw := range []any{0, 0.0, "0", " 0 ", int64(0), json.Number("0")} {
		score := NumberOf(raw)
		if !score.IsPresent() || !score.IsZero() {
			t.Fatalf("expected %#v to be present zero, got %v", raw, score)
		}
	}
}

func TestCleanNumericParse(t *testing.T) {
	cases := []struct {
		raw  any
		want float64
	}{
		{raw: "12 MW", want: 12},
		{raw: "2.2%", want: 2.2},
		{raw: "-1.5", want: -1.5},
		{raw: ".5", want: 0.5},
		{raw: float32(1.5), want: 1.5},
		{raw: uint8(3), want: 3},
	}
	for _, tc := range cases {
		got, ok := NumberOf(tc.raw).Get()
		if !ok || got != tc.want {
			t.Fatalf("NumberOf(%#v): expected %v, got %v (present=%v)", tc.raw, tc.want, got, ok)
		}
	}
}

func TestCleanPreservesTextForCategories(t *testing.T) {
	cell := Clean("  Bilateral Developed ")
	if cell.IsMissing() {
		t.Fatalf("expected text to be present")
	}
	if !cell.Number().IsMissing() {
		t.Fatalf("expected non-numeric text to be missing in numeric context")
	}
	text, ok := cell.Text()
	if !ok || text != "Bilateral Developed" {
		t.Fatalf("expected trimmed text, got %q", text)
	}
}

func TestScoreJSON(t *testing.T) {
	var payload struct {
		A Score `json:"a"`
		B Score `json:"b"`
		C Score `json:"c"`
		D Score `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"a":null,"b":0,"c":"#N/A","d":"2.5"}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !payload.A.IsMissing() || !payload.B.IsZero() || !payload.C.IsMissing() || payload.D.Float() != 2.5 {
		t.Fatalf("unexpected decode: %+v", payload)
	}
	out, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"a":null,"b":0,"c":null,"d":2.5}` {
		t.Fatalf("unexpected encode: %s", out)
	}
}

func TestScoreOfPanicsOnNonFinite(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	zero := 0.0
	ScoreOf(zero / zero)
}
