package scoring

import "testing"

func fullThermal() ThermalInputs {
	return ThermalInputs{
		PlantCOD:            Int(3),
		Market:              Int(3),
		Transactability:     Int(2),
		ThermalOptimization: Int(1),
		Environmental:       Int(2),
	}
}

func fullRedevelopment(mode string) RedevelopmentInputs {
	return RedevelopmentInputs{
		Market:          Int(3),
		Infrastructure:  Int(3),
		Interconnection: Int(2),
		CoLocationMode:  mode,
	}
}

func TestThermalScoreNullPropagation(t *testing.T) {
	mutations := map[string]func(*ThermalInputs){
		"cod":             func(in *ThermalInputs) { in.PlantCOD = Missing() },
		"market":          func(in *ThermalInputs) { in.Market = Missing() },
		"transactability": func(in *ThermalInputs) { in.Transactability = Missing() },
		"environmental":   func(in *ThermalInputs) { in.Environmental = Missing() },
	}
	for name, mutate := range mutations {
		in := fullThermal()
		mutate(&in)
		if got := ThermalScore(in); got.IsPresent() {
			t.Fatalf("%s missing: expected N/A, got %v", name, got)
		}
	}
}

func TestThermalScoreDefaultsOptimization(t *testing.T) {
	in := fullThermal()
	in.ThermalOptimization = Missing()
	got, ok := ThermalScore(in).Get()
	if !ok || got != 2.4 {
		t.Fatalf("expected 2.4, got %v (present=%v)", got, ok)
	}
}

func TestRedevelopmentScore(t *testing.T) {
	if got := RedevelopmentScore(fullRedevelopment("Codevelopment")).Float(); got != 2.7 {
		t.Fatalf("expected 2.7, got %v", got)
	}
	if got := RedevelopmentScore(fullRedevelopment("Repower")).Float(); got != 2.03 {
		t.Fatalf("expected 2.03, got %v", got)
	}
	if got := RedevelopmentScore(fullRedevelopment("")).Float(); got != 2.7 {
		t.Fatalf("expected 2.7 without mode, got %v", got)
	}
}

func TestRedevelopmentScoreZeroShortCircuit(t *testing.T) {
	for _, field := range []string{"market", "infra", "ix"} {
		in := fullRedevelopment("Repower")
		switch field {
		case "market":
			in.Market = Int(0)
		case "infra":
			in.Infrastructure = Int(0)
		case "ix":
			in.Interconnection = Int(0)
		}
		got := RedevelopmentScore(in)
		if !got.IsZero() {
			t.Fatalf("%s=0: expected present 0, got %v", field, got)
		}
	}

	in := fullRedevelopment("")
	in.Market = Int(0)
	in.Infrastructure = Missing()
	if got := RedevelopmentScore(in); got.IsPresent() {
		t.Fatalf("missing must win over zero, got %v", got)
	}
}

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		score Score
		want  Rating
	}{
		{score: ScoreOf(4.5), want: RatingStrong},
		{score: ScoreOf(4.49), want: RatingModerate},
		{score: ScoreOf(3.0), want: RatingModerate},
		{score: ScoreOf(2.99), want: RatingWeak},
		{score: ScoreOf(0), want: RatingWeak},
		{score: Missing(), want: RatingNA},
	}
	for _, tc := range cases {
		if got := Classify(tc.score); got != tc.want {
			t.Fatalf("Classify(%v): expected %s, got %s", tc.score, tc.want, got)
		}
	}
}

func TestCalculateOverall(t *testing.T) {
	got := Calculate(Inputs{ThermalInputs: fullThermal(), RedevelopmentInputs: fullRedevelopment("Codevelopment")})
	if got.OverallScore.Float() != 5.15 || got.OverallRating != RatingStrong || got.HasNA {
		t.Fatalf("unexpected result: %+v", got)
	}

	thermal := fullThermal()
	thermal.Environmental = Missing()
	got = Calculate(Inputs{ThermalInputs: thermal, RedevelopmentInputs: fullRedevelopment("")})
	if got.OverallScore.IsPresent() || got.OverallRating != RatingNA || !got.HasNA {
		t.Fatalf("expected N/A overall, got %+v", got)
	}
	if got.RedevelopmentScore.Float() != 2.7 {
		t.Fatalf("expected redevelopment to still compute, got %v", got.RedevelopmentScore)
	}
}

func TestRound2(t *testing.T) {
	redev := 2.7
	cases := []struct {
		in, want float64
	}{
		{in: 2.025, want: 2.03},
		{in: redev * 0.75, want: 2.03},
		{in: 1.005, want: 1.01},
		{in: 2.444, want: 2.44},
		{in: 0, want: 0},
	}
	for _, tc := range cases {
		if got := Round2(tc.in); got != tc.want {
			t.Fatalf("Round2(%v): expected %v, got %v", tc.in, tc.want, got)
		}
	}
}

func TestFormatScore(t *testing.T) {
	if got := FormatScore(Missing()); got != "N/A" {
		t.Fatalf("expected N/A, got %s", got)
	}
	if got := FormatScore(Int(0)); got != "0.00" {
		t.Fatalf("expected 0.00, got %s", got)
	}
	if got := FormatScore(ScoreOf(2.025)); got != "2.03" {
		t.Fatalf("expected 2.03, got %s", got)
	}
}

func TestVerifyMismatch(t *testing.T) {
	in := Inputs{ThermalInputs: fullThermal(), RedevelopmentInputs: fullRedevelopment("")}
	result := Verify(in, Expected{Thermal: "2.45", Redevelopment: 2.7, Overall: 5.0, Rating: "Strong"})
	if result.OK() || !result.Thermal || !result.Redevelopment || result.Overall || !result.Rating {
		t.Fatalf("unexpected verification: %+v", result)
	}
	result = Verify(Inputs{}, Expected{Thermal: "N/A", Redevelopment: nil, Overall: "", Rating: "N/A"})
	if !result.OK() {
		t.Fatalf("expected N/A expectations to match, got %+v", result)
	}
}
