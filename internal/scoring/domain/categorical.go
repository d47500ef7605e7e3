package scoring

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Status is the lifecycle state inferred from commissioning dates.
type Status string

const (
	StatusOperating Status = "Operating"
	StatusFuture    Status = "Future"
	StatusUnknown   Status = "Unknown"
)

// tokenRule maps any matching token to a score.
type tokenRule struct {
	Tokens []string
	Score  int
}

// MarketTiers lists grid-market identifiers from the highest tier down.
// Order matters: matching stops at the first rule that hits.
var MarketTiers = []tokenRule{
	{Tokens: []string{"PJM", "NYISO", "ISO-NE", "ISONE"}, Score: 3},
	{Tokens: []string{"MISO NORTH", "SERC", "MISO N"}, Score: 2},
	{Tokens: []string{"SPP", "MISO SOUTH", "MISO S"}, Score: 1},
	{Tokens: []string{"ERCOT", "WECC", "CAISO"}, Score: 0},
}

// DefaultMarketScore applies to a present identifier no tier recognizes.
const DefaultMarketScore = 1

// keywordRule matches when every keyword is contained in the text.
type keywordRule struct {
	All   []string
	Score int
}

// TransactabilityKeywords are checked in order against lower-cased text.
var TransactabilityKeywords = []keywordRule{
	{All: []string{"bilateral", "developed"}, Score: 3},
	{All: []string{"bilateral"}, Score: 2},
	{All: []string{"process"}, Score: 2},
	{All: []string{"competitive"}, Score: 1},
}

// DefaultTransactabilityScore applies to present text no keyword matches.
const DefaultTransactabilityScore = 2

// TransactabilityCodes maps deal-stage codes to scores. The mapping is
// inverted on purpose: a less competitive process scores higher.
var TransactabilityCodes = map[int]int{1: 3, 2: 2, 3: 1}

// yearBand maps years up to and including MaxYear to a score.
type yearBand struct {
	MaxYear int
	Score   int
}

// CODBands are evaluated in order; years after the last band score CODLateScore.
var CODBands = []yearBand{
	{MaxYear: 1999, Score: 3},
	{MaxYear: 2005, Score: 2},
}

// CODLateScore applies to commissioning years after 2005.
const CODLateScore = 1

// minimumYear rejects tokens that cannot be commissioning years.
const minimumYear = 1900

// fractionBand maps capacity factors up to MaxFraction to a score.
type fractionBand struct {
	MaxFraction float64
	Inclusive   bool
	Score       int
}

// CapacityFactorBands are evaluated in order; larger fractions score CapacityFactorHighScore.
var CapacityFactorBands = []fractionBand{
	{MaxFraction: 0.10, Inclusive: false, Score: 3},
	{MaxFraction: 0.25, Inclusive: true, Score: 2},
}

// CapacityFactorHighScore applies to capacity factors above 25%.
const CapacityFactorHighScore = 1

var (
	yearToken      = regexp.MustCompile(`\b(\d{4})\b`)
	leadingInteger = regexp.MustCompile(`^[+-]?\d+`)
)

// MarketScore scores a market or grid-operator identifier.
func MarketScore(raw any) Score {
	text, ok := Clean(raw).Text()
	if !ok {
		return Missing()
	}
	upper := strings.ToUpper(text)
	for _, tier := range MarketTiers {
		for _, token := range tier.Tokens {
			if strings.Contains(upper, token) {
				return Int(tier.Score)
			}
		}
	}
	return Int(DefaultMarketScore)
}

// YearToken returns the first standalone four-digit number in the value,
// whatever its size.
func YearToken(raw any) (int, bool) {
	text, ok := Clean(raw).Text()
	if !ok {
		return 0, false
	}
	match := yearToken.FindStringSubmatch(text)
	if match == nil {
		return 0, false
	}
	year, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return year, true
}

// ExtractYear returns the first standalone four-digit year in the value.
func ExtractYear(raw any) (int, bool) {
	year, ok := YearToken(raw)
	if !ok || year < minimumYear {
		return 0, false
	}
	return year, true
}

// CODScore scores a commissioning year.
func CODScore(raw any) Score {
	year, ok := ExtractYear(raw)
	if !ok {
		return Missing()
	}
	for _, band := range CODBands {
		if year <= band.MaxYear {
			return Int(band.Score)
		}
	}
	return Int(CODLateScore)
}

// CapacityFactorScore scores a capacity factor given as a fraction or a
// percentage. Text ending in "%" is always a percentage; a bare number
// above 1 is one too.
func CapacityFactorScore(raw any) Score {
	cell := Clean(raw)
	cf, ok := cell.Fraction().Get()
	if !ok {
		return Missing()
	}
	if !cell.IsPercent() && cf > 1 {
		cf = cf / 100
	}
	for _, band := range CapacityFactorBands {
		if cf < band.MaxFraction || (band.Inclusive && cf == band.MaxFraction) {
			return Int(band.Score)
		}
	}
	return Int(CapacityFactorHighScore)
}

// TransactabilityScore scores a deal-stage code or a deal-process description.
func TransactabilityScore(raw any) Score {
	cell := Clean(raw)
	text, ok := cell.Text()
	if !ok {
		return Missing()
	}
	if code, ok := leadingCode(text); ok {
		if score, known := TransactabilityCodes[code]; known {
			return Int(score)
		}
	}
	lower := strings.ToLower(text)
	for _, rule := range TransactabilityKeywords {
		if containsAll(lower, rule.All) {
			return Int(rule.Score)
		}
	}
	return Int(DefaultTransactabilityScore)
}

// InferStatus derives the asset status from the redevelopment COD, falling
// back to the legacy COD.
func InferStatus(legacyCOD, redevCOD any, now time.Time) Status {
	currentYear := now.Year()
	for _, raw := range []any{redevCOD, legacyCOD} {
		year, ok := ExtractYear(raw)
		if !ok {
			continue
		}
		if year > currentYear {
			return StatusFuture
		}
		return StatusOperating
	}
	return StatusUnknown
}

func leadingCode(text string) (int, bool) {
	match := leadingInteger.FindString(text)
	if match == "" {
		return 0, false
	}
	code, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return code, true
}

func containsAll(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if !strings.Contains(text, keyword) {
			return false
		}
	}
	return true
}
