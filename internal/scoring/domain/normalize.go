package scoring

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

type cellKind uint8

const (
	cellMissing cellKind = iota
	cellNumber
	cellText
)

// Cell is a cleaned raw value: missing, a number, or text kept for categorical use.
type Cell struct {
	kind cellKind
	num  float64
	text string
}

// missingTokens are spreadsheet error markers and N/A spellings.
var missingTokens = map[string]struct{}{
	"#N/A":    {},
	"N/A":     {},
	"#VALUE!": {},
	"#REF!":   {},
}

// formulaMarkers appear in formula text that was exported without being evaluated.
var formulaMarkers = []string{"xlookup", "xlfn"}

var leadingNumber = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)

// Clean classifies a raw value of unknown shape. It never fails: every input
// maps to a number, a text value, or missing. Zero is always present.
func Clean(raw any) Cell {
	switch v := raw.(type) {
	case nil:
		return Cell{}
	case Cell:
		return v
	case Score:
		if f, ok := v.Get(); ok {
			return Cell{kind: cellNumber, num: f}
		}
		return Cell{}
	case string:
		return cleanText(v)
	case *string:
		if v == nil {
			return Cell{}
		}
		return cleanText(*v)
	case float64:
		return cleanFloat(v)
	case *float64:
		if v == nil {
			return Cell{}
		}
		return cleanFloat(*v)
	case float32:
		return cleanFloat(float64(v))
	case int:
		return Cell{kind: cellNumber, num: float64(v)}
	case *int:
		if v == nil {
			return Cell{}
		}
		return Cell{kind: cellNumber, num: float64(*v)}
	case int8:
		return Cell{kind: cellNumber, num: float64(v)}
	case int16:
		return Cell{kind: cellNumber, num: float64(v)}
	case int32:
		return Cell{kind: cellNumber, num: float64(v)}
	case int64:
		return Cell{kind: cellNumber, num: float64(v)}
	case uint:
		return Cell{kind: cellNumber, num: float64(v)}
	case uint8:
		return Cell{kind: cellNumber, num: float64(v)}
	case uint16:
		return Cell{kind: cellNumber, num: float64(v)}
	case uint32:
		return Cell{kind: cellNumber, num: float64(v)}
	case uint64:
		return Cell{kind: cellNumber, num: float64(v)}
	case json.Number:
		return cleanText(v.String())
	case bool:
		return cleanText(strconv.FormatBool(v))
	case fmt.Stringer:
		return cleanText(v.String())
	default:
		return cleanText(fmt.Sprint(v))
	}
}

// IsNA reports whether a raw value is missing.
func IsNA(raw any) bool { return Clean(raw).IsMissing() }

// NumberOf cleans a raw value and returns it as a score.
func NumberOf(raw any) Score { return Clean(raw).Number() }

func cleanFloat(v float64) Cell {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Cell{}
	}
	return Cell{kind: cellNumber, num: v}
}

func cleanText(raw string) Cell {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Cell{}
	}
	if _, ok := missingTokens[strings.ToUpper(text)]; ok {
		return Cell{}
	}
	if isFormulaText(text) {
		return Cell{}
	}
	return Cell{kind: cellText, text: text}
}

func isFormulaText(text string) bool {
	if strings.HasPrefix(text, "=") {
		return true
	}
	lower := strings.ToLower(text)
	for _, marker := range formulaMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// IsMissing reports whether the cell is N/A.
func (c Cell) IsMissing() bool { return c.kind == cellMissing }

// Number returns the numeric reading of the cell. Text without a leading
// number is missing in numeric contexts.
func (c Cell) Number() Score {
	switch c.kind {
	case cellNumber:
		return ScoreOf(c.num)
	case cellText:
		return parseLeadingNumber(c.text)
	default:
		return Missing()
	}
}

// IsPercent reports whether the cell is text with a trailing percent sign,
// as spreadsheets render percent-formatted numbers.
func (c Cell) IsPercent() bool {
	return c.kind == cellText && strings.HasSuffix(c.text, "%")
}

// Fraction returns the numeric reading, divided by 100 when the cell is
// percent text ("1%" is 0.01).
func (c Cell) Fraction() Score {
	v, ok := c.Number().Get()
	if !ok {
		return Missing()
	}
	if c.IsPercent() {
		return ScoreOf(v / 100)
	}
	return ScoreOf(v)
}

// FractionOf cleans a raw value and returns its fraction reading.
func FractionOf(raw any) Score { return Clean(raw).Fraction() }

// Text returns the cell as text for categorical matching.
func (c Cell) Text() (string, bool) {
	switch c.kind {
	case cellText:
		return c.text, true
	case cellNumber:
		return strconv.FormatFloat(c.num, 'f', -1, 64), true
	default:
		return "", false
	}
}

// String returns the text form, or empty when missing.
func (c Cell) String() string {
	text, _ := c.Text()
	return text
}

func parseLeadingNumber(text string) Score {
	match := leadingNumber.FindString(text)
	if match == "" {
		return Missing()
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil || math.IsInf(v, 0) {
		return Missing()
	}
	return ScoreOf(v)
}
