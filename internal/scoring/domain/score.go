package scoring

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Score is a tri-state numeric value: missing, present as zero, or present.
// The zero value is missing.
type Score struct {
	value float64
	valid bool
}

// Missing returns the missing score.
func Missing() Score { return Score{} }

// ScoreOf returns a present score. Non-finite values are a caller bug.
func ScoreOf(v float64) Score {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		panic("scoring: non-finite score value")
	}
	return Score{value: v, valid: true}
}

// Int returns a present score for an integer value.
func Int(v int) Score { return Score{value: float64(v), valid: true} }

// ScoreFromPtr converts a nullable float into a score.
func ScoreFromPtr(v *float64) Score {
	if v == nil {
		return Missing()
	}
	return ScoreOf(*v)
}

// IsMissing reports whether the score is N/A.
func (s Score) IsMissing() bool { return !s.valid }

// IsPresent reports whether the score carries a value, zero included.
func (s Score) IsPresent() bool { return s.valid }

// IsZero reports whether the score is present and exactly zero.
func (s Score) IsZero() bool { return s.valid && s.value == 0 }

// Get returns the value and whether it is present.
func (s Score) Get() (float64, bool) { return s.value, s.valid }

// Float returns the value, or zero when missing.
func (s Score) Float() float64 { return s.value }

// Or returns the value, or fallback when missing.
func (s Score) Or(fallback float64) float64 {
	if !s.valid {
		return fallback
	}
	return s.value
}

// Ptr returns a pointer to the value, or nil when missing.
func (s Score) Ptr() *float64 {
	if !s.valid {
		return nil
	}
	v := s.value
	return &v
}

// Equal reports whether two scores are both missing or hold the same value.
func (s Score) Equal(other Score) bool {
	if s.valid != other.valid {
		return false
	}
	return !s.valid || s.value == other.value
}

// String renders the score for display.
func (s Score) String() string { return FormatScore(s) }

// MarshalJSON encodes missing as null.
func (s Score) MarshalJSON() ([]byte, error) {
	if !s.valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(s.value, 'f', -1, 64)), nil
}

// UnmarshalJSON accepts null, numbers and strings; strings go through the normalizer.
func (s *Score) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = Missing()
		return nil
	}
	if data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*s = Clean(text).Number()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = ScoreOf(v)
	return nil
}

// Value stores missing as SQL NULL.
func (s Score) Value() (driver.Value, error) {
	if !s.valid {
		return nil, nil
	}
	return s.value, nil
}

// Scan reads a nullable numeric column.
func (s *Score) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s = Missing()
	case float64:
		*s = cleanFloat(v).Number()
	case int64:
		*s = Score{value: float64(v), valid: true}
	case []byte:
		*s = Clean(string(v)).Number()
	case string:
		*s = Clean(v).Number()
	default:
		return fmt.Errorf("scoring: cannot scan %T into Score", src)
	}
	return nil
}
