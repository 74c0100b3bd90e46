package param

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-clip/dsp/core"
)

// Formatter renders a plain value for display, without unit.
type Formatter func(value float64) string

// Parser converts display text back into a plain value.
type Parser func(text string) (float64, error)

const minusInfinityText = "-inf"

// DecimalString formats plain values with a fixed number of decimals.
func DecimalString(digits int) Formatter {
	return func(value float64) string {
		return formatFixed(value, digits)
	}
}

// DecimalStringToValue parses plain decimal values.
func DecimalStringToValue() Parser {
	return func(text string) (float64, error) {
		v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return 0, fmt.Errorf("parse value %q: %w", text, err)
		}

		return v, nil
	}
}

// GainToDBString displays a linear gain in decibels. Gains at or below the
// -100 dB floor display as "-inf".
func GainToDBString(digits int) Formatter {
	return func(gain float64) string {
		db := core.GainToDB(gain)
		if db <= core.MinusInfinityDB {
			return minusInfinityText
		}

		return formatFixed(db, digits)
	}
}

// DBStringToGain parses a decibel value, with or without a "dB" suffix, into
// a linear gain. "-inf" parses as zero gain.
func DBStringToGain() Parser {
	return func(text string) (float64, error) {
		s := strings.TrimSpace(text)
		if len(s) >= 2 && strings.EqualFold(s[len(s)-2:], "db") {
			s = strings.TrimSpace(s[:len(s)-2])
		}

		if strings.EqualFold(s, minusInfinityText) || s == "-∞" {
			return 0, nil
		}

		db, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("parse decibels %q: %w", text, err)
		}

		return core.DBToGain(db), nil
	}
}

// PercentString displays a fraction in [0, 1] as a percentage.
func PercentString(digits int) Formatter {
	return func(fraction float64) string {
		return formatFixed(fraction*100, digits)
	}
}

// PercentStringToValue parses a percentage, with or without "%", into a fraction.
func PercentStringToValue() Parser {
	return func(text string) (float64, error) {
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "%"))

		pct, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("parse percentage %q: %w", text, err)
		}

		return pct / 100, nil
	}
}

// formatFixed never renders a negative zero such as "-0.00".
func formatFixed(value float64, digits int) string {
	s := strconv.FormatFloat(value, 'f', digits, 64)
	if strings.HasPrefix(s, "-") && strings.Trim(s[1:], "0.") == "" {
		return s[1:]
	}

	return s
}
