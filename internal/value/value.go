// Package value converts between integer satoshi amounts and the decimal
// strings shown in the console. All arithmetic stays in the integer domain.
package value

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// Unit is the number of satoshis in one whole coin.
	Unit = 100_000_000

	// FracDigits is the fixed number of fractional digits of a whole coin.
	FracDigits = 8
)

// ErrParse is wrapped by every error returned from Decode.
var ErrParse = errors.New("malformed amount")

// ParseError describes why a decimal string was rejected.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse amount %q: %s", e.Input, e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// Encode renders a satoshi amount as a decimal coin string.
//
// With forcePad the fraction is always 8 digits wide. Without it trailing
// zeros are trimmed, except that a whole amount keeps all 8 zero digits
// ("1.00000000", not "1").
func Encode(amount int64, forcePad bool) string {
	neg := amount < 0
	abs := uint64(amount)
	if neg {
		abs = -abs
	}

	frac := fmt.Sprintf("%08d", abs%Unit)
	if !forcePad {
		if trimmed := strings.TrimRight(frac, "0"); trimmed != "" {
			frac = trimmed
		}
	}

	s := strconv.FormatUint(abs/Unit, 10) + "." + frac
	if neg {
		return "-" + s
	}
	return s
}

// String is Encode without forced padding.
func String(amount int64) string {
	return Encode(amount, false)
}

// Decode parses a decimal coin string into satoshis. It is the exact inverse
// of Encode(a, true).
func Decode(text string) (int64, error) {
	s := text
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	whole, frac, _ := strings.Cut(s, ".")
	if strings.Contains(frac, ".") {
		return 0, &ParseError{Input: text, Reason: "more than one decimal point"}
	}
	if len(frac) > FracDigits {
		return 0, &ParseError{Input: text, Reason: fmt.Sprintf("more than %d fractional digits", FracDigits)}
	}
	if whole == "" || !isDigits(whole) {
		return 0, &ParseError{Input: text, Reason: "whole part is not a number"}
	}
	if !isDigits(frac) {
		return 0, &ParseError{Input: text, Reason: "fraction is not a number"}
	}

	w, err := strconv.ParseUint(whole, 10, 64)
	if err != nil {
		return 0, &ParseError{Input: text, Reason: "value out of range"}
	}
	var f uint64
	if frac != "" {
		// at most 8 digits, cannot overflow
		f, _ = strconv.ParseUint(frac+strings.Repeat("0", FracDigits-len(frac)), 10, 64)
	}

	limit := uint64(math.MaxInt64)
	if neg {
		limit++
	}
	if w > limit/Unit || w*Unit > limit-f {
		return 0, &ParseError{Input: text, Reason: "value out of range"}
	}

	total := w*Unit + f
	if neg {
		return int64(-total), nil
	}
	return int64(total), nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
