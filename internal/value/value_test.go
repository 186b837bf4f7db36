package value

import (
	"errors"
	"math"
	"testing"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		amount int64
		pad    bool
		want   string
	}{
		{100000000, false, "1.00000000"},
		{150000000, false, "1.5"},
		{123456789, false, "1.23456789"},
		{-50000000, false, "-0.5"},
		{0, false, "0.00000000"},
		{1, false, "0.00000001"},
		{10, false, "0.0000001"},
		{2100000000000000, false, "21000000.00000000"},
		{150000000, true, "1.50000000"},
		{-1, true, "-0.00000001"},
		{math.MinInt64, true, "-92233720368.54775808"},
		{math.MaxInt64, false, "92233720368.54775807"},
	}

	for _, tt := range tests {
		if got := Encode(tt.amount, tt.pad); got != tt.want {
			t.Errorf("Encode(%d, %v) = %q, want %q", tt.amount, tt.pad, got, tt.want)
		}
	}
}

func TestStringMatchesUnpadded(t *testing.T) {
	if got := String(150000000); got != "1.5" {
		t.Errorf("String = %q, want 1.5", got)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		text string
		want int64
	}{
		{"1.5", 150000000},
		{"1", 100000000},
		{"0.00000001", 1},
		{"1.", 100000000},
		{"-0.5", -50000000},
		{"21000000.00000000", 2100000000000000},
		{"007.1", 710000000},
		{"-92233720368.54775808", math.MinInt64},
		{"92233720368.54775807", math.MaxInt64},
	}

	for _, tt := range tests {
		got, err := Decode(tt.text)
		if err != nil {
			t.Errorf("Decode(%q): %v", tt.text, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Decode(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestDecodeRejects(t *testing.T) {
	bad := []string{
		"1.123456789",
		"1.2.3",
		"",
		"-",
		".5",
		"abc",
		"1a.5",
		"1.5x",
		" 1.5",
		"+1",
		"1e8",
		"92233720368.54775808",
		"-92233720368.54775809",
		"99999999999999999999",
	}

	for _, text := range bad {
		_, err := Decode(text)
		if err == nil {
			t.Errorf("Decode(%q) succeeded, want error", text)
			continue
		}
		if !errors.Is(err, ErrParse) {
			t.Errorf("Decode(%q) error %v does not wrap ErrParse", text, err)
		}
		var pe *ParseError
		if !errors.As(err, &pe) || pe.Input != text {
			t.Errorf("Decode(%q) error %v is not a *ParseError for the input", text, err)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	amounts := []int64{
		0, 1, -1, 7, 10, 99, 12345678, 100000000, -100000000,
		150000000, 123456789, -123456789, 987654321012,
		math.MaxInt64, math.MinInt64, math.MinInt64 + 1,
	}
	for i := int64(1); i < 1e8; i *= 10 {
		amounts = append(amounts, i, -i, 3*i+1)
	}

	for _, a := range amounts {
		for _, pad := range []bool{true, false} {
			s := Encode(a, pad)
			got, err := Decode(s)
			if err != nil {
				t.Fatalf("Decode(Encode(%d, %v) = %q): %v", a, pad, s, err)
			}
			if got != a {
				t.Errorf("round trip %d (pad=%v) via %q = %d", a, pad, s, got)
			}
		}
	}
}
