package fees

import (
	"fmt"
	"math/bits"
	"slices"
	"strings"
)

// Mode selects how records are prepared before the curve is built.
type Mode int

const (
	// ModeNone keeps records in block order.
	ModeNone Mode = iota

	// ModeGroupRuns merges consecutive records sharing a key. The input must
	// already be clustered by key: the same key appearing again after a
	// different one starts a new group.
	ModeGroupRuns

	// ModeSortRate orders records by fee per weight unit, highest first.
	ModeSortRate

	// ModeGroupAll merges every record sharing a key, wherever it appears.
	// Groups are emitted in order of first appearance.
	ModeGroupAll
)

var modeNames = map[Mode]string{
	ModeNone:      "none",
	ModeGroupRuns: "group",
	ModeSortRate:  "spb",
	ModeGroupAll:  "groupall",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode maps a transport name to a Mode. The empty string is ModeNone.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return ModeNone, nil
	case "group", "gru":
		return ModeGroupRuns, nil
	case "spb", "sort":
		return ModeSortRate, nil
	case "groupall":
		return ModeGroupAll, nil
	}
	return ModeNone, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Process returns the working set for mode. The input slice is never
// modified.
func Process(records []Record, mode Mode) ([]Record, error) {
	switch mode {
	case ModeNone:
		return slices.Clone(records), nil
	case ModeGroupRuns:
		return groupRuns(records)
	case ModeGroupAll:
		return groupAll(records)
	case ModeSortRate:
		return sortByRate(records)
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownMode, mode)
}

func groupRuns(records []Record) ([]Record, error) {
	out := make([]Record, 0, len(records))
	var acc Record
	started := false
	for i, r := range records {
		if started && r.Key == acc.Key {
			var err error
			if acc.Weight, acc.Fee, err = addRecord(acc.Weight, acc.Fee, r); err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
			continue
		}
		if acc.Weight > 0 {
			out = append(out, acc)
		}
		acc = r
		started = true
	}
	if acc.Weight > 0 {
		out = append(out, acc)
	}
	return out, nil
}

func groupAll(records []Record) ([]Record, error) {
	index := make(map[Key]int)
	groups := make([]Record, 0)
	for n, r := range records {
		i, ok := index[r.Key]
		if !ok {
			index[r.Key] = len(groups)
			groups = append(groups, r)
			continue
		}
		g := &groups[i]
		var err error
		if g.Weight, g.Fee, err = addRecord(g.Weight, g.Fee, r); err != nil {
			return nil, fmt.Errorf("record %d: %w", n, err)
		}
	}
	return slices.DeleteFunc(groups, func(r Record) bool { return r.Weight == 0 }), nil
}

func sortByRate(records []Record) ([]Record, error) {
	for i, r := range records {
		if r.Weight == 0 {
			return nil, fmt.Errorf("record %d: zero weight: %w", i, ErrInvalidRecord)
		}
	}
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b Record) int {
		return -compareRate(a, b)
	})
	return out, nil
}

// compareRate compares a.Fee/a.Weight with b.Fee/b.Weight exactly, using
// 128-bit cross products. Both weights must be non-zero.
func compareRate(a, b Record) int {
	ahi, alo := bits.Mul64(a.Fee, b.Weight)
	bhi, blo := bits.Mul64(b.Fee, a.Weight)
	switch {
	case ahi != bhi:
		if ahi < bhi {
			return -1
		}
		return 1
	case alo < blo:
		return -1
	case alo > blo:
		return 1
	}
	return 0
}
