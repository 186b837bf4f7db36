// Package fees turns the per-block fee observations of a node into the
// cumulative fee-rate curve plotted by the console.
package fees

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// WeightPerVbyte is the protocol scaling between weight units and vbytes.
const WeightPerVbyte = 4

var (
	// ErrInvalidRecord is returned for fee data that does not decode, for a
	// zero-weight record where a rate is needed, and for sums past 64 bits.
	ErrInvalidRecord = errors.New("invalid fee record")

	// ErrUnknownMode is returned for an aggregation mode that does not exist.
	ErrUnknownMode = errors.New("unknown aggregation mode")
)

// Key groups records. It holds the compact JSON text of the group value
// supplied by the data source, so numbers and strings compare as written.
// The zero Key means "no key" and encodes as null.
type Key string

// NoKey is the key of a record that carries none.
const NoKey Key = ""

// IntKey returns the key for an integer group id.
func IntKey(n int64) Key { return Key(strconv.FormatInt(n, 10)) }

// StringKey returns the key for a string group id.
func StringKey(s string) Key {
	b, _ := json.Marshal(s)
	return Key(b)
}

func (k Key) MarshalJSON() ([]byte, error) {
	if k == NoKey {
		return []byte("null"), nil
	}
	return []byte(k), nil
}

func (k *Key) UnmarshalJSON(data []byte) error {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return err
	}
	if buf.String() == "null" {
		*k = NoKey
		return nil
	}
	*k = Key(buf.String())
	return nil
}

// Record is one transaction (or package) contributing to a block's fees.
// On the wire it is the array [weight, fee, key].
type Record struct {
	Weight uint64
	Fee    uint64
	Key    Key
}

// Vbytes returns the record size in virtual bytes.
func (r Record) Vbytes() float64 {
	return float64(r.Weight) / WeightPerVbyte
}

// Rate returns the fee per vbyte.
func (r Record) Rate() (float64, error) {
	if r.Weight == 0 {
		return 0, ErrInvalidRecord
	}
	return float64(r.Fee) / r.Vbytes(), nil
}

func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]any{r.Weight, r.Fee, r.Key})
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("fee record: %w", err)
	}
	if len(parts) < 2 || len(parts) > 3 {
		return fmt.Errorf("fee record: want [weight, fee, key], got %d elements", len(parts))
	}
	var rec Record
	if err := json.Unmarshal(parts[0], &rec.Weight); err != nil {
		return fmt.Errorf("fee record weight: %w", err)
	}
	if err := json.Unmarshal(parts[1], &rec.Fee); err != nil {
		return fmt.Errorf("fee record fee: %w", err)
	}
	if len(parts) == 3 {
		if err := rec.Key.UnmarshalJSON(parts[2]); err != nil {
			return fmt.Errorf("fee record key: %w", err)
		}
	}
	*r = rec
	return nil
}

// ParseRecords decodes the JSON array of [weight, fee, key] arrays served
// as blfees.json.
func ParseRecords(data []byte) ([]Record, error) {
	var recs []Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return recs, nil
}
