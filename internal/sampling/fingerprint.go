package sampling

import (
	"bytes"
	"encoding/json"
	"fmt"

	farm "github.com/dgryski/go-farm"
)

// Column is one named cell of a row.
type Column struct {
	Name  string
	Value any
}

// Row is a table row with columns in declared order.
type Row []Column

// CanonicalJSON serializes a row the way TO_JSON_STRING does: a compact JSON
// object, columns in declared order, no HTML escaping.
func CanonicalJSON(r Row) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	write := func(v any) error {
		if err := enc.Encode(v); err != nil {
			return err
		}
		// Encode terminates every value with a newline.
		buf.Truncate(buf.Len() - 1)
		return nil
	}

	buf.WriteByte('{')
	for i, c := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := write(c.Name); err != nil {
			return nil, fmt.Errorf("encode column name %q: %w", c.Name, err)
		}
		buf.WriteByte(':')
		if err := write(c.Value); err != nil {
			return nil, fmt.Errorf("encode column %q: %w", c.Name, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Fingerprint is FARM_FINGERPRINT over the canonical row serialization.
func Fingerprint(r Row) (int64, error) {
	data, err := CanonicalJSON(r)
	if err != nil {
		return 0, err
	}
	return int64(farm.Fingerprint64(data)), nil
}

// Bucket returns MOD(ABS(fingerprint), numLots), always in [0, numLots).
// It agrees with BigQuery for every fingerprint except math.MinInt64, where
// BigQuery's ABS fails with an overflow error and Bucket uses 2^63 instead.
func Bucket(r Row, numLots int) (int, error) {
	if numLots <= 0 {
		return 0, &SplitError{Field: "num_lots", Msg: fmt.Sprintf("must be positive, got %d", numLots)}
	}
	fp, err := Fingerprint(r)
	if err != nil {
		return 0, err
	}
	return int(abs64(fp) % uint64(numLots)), nil
}

// abs64 is |v| as an unsigned value. math.MinInt64 maps to 2^63.
func abs64(v int64) uint64 {
	u := uint64(v)
	if v < 0 {
		u = -u
	}
	return u
}

// Matches reports whether the row falls into one of lots.
func Matches(r Row, numLots int, lots []int) (bool, error) {
	if err := validateLots("", numLots, lots); err != nil {
		return false, err
	}
	b, err := Bucket(r, numLots)
	if err != nil {
		return false, err
	}
	for _, l := range lots {
		if l == b {
			return true, nil
		}
	}
	return false, nil
}

// Select evaluates the sampling predicate locally and returns the matching
// rows in input order.
func Select(rows []Row, numLots int, lots []int) ([]Row, error) {
	if err := validateLots("", numLots, lots); err != nil {
		return nil, err
	}
	want := make(map[int]bool, len(lots))
	for _, l := range lots {
		want[l] = true
	}

	var out []Row
	for i, r := range rows {
		b, err := Bucket(r, numLots)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if want[b] {
			out = append(out, r)
		}
	}
	return out, nil
}
