package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Number is a loosely typed numeric field: JSON numbers and numeric strings
// decode to Valid values, null and blank strings decode to an absent value.
type Number struct {
	Value float64
	Valid bool
}

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = Number{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = Number{}
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%q is not numeric", s)
		}
		*n = Number{Value: v, Valid: true}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("expected number, got %s", truncate(data))
	}
	*n = Number{Value: v, Valid: true}
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

func (n Number) Int() int64 { return int64(n.Value) }

// IntPtr returns nil for an absent value.
func (n Number) IntPtr() *int64 {
	if !n.Valid {
		return nil
	}
	v := int64(n.Value)
	return &v
}

func (n Number) FloatPtr() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

func truncate(b []byte) string {
	const max = 32
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}

// fieldCheck collects required/non-negative checks for one entry.
type fieldCheck struct {
	field string
	err   error
}

func (c *fieldCheck) require(field string, n Number) {
	if c.err != nil {
		return
	}
	if !n.Valid {
		c.field, c.err = field, errMissing
	}
}

func (c *fieldCheck) count(field string, n Number) {
	c.require(field, n)
	if c.err == nil && n.Value < 0 {
		c.field, c.err = field, fmt.Errorf("must be non-negative, got %v", n.Value)
	}
}

func (c *fieldCheck) optionalCount(field string, n Number) {
	if c.err == nil && n.Valid && n.Value < 0 {
		c.field, c.err = field, fmt.Errorf("must be non-negative, got %v", n.Value)
	}
}

func intsOf(ns []Number) []int64 {
	out := make([]int64, 0, len(ns))
	for _, n := range ns {
		if n.Valid {
			out = append(out, n.Int())
		}
	}
	return out
}
