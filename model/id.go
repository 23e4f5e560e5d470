package model

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// IDSet is a set of identifiers.
type IDSet map[int64]struct{}

// NewIDSet builds a set from ids.
func NewIDSet(ids ...int64) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Contains reports whether id is in the set.
func (s IDSet) Contains(id int64) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of ids.
func (s IDSet) Len() int {
	return len(s)
}

// Sorted returns the ids in ascending order.
func (s IDSet) Sorted() []int64 {
	out := make([]int64, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CoerceID converts a scalar returned by a driver or decoded from JSON into an id.
// It accepts integers, integral floats, json.Number and numeric strings.
func CoerceID(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) || math.IsNaN(t) {
			return 0, false
		}
		// outside the int64 range the conversion would not round trip
		if t < -(1<<63) || t >= 1<<63 {
			return 0, false
		}
		return int64(t), true
	case json.Number:
		id, err := t.Int64()
		return id, err == nil
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		return id, err == nil
	}
	return 0, false
}

// CoerceIDs converts rows to ids, skipping rows that are not ids.
func CoerceIDs(rows []any) []int64 {
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		if id, ok := CoerceID(row); ok {
			ids = append(ids, id)
		}
	}
	return ids
}
