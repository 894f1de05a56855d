package series

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Record is one provider row as decoded from JSON.
type Record = map[string]any

// Column maps a provider field onto a canonical column name. Scale, when
// non-zero, multiplies every value (e.g. 100 to turn a ratio into percent).
type Column struct {
	Source string
	Name   string
	Scale  float64
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Normalize builds a Frame from records, taking the date from index and
// one value per column. Rows whose date cannot be parsed are dropped;
// missing or non-numeric values become nil. Rows are ordered by date.
func Normalize(records []Record, index Column, columns []Column) Frame {
	f := Frame{Columns: make([]string, len(columns)), Rows: make([]Row, 0, len(records))}
	for i, c := range columns {
		f.Columns[i] = c.Name
	}

	for _, rec := range records {
		ts, ok := ParseTime(rec[index.Source])
		if !ok {
			continue
		}
		vals := make([]*float64, len(columns))
		for i, c := range columns {
			v := Number(rec[c.Source])
			if v != nil && c.Scale != 0 {
				*v *= c.Scale
			}
			vals[i] = v
		}
		f.Rows = append(f.Rows, Row{Date: ts, Values: vals})
	}

	sort.SliceStable(f.Rows, func(i, j int) bool { return f.Rows[i].Date.Before(f.Rows[j].Date) })
	return f
}

// ParseTime accepts the timestamp shapes seen across providers: ISO-8601
// strings with or without zone, plain dates, and epoch seconds. The
// result is always UTC.
func ParseTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.UTC(), true
			}
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return epoch(n)
		}
	case float64:
		return epoch(t)
	case json.Number:
		if n, err := t.Float64(); err == nil {
			return epoch(n)
		}
	case int64:
		return epoch(float64(t))
	case int:
		return epoch(float64(t))
	case time.Time:
		return t.UTC(), true
	}
	return time.Time{}, false
}

func epoch(sec float64) (time.Time, bool) {
	if sec < 0 {
		return time.Time{}, false
	}
	return Unix(sec)
}

// Unix seconds accepted by Unix: 0001-01-01 through 9999-12-31 UTC.
const (
	minUnix = -62135596800
	maxUnix = 253402300799
)

// Unix converts fractional epoch seconds to a UTC time. It reports false for
// NaN, infinite and out-of-range values.
func Unix(sec float64) (time.Time, bool) {
	if math.IsNaN(sec) || sec < minUnix || sec > maxUnix {
		return time.Time{}, false
	}
	whole, frac := math.Modf(sec)
	return time.Unix(int64(whole), int64(math.Round(frac*1e9))).UTC(), true
}

// Number converts a JSON scalar to a float. It returns nil for absent,
// null, non-numeric, NaN and infinite values.
func Number(v any) *float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		x, err := n.Float64()
		if err != nil {
			return nil
		}
		f = x
	case string:
		x, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil
		}
		f = x
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
