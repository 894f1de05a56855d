// Package series reshapes provider records into chart-ready tables.
package series

import (
	"time"
)

// Frame is a date-indexed table with one nullable numeric value per column.
type Frame struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

type Row struct {
	Date   time.Time  `json:"date"`
	Values []*float64 `json:"values"`
}

// Empty reports whether the frame has no rows.
func (f Frame) Empty() bool { return len(f.Rows) == 0 }

// Column returns the index of name, or -1.
func (f Frame) Column(name string) int {
	for i, c := range f.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Select returns a new frame with only the named columns, in that order.
// Unknown names produce an all-nil column.
func (f Frame) Select(names ...string) Frame {
	idx := make([]int, len(names))
	for i, n := range names {
		idx[i] = f.Column(n)
	}
	out := Frame{Columns: append([]string(nil), names...), Rows: make([]Row, len(f.Rows))}
	for r, row := range f.Rows {
		vals := make([]*float64, len(names))
		for i, j := range idx {
			if j >= 0 && j < len(row.Values) {
				vals[i] = row.Values[j]
			}
		}
		out.Rows[r] = Row{Date: row.Date, Values: vals}
	}
	return out
}

// Float returns a pointer to v, for building rows.
func Float(v float64) *float64 { return &v }
