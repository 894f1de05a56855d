package defi

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/web3-frozen/near-dashboard/internal/series"
)

// Views are the derived tables the DeFi page renders.
type Views struct {
	ByCategory   series.Frame `json:"by_category"`
	ByProtocol   series.Frame `json:"by_protocol"`
	TopProtocols []Ranked     `json:"top_protocols"`
	TopTokens    []Ranked     `json:"top_tokens"`
}

// BuildViews derives every view from a pipeline result.
func BuildViews(res Result, referenceDEX string) Views {
	return Views{
		ByCategory:   ByCategory(res.Protocols),
		ByProtocol:   ByProtocol(res.Protocols),
		TopProtocols: TopProtocols(res.Protocols),
		TopTokens:    TopTokens(res.Tokens, referenceDEX),
	}
}

type cell struct {
	date int64
	col  string
}

type accum struct {
	sum   float64
	count int
}

// ByCategory sums TVL per (date, category) and pivots categories into columns.
func ByCategory(rows []ProtocolTVL) series.Frame {
	cells := make(map[cell]*accum)
	for _, r := range rows {
		add(cells, cell{r.Date.Unix(), r.Category}, r.TVL)
	}
	return pivot(cells, func(a *accum) float64 { return a.sum })
}

// ByProtocol pivots protocols into columns. Duplicate (date, protocol)
// pairs are averaged.
func ByProtocol(rows []ProtocolTVL) series.Frame {
	cells := make(map[cell]*accum)
	for _, r := range rows {
		add(cells, cell{r.Date.Unix(), r.Protocol}, r.TVL)
	}
	return pivot(cells, func(a *accum) float64 { return a.sum / float64(a.count) })
}

func add(cells map[cell]*accum, k cell, v float64) {
	a, ok := cells[k]
	if !ok {
		a = &accum{}
		cells[k] = a
	}
	a.sum += v
	a.count++
}

// pivot materializes cells into a frame with sorted dates and sorted
// column names. Absent combinations are nil.
func pivot(cells map[cell]*accum, value func(*accum) float64) series.Frame {
	dateSet := make(map[int64]bool)
	colSet := make(map[string]bool)
	for k := range cells {
		dateSet[k.date] = true
		colSet[k.col] = true
	}

	dates := make([]int64, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i] < dates[j] })

	cols := make([]string, 0, len(colSet))
	for c := range colSet {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	f := series.Frame{Columns: cols, Rows: make([]series.Row, len(dates))}
	for i, d := range dates {
		vals := make([]*float64, len(cols))
		for j, c := range cols {
			if a, ok := cells[cell{d, c}]; ok {
				vals[j] = series.Float(value(a))
			}
		}
		f.Rows[i] = series.Row{Date: time.Unix(d, 0).UTC(), Values: vals}
	}
	return f
}

// TopProtocols ranks protocols by their latest TVL, highest first. Equal
// values keep the order in which protocols first appear in rows.
func TopProtocols(rows []ProtocolTVL) []Ranked {
	latest := make(map[string]ProtocolTVL)
	var order []string
	for _, r := range rows {
		cur, ok := latest[r.Protocol]
		if !ok {
			order = append(order, r.Protocol)
			latest[r.Protocol] = r
			continue
		}
		if !r.Date.Before(cur.Date) {
			latest[r.Protocol] = r
		}
	}

	out := make([]Ranked, len(order))
	for i, name := range order {
		r := latest[name]
		out[i] = Ranked{Name: name, Category: r.Category, TVL: r.TVL, Date: r.Date}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TVL > out[j].TVL })
	for i := range out {
		out[i].Rank = i + 1
		out[i].TVL = round2(out[i].TVL)
		out[i].Label = fmt.Sprintf("%3d. %s (%s)", out[i].Rank, out[i].Name, out[i].Category)
	}
	return out
}

// TopTokens ranks the reference DEX's tokens by their latest liquidity
// summed across DEXs. Per (day, symbol, protocol) only the highest sample
// counts, so a protocol reporting several times a day is not double-counted.
func TopTokens(rows []TokenTVL, referenceDEX string) []Ranked {
	ref := make(map[string]bool)
	for _, r := range rows {
		if r.Protocol == referenceDEX {
			ref[r.Symbol] = true
		}
	}

	type daySymProto struct {
		day      int64
		symbol   string
		protocol string
	}
	best := make(map[daySymProto]float64)
	var order []daySymProto
	for _, r := range rows {
		if !ref[r.Symbol] || r.TVL == nil {
			continue
		}
		k := daySymProto{dayOf(r.Date), r.Symbol, r.Protocol}
		v, ok := best[k]
		if !ok {
			order = append(order, k)
			best[k] = *r.TVL
		} else if *r.TVL > v {
			best[k] = *r.TVL
		}
	}

	type daySym struct {
		day    int64
		symbol string
	}
	sums := make(map[daySym]float64)
	latest := make(map[string]int64)
	var symbols []string
	for _, k := range order {
		sums[daySym{k.day, k.symbol}] += best[k]
		d, ok := latest[k.symbol]
		if !ok {
			symbols = append(symbols, k.symbol)
			latest[k.symbol] = k.day
		} else if k.day > d {
			latest[k.symbol] = k.day
		}
	}

	out := make([]Ranked, len(symbols))
	for i, sym := range symbols {
		d := latest[sym]
		out[i] = Ranked{Name: sym, TVL: sums[daySym{d, sym}], Date: time.Unix(d, 0).UTC()}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TVL > out[j].TVL })
	for i := range out {
		out[i].Rank = i + 1
		out[i].TVL = round2(out[i].TVL)
		out[i].Label = fmt.Sprintf("%3d. %s", out[i].Rank, out[i].Name)
	}
	return out
}

func dayOf(t time.Time) int64 {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).Unix()
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
