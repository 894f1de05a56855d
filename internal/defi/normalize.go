package defi

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/web3-frozen/near-dashboard/internal/series"
	"github.com/web3-frozen/near-dashboard/internal/source/llama"
)

var (
	errMissingDate = errors.New("sample without date")
	errDateRange   = errors.New("sample date out of range")
)

// protocolRows turns a chain TVL series into one row per sample. A sample
// without a date makes the whole series malformed; a missing or negative
// liquidity figure only drops that sample.
func protocolRows(p Protocol, ct *llama.ChainTVL) ([]ProtocolTVL, error) {
	rows := make([]ProtocolTVL, 0, len(ct.TVL))
	for i, pt := range ct.TVL {
		date, err := sampleDate(pt.Date)
		if err != nil {
			return nil, fmt.Errorf("tvl[%d]: %w", i, err)
		}
		v := usd(pt.TotalLiquidityUSD)
		if v == nil {
			continue
		}
		rows = append(rows, ProtocolTVL{
			Protocol: p.Name,
			Category: p.Category,
			Date:     date,
			TVL:      *v,
		})
	}
	return rows, nil
}

// tokenRows unpivots the token breakdown into one row per (date, symbol)
// over the union of symbols seen in any sample, symbol-major. Symbols a
// sample does not mention are kept with a nil value.
func tokenRows(p Protocol, pts []llama.TokenPoint) ([]TokenTVL, error) {
	dates := make([]time.Time, len(pts))
	seen := make(map[string]bool)
	var symbols []string
	for i, pt := range pts {
		date, err := sampleDate(pt.Date)
		if err != nil {
			return nil, fmt.Errorf("tokensInUsd[%d]: %w", i, err)
		}
		dates[i] = date
		for sym := range pt.Tokens {
			if !seen[sym] {
				seen[sym] = true
				symbols = append(symbols, sym)
			}
		}
	}
	sort.Strings(symbols)

	rows := make([]TokenTVL, 0, len(symbols)*len(pts))
	for _, sym := range symbols {
		for i, pt := range pts {
			rows = append(rows, TokenTVL{
				Protocol: p.Name,
				Symbol:   sym,
				Date:     dates[i],
				TVL:      usd(pt.Tokens[sym]),
			})
		}
	}
	return rows, nil
}

func sampleDate(ts *float64) (time.Time, error) {
	if ts == nil || math.IsNaN(*ts) {
		return time.Time{}, errMissingDate
	}
	date, ok := series.Unix(*ts)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %g", errDateRange, *ts)
	}
	return date, nil
}

// usd returns nil for absent, NaN, infinite and negative amounts.
func usd(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 {
		return nil
	}
	out := *v
	return &out
}
