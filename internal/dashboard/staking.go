package dashboard

import (
	"context"
	"math"

	"github.com/web3-frozen/near-dashboard/internal/display"
	"github.com/web3-frozen/near-dashboard/internal/series"
)

var supplyChart = []series.Column{
	{Source: "TOTAL_NEAR_SUPPLY", Name: "Total Supply"},
	{Source: "TOTAL_NEAR_STAKED", Name: "Total Staked"},
}

var epochIndex = series.Column{Source: "START_TIME", Name: "Time"}

func (s *Service) staking(ctx context.Context, p *Page) {
	var supply, staked *float64
	frame := series.Frame{Columns: columnNames(supplyChart), Rows: []series.Row{}}
	if rows, err := s.query(ctx, s.opts.Queries.Staking.Supply); err != nil {
		p.fail("staking supply", err)
	} else {
		if latest := latestEpoch(rows); latest != nil {
			supply = series.Number(latest["TOTAL_NEAR_SUPPLY"])
			staked = series.Number(latest["TOTAL_NEAR_STAKED"])
		}
		frame = series.Normalize(rows, epochIndex, supplyChart)
	}
	p.Sections = append(p.Sections, Section{
		Title: "Total and Staked Supply",
		Metrics: []display.Metric{
			display.NewMetric("Total Supply (NEAR)", supply, display.Millions(1), nil, nil, display.Normal),
			display.NewMetric("Total Staked (NEAR)", staked, display.Millions(1), nil, nil, display.Normal),
		},
		Chart: chart(frame),
	})

	var producers, chunkOnly, seatPrice *float64
	var validators []series.Validator
	if raw, err := s.currentValidators(ctx); err != nil {
		p.fail("validators", err)
	} else {
		validators = series.Validators(raw)
		var bp, cop int
		for _, v := range validators {
			if v.Type == series.BlockProducer {
				bp++
			} else {
				cop++
			}
		}
		producers = series.Float(float64(bp))
		chunkOnly = series.Float(float64(cop))
		if len(validators) > 0 {
			seatPrice = series.Float(math.Round(validators[len(validators)-1].Stake*100) / 100)
		}
	}
	p.Sections = append(p.Sections, Section{
		Title: "Validators",
		Metrics: []display.Metric{
			display.NewMetric("Block Producers", producers, display.Comma, nil, nil, display.Normal),
			display.NewMetric("Chunk-Only Producers", chunkOnly, display.Comma, nil, nil, display.Normal),
			display.NewMetric("Seat Price (NEAR)", seatPrice, display.CommaFixed(2), nil, nil, display.Normal),
		},
		Validators: validators,
	})
}

// latestEpoch returns the row with the highest EPOCH_NUM. The first row
// wins a tie.
func latestEpoch(rows []series.Record) series.Record {
	var best series.Record
	var bestEpoch float64
	for _, r := range rows {
		e := series.Number(r["EPOCH_NUM"])
		if e == nil {
			continue
		}
		if best == nil || *e > bestEpoch {
			best, bestEpoch = r, *e
		}
	}
	return best
}
