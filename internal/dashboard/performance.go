package dashboard

import (
	"context"
	"errors"

	"github.com/web3-frozen/near-dashboard/internal/display"
	"github.com/web3-frozen/near-dashboard/internal/series"
)

var errNoRows = errors.New("query returned no rows")

var performanceChart = []series.Column{
	{Source: "BLOCKS_PRODUCED", Name: "Blocks"},
	{Source: "BLOCK_TIME_SECONDS", Name: "Seconds"},
	{Source: "MAX_TPS", Name: "TPS"},
	{Source: "SUCCESS_RATE", Name: "Success Rate (%)", Scale: 100},
}

// performanceCard describes one section of the performance page. A nil
// delta format means the card has no delta.
type performanceCard struct {
	title       string
	metric      string
	column      string
	labelSuffix string
	value       display.Format
	delta       display.Format
	color       string
}

var performanceCards = []performanceCard{
	{"Blocks Produced", "BLOCKS_PRODUCED", "Blocks", "", display.Comma, display.Percent(1), display.Normal},
	{"Block Time", "BLOCK_TIME_SECONDS", "Seconds", " (Avg)", display.Significant(2, "s"), display.Percent(1), display.Inverse},
	{"Transactions per Second (TPS)", "MAX_TPS", "TPS", " (Max)", display.CommaFixed(0), nil, display.Normal},
	{"Transaction Success Rate", "SUCCESS_RATE", "Success Rate (%)", "", display.Percent(1), display.Percent(1), display.Normal},
}

var widePeriods = []string{"24H", "7D", "30D"}

func (s *Service) performance(ctx context.Context, p *Page) {
	metricNames := make([]string, len(performanceCards))
	for i, c := range performanceCards {
		metricNames[i] = c.metric
	}

	sc := series.Scorecard{}
	rows, err := s.query(ctx, s.opts.Queries.Performance.Scorecard)
	switch {
	case err != nil:
		p.fail("performance scorecard", err)
	case len(rows) == 0:
		p.fail("performance scorecard", errNoRows)
	default:
		sc = series.WideScorecard(rows[0], metricNames, widePeriods)
	}

	frame := series.Frame{Columns: columnNames(performanceChart), Rows: []series.Row{}}
	if rows, err := s.query(ctx, s.opts.Queries.Performance.Chart); err != nil {
		p.fail("performance chart", err)
	} else {
		frame = series.Normalize(rows, dateIndex, performanceChart)
	}

	for _, c := range performanceCards {
		sec := Section{Title: c.title, Chart: chart(frame.Select(c.column))}
		for i, per := range periods {
			fig := sc.Get(c.metric, widePeriods[i])
			sec.Metrics = append(sec.Metrics,
				display.NewMetric(per.label+c.labelSuffix, fig.Value, c.value, fig.Delta, c.delta, c.color))
		}
		p.Sections = append(p.Sections, sec)
	}
}
