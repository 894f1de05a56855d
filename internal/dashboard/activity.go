package dashboard

import (
	"context"

	"github.com/web3-frozen/near-dashboard/internal/display"
	"github.com/web3-frozen/near-dashboard/internal/series"
)

var periods = []struct{ key, label string }{
	{"P24H", "Past 24 Hours"},
	{"P7D", "Past 7 Days"},
	{"P30D", "Past 30 Days"},
}

var activityMetrics = []string{"Transactions", "Active Accounts", "Active Contracts"}

var activityChart = []series.Column{
	{Source: "TRANSACTIONS", Name: "Transactions"},
	{Source: "ACTIVE_ACCOUNTS", Name: "Active Accounts"},
	{Source: "ACTIVE_CONTRACTS", Name: "Active Contracts"},
}

var dateIndex = series.Column{Source: "UTC_DATE", Name: "Date"}

func (s *Service) activity(ctx context.Context, p *Page) {
	sc := series.Scorecard{}
	if rows, err := s.query(ctx, s.opts.Queries.Activity.Scorecard); err != nil {
		p.fail("activity scorecard", err)
	} else {
		sc = series.LongScorecard(rows, series.FlipsideLongKeys)
	}

	frame := series.Frame{Columns: columnNames(activityChart), Rows: []series.Row{}}
	if rows, err := s.query(ctx, s.opts.Queries.Activity.Chart); err != nil {
		p.fail("activity chart", err)
	} else {
		frame = series.Normalize(rows, dateIndex, activityChart)
	}

	for _, m := range activityMetrics {
		sec := Section{Title: m, Chart: chart(frame.Select(m))}
		for _, per := range periods {
			fig := sc.Get(m, per.key)
			sec.Metrics = append(sec.Metrics,
				display.NewMetric(per.label, fig.Value, display.Comma, fig.Delta, display.Percent(1), display.Normal))
		}
		p.Sections = append(p.Sections, sec)
	}
}

func columnNames(cols []series.Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}
