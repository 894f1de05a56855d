package series

// Figure is a point-in-time value and its period-over-period delta.
type Figure struct {
	Value *float64 `json:"value"`
	Delta *float64 `json:"delta"`
}

// Scorecard maps metric -> period -> figure.
type Scorecard map[string]map[string]Figure

// Get returns the figure for metric and period, or an empty figure.
func (s Scorecard) Get(metric, period string) Figure {
	return s[metric][period]
}

func (s Scorecard) set(metric, period string, f Figure) {
	m, ok := s[metric]
	if !ok {
		m = make(map[string]Figure)
		s[metric] = m
	}
	m[period] = f
}

// LongKeys names the fields of a long-form scorecard row.
type LongKeys struct {
	Metric string
	Period string
	Value  string
	Delta  string
}

// FlipsideLongKeys is the column layout of the activity scorecard query.
var FlipsideLongKeys = LongKeys{
	Metric: "METRIC",
	Period: "TIME_PERIOD",
	Value:  "CURRENT_VALUE",
	Delta:  "DELTA",
}

// LongScorecard pivots one-row-per-(metric, period) records. Rows without
// a metric or period name are skipped; a later duplicate wins.
func LongScorecard(records []Record, k LongKeys) Scorecard {
	sc := make(Scorecard)
	for _, rec := range records {
		metric, _ := rec[k.Metric].(string)
		period, _ := rec[k.Period].(string)
		if metric == "" || period == "" {
			continue
		}
		sc.set(metric, period, Figure{Value: Number(rec[k.Value]), Delta: Number(rec[k.Delta])})
	}
	return sc
}

// WideScorecard reads a single record whose fields are named
// <METRIC>__PAST_<PERIOD> and <METRIC>__DELTA_<PERIOD>.
func WideScorecard(rec Record, metrics, periods []string) Scorecard {
	sc := make(Scorecard)
	for _, m := range metrics {
		for _, p := range periods {
			sc.set(m, p, Figure{
				Value: Number(rec[m+"__PAST_"+p]),
				Delta: Number(rec[m+"__DELTA_"+p]),
			})
		}
	}
	return sc
}
