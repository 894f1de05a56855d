package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed queries.yaml
var defaultQueries []byte

// Queries maps dashboard datasets to Flipside query IDs.
type Queries struct {
	Activity struct {
		Scorecard string `yaml:"scorecard"`
		Chart     string `yaml:"chart"`
	} `yaml:"activity"`
	Performance struct {
		Scorecard string `yaml:"scorecard"`
		Chart     string `yaml:"chart"`
	} `yaml:"performance"`
	Staking struct {
		Supply string `yaml:"supply"`
	} `yaml:"staking"`
}

// LoadQueries reads the catalog at path, or the built-in one when path is
// empty.
func LoadQueries(path string) (Queries, error) {
	data := defaultQueries
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Queries{}, fmt.Errorf("read query catalog: %w", err)
		}
		data = b
	}
	return parseQueries(data)
}

func parseQueries(data []byte) (Queries, error) {
	var q Queries
	if err := yaml.Unmarshal(data, &q); err != nil {
		return Queries{}, fmt.Errorf("parse query catalog: %w", err)
	}
	for name, id := range map[string]string{
		"activity.scorecard":    q.Activity.Scorecard,
		"activity.chart":        q.Activity.Chart,
		"performance.scorecard": q.Performance.Scorecard,
		"performance.chart":     q.Performance.Chart,
		"staking.supply":        q.Staking.Supply,
	} {
		if id == "" {
			return Queries{}, fmt.Errorf("query catalog: %s is empty", name)
		}
	}
	return q, nil
}
