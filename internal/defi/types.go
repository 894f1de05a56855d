// Package defi aggregates per-protocol TVL series for one chain into
// protocol-level and token-level tables and derives the dashboard views.
package defi

import (
	"context"
	"time"

	"github.com/web3-frozen/near-dashboard/internal/source/llama"
)

const (
	DefaultChain        = "Near"
	DefaultReferenceDEX = "Ref Finance"
	DefaultWindow       = 365 * 24 * time.Hour

	CategoryDEX = "Dexes"
	CategoryCEX = "CEX"
)

// Source is the DefiLlama surface the pipeline needs.
type Source interface {
	Protocols(ctx context.Context) ([]llama.Protocol, error)
	Protocol(ctx context.Context, slug string) (*llama.ProtocolDetail, error)
}

// Protocol describes a directory entry that qualified for aggregation.
type Protocol struct {
	Name     string   `json:"name"`
	Slug     string   `json:"slug"`
	Category string   `json:"category"`
	Chains   []string `json:"chains"`
}

// ProtocolTVL is one protocol's liquidity on one date. TVL is never negative.
type ProtocolTVL struct {
	Protocol string    `json:"protocol"`
	Category string    `json:"category"`
	Date     time.Time `json:"date"`
	TVL      float64   `json:"tvl_usd"`
}

// TokenTVL is one token's USD value inside a DEX on one date. TVL is nil
// when the protocol did not report the symbol on that date.
type TokenTVL struct {
	Protocol string    `json:"protocol"`
	Symbol   string    `json:"symbol"`
	Date     time.Time `json:"date"`
	TVL      *float64  `json:"tvl_usd"`
}

// Failure records a protocol that was dropped from the result.
type Failure struct {
	Protocol string `json:"protocol"`
	Slug     string `json:"slug"`
	Error    string `json:"error"`
}

// Result is the windowed output of one pipeline run.
type Result struct {
	Protocols []ProtocolTVL `json:"protocols"`
	Tokens    []TokenTVL    `json:"tokens"`
	Failures  []Failure     `json:"failures"`
	Start     time.Time     `json:"start"`
	End       time.Time     `json:"end"`

	// Considered is the number of protocols that passed the directory filter.
	Considered int `json:"considered"`
	// DirectoryErr is set when the directory itself could not be fetched.
	DirectoryErr string `json:"directory_error,omitempty"`
}

// Degraded reports whether the run produced no protocol data at all.
func (r Result) Degraded() bool { return len(r.Protocols) == 0 }

// Incomplete reports whether some protocols failed while others succeeded.
func (r Result) Incomplete() bool { return len(r.Failures) > 0 }

// Ranked is one entry of a top-N ranking.
type Ranked struct {
	Rank     int       `json:"rank"`
	Name     string    `json:"name"`
	Category string    `json:"category,omitempty"`
	TVL      float64   `json:"tvl_usd"`
	Date     time.Time `json:"date"`
	Label    string    `json:"label"`
}
