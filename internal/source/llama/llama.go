// Package llama is a thin client for the DefiLlama protocol API.
package llama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/web3-frozen/near-dashboard/internal/upstream"
)

const DefaultBaseURL = "https://api.llama.fi"

// ErrChainNotFound is returned when a protocol has no TVL series for a chain.
var ErrChainNotFound = errors.New("chain tvl not found")

// Protocol is one entry of the /protocols directory listing.
type Protocol struct {
	Name     string   `json:"name"`
	Slug     string   `json:"slug"`
	Category string   `json:"category"`
	Chains   []string `json:"chains"`
}

// TVLPoint is one sample of a protocol's liquidity series. Fields are
// pointers because DefiLlama omits or nulls them on some samples.
type TVLPoint struct {
	Date              *float64 `json:"date"`
	TotalLiquidityUSD *float64 `json:"totalLiquidityUSD"`
}

// TokenPoint is one sample of the per-token USD breakdown.
type TokenPoint struct {
	Date   *float64            `json:"date"`
	Tokens map[string]*float64 `json:"tokens"`
}

// ChainTVL is the chain-keyed section of a protocol detail.
type ChainTVL struct {
	TVL         []TVLPoint   `json:"tvl"`
	TokensInUsd []TokenPoint `json:"tokensInUsd"`
}

// ProtocolDetail is the /protocol/{slug} payload. Chain sections and the
// top-level token breakdown stay raw until asked for so that one malformed
// chain does not poison the rest of the document.
type ProtocolDetail struct {
	Name        string                     `json:"name"`
	Category    string                     `json:"category"`
	ChainTvls   map[string]json.RawMessage `json:"chainTvls"`
	TokensInUsd json.RawMessage            `json:"tokensInUsd"`
}

// Chain decodes the TVL section for chain.
func (d *ProtocolDetail) Chain(chain string) (*ChainTVL, error) {
	raw, ok := d.ChainTvls[chain]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("%s: %w", chain, ErrChainNotFound)
	}
	var ct ChainTVL
	if err := json.Unmarshal(raw, &ct); err != nil {
		return nil, fmt.Errorf("decode %s chain tvl: %w", chain, err)
	}
	if ct.TVL == nil {
		return nil, fmt.Errorf("%s: tvl series missing: %w", chain, ErrChainNotFound)
	}
	return &ct, nil
}

// Tokens returns the token breakdown for chain, preferring the chain
// section and falling back to the protocol-wide series.
func (d *ProtocolDetail) Tokens(chain string) ([]TokenPoint, error) {
	ct, err := d.Chain(chain)
	if err != nil {
		return nil, err
	}
	if len(ct.TokensInUsd) > 0 {
		return ct.TokensInUsd, nil
	}
	if len(d.TokensInUsd) == 0 || string(d.TokensInUsd) == "null" {
		return nil, nil
	}
	var pts []TokenPoint
	if err := json.Unmarshal(d.TokensInUsd, &pts); err != nil {
		return nil, fmt.Errorf("decode tokensInUsd: %w", err)
	}
	return pts, nil
}

type Client struct {
	api     *upstream.Client
	baseURL string
}

func New(api *upstream.Client, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{api: api, baseURL: strings.TrimRight(baseURL, "/")}
}

// Protocols fetches the full protocol directory.
func (c *Client) Protocols(ctx context.Context) ([]Protocol, error) {
	var out []Protocol
	if err := c.api.GetJSON(ctx, c.baseURL+"/protocols", &out); err != nil {
		return nil, fmt.Errorf("defillama protocols: %w", err)
	}
	return out, nil
}

// Protocol fetches one protocol's detail record by slug.
func (c *Client) Protocol(ctx context.Context, slug string) (*ProtocolDetail, error) {
	if slug == "" {
		return nil, errors.New("defillama protocol: empty slug")
	}
	var out ProtocolDetail
	if err := c.api.GetJSON(ctx, c.baseURL+"/protocol/"+url.PathEscape(slug), &out); err != nil {
		return nil, fmt.Errorf("defillama protocol %s: %w", slug, err)
	}
	return &out, nil
}
