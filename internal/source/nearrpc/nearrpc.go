// Package nearrpc calls the NEAR JSON-RPC node for validator data.
package nearrpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/web3-frozen/near-dashboard/internal/upstream"
)

const DefaultURL = "https://rpc.mainnet.near.org/"

// Validator is one entry of current_validators. Stake is a yoctoNEAR
// decimal string.
type Validator struct {
	AccountID         string `json:"account_id"`
	PublicKey         string `json:"public_key"`
	Stake             string `json:"stake"`
	NumExpectedBlocks *int64 `json:"num_expected_blocks"`
	NumProducedBlocks *int64 `json:"num_produced_blocks"`
	NumExpectedChunks *int64 `json:"num_expected_chunks"`
	NumProducedChunks *int64 `json:"num_produced_chunks"`
	IsSlashed         bool   `json:"is_slashed"`
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type validatorsResponse struct {
	Result *struct {
		CurrentValidators []Validator `json:"current_validators"`
		EpochHeight       int64       `json:"epoch_height"`
	} `json:"result"`
	Error *rpcError `json:"error"`
}

type Client struct {
	api *upstream.Client
	url string
}

func New(api *upstream.Client, url string) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{api: api, url: url}
}

// Validators returns the validators of the current epoch.
func (c *Client) Validators(ctx context.Context) ([]Validator, error) {
	req := rpcRequest{JSONRPC: "2.0", ID: 123, Method: "validators", Params: []any{nil}}

	var resp validatorsResponse
	if err := c.api.PostJSON(ctx, c.url, req, &resp); err != nil {
		return nil, fmt.Errorf("near rpc validators: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("near rpc validators: %d %s", resp.Error.Code, resp.Error.Message)
	}
	if resp.Result == nil {
		return nil, fmt.Errorf("near rpc validators: empty result")
	}
	return resp.Result.CurrentValidators, nil
}
