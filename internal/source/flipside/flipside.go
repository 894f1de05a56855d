// Package flipside fetches the latest result set of saved Flipside queries.
package flipside

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/web3-frozen/near-dashboard/internal/upstream"
)

const DefaultBaseURL = "https://node-api.flipsidecrypto.com"

// Row is one record of a query result, keyed by upper-case column name.
type Row = map[string]any

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

// Latest returns the rows of the most recent run of queryID.
func (c *Client) Latest(ctx context.Context, queryID string) ([]Row, error) {
	if queryID == "" {
		return nil, errors.New("flipside: empty query id")
	}
	endpoint := fmt.Sprintf("%s/api/v2/queries/%s/data/latest", c.baseURL, url.PathEscape(queryID))

	var rows []Row
	if err := c.api.GetJSON(ctx, endpoint, &rows); err != nil {
		return nil, fmt.Errorf("flipside query %s: %w", queryID, err)
	}
	return rows, nil
}
