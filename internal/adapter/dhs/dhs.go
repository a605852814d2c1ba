// Package dhs queries the DHS Program indicator REST API.
package dhs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/couchcryptid/benin-demographics-etl/internal/domain"
)

const (
	indicatorPageSize = 1000
	catalogPageSize   = 5000
)

// Client fetches DHS data for one country.
type Client struct {
	fetcher     domain.Fetcher
	baseURL     string
	countryCode string
	logger      *slog.Logger
}

// NewClient creates a DHS client rooted at baseURL, e.g.
// https://api.dhsprogram.com/rest/dhs.
func NewClient(fetcher domain.Fetcher, baseURL, countryCode string, logger *slog.Logger) *Client {
	return &Client{
		fetcher:     fetcher,
		baseURL:     strings.TrimRight(baseURL, "/"),
		countryCode: countryCode,
		logger:      logger,
	}
}

// Indicators returns the data points for the given indicator ids.
func (c *Client) Indicators(ctx context.Context, ids []string) ([]domain.DHSRecord, error) {
	params := url.Values{
		"countryIds":   {c.countryCode},
		"indicatorIds": {strings.Join(ids, ",")},
		"f":            {"json"},
		"perPage":      {strconv.Itoa(indicatorPageSize)},
	}
	return c.get(ctx, c.baseURL+"/data?"+params.Encode())
}

// All returns every data point published for the country.
func (c *Client) All(ctx context.Context) ([]domain.DHSRecord, error) {
	params := url.Values{"perPage": {strconv.Itoa(catalogPageSize)}}
	return c.get(ctx, fmt.Sprintf("%s/data/%s?%s", c.baseURL, url.PathEscape(c.countryCode), params.Encode()))
}

func (c *Client) get(ctx context.Context, u string) ([]domain.DHSRecord, error) {
	body, err := c.fetcher.Fetch(ctx, u)
	if err != nil {
		return nil, err
	}
	records, err := Decode(body)
	if err != nil {
		return nil, err
	}
	c.logger.Info("dhs data received", "records", len(records))
	return records, nil
}

type response struct {
	Data []domain.DHSRecord `json:"Data"`
}

// Decode parses a {"Data": [...]} payload. A missing or empty array is an
// empty result.
func Decode(body []byte) ([]domain.DHSRecord, error) {
	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode dhs response: %v", domain.ErrParse, err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: dhs response has no data", domain.ErrEmptyResult)
	}
	return resp.Data, nil
}
