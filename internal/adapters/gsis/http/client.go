package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"italiancorner/mydata_core/internal/core/customer"
	"italiancorner/mydata_core/internal/infrastructure/cache"
)

// DefaultTimeout bounds a registry lookup when no client is given.
const DefaultTimeout = 15 * time.Second

// HTTPClient is satisfied by *http.Client and the traced client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client implements customer.Directory against the registry lookup endpoint
// of the myDATA proxy. Answers are cached per VAT number and concurrent
// lookups of the same number share one request.
type Client struct {
	baseURL string
	client  HTTPClient
	log     *slog.Logger
	cache   *cache.TTL[string, customer.Record]
	group   singleflight.Group
}

var _ customer.Directory = (*Client)(nil)

// NewClient creates a registry client. cacheTTL <= 0 disables caching.
func NewClient(baseURL string, httpClient HTTPClient, cacheTTL time.Duration, log *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
		log:     log,
		cache:   cache.NewTTL[string, customer.Record](cacheTTL),
	}
}

type lookupResponse struct {
	OK         bool   `json:"ok"`
	Error      string `json:"error"`
	VAT        string `json:"vat"`
	Name       string `json:"name"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Address    string `json:"address"`
	TaxOffice  string `json:"doy"`
}

// LookupByVAT returns the registry record of vat, or customer.ErrRecordNotFound.
func (c *Client) LookupByVAT(ctx context.Context, vat string) (*customer.Record, error) {
	vat = strings.TrimSpace(vat)
	if vat == "" {
		return nil, errors.New("vat must not be empty")
	}
	if rec, ok := c.cache.Get(vat); ok {
		return &rec, nil
	}

	v, err, _ := c.group.Do(vat, func() (any, error) {
		rec, err := c.fetch(ctx, vat)
		if err != nil {
			return nil, err
		}
		c.cache.Set(vat, *rec)
		return rec, nil
	})
	if err != nil {
		return nil, err
	}
	rec := *v.(*customer.Record)
	return &rec, nil
}

func (c *Client) fetch(ctx context.Context, vat string) (*customer.Record, error) {
	if c.baseURL == "" {
		return nil, errors.New("registry lookup URL is not configured")
	}
	apiURL, err := url.Parse(c.baseURL + "/api/gsis/lookup-customer")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	query := apiURL.Query()
	query.Set("vat", vat)
	apiURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.log.Debug("Looking up VAT in registry", "vat", vat)

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn("Registry lookup failed", "error", err, "vat", vat)
		return nil, fmt.Errorf("%w: registry request failed: %v", customer.ErrRegistryUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", customer.ErrRecordNotFound, vat)
	}

	var out lookupResponse
	if err := json.Unmarshal(body, &out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: registry returned status %d", customer.ErrRegistryUnavailable, resp.StatusCode)
		}
		return nil, fmt.Errorf("parse registry response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !out.OK {
		msg := out.Error
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		c.log.Warn("Registry rejected lookup", "status", resp.StatusCode, "error", msg, "vat", vat)
		return nil, fmt.Errorf("%w: registry lookup: %s", customer.ErrRegistryUnavailable, msg)
	}
	if out.Name == "" || out.VAT == "" {
		return nil, fmt.Errorf("%w: %s", customer.ErrRecordNotFound, vat)
	}

	rec := &customer.Record{
		VAT:        out.VAT,
		Name:       out.Name,
		Address:    out.Address,
		City:       out.City,
		PostalCode: out.PostalCode,
		TaxOffice:  out.TaxOffice,
	}
	c.log.Debug("Registry lookup succeeded", "vat", vat, "name", rec.Name)
	return rec, nil
}
