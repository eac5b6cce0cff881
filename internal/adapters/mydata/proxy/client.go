// Package proxy implements mydata.Gateway against the myDATA proxy service,
// which holds the AADE connection and answers {ok, mark, error} documents.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"italiancorner/mydata_core/internal/core/invoice"
	"italiancorner/mydata_core/internal/core/mydata"
	ctxutil "italiancorner/mydata_core/internal/infrastructure/context"
)

// HTTPClient is satisfied by *http.Client and the traced client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds the proxy location and the AADE credentials forwarded to it.
type Config struct {
	BaseURL         string
	UserID          string
	SubscriptionKey string
	// Sandbox selects the AADE test endpoint for cancellations. Submissions
	// follow the flag carried by each payload.
	Sandbox          bool
	BreakerFailures  int
	BreakerCooldown  time.Duration
	MaxResponseBytes int64
}

// Client is the myDATA proxy gateway.
type Client struct {
	baseURL    string
	cfg        Config
	httpClient HTTPClient
	breaker    *Breaker
	log        *slog.Logger
}

var _ mydata.Gateway = (*Client)(nil)

func NewClient(cfg Config, httpClient HTTPClient, log *slog.Logger) *Client {
	if cfg.MaxResponseBytes <= 0 {
		cfg.MaxResponseBytes = 1 << 20
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		cfg:        cfg,
		httpClient: httpClient,
		breaker:    NewBreaker(cfg.BreakerFailures, cfg.BreakerCooldown),
		log:        log,
	}
}

// Breaker exposes the circuit state for health reporting.
func (c *Client) Breaker() *Breaker {
	return c.breaker
}

type invoiceRequest struct {
	AADEUserID         string          `json:"aadeUserId"`
	SubscriptionKey    string          `json:"subscriptionKey"`
	InvoicePayload     invoice.Payload `json:"invoicePayload"`
	UseTestingEndpoint bool            `json:"useTestingEndpoint"`
}

type cancelRequest struct {
	AADEUserID         string `json:"aadeUserId"`
	SubscriptionKey    string `json:"subscriptionKey"`
	InvoiceNumber      string `json:"invoiceNumber"`
	BranchID           string `json:"branchId"`
	CancelReasonCode   string `json:"cancelReasonCode"`
	UseTestingEndpoint bool   `json:"useTestingEndpoint"`
}

type proxyResponse struct {
	OK         bool   `json:"ok"`
	Mark       string `json:"mark"`
	CancelMark string `json:"cancelMark"`
	Error      string `json:"error"`
}

func (c *Client) Validate(ctx context.Context, payload invoice.Payload) mydata.Result {
	return c.invoiceCall(ctx, "/api/aade/validate", payload)
}

func (c *Client) Submit(ctx context.Context, payload invoice.Payload) mydata.Result {
	return c.invoiceCall(ctx, "/api/aade/submit", payload)
}

func (c *Client) Retry(ctx context.Context, payload invoice.Payload) mydata.Result {
	return c.invoiceCall(ctx, "/api/aade/retry", payload)
}

func (c *Client) invoiceCall(ctx context.Context, path string, payload invoice.Payload) mydata.Result {
	ctx = ctxutil.WithBranchID(ctx, payload.Meta.BranchID)
	body := invoiceRequest{
		AADEUserID:         c.cfg.UserID,
		SubscriptionKey:    c.cfg.SubscriptionKey,
		InvoicePayload:     payload,
		UseTestingEndpoint: payload.Meta.Sandbox,
	}

	resp, err := c.post(ctx, path, body)
	if err != nil {
		c.log.Warn("myDATA proxy call failed",
			"path", path,
			"branch_id", payload.Meta.BranchID,
			"number", payload.Header.AA,
			"error", err,
		)
		return mydata.Failed(err)
	}
	if !resp.OK {
		return mydata.Result{OK: false, Error: resp.Error}
	}
	return mydata.Result{OK: true, Mark: resp.Mark}
}

// Cancel asks the proxy to cancel a transmitted invoice.
func (c *Client) Cancel(ctx context.Context, req mydata.CancelRequest) mydata.CancelResult {
	ctx = ctxutil.WithBranchID(ctx, req.BranchID)
	body := cancelRequest{
		AADEUserID:         c.cfg.UserID,
		SubscriptionKey:    c.cfg.SubscriptionKey,
		InvoiceNumber:      req.InvoiceNumber,
		BranchID:           req.BranchID,
		CancelReasonCode:   string(req.Reason),
		UseTestingEndpoint: c.cfg.Sandbox,
	}

	resp, err := c.post(ctx, "/api/aade/cancel-invoice", body)
	if err != nil {
		c.log.Warn("myDATA cancel failed", "branch_id", req.BranchID, "number", req.InvoiceNumber, "error", err)
		return mydata.CancelResult{Error: err.Error()}
	}
	if !resp.OK || resp.CancelMark == "" {
		msg := resp.Error
		if msg == "" {
			msg = "cancellation was not confirmed"
		}
		return mydata.CancelResult{Error: msg}
	}
	return mydata.CancelResult{CancelMark: resp.CancelMark}
}

// errRemote marks a 5xx answer so the breaker counts it.
type errRemote struct {
	status int
	msg    string
}

func (e *errRemote) Error() string {
	if e.msg != "" {
		return e.msg
	}
	return fmt.Sprintf("HTTP %d", e.status)
}

// post sends body and decodes the proxy answer. Answers with ok=false and a
// 4xx status are returned as a response, not an error.
func (c *Client) post(ctx context.Context, path string, body any) (proxyResponse, error) {
	if c.baseURL == "" {
		return proxyResponse{}, errors.New("myDATA proxy URL is not configured")
	}
	data, err := json.Marshal(body)
	if err != nil {
		return proxyResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	var out proxyResponse
	err = c.breaker.Execute(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("send request: %w", err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxResponseBytes))
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		out = proxyResponse{}
		decodeErr := json.Unmarshal(raw, &out)
		if resp.StatusCode >= 500 {
			return &errRemote{status: resp.StatusCode, msg: out.Error}
		}
		if decodeErr != nil {
			if resp.StatusCode >= 300 {
				out = proxyResponse{OK: false, Error: fmt.Sprintf("HTTP %d", resp.StatusCode)}
				return nil
			}
			return fmt.Errorf("decode response: %w", decodeErr)
		}
		if resp.StatusCode >= 300 {
			out.OK = false
			if out.Error == "" {
				out.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
			}
		}
		return nil
	})
	if err != nil {
		return proxyResponse{}, err
	}
	return out, nil
}
