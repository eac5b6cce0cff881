package http

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"italiancorner/mydata_core/internal/core/audit"
	ctxutil "italiancorner/mydata_core/internal/infrastructure/context"
	"italiancorner/mydata_core/internal/infrastructure/security"
)

// TracedClient wraps an HTTP client so every outbound call is logged with
// credentials redacted and, when enabled, persisted as an audit.Call.
type TracedClient struct {
	client       *http.Client
	log          *slog.Logger
	auditRepo    audit.Repository
	service      string
	auditEnabled bool
	logReqBody   bool
	logRespBody  bool
	maxBodySize  int

	pending sync.WaitGroup
}

// TracedClientConfig holds configuration for the traced HTTP client.
type TracedClientConfig struct {
	Timeout         time.Duration
	AuditEnabled    bool
	LogRequestBody  bool
	LogResponseBody bool
	MaxBodySize     int
	MaxConnsPerHost int
	// Transport overrides the pooled transport, mainly in tests.
	Transport http.RoundTripper
}

// NewTracedClient creates a traced client for one remote service.
func NewTracedClient(cfg *TracedClientConfig, log *slog.Logger, auditRepo audit.Repository, service string) *TracedClient {
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = 64 * 1024
	}
	maxConns := cfg.MaxConnsPerHost
	if maxConns == 0 {
		maxConns = 10
	}

	transport := cfg.Transport
	if transport == nil {
		transport = &http.Transport{
			MaxIdleConns:          maxConns,
			MaxIdleConnsPerHost:   maxConns,
			MaxConnsPerHost:       maxConns,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: cfg.Timeout,
			ExpectContinueTimeout: time.Second,
		}
	}

	return &TracedClient{
		client:       &http.Client{Timeout: cfg.Timeout, Transport: transport},
		log:          log,
		auditRepo:    auditRepo,
		service:      service,
		auditEnabled: cfg.AuditEnabled,
		logReqBody:   cfg.LogRequestBody,
		logRespBody:  cfg.LogResponseBody,
		maxBodySize:  cfg.MaxBodySize,
	}
}

// Do executes req. Bodies are buffered so they can be logged and still read
// by the server and the caller.
func (c *TracedClient) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	correlationID := ctxutil.GetCorrelationID(ctx)
	branchID := ctxutil.GetBranchID(ctx)
	operation := operationName(req)
	start := time.Now()

	if correlationID != "" {
		req.Header.Set("X-Correlation-ID", correlationID)
	}

	var requestBody []byte
	if req.Body != nil {
		var err error
		requestBody, err = io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			c.log.Error("Failed to read request body for tracing", "error", err, "correlation_id", correlationID)
		}
		req.Body = io.NopCloser(bytes.NewReader(requestBody))
	}

	attrs := []any{
		"correlation_id", correlationID,
		"service", c.service,
		"operation", operation,
		"branch_id", branchID,
		"method", req.Method,
		"url", security.SanitizeURL(req.URL.String()),
	}
	reqAttrs := attrs
	if c.logReqBody && len(requestBody) > 0 {
		reqAttrs = append(reqAttrs, "request_body", string(security.SanitizeBody(requestBody, c.maxBodySize)))
	}
	c.log.Info("outbound_request", reqAttrs...)

	resp, err := c.client.Do(req)
	duration := time.Since(start)

	var responseBody []byte
	if resp != nil && resp.Body != nil {
		responseBody, _ = io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewReader(responseBody))
	}

	c.logResponse(attrs, resp, err, duration, responseBody)

	if c.auditEnabled && c.auditRepo != nil {
		call := c.buildCall(correlationID, branchID, operation, req, resp, err, duration, requestBody, responseBody)
		c.pending.Add(1)
		go func() {
			defer c.pending.Done()
			defer func() {
				if r := recover(); r != nil {
					c.log.Error("Panic while saving call trace", "panic", r, "correlation_id", call.CorrelationID)
				}
			}()
			// the request context ends with the response; the trace must outlive it
			saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := c.auditRepo.Save(saveCtx, call); err != nil {
				c.log.Error("Failed to persist call trace",
					"error", err,
					"correlation_id", call.CorrelationID,
					"service", call.Service,
					"operation", call.Operation,
				)
			}
		}()
	}

	return resp, err
}

// Wait blocks until every pending audit write has finished.
func (c *TracedClient) Wait() {
	c.pending.Wait()
}

func (c *TracedClient) logResponse(attrs []any, resp *http.Response, err error, duration time.Duration, body []byte) {
	attrs = append(attrs, "duration_ms", duration.Milliseconds())
	if err != nil {
		attrs = append(attrs, "error", err.Error())
		c.log.Error("outbound_request_failed", attrs...)
		return
	}

	attrs = append(attrs, "status", resp.StatusCode, "response_size_bytes", len(body))
	if c.logRespBody && len(body) > 0 {
		attrs = append(attrs, "response_body", string(security.SanitizeBody(body, c.maxBodySize)))
	}

	switch {
	case resp.StatusCode >= 500:
		c.log.Error("outbound_response", attrs...)
	case resp.StatusCode >= 400:
		c.log.Warn("outbound_response", attrs...)
	default:
		c.log.Info("outbound_response", attrs...)
	}
}

func (c *TracedClient) buildCall(correlationID, branchID, operation string, req *http.Request, resp *http.Response, err error, duration time.Duration, requestBody, responseBody []byte) audit.Call {
	if correlationID == "" {
		correlationID = "untracked"
	}
	call := audit.Call{
		CorrelationID:  correlationID,
		Service:        c.service,
		Operation:      operation,
		BranchID:       branchID,
		Method:         req.Method,
		URL:            security.SanitizeURL(req.URL.String()),
		RequestHeaders: security.SanitizeHeaders(req.Header),
		RequestBody:    security.SanitizeBody(requestBody, c.maxBodySize),
		DurationMs:     duration.Milliseconds(),
	}
	if resp != nil {
		status := resp.StatusCode
		call.ResponseStatus = &status
		call.ResponseHeaders = security.SanitizeHeaders(resp.Header)
		call.ResponseBody = security.SanitizeBody(responseBody, c.maxBodySize)
	}
	if err != nil {
		call.ErrorMessage = err.Error()
	}
	return call
}

// operationName turns the last path segment into an operation name,
// "/api/aade/cancel-invoice" becoming "CancelInvoice".
func operationName(req *http.Request) string {
	parts := strings.Split(strings.Trim(req.URL.Path, "/"), "/")
	last := parts[len(parts)-1]
	if last == "" {
		return req.Method
	}
	var b strings.Builder
	for _, word := range strings.Split(last, "-") {
		if word == "" {
			continue
		}
		b.WriteString(strings.ToUpper(word[:1]) + word[1:])
	}
	return b.String()
}
