package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"italiancorner/mydata_core/internal/core/audit"
)

// DB is the subset of *pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository implements audit.Repository on the outbound_call_log table.
type Repository struct {
	db  DB
	log *slog.Logger
}

// NewRepository creates a PostgreSQL audit repository. log may be nil.
func NewRepository(db DB, log *slog.Logger) audit.Repository {
	return &Repository{db: db, log: log}
}

// Save persists one call trace.
func (r *Repository) Save(ctx context.Context, call audit.Call) error {
	query := `
		INSERT INTO outbound_call_log (
			correlation_id, service, operation, branch_id, request_method, request_url,
			request_headers, request_body, response_status, response_headers,
			response_body, duration_ms, error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	requestHeaders, err := json.Marshal(call.RequestHeaders)
	if err != nil {
		return fmt.Errorf("marshal request headers: %w", err)
	}
	responseHeaders, err := json.Marshal(call.ResponseHeaders)
	if err != nil {
		return fmt.Errorf("marshal response headers: %w", err)
	}

	// jsonb columns take NULL rather than an empty document.
	var requestBody, responseBody any
	if len(call.RequestBody) > 0 {
		requestBody = call.RequestBody
	}
	if len(call.ResponseBody) > 0 {
		responseBody = call.ResponseBody
	}

	_, err = r.db.Exec(ctx, query,
		call.CorrelationID,
		call.Service,
		call.Operation,
		call.BranchID,
		call.Method,
		call.URL,
		requestHeaders,
		requestBody,
		call.ResponseStatus,
		responseHeaders,
		responseBody,
		call.DurationMs,
		call.ErrorMessage,
	)
	if err != nil {
		if r.log != nil {
			r.log.Error("Failed to insert call trace",
				"correlation_id", call.CorrelationID,
				"service", call.Service,
				"operation", call.Operation,
				"error", err,
			)
		}
		return fmt.Errorf("insert call trace: %w", err)
	}

	if r.log != nil {
		r.log.Debug("Call trace saved",
			"correlation_id", call.CorrelationID,
			"service", call.Service,
			"operation", call.Operation,
			"response_status", call.ResponseStatus,
			"duration_ms", call.DurationMs,
		)
	}
	return nil
}

// FindByCorrelationID returns the calls made while serving one request.
func (r *Repository) FindByCorrelationID(ctx context.Context, correlationID string) ([]audit.Call, error) {
	query := `
		SELECT id, correlation_id, service, operation, branch_id, request_method, request_url,
		       request_headers, request_body, response_status, response_headers,
		       response_body, duration_ms, error_message, created_at
		FROM outbound_call_log
		WHERE correlation_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, query, correlationID)
	if err != nil {
		return nil, fmt.Errorf("query call traces: %w", err)
	}
	defer rows.Close()

	var calls []audit.Call
	for rows.Next() {
		var (
			call                            audit.Call
			requestHeaders, responseHeaders []byte
		)
		err := rows.Scan(
			&call.ID,
			&call.CorrelationID,
			&call.Service,
			&call.Operation,
			&call.BranchID,
			&call.Method,
			&call.URL,
			&requestHeaders,
			&call.RequestBody,
			&call.ResponseStatus,
			&responseHeaders,
			&call.ResponseBody,
			&call.DurationMs,
			&call.ErrorMessage,
			&call.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan call trace: %w", err)
		}
		if err := json.Unmarshal(requestHeaders, &call.RequestHeaders); err != nil {
			return nil, fmt.Errorf("unmarshal request headers: %w", err)
		}
		if err := json.Unmarshal(responseHeaders, &call.ResponseHeaders); err != nil {
			return nil, fmt.Errorf("unmarshal response headers: %w", err)
		}
		calls = append(calls, call)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate call traces: %w", err)
	}
	return calls, nil
}
