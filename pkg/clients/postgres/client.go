// Package postgres provides a PostgreSQL client with connection pooling,
// OpenTelemetry tracing, and row-level security integration for FitStack
// backend services.
//
// # Connection Management
//
// The client uses pgxpool for connection pooling. Connection retry for
// transient failures is handled internally by pgxpool; failed connections
// are replaced and the health check period keeps the pool healthy. Callers
// do not need their own retry logic for connection-level errors.
//
// # Configuration
//
// Create a client using [NewClient] with a [Config]:
//
//	cfg := postgres.DefaultConfig()
//	cfg.Password = postgres.Secret("my-password")
//	client, err := postgres.NewClient(ctx, *cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
// For testing, use [NewFromPool] to inject a mock pool:
//
//	mock, _ := pgxmock.NewPool()
//	client := postgres.NewFromPool(mock, &postgres.Config{Database: "testdb"})
//
// # Row-Level Security
//
// FitStack tables carry row-level security policies that scope workout and
// profile rows to their owner. [Client.BeginAuthenticated] starts a
// transaction and installs the verified claims of the request's
// authenticated identity as the request.jwt.claims session setting, which
// the policies read:
//
//	CREATE POLICY workouts_owner ON workouts
//	    USING (profile_id = current_setting('request.jwt.sub', true));
//
// This re-presents the caller's verified token to the database instead of
// minting fresh database credentials per request.
//
// # OpenTelemetry Tracing
//
// All database operations (Query, QueryRow, Exec, Begin, Health) create
// OpenTelemetry spans with standard database semantic attributes
// (db.system, db.name, db.statement). SQL statements are truncated to 100
// characters in spans to prevent sensitive data leakage.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fitstack/fitstack-core/pkg/auth"
	fserr "github.com/fitstack/fitstack-core/pkg/errors"
)

// tracerName is the OpenTelemetry instrumentation scope name for this
// package. It follows the Go module path convention for OTel
// instrumentation libraries.
const tracerName = "github.com/fitstack/fitstack-core/pkg/clients/postgres"

// sessionClaimsSQL installs the authenticated identity into transaction-
// local session settings read by row-level security policies. The third
// set_config argument scopes the setting to the current transaction.
const sessionClaimsSQL = "SELECT set_config('request.jwt.claims', $1, true), set_config('request.jwt.sub', $2, true)"

// Pool defines the interface for PostgreSQL connection pool operations.
// This interface is satisfied by [*pgxpool.Pool] and by mock
// implementations such as pgxmock for unit testing. It enables dependency
// injection via [NewFromPool] for testing without a real database.
//
// All methods follow the pgx v5 API signatures exactly, ensuring that
// [*pgxpool.Pool] satisfies this interface without adaptation.
type Pool interface {
	// Query executes a SQL query that returns rows.
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)

	// QueryRow executes a SQL query that returns at most one row.
	// Errors are deferred until the returned pgx.Row is scanned.
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row

	// Exec executes a SQL statement that does not return rows
	// (INSERT, UPDATE, DELETE, DDL).
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	// Begin starts a new database transaction.
	Begin(ctx context.Context) (pgx.Tx, error)

	// Ping verifies the connection to the database is alive.
	Ping(ctx context.Context) error

	// Close releases all pool resources. After Close is called,
	// the pool must not be used.
	Close()
}

// Compile-time interface compliance check.
var _ Pool = (*pgxpool.Pool)(nil)

// Client is a PostgreSQL client with connection pooling, OpenTelemetry
// tracing, and structured error handling. It wraps a [Pool] (typically
// [*pgxpool.Pool]) and adds cross-cutting concerns transparently to all
// database operations.
//
// A Client is safe for concurrent use by multiple goroutines. Create one
// Client per database and share it across the application.
type Client struct {
	pool         Pool
	config       *Config
	tracer       trace.Tracer
	databaseName string
}

// NewClient creates a new PostgreSQL client with connection pooling. It
// validates the configuration, establishes the connection pool, configures
// TLS if a custom CA certificate is provided, and verifies connectivity
// with a ping.
//
// The caller must call [Client.Close] when the client is no longer needed.
//
// Error codes returned:
//   - [fserr.CodeValidation]: invalid configuration
//   - [fserr.CodeInternalConfiguration]: TLS setup failure
//   - [fserr.CodeUnavailableDependency]: cannot connect to the database
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fserr.Wrap(err, fserr.CodeValidation,
			"postgres: invalid configuration")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fserr.Wrap(err, fserr.CodeValidation,
			"postgres: failed to parse connection string")
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolCfg.HealthCheckPeriod = cfg.HealthCheckPeriod

	tlsCfg, err := cfg.tlsConfig()
	if err != nil {
		return nil, fserr.Wrap(err, fserr.CodeInternalConfiguration,
			"postgres: failed to configure TLS")
	}
	if tlsCfg != nil {
		poolCfg.ConnConfig.TLSConfig = tlsCfg
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fserr.Wrap(err, fserr.CodeUnavailableDependency,
			"postgres: failed to create connection pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fserr.Wrap(err, fserr.CodeUnavailableDependency,
			"postgres: failed to connect to database")
	}

	// Extract database name for span attributes.
	dbName := cfg.Database
	if cfg.URI != "" {
		if u, parseErr := url.Parse(cfg.URI); parseErr == nil {
			dbName = strings.TrimPrefix(u.Path, "/")
		}
	}

	return &Client{
		pool:         pool,
		config:       &cfg,
		tracer:       otel.Tracer(tracerName),
		databaseName: dbName,
	}, nil
}

// NewFromPool creates a Client with a pre-existing [Pool]. This
// constructor is intended for testing with mock pools (e.g., pgxmock) and
// for advanced use cases where a custom pool implementation is needed.
//
// The cfg parameter is stored but not validated; pass nil for a
// zero-value config in tests.
func NewFromPool(pool Pool, cfg *Config) *Client {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Client{
		pool:         pool,
		config:       cfg,
		tracer:       otel.Tracer(tracerName),
		databaseName: cfg.Database,
	}
}

// Query executes a SQL query that returns rows, with OpenTelemetry
// tracing. The returned [pgx.Rows] must be closed by the caller when done.
//
// All errors are wrapped as [*fserr.Error] with an appropriate error code:
//   - [fserr.CodeTimeoutDependency] if the context deadline is exceeded
//   - [fserr.CodeInternalDatabase] for all other database errors
func (c *Client) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	ctx, span := c.startSpan(ctx, "Query", sql)

	rows, err := c.pool.Query(ctx, sql, args...)
	if err != nil {
		finishSpan(span, err)
		return nil, wrapError(err, "postgres: query failed")
	}
	// End span without error; row-level errors surface during iteration.
	finishSpan(span, nil)
	return rows, nil
}

// QueryRow executes a SQL query that returns at most one row, with
// OpenTelemetry tracing. The returned [pgx.Row] is never nil; errors are
// deferred until Scan() is called on the returned row.
//
// Because pgx defers errors to Scan(), the span covers only the query
// execution, not scan-time errors.
func (c *Client) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	ctx, span := c.startSpan(ctx, "QueryRow", sql)
	defer span.End()

	return c.pool.QueryRow(ctx, sql, args...)
}

// Exec executes a SQL statement that does not return rows (INSERT,
// UPDATE, DELETE, DDL), with OpenTelemetry tracing.
func (c *Client) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	ctx, span := c.startSpan(ctx, "Exec", sql)

	tag, err := c.pool.Exec(ctx, sql, args...)
	finishSpan(span, err)
	if err != nil {
		return tag, wrapError(err, "postgres: exec failed")
	}
	return tag, nil
}

// Begin starts a new database transaction with OpenTelemetry tracing.
//
// Callers must ensure the transaction is either committed or rolled back.
// Using defer tx.Rollback(ctx) immediately after Begin is the recommended
// pattern, as Rollback on an already-committed transaction is a no-op in
// pgx.
func (c *Client) Begin(ctx context.Context) (pgx.Tx, error) {
	ctx, span := c.startSpan(ctx, "Begin", "BEGIN")

	tx, err := c.pool.Begin(ctx)
	finishSpan(span, err)
	if err != nil {
		return nil, wrapError(err, "postgres: begin transaction failed")
	}
	return tx, nil
}

// BeginAuthenticated starts a transaction scoped to the authenticated
// identity in ctx. It installs the identity's verified claims as the
// transaction-local request.jwt.claims session setting (and the subject as
// request.jwt.sub), which FitStack's row-level security policies read to
// restrict rows to their owner.
//
// Returns [fserr.CodeAuthentication] if the context carries no identity,
// so unauthenticated code paths cannot accidentally open a transaction
// that the policies would treat as anonymous.
//
//	tx, err := client.BeginAuthenticated(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback(ctx)
//	// Queries here see only the caller's rows.
//	return tx.Commit(ctx)
func (c *Client) BeginAuthenticated(ctx context.Context) (pgx.Tx, error) {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return nil, fserr.New(fserr.CodeAuthentication,
			"postgres: no authenticated identity in context")
	}

	claimsJSON, err := json.Marshal(identity.Claims())
	if err != nil {
		return nil, fserr.Wrap(err, fserr.CodeInternal,
			"postgres: failed to encode identity claims")
	}

	ctx, span := c.startSpan(ctx, "BeginAuthenticated", "BEGIN")
	span.SetAttributes(attribute.String("enduser.id", identity.ID()))

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		finishSpan(span, err)
		return nil, wrapError(err, "postgres: begin transaction failed")
	}

	if _, err := tx.Exec(ctx, sessionClaimsSQL, string(claimsJSON), identity.ID()); err != nil {
		_ = tx.Rollback(ctx)
		finishSpan(span, err)
		return nil, wrapError(err, "postgres: failed to install session claims")
	}

	finishSpan(span, nil)
	return tx, nil
}

// Health verifies that the database connection is alive by executing a
// ping. It applies [DefaultHealthTimeout] if the provided context has no
// deadline.
//
// Returns nil if the database is reachable, or a [*fserr.Error] with code
// [fserr.CodeUnavailableDependency] if the ping fails. Designed for use
// with health check endpoints and readiness probes.
func (c *Client) Health(ctx context.Context) error {
	ctx, span := c.startSpan(ctx, "Health", "SELECT 1")

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultHealthTimeout)
		defer cancel()
	}

	err := c.pool.Ping(ctx)
	finishSpan(span, err)
	if err != nil {
		return fserr.Wrap(err, fserr.CodeUnavailableDependency,
			"postgres: health check failed")
	}
	return nil
}

// Close releases all connection pool resources. After Close is called,
// the client must not be used. Close is safe to call multiple times.
func (c *Client) Close() {
	c.pool.Close()
}

// Pool returns the underlying [Pool] interface for advanced use cases not
// covered by the Client's methods (e.g., CopyFrom, SendBatch).
//
// The returned Pool should not be closed directly; use [Client.Close].
func (c *Client) Pool() Pool {
	return c.pool
}

// startSpan creates a new OpenTelemetry span with standard database
// semantic attributes.
func (c *Client) startSpan(ctx context.Context, operationName, sql string) (context.Context, trace.Span) {
	ctx, span := c.tracer.Start(ctx, "postgres."+operationName,
		trace.WithSpanKind(trace.SpanKindClient),
	)
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.name", c.databaseName),
		attribute.String("db.statement", truncateSQL(sql)),
	)
	return ctx, span
}

// finishSpan records an error on the span (if any) and ends it. If err is
// nil, the span status is set to OK.
func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// wrapError converts a database error to a platform [*fserr.Error] with an
// appropriate error code. It distinguishes timeout/cancellation errors
// from general database errors so callers can make retry decisions via
// [fserr.IsTimeout] and [fserr.IsRetryable].
func wrapError(err error, message string) *fserr.Error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fserr.Wrap(err, fserr.CodeTimeoutDependency, message)
	}
	return fserr.Wrap(err, fserr.CodeInternalDatabase, message)
}
