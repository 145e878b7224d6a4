package errors

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// upstreamError is satisfied by decoded restaurant backend failures.
type upstreamError interface {
	UpstreamStatus() int
	UpstreamCode() string
}

// ErrorDump is the log view of a request failure. It names which
// dependency failed: the restaurant backend, the cart cache, the catalog
// database, or a deadline.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Chain      []string `json:"chain,omitempty"`
	Source     string   `json:"source,omitempty"`

	Timeout  bool `json:"timeout,omitempty"`
	Canceled bool `json:"canceled,omitempty"`

	UpstreamStatus int    `json:"upstream_status,omitempty"`
	UpstreamCode   string `json:"upstream_code,omitempty"`

	RedisMessage string `json:"redis_message,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
}

const (
	SourceBackend = "backend"
	SourceCache   = "cache"
	SourceCatalog = "catalog"
)

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	d.Canceled = errors.Is(err, context.Canceled)
	var netErr net.Error
	d.Timeout = errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout())

	var upstream upstreamError
	if errors.As(err, &upstream) {
		d.Source = SourceBackend
		d.UpstreamStatus = upstream.UpstreamStatus()
		d.UpstreamCode = upstream.UpstreamCode()
		return d
	}

	var redisErr redis.Error
	if errors.As(err, &redisErr) && !errors.Is(err, redis.Nil) {
		d.Source = SourceCache
		d.RedisMessage = redisErr.Error()
		return d
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		d.Source = SourceCatalog
		d.PGCode = pgxErr.Code
		d.PGConstraint = pgxErr.ConstraintName
		d.PGTable = pgxErr.TableName
		return d
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		d.Source = SourceCatalog
		d.PGCode = string(pqErr.Code)
		d.PGConstraint = pqErr.Constraint
		d.PGTable = pqErr.Table
		return d
	}

	return d
}
