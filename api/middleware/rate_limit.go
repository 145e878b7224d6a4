package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/restaurant-storefront/api/responses"
	"github.com/angelmondragon/restaurant-storefront/api/validators"
	pkgerrors "github.com/angelmondragon/restaurant-storefront/pkg/errors"
	"github.com/angelmondragon/restaurant-storefront/pkg/i18n"
	"github.com/angelmondragon/restaurant-storefront/pkg/logger"
	pkgredis "github.com/angelmondragon/restaurant-storefront/pkg/redis"
)

// Subject names who a request is attributed to beyond its client IP.
// Extract sees the buffered body only when ReadsBody is set.
type Subject struct {
	Name      string
	ReadsBody bool
	Extract   func(r *http.Request, body []byte) string
}

// EmailSubject attributes sign-in and register attempts to the hashed email.
var EmailSubject = Subject{
	Name:      "email",
	ReadsBody: true,
	Extract: func(_ *http.Request, body []byte) string {
		var payload struct {
			Email string `json:"email"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return ""
		}
		return strings.ToLower(strings.TrimSpace(payload.Email))
	},
}

// SessionSubject attributes checkout submissions to the storefront session.
var SessionSubject = Subject{
	Name: "session",
	Extract: func(r *http.Request, _ []byte) string {
		return SessionIDFromContext(r.Context())
	},
}

// RateLimitPolicy is a fixed window with separate per-IP and per-subject budgets.
type RateLimitPolicy struct {
	name         string
	window       time.Duration
	ipLimit      int
	subject      Subject
	subjectLimit int
}

func NewRateLimitPolicy(name string, window time.Duration, ipLimit int, subject Subject, subjectLimit int) RateLimitPolicy {
	return RateLimitPolicy{
		name:         strings.ToLower(strings.TrimSpace(name)),
		window:       window,
		ipLimit:      ipLimit,
		subject:      subject,
		subjectLimit: subjectLimit,
	}
}

func (p RateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.subjectLimit > 0)
}

func (p RateLimitPolicy) subjectEnabled() bool {
	return p.subjectLimit > 0 && p.subject.Extract != nil
}

func (p RateLimitPolicy) normalizedName() string {
	if p.name == "" {
		return "storefront"
	}
	return p.name
}

func (p RateLimitPolicy) scope(kind, value string) string {
	return fmt.Sprintf("%s:%s:%s", p.normalizedName(), kind, value)
}

// RateLimit throttles a route by client IP and by the policy's subject.
// Subjects are hashed before they reach Redis or the logs.
func RateLimit(policy RateLimitPolicy, store pkgredis.RateLimitStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			ip := clientIP(r)
			if policy.ipLimit > 0 && ip != "" {
				allowed, count, err := allow(ctx, store, store.RateLimitKey(policy.scope("ip", ip)), policy.window, int64(policy.ipLimit))
				if err != nil {
					responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if !allowed {
					respondRateLimited(ctx, logg, w, policy, "ip", map[string]any{"ip": ip}, count, policy.ipLimit)
					return
				}
			}

			if policy.subjectEnabled() {
				var body []byte
				if policy.subject.ReadsBody {
					var err error
					body, err = io.ReadAll(io.LimitReader(r.Body, validators.MaxBodyBytes+1))
					if err != nil {
						responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request"))
						return
					}
					r.Body = io.NopCloser(bytes.NewReader(body))
				}

				if value := policy.subject.Extract(r, body); value != "" {
					hash := hashValue(value)
					allowed, count, err := allow(ctx, store, store.RateLimitKey(policy.scope(policy.subject.Name, hash)), policy.window, int64(policy.subjectLimit))
					if err != nil {
						responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
						return
					}
					if !allowed {
						respondRateLimited(ctx, logg, w, policy, policy.subject.Name, map[string]any{"subject_hash": hash}, count, policy.subjectLimit)
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func allow(ctx context.Context, store pkgredis.RateLimitStore, key string, window time.Duration, limit int64) (bool, int64, error) {
	count, err := store.IncrWithTTL(ctx, key, window)
	if err != nil {
		return false, 0, err
	}
	return count <= limit, count, nil
}

func respondRateLimited(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, policy RateLimitPolicy, scope string, extra map[string]any, count int64, limit int) {
	if logg != nil {
		fields := map[string]any{
			"scope":          scope,
			"policy":         policy.normalizedName(),
			"attempts":       count,
			"limit":          limit,
			"window_seconds": int(policy.window.Seconds()),
		}
		for k, v := range extra {
			fields[k] = v
		}
		logg.Warn(logg.WithFields(ctx, fields), "rate_limit.blocked")
	}
	w.Header().Set("Retry-After", fmt.Sprintf("%d", int(policy.window.Seconds())))
	responses.WriteError(ctx, nil, w, i18n.Error(pkgerrors.CodeRateLimit, i18n.MsgTooManyAttempts))
}

// clientIP prefers the entry our load balancer appended to X-Forwarded-For,
// which is the last one. Earlier entries are client supplied.
func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		parts := strings.Split(header, ",")
		for i := len(parts) - 1; i >= 0; i-- {
			if ip := strings.TrimSpace(parts[i]); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
