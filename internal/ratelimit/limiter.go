package ratelimit

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"sheetwatch/internal/audit"
	"sheetwatch/pkg/privacy"
	"sheetwatch/pkg/requesttime"
)

var decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sheetwatch_ratelimit_decisions_total",
	Help: "Rate limit decisions by outcome.",
}, []string{"outcome"})

// Limiter applies the sliding-window policy to one identity per call and
// records block events on the audit pipeline.
type Limiter struct {
	store   BucketStore
	auditor audit.Publisher
	logger  *slog.Logger
}

type LimiterOption func(*Limiter)

func WithLogger(logger *slog.Logger) LimiterOption {
	return func(l *Limiter) {
		l.logger = logger
	}
}

func WithAuditPublisher(publisher audit.Publisher) LimiterOption {
	return func(l *Limiter) {
		l.auditor = publisher
	}
}

func NewLimiter(store BucketStore, opts ...LimiterOption) *Limiter {
	l := &Limiter{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check runs one rate-limit decision for an identity. The identity is hashed
// before it appears in logs or audit events.
func (l *Limiter) Check(ctx context.Context, identity string) (*Decision, error) {
	now := requesttime.Now(ctx)
	decision, err := l.store.Check(ctx, identity, now)
	if err != nil {
		return nil, err
	}

	if decision.Allowed {
		decisionsTotal.WithLabelValues("allowed").Inc()
		return decision, nil
	}
	decisionsTotal.WithLabelValues("blocked").Inc()

	hash := privacy.HashIdentity(identity)
	l.logger.WarnContext(ctx, "identity rate limited",
		"identity_hash", hash,
		"block_until", decision.BlockUntil,
	)
	if l.auditor != nil {
		event := audit.Event{
			Timestamp:    now.UTC(),
			Action:       audit.EventRateLimitBlocked,
			IdentityHash: hash,
		}
		if err := l.auditor.Emit(ctx, event); err != nil {
			l.logger.WarnContext(ctx, "audit emit failed", "error", err)
		}
	}
	return decision, nil
}
