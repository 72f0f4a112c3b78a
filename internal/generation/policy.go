package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/itemforge/fichas/internal/logger"
	"github.com/itemforge/fichas/internal/telemetry"
)

// Policy governs how calls reach the service.
type Policy struct {
	// MinDelay is the pause a worker takes after each call before its next one.
	// It is also the minimum spacing between the starts of two calls across workers.
	MinDelay time.Duration
	// Timeout bounds a single attempt. Zero disables it.
	Timeout time.Duration
	// MaxRetries is the number of extra attempts after a failure. Zero means fail fast.
	MaxRetries int
	// Backoff is the first retry wait; it doubles on each retry.
	Backoff time.Duration
}

// PolicyOption configures WithPolicy.
type PolicyOption func(*policyGenerator)

// WithMetrics records call durations, failures and retries.
func WithMetrics(m *telemetry.Metrics) PolicyOption {
	return func(p *policyGenerator) { p.metrics = m }
}

// WithLogger logs retries and failures.
func WithLogger(l *logger.Logger) PolicyOption {
	return func(p *policyGenerator) { p.log = l }
}

// WithLabels sets the engine and model reported in metrics, spans and errors.
func WithLabels(engine, model string) PolicyOption {
	return func(p *policyGenerator) {
		p.engine = engine
		p.model = model
	}
}

type policyGenerator struct {
	inner   Generator
	policy  Policy
	limiter *rate.Limiter
	engine  string
	model   string
	metrics *telemetry.Metrics
	log     *logger.Logger
}

// WithPolicy wraps g so every call is paced, bounded in time and retried per policy.
// The returned generator is safe for concurrent use if g is.
func WithPolicy(g Generator, policy Policy, opts ...PolicyOption) Generator {
	limit := rate.Inf
	if policy.MinDelay > 0 {
		limit = rate.Every(policy.MinDelay)
	}
	if policy.Backoff <= 0 {
		policy.Backoff = time.Second
	}
	p := &policyGenerator{
		inner:   g,
		policy:  policy,
		limiter: rate.NewLimiter(limit, 1),
		engine:  "unknown",
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *policyGenerator) Initialize(ctx context.Context) error {
	return p.inner.Initialize(ctx)
}

func (p *policyGenerator) Shutdown(ctx context.Context) error {
	return p.inner.Shutdown(ctx)
}

func (p *policyGenerator) Generate(ctx context.Context, req *Request) (*Response, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "generation.generate", trace.WithAttributes(
		attribute.String("fichas.engine", p.engine),
		attribute.String("fichas.model", p.model),
		attribute.String("fichas.stage", req.Stage),
		attribute.String("fichas.row", req.RowID),
	))
	defer span.End()

	start := time.Now()
	attempt := 0
	var resp *Response

	backoff := retry.WithMaxRetries(uint64(p.policy.MaxRetries), retry.NewExponential(p.policy.Backoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if attempt > 0 {
			if p.metrics != nil {
				p.metrics.CallRetries.WithLabelValues(p.engine, req.Stage).Inc()
			}
			p.log.Debug("retrying generation", "row", req.RowID, "stage", req.Stage, "attempt", attempt+1)
		}
		attempt++

		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}

		r, err := p.attempt(ctx, req)
		p.pause(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return retry.RetryableError(err)
		}
		resp = r
		return nil
	})

	span.SetAttributes(attribute.Int("fichas.attempts", attempt))
	if p.metrics != nil {
		p.metrics.CallDuration.WithLabelValues(p.engine, req.Stage).Observe(time.Since(start).Seconds())
	}

	if err != nil {
		var perr *ProviderError
		if !errors.As(err, &perr) && ctx.Err() == nil {
			err = providerErr(p.engine, p.model, err)
		}
		if p.metrics != nil {
			p.metrics.CallFailures.WithLabelValues(p.engine, req.Stage).Inc()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return resp, nil
}

// pause holds the caller for MinDelay after a call completes.
func (p *policyGenerator) pause(ctx context.Context) {
	if p.policy.MinDelay <= 0 {
		return
	}
	t := time.NewTimer(p.policy.MinDelay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

func (p *policyGenerator) attempt(ctx context.Context, req *Request) (*Response, error) {
	if p.policy.Timeout <= 0 {
		return p.inner.Generate(ctx, req)
	}
	callCtx, cancel := context.WithTimeout(ctx, p.policy.Timeout)
	defer cancel()

	resp, err := p.inner.Generate(callCtx, req)
	if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return nil, providerErr(p.engine, p.model, fmt.Errorf("call timed out after %s", p.policy.Timeout))
	}
	return resp, err
}
