package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/itemforge/fichas/internal/telemetry"
)

func TestWithPolicy_NoRetryByDefault(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := NewMockGenerator(ctrl)
	inner.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(nil, errors.New("boom")).Times(1)

	metrics := telemetry.NewMetrics()
	g := WithPolicy(inner, Policy{}, WithMetrics(metrics), WithLabels("mock", "m"))

	_, err := g.Generate(context.Background(), &Request{Stage: StageAnalysis})
	require.Error(t, err)
	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "mock", perr.Engine)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CallFailures.WithLabelValues("mock", StageAnalysis)))
}

func TestWithPolicy_RetriesThenSucceeds(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := NewMockGenerator(ctrl)
	gomock.InOrder(
		inner.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(nil, errors.New("503")),
		inner.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(nil, errors.New("503")),
		inner.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(&Response{Text: "ok"}, nil),
	)

	metrics := telemetry.NewMetrics()
	g := WithPolicy(inner, Policy{MaxRetries: 3, Backoff: time.Millisecond}, WithMetrics(metrics), WithLabels("mock", "m"))

	resp, err := g.Generate(context.Background(), &Request{Stage: StageSynthesis})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.CallRetries.WithLabelValues("mock", StageSynthesis)))
}

func TestWithPolicy_RetriesExhausted(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := NewMockGenerator(ctrl)
	inner.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(nil, errors.New("503")).Times(3)

	g := WithPolicy(inner, Policy{MaxRetries: 2, Backoff: time.Millisecond})
	_, err := g.Generate(context.Background(), &Request{})
	assert.ErrorContains(t, err, "503")
}

func TestWithPolicy_Timeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := NewMockGenerator(ctrl)
	inner.EXPECT().Generate(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ *Request) (*Response, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})

	g := WithPolicy(inner, Policy{Timeout: 20 * time.Millisecond}, WithLabels("vertex", "gemini"))
	_, err := g.Generate(context.Background(), &Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
	var perr *ProviderError
	assert.True(t, errors.As(err, &perr))
}

func TestWithPolicy_CancelledNotRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := NewMockGenerator(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	inner.EXPECT().Generate(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, *Request) (*Response, error) {
			cancel()
			return nil, context.Canceled
		}).Times(1)

	g := WithPolicy(inner, Policy{MaxRetries: 5, Backoff: time.Millisecond})
	_, err := g.Generate(ctx, &Request{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithPolicy_MinDelay(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := NewMockGenerator(ctrl)
	inner.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(&Response{Text: "ok"}, nil).Times(3)

	g := WithPolicy(inner, Policy{MinDelay: 30 * time.Millisecond})
	start := time.Now()
	for range 3 {
		_, err := g.Generate(context.Background(), &Request{})
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestWithPolicy_MinDelayAfterSlowCall(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := NewMockGenerator(ctrl)

	var starts, ends []time.Time
	inner.EXPECT().Generate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req *Request) (*Response, error) {
			starts = append(starts, time.Now())
			time.Sleep(40 * time.Millisecond)
			ends = append(ends, time.Now())
			return &Response{Text: "ok"}, nil
		}).Times(2)

	g := WithPolicy(inner, Policy{MinDelay: 20 * time.Millisecond})
	for range 2 {
		_, err := g.Generate(context.Background(), &Request{})
		require.NoError(t, err)
	}
	require.Len(t, starts, 2)
	assert.GreaterOrEqual(t, starts[1].Sub(ends[0]), 20*time.Millisecond,
		"the pause follows the end of the previous call, not its start")
}

func TestWithPolicy_Delegates(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := NewMockGenerator(ctrl)
	inner.EXPECT().Initialize(gomock.Any()).Return(nil)
	inner.EXPECT().Shutdown(gomock.Any()).Return(nil)

	g := WithPolicy(inner, Policy{})
	require.NoError(t, g.Initialize(context.Background()))
	require.NoError(t, g.Shutdown(context.Background()))
}
