package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopWithoutNewRelic(t *testing.T) {
	ctx := context.Background()

	// None of these should panic without an application or transaction
	RecordCount(ctx, "count", 1)
	RecordDuration(ctx, "duration", time.Second)

	tracer := TraceMethodCall(ctx, "metrics", "TestNoopWithoutNewRelic")
	assert.Nil(t, tracer)
	tracer.AddAttribute("key", "value")
	tracer.AddAttributes(map[string]interface{}{"key": "value"})
	tracer.OnError(errors.New("error"))
	tracer.End()
}

func TestTraceMethodCall(t *testing.T) {
	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName("staking-client-test"),
		newrelic.ConfigEnabled(false),
	)
	require.NoError(t, err)

	ctx := NewContext(context.Background(), app)
	assert.Equal(t, app, appFromContext(ctx))
	RecordCount(ctx, "count", 1)

	txn := app.StartTransaction("test")
	defer txn.End()
	ctx = newrelic.NewContext(ctx, txn)

	tracer := TraceMethodCall(ctx, "metrics", "TestTraceMethodCall")
	require.NotNil(t, tracer)
	assert.Equal(t, "Custom/metrics/TestTraceMethodCall", tracer.metricName)

	tracer.AddAttribute("key", "value")
	tracer.OnError(nil)
	assert.False(t, tracer.failed)
	tracer.OnError(errors.New("error"))
	assert.True(t, tracer.failed)
	tracer.End()
}
