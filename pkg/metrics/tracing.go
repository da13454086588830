package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// TraceMethodCall starts a segment for a method call within the New Relic
// transaction carried by ctx. Without a transaction it returns nil, and every
// MethodTracer method is safe to call on nil.
func TraceMethodCall(ctx context.Context, structOrPackageName, methodName string) *MethodTracer {
	txn := newrelic.FromContext(ctx)
	if txn == nil {
		return nil
	}

	return &MethodTracer{
		ctx:        ctx,
		txn:        txn,
		seg:        txn.StartSegment(fmt.Sprintf("%s %s", structOrPackageName, methodName)),
		metricName: fmt.Sprintf("Custom/%s/%s", structOrPackageName, methodName),
		start:      time.Now(),
	}
}

// MethodTracer collects analytics for a given method call within an existing
// trace. Ending it also records the call's latency, and error count when one
// was observed, as custom metrics against the application in its context.
type MethodTracer struct {
	ctx        context.Context
	txn        *newrelic.Transaction
	seg        *newrelic.Segment
	metricName string
	start      time.Time
	failed     bool
}

// AddAttribute adds a key-value pair metadata to the method trace
func (t *MethodTracer) AddAttribute(key string, value interface{}) {
	if t == nil {
		return
	}

	t.seg.AddAttribute(key, value)
}

// AddAttributes adds a set of key-value pair metadata to the method trace
func (t *MethodTracer) AddAttributes(attributes map[string]interface{}) {
	if t == nil {
		return
	}

	for key, value := range attributes {
		t.seg.AddAttribute(key, value)
	}
}

// OnError observes an error within a method trace. Nil errors are ignored.
func (t *MethodTracer) OnError(err error) {
	if t == nil || err == nil {
		return
	}

	t.failed = true
	t.seg.AddAttribute("error", err.Error())
	t.txn.NoticeError(err)
}

// End completes the trace for the method call.
func (t *MethodTracer) End() {
	if t == nil {
		return
	}

	t.seg.End()

	RecordDuration(t.ctx, t.metricName, time.Since(t.start))
	if t.failed {
		RecordCount(t.ctx, t.metricName+"/Errors", 1)
	}
}
