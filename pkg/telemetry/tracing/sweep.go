package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"primeia/videogate/pkg/retention"
)

// Sweep span attributes.
const (
	AttrTrigger   = attribute.Key("retention.trigger")
	AttrDirectory = attribute.Key("retention.directory")
	AttrWindow    = attribute.Key("retention.window")
	AttrDeleted   = attribute.Key("retention.deleted")
	AttrErrors    = attribute.Key("retention.errors")
)

// ObserveSweep implements retention.Observer. It records the finished run
// as a "retention.sweep" span with the run's own start and end times, and
// one event per file that could not be handled.
func (t *Tracer) ObserveSweep(ctx context.Context, run retention.Run) {
	if !t.enabled {
		return
	}

	_, span := t.tracer.Start(ctx, "retention.sweep",
		trace.WithTimestamp(run.StartedAt),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			AttrTrigger.String(string(run.Trigger)),
			AttrDirectory.String(run.Directory),
			AttrWindow.String(run.Window.String()),
			AttrDeleted.Int(run.Result.Deleted),
			AttrErrors.Int(run.Result.Errors),
		),
	)

	for _, f := range run.Result.Failures {
		span.AddEvent("entry failed", trace.WithAttributes(
			attribute.String("file", f.Name),
			attribute.String("op", f.Op),
			attribute.String("error", fmt.Sprint(f.Err)),
		))
	}
	if run.Result.Errors > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d entries failed", run.Result.Errors))
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End(trace.WithTimestamp(run.StartedAt.Add(run.Duration)))
}
