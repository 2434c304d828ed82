package statemachine

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/amp-labs/effort-economics/statemachine"

func startTransitionSpan(
	ctx context.Context,
	machine, from, to string,
	smCtx *Context,
) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, machine+" "+from+"→"+to,
		trace.WithAttributes(
			attribute.String("statemachine.name", machine),
			attribute.String("statemachine.session_id", smCtx.SessionID),
			attribute.String("statemachine.from", from),
			attribute.String("statemachine.to", to),
			attribute.Int("statemachine.steps_taken", len(smCtx.PathHistory)),
		))
}

// endTransitionSpan closes the span. A guard rejection is a person's input
// problem, so it is recorded as an event and leaves the status unset.
func endTransitionSpan(span trace.Span, outcome string, err error) {
	span.SetAttributes(attribute.String("statemachine.outcome", outcome))

	switch {
	case err == nil:
		span.SetStatus(codes.Ok, "")
	case outcome == outcomeRejected:
		span.AddEvent("guard rejected", trace.WithAttributes(attribute.String("reason", err.Error())))
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.End()
}
