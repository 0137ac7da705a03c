package app

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/wealthquest-backend/internal/observability"
	"github.com/yungbote/wealthquest-backend/internal/services"
)

type instrumentedGenerator struct {
	provider string
	inner    services.TextGenerator
	metrics  *observability.Metrics
}

func instrumentGenerator(provider string, inner services.TextGenerator) services.TextGenerator {
	if inner == nil {
		return nil
	}
	return &instrumentedGenerator{
		provider: provider,
		inner:    inner,
		metrics:  observability.Current(),
	}
}

func (g *instrumentedGenerator) GenerateText(ctx context.Context, system string, user string) (string, error) {
	ctx, span := observability.StartSpan(ctx, "mentor.generate_text", "provider", g.provider)
	defer span.End()

	start := time.Now()
	out, err := g.inner.GenerateText(ctx, system, user)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generate text failed")
	}
	g.observe("generate_text", err, time.Since(start))
	return out, err
}

func (g *instrumentedGenerator) observe(operation string, err error, dur time.Duration) {
	if g == nil || g.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	g.metrics.ObserveMentorRequest(g.provider, operation, status, dur)
}
