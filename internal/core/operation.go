// AngelaMos | 2026
// operation.go

package core

import (
	"context"
	"strings"
	"time"

	"github.com/carterperez-dev/streamflix/internal/metrics"
)

// Outcome is the metrics label for an operation result.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return strings.ToLower(FromError(err).Code)
}

// TrackOperation opens a span for a lifecycle operation. The returned func
// must be called exactly once with the operation's final error.
func TrackOperation(
	ctx context.Context,
	name string,
) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := StartSpan(ctx, name)

	return ctx, func(err error) {
		metrics.RecordLifecycle(name, Outcome(err), time.Since(start))
		EndSpan(span, err)
	}
}
