package commands

import (
	"context"
	"time"

	"github.com/goliatone/go-l10n/internal/logging"
	"github.com/goliatone/go-l10n/pkg/interfaces"
)

// DefaultCommandTimeout bounds a recompute triggered through a command when
// no timeout is configured.
const DefaultCommandTimeout = 30 * time.Second

// commandContext prepares the context a handler runs under. The command
// fields travel on the context so loggers bound further down (the stats store
// logs through WithContext) report which command triggered them.
func commandContext(ctx context.Context, timeout time.Duration, fields map[string]any) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(fields) > 0 {
		ctx = logging.ContextWithFields(ctx, fields)
	}
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func ensureLogger(logger interfaces.Logger) interfaces.Logger {
	if logger == nil {
		return logging.NoOp()
	}
	return logger
}
