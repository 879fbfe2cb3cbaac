package observability

import (
	"context"
	"errors"
	"fmt"

	"github.com/riskibarqy/highlight-sync/internal/config"
	"github.com/riskibarqy/highlight-sync/internal/platform/logging"
)

// Start brings up tracing and profiling for a binary. The returned function
// flushes both and is safe to call when neither is enabled.
func Start(cfg config.Config, logger *logging.Logger) (func(context.Context) error, error) {
	stopTracing, err := InitUptrace(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init uptrace: %w", err)
	}

	stopProfiling, err := InitPyroscope(cfg, logger)
	if err != nil {
		_ = stopTracing(context.Background())
		return nil, fmt.Errorf("init pyroscope: %w", err)
	}

	return func(ctx context.Context) error {
		return errors.Join(stopProfiling(), stopTracing(ctx))
	}, nil
}
