package middleware

import (
	"context"
	"time"

	"github.com/artisanmarket/inventory/internal/infrastructure/observability"
)

// WithLogging returns a middleware that logs activity execution
func WithLogging(logger *observability.Logger, activityName string) ActivityMiddleware {
	return func(next ActivityFunc) ActivityFunc {
		return func(ctx context.Context, input []byte) ([]byte, error) {
			start := time.Now()
			actLogger := logger.WithOperation(activityName)

			actLogger.Debug().Msg("activity started")

			output, err := next(ctx, input)
			duration := time.Since(start)

			if err != nil {
				actLogger.WithError(err).Error().
					Dur("duration_ms", duration).
					Msg("activity failed")
				return nil, err
			}

			actLogger.Info().
				Dur("duration_ms", duration).
				Msg("activity completed")
			return output, nil
		}
	}
}
