package retry

import (
	"context"
	"math/rand"
	"time"

	apperrors "github.com/juancollazo-ch/wbuy-order-resolver-service/internal/errors"
)

// WithRetry ejecuta fn hasta attempts veces con backoff exponencial y jitter.
// Solo reintenta errores marcados como reintentables (apperrors.IsRetryable).
func WithRetry(
	ctx context.Context,
	attempts int,
	baseDelay time.Duration,
	fn func() error,
) error {
	if attempts <= 0 {
		attempts = 1
	}

	var err error

	for i := 1; i <= attempts; i++ {
		// Verificar si el context expiró
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err = fn()
		if err == nil {
			return nil
		}

		// No hacer sleep en el último intento ni con errores definitivos
		if i == attempts || !apperrors.IsRetryable(err) {
			break
		}

		// Backoff exponencial con jitter
		sleep := baseDelay * time.Duration(1<<uint(i-1))
		var jitter time.Duration
		if baseDelay > 0 {
			jitter = time.Duration(rand.Int63n(int64(baseDelay)))
		}

		// Sleep con context awareness
		select {
		case <-time.After(sleep + jitter):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return err
}
