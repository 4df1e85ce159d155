// Package retry runs a unit of work again when it failed for a reason
// that may not repeat: a lost optimistic-lock race or a dropped connection.
// Business errors are returned on the first attempt.
package retry

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"

	"sacco-backend/internal/domain/errs"
)

type Policy struct {
	// Attempts for optimistic-lock conflicts, first call included.
	ConflictAttempts uint64
	// Total budget for transient connectivity failures.
	MaxElapsed      time.Duration
	InitialInterval time.Duration
}

var Default = Policy{
	ConflictAttempts: 3,
	MaxElapsed:       2 * time.Second,
	InitialInterval:  50 * time.Millisecond,
}

func IsTransient(err error) bool {
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}

func isConflict(err error) bool { return errors.Is(err, errs.ErrConflict) }

// Do runs fn with Default.
func Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return Default.Do(ctx, fn)
}

func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var conflicts uint64
	var lastErr error

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.InitialInterval
	eb.MaxElapsedTime = p.MaxElapsed

	op := func() error {
		err := fn(ctx)
		lastErr = err
		switch {
		case err == nil:
			return nil
		case isConflict(err):
			conflicts++
			if conflicts >= p.ConflictAttempts {
				return backoff.Permanent(err)
			}
			return err
		case IsTransient(err):
			return err
		}
		return backoff.Permanent(err)
	}

	err := backoff.Retry(op, backoff.WithContext(eb, ctx))
	if err == nil {
		return nil
	}
	switch {
	case isConflict(lastErr):
		return fmt.Errorf("gave up after %d attempts: %w", conflicts, lastErr)
	case IsTransient(lastErr):
		return fmt.Errorf("%w: %v", errs.ErrUnavailable, lastErr)
	}
	return err
}
