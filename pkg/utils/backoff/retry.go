/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package backoff

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Retry executes an operation with exponential backoff retry logic until the
// operation succeeds or the maximum elapsed time is reached.
func Retry(op backoff.Operation, maxElapsedTime, maxInterval time.Duration) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = maxElapsedTime
	b.MaxInterval = maxInterval
	if err := backoff.Retry(op, b); err != nil {
		return err
	}
	return nil
}

// LinearRetry executes an operation up to count times, sleeping
// interval*attempt between attempts (1x, 2x, 3x, ...). The retryable
// predicate decides whether an error is worth another attempt; a
// non-retryable error is returned immediately.
func LinearRetry(op backoff.Operation, count int, interval time.Duration, retryable func(error) bool) error {
	var err error
	for i := 0; i < count; i++ {
		if err = op(); err == nil {
			return nil
		}
		if !retryable(err) || i == count-1 {
			return err
		}
		time.Sleep(time.Duration(i+1) * interval)
	}
	return err
}
