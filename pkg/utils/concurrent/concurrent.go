/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package concurrent

import (
	"sync"
)

// Exec executes the given function concurrently for the specified count.
// It returns the number of successful executions and the first error
// encountered, if any.
func Exec(count int, fn func() error) (int, error) {
	if count == 0 || fn == nil {
		return 0, nil
	}
	var wg sync.WaitGroup
	wg.Add(count)
	errCh := make(chan error, count)
	defer close(errCh)

	for i := 0; i < count; i++ {
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				errCh <- err
			}
		}()
	}
	wg.Wait()
	successes := count - len(errCh)
	if len(errCh) > 0 {
		err := <-errCh
		return successes, err
	}
	return successes, nil
}

// ExecIndexed runs fn for every index in [0, count) with at most limit
// goroutines in flight. Results are written to positional slots by fn, so
// callers keep a stable ordering regardless of completion order.
func ExecIndexed(count, limit int, fn func(i int)) {
	if count == 0 || fn == nil {
		return
	}
	if limit <= 0 || limit > count {
		limit = count
	}
	var wg sync.WaitGroup
	sem := make(chan struct{}, limit)
	for i := 0; i < count; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(idx)
		}(i)
	}
	wg.Wait()
}
