// Package workers sizes and runs fixed worker pools for CPU-bound media
// processing.
package workers

import (
	"os"
	"runtime"
	"strconv"
	"sync"

	"starbrowse/internal/logging"
)

const maxDefaultWorkers = 8

// Count returns the worker pool size: the WORKER_COUNT environment
// variable when set and valid, otherwise the CPU count capped at 8.
func Count() int {
	if v := os.Getenv("WORKER_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logging.Warn("invalid WORKER_COUNT %q, using default", v)
		} else {
			return n
		}
	}

	n := runtime.NumCPU()
	if n > maxDefaultWorkers {
		n = maxDefaultWorkers
	}
	return n
}

// Run starts n goroutines executing fn and blocks until all return. Each
// invocation receives its worker index.
func Run(n int, fn func(worker int)) {
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			fn(worker)
		}(i)
	}
	wg.Wait()
}
