package common

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync/atomic"

	"github.com/ternarybob/arbor"
)

// goroutineCounter tracks spawned goroutines for diagnostics.
var goroutineCounter int64

// GetGoroutineCount returns the number of goroutines spawned via SafeGo.
func GetGoroutineCount() int64 {
	return atomic.LoadInt64(&goroutineCounter)
}

// SafeGo runs fn in a goroutine with panic recovery. A panic inside fn is
// logged with the goroutine name and stack trace rather than crashing the
// run; the SafeGoWithContext form is used
// around the per-backend parser fan-out (pipeline orchestrator) and the per-group LLM
// adjudication fan-out, both of which must never bring down the pipeline
// because one participant misbehaved.
func SafeGo(logger arbor.ILogger, name string, fn func()) {
	atomic.AddInt64(&goroutineCounter, 1)

	go func() {
		defer recoverAndLog(logger, name)
		fn()
	}()
}

// SafeGoWithContext is SafeGo for use from cancellable fan-out loops. fn
// is always invoked — never skipped on an already-cancelled ctx — because
// callers (the orchestrator's parser fan-out, the adjudication pool) defer their
// own wg.Done()/semaphore release inside fn; skipping fn on a cancelled
// ctx would skip that bookkeeping too and hang the caller's Wait()
// forever. ctx is passed through so fn's own blocking calls (an HTTP
// request, a parser backend) can honor cancellation themselves.
func SafeGoWithContext(ctx context.Context, logger arbor.ILogger, name string, fn func()) {
	atomic.AddInt64(&goroutineCounter, 1)

	go func() {
		defer recoverAndLog(logger, name)
		fn()
	}()
}

func recoverAndLog(logger arbor.ILogger, name string) {
	r := recover()
	if r == nil {
		return
	}

	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	stackTrace := string(buf[:n])

	if logger != nil {
		logger.Error().
			Str("goroutine", name).
			Str("panic", fmt.Sprintf("%v", r)).
			Str("stack", stackTrace).
			Msg("recovered from panic in goroutine - continuing pipeline run")
	} else {
		fmt.Fprintf(os.Stderr, "PANIC in goroutine %s: %v\n%s\n", name, r, stackTrace)
	}
}
