package kinetic

import (
	"io"
	"log/slog"
	"testing"
)

// newTestRuntime builds a runtime with a silent logger and closes it when
// the test ends.
func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt := New(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

// drainLoop blocks until everything dispatched before it has run.
func drainLoop(rt *Runtime) {
	done := make(chan struct{})
	rt.Dispatch(func() { close(done) })
	<-done
}

// mustInstance constructs an instance or fails the test.
func mustInstance(t *testing.T, rt *Runtime, c *Class, args ...any) *Instance {
	t.Helper()
	in, err := rt.NewInstance(c, args...)
	if err != nil {
		t.Fatalf("NewInstance(%s): %v", c.Name(), err)
	}
	return in
}
