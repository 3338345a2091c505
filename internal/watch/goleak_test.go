package watch

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain ensures no goroutine started by a Watcher (the fsnotify event
// translation loop, spec section 5) outlives its test, since most tests in
// this package start one.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("sync.runtime_Semacquire"),
	)
}
