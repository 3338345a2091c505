// Package debug provides opt-in, zero-cost-when-disabled tracing for the
// indexing and query pipelines. It is gated by the MAGELLAN_DEBUG
// environment variable rather than a logging framework, matching how the
// teacher project layers verbose tracing under plain log output.
package debug

import (
	"fmt"
	"os"
	"sync"
)

var (
	once    sync.Once
	enabled bool
)

func isEnabled() bool {
	once.Do(func() {
		enabled = os.Getenv("MAGELLAN_DEBUG") != ""
	})
	return enabled
}

// Enabled reports whether debug tracing is currently active. Exposed so
// callers can avoid building an expensive message when tracing is off.
func Enabled() bool {
	return isEnabled()
}

func emit(tag, format string, args ...interface{}) {
	if !isEnabled() {
		return
	}
	fmt.Fprintf(os.Stderr, "[magellan:%s] "+format, append([]interface{}{tag}, args...)...)
}

// LogIndexing traces fact-extraction and reconcile activity.
func LogIndexing(format string, args ...interface{}) {
	emit("index", format, args...)
}

// LogGraph traces graph-store mutations (insert/replace/delete).
func LogGraph(format string, args ...interface{}) {
	emit("graph", format, args...)
}

// LogQuery traces query-algorithm execution (reachability, SCC, paths).
func LogQuery(format string, args ...interface{}) {
	emit("query", format, args...)
}

// LogWatch traces watcher and coordinator events.
func LogWatch(format string, args ...interface{}) {
	emit("watch", format, args...)
}
