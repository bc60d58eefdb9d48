// Package log is a minimal leveled logger for this client's own diagnostic
// output, grounded on the debug.Log(level, format, args...) call convention
// visible at every call site in the teacher repo (sender.go, link.go import
// "github.com/Azure/go-amqp/internal/debug" and call debug.Log(1, "TX ..."),
// debug.Log(2, "RX ...")); the debug package's own source was not present in
// the retrieval pack, so this reproduces the convention rather than copying
// an unseen file.
//
// A library has no business forcing a logging framework on its callers, so
// output is gated by the KESTRELMQ_AMQP_LOG_LEVEL env var and written to
// stderr; callers embedding this client in a program with its own structured
// logger are expected to just not set it.
package log

import (
	"fmt"
	"os"
	"strconv"
	"sync"
)

var (
	once  sync.Once
	level int
)

func enabledLevel() int {
	once.Do(func() {
		v := os.Getenv("KESTRELMQ_AMQP_LOG_LEVEL")
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err == nil {
			level = n
		}
	})
	return level
}

// Log writes a diagnostic line if lvl is at or below the configured
// verbosity. Level 1 is connection/channel lifecycle, 2 is frame tx/rx, 3 is
// per-field detail — matching the granularity the teacher's call sites use.
func Log(lvl int, format string, args ...interface{}) {
	if lvl > enabledLevel() {
		return
	}
	fmt.Fprintf(os.Stderr, "[amqp] "+format+"\n", args...)
}
