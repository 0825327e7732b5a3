package transport

import (
	"fmt"
	"os"
)

// debugEnabled turns on verbose stderr tracing of packet/frame handling.
// It is off by default: the connection FSM has no suspension points (spec
// §5) and must not pay formatting cost on the hot path unless asked to.
var debugEnabled = os.Getenv("QUIC_DEBUG") != ""

func debug(format string, values ...interface{}) {
	if !debugEnabled {
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", values...)
}

// sprint concatenates its arguments using their default formatting, like
// fmt.Sprint, for building log/error strings inline.
func sprint(values ...interface{}) string {
	return fmt.Sprint(values...)
}
