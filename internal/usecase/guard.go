package usecase

import (
	"runtime/debug"

	xlogger "FxBias/pkg/logger"
)

// guard is deferred in every goroutine a run fans out to. It logs a panic and
// lets fallback store the neutral result.
func guard(l *xlogger.Logger, what string, fallback func(r interface{})) {
	r := recover()
	if r == nil {
		return
	}
	l.Error("recovered panic in analysis step",
		xlogger.String("step", what),
		xlogger.Any("panic", r),
		xlogger.String("stack", string(debug.Stack())),
	)
	if fallback != nil {
		fallback(r)
	}
}
