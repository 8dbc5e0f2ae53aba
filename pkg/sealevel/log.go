package sealevel

import (
	"fmt"

	"k8s.io/klog/v2"
)

// Logger collects program log output during execution.
type Logger interface {
	Log(s string)
	Logf(format string, args ...any)
}

// LogRecorder buffers program logs for later inspection.
type LogRecorder struct {
	Logs []string
}

func (l *LogRecorder) Log(s string) {
	l.Logs = append(l.Logs, s)
	klog.V(2).Info(s)
}

func (l *LogRecorder) Logf(format string, args ...any) {
	l.Log(fmt.Sprintf(format, args...))
}
