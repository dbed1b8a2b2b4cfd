package simpledb

import (
	"log"
	"os"
)

// Logger wraps a single method, Print, which prints a diagnostic message.
// Implementations must be safe for concurrent use. *log.Logger implements
// this interface.
type Logger interface {
	Print(v ...interface{})
}

func defaultLogger() Logger {
	return log.New(os.Stdout, "", log.LstdFlags)
}

type discardLogger struct{}

func (discardLogger) Print(...interface{}) {}

// DiscardLogger drops every message.
var DiscardLogger Logger = discardLogger{}
