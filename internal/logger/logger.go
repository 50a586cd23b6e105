// Package logger holds the process-wide structured logger.
package logger

import (
	"go.uber.org/zap"
)

var sugar *zap.SugaredLogger = zap.NewNop().Sugar()

// Init builds the global logger. Development mode uses human-readable
// console output; production mode emits JSON.
func Init(development bool) error {
	var (
		l   *zap.Logger
		err error
	)
	if development {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}
	sugar = l.Sugar()
	return nil
}

// L returns the global sugared logger.
func L() *zap.SugaredLogger {
	return sugar
}

// Sync flushes buffered log entries.
func Sync() {
	_ = sugar.Sync()
}
