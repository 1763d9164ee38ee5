package logging

import (
	"log"

	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a rotating file logger for app diagnostics and a close
// function releasing the underlying file.
func New(path string) (*log.Logger, func() error) {
	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	return log.New(rotator, "", log.LstdFlags), rotator.Close
}
