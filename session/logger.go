package session

import "log"

// Logger is what the driver and runner write progress to.
type Logger interface {
	Printf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
}

// StdLogger writes through the standard log package.
type StdLogger struct{}

func (StdLogger) Printf(format string, v ...interface{}) {
	log.Printf(format, v...)
}

func (StdLogger) Errorf(format string, v ...interface{}) {
	log.Printf("ERROR: "+format, v...)
}
