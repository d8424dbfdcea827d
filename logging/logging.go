package logging

import (
	"io"
	"log"
	"os"
)

var (
	Info  = log.New(os.Stdout, "[INFO] ", log.LstdFlags)
	Warn  = log.New(os.Stderr, "[WARN] ", log.LstdFlags)
	Error = log.New(os.Stderr, "[ERROR] ", log.LstdFlags)
)

func Init() {
	Info = log.New(os.Stdout, "[INFO] ", log.LstdFlags)
	Warn = log.New(os.Stderr, "[WARN] ", log.LstdFlags)
	Error = log.New(os.Stderr, "[ERROR] ", log.LstdFlags)
}

// SetOutput points all loggers at w. Tests use it to silence or capture logs.
func SetOutput(w io.Writer) {
	Info.SetOutput(w)
	Warn.SetOutput(w)
	Error.SetOutput(w)
}

func InfoMsg(format string, v ...interface{}) {
	Info.Printf(format, v...)
}

func WarnMsg(format string, v ...interface{}) {
	Warn.Printf(format, v...)
}

func ErrorMsg(format string, v ...interface{}) {
	Error.Printf(format, v...)
}
