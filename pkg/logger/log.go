package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fatih/color"
)

type LogStatus int

const (
	VERBOSE LogStatus = iota
	DEBUG
	INFO
	SUCCESS
	NEW
	REMOVE
	STOP
	WARNING
	ERROR
	FATAL
)

var minStatus atomic.Int32

func init() { minStatus.Store(int32(INFO)) }

func (e LogStatus) String() string {
	return []string{
		"V",
		"D",
		"I",
		"✓",
		"+",
		"-",
		"X",
		"!",
		"!!",
		"PANIC",
	}[e]
}

func (e LogStatus) Color() *color.Color {
	return []*color.Color{
		color.New(color.FgWhite, color.Italic),                //Verbose
		color.New(color.FgWhite, color.Italic),                //Debug
		color.New(color.FgWhite),                              //Info
		color.New(color.FgHiGreen),                            //Success
		color.New(color.FgGreen, color.Italic),                //New
		color.New(color.FgYellow, color.Italic),               //Remove
		color.New(color.FgHiYellow),                           //Stop
		color.New(color.FgYellow, color.Underline),            //Warning
		color.New(color.FgHiRed, color.Bold),                  //Error
		color.New(color.FgHiRed, color.Bold, color.Underline), //PANIC
	}[e]
}

// Level returns the numeric level of this status, suitable for
// passing to SetMinLoggingLevel.
func (e LogStatus) Level() int { return int(e) }

// ParseStatus converts a level name (e.g. "info", "WARNING") in to
// the matching LogStatus. Unknown names return INFO and false.
func ParseStatus(name string) (LogStatus, bool) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "VERBOSE":
		return VERBOSE, true
	case "DEBUG":
		return DEBUG, true
	case "INFO":
		return INFO, true
	case "SUCCESS":
		return SUCCESS, true
	case "WARNING", "WARN":
		return WARNING, true
	case "ERROR":
		return ERROR, true
	case "FATAL":
		return FATAL, true
	}

	return INFO, false
}

// SetMinLoggingLevel sets the lowest status which will be emitted by
// every log manager. Anything below it is discarded.
func SetMinLoggingLevel(level int) {
	minStatus.Store(int32(level))
}

type Logger interface {
	Emit(LogStatus, string, ...interface{})
}

// Sink receives fully formatted log lines from a LoggerManager. The default
// sink writes coloured output to stdout, or stderr for WARNING and above.
type Sink func(status LogStatus, name string, line string)

type loggerImpl struct {
	name string
	mgr  LoggerManager
}

func (l *loggerImpl) Emit(status LogStatus, message string, interpolations ...interface{}) {
	l.mgr.Emit(status, l.name, message, interpolations...)
}

type LoggerManager interface {
	GetLogger(string) Logger
	Emit(LogStatus, string, string, ...interface{})
}

var defaultMgr = &loggerMgr{sink: consoleSink(os.Stdout, os.Stderr)}

var Log LoggerManager = defaultMgr

type loggerMgr struct {
	sync.Mutex
	offset int
	sink   Sink
}

// NewManager returns a LoggerManager which formats messages the same
// way as the default manager, but delivers them to the sink provided.
func NewManager(sink Sink) LoggerManager {
	return &loggerMgr{sink: sink}
}

func (l *loggerMgr) GetLogger(name string) Logger {
	return &loggerImpl{name: name, mgr: l}
}

func (l *loggerMgr) Emit(status LogStatus, name string, message string, interpolations ...interface{}) {
	if status < LogStatus(minStatus.Load()) {
		return
	}

	l.Lock()
	defer l.Unlock()

	l.setNameOffset(len(name))
	padding := strings.Repeat(" ", l.offset-len(name))
	msg := fmt.Sprintf("[%s] %s(%s) %s", name, padding, status, fmt.Sprintf(message, interpolations...))
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}

	l.sink(status, name, msg)
}

func (l *loggerMgr) setNameOffset(offset int) {
	if offset > l.offset {
		l.offset = offset
	}
}

func consoleSink(out io.Writer, errOut io.Writer) Sink {
	return func(status LogStatus, _ string, line string) {
		w := out
		if status >= WARNING {
			w = errOut
		}

		status.Color().Fprint(w, line)
	}
}

func Get(name string) Logger {
	return Log.GetLogger(name)
}
