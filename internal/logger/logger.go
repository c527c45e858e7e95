// Package logger 提供簡單的分級日誌，底層沿用標準 log 套件的前綴與旗標。
package logger

import (
	"fmt"
	"log"
	"sync/atomic"
)

type Level int32

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	}
	return fmt.Sprintf("Level(%d)", int32(l))
}

// worker goroutine 會同時讀取等級，因此以 atomic 保存
var currentLevel atomic.Int32

func init() { currentLevel.Store(int32(Info)) }

func SetLevel(l Level) { currentLevel.Store(int32(l)) }

func Enabled(l Level) bool { return Level(currentLevel.Load()) <= l }

func logf(l Level, format string, args ...any) {
	if !Enabled(l) {
		return
	}
	log.Output(3, "["+l.String()+"] "+fmt.Sprintf(format, args...))
}

func Debugf(format string, args ...any) { logf(Debug, format, args...) }

func Infof(format string, args ...any) { logf(Info, format, args...) }

func Warnf(format string, args ...any) { logf(Warn, format, args...) }

func Errorf(format string, args ...any) { logf(Error, format, args...) }
