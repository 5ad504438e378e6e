package logging

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvLevel 控制诊断日志级别（debug|info|warn|error）。
const EnvLevel = "SPLITPOSTER_LOG_LEVEL"

// ParseLevel 把级别字符串映射为 zapcore.Level；无法识别时回退到 warn。
func ParseLevel(level string) zapcore.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "INFO":
		return zapcore.InfoLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		return zapcore.WarnLevel
	}
}

// New 构造诊断 logger。
//
// 约束：日志只写 stderr；stdout 留给进度输出，不能被污染。
// stderr 是终端时用彩色 console 编码，否则输出 JSON 行。
func New(level string) *zap.Logger {
	return newLogger(os.Stderr, isatty.IsTerminal(os.Stderr.Fd()), ParseLevel(level))
}

func newLogger(w io.Writer, tty bool, lvl zapcore.Level) *zap.Logger {
	encoderConf := zap.NewProductionEncoderConfig()
	encoderConf.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if tty {
		encoderConf.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(encoderConf)
	} else {
		enc = zapcore.NewJSONEncoder(encoderConf)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(w)), zap.NewAtomicLevelAt(lvl))
	return zap.New(core).Named("splitposter")
}
