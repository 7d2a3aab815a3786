package mylog

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func init() {
	if os.Getenv("GOOGLE_CLOUD_PROJECT") == "" {
		New = newStandardLogger
	}
}

type standardLogger struct {
	componentName string
	zapper        *zap.Logger
}

func newStandardLogger(componentName string) Logger {
	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.Lock(os.Stderr), zapcore.DebugLevel)

	return standardLogger{
		componentName: componentName,
		zapper:        zap.New(core).Named(componentName),
	}
}

func (l standardLogger) Log(ctx context.Context, traceLabel string, severity Severity, format string, a ...any) {
	l.zapper.Log(toZapLevel(severity), fmt.Sprintf(format, a...), zap.String("aggregate", traceLabel))
}

func toZapLevel(severity Severity) zapcore.Level {
	switch severity {
	case SeverityDebug:
		return zapcore.DebugLevel
	case SeverityWarn:
		return zapcore.WarnLevel
	case SeverityError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
