package mylog

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/MarcGrol/checkoutflow/lib/mycontext"
)

func init() {
	if os.Getenv("GOOGLE_CLOUD_PROJECT") != "" {
		New = newGcloudLogger
	}
}

type structuredLogger struct {
	componentName string
	zapper        *zap.Logger
}

// Field names follow the Cloud Logging structured payload conventions so entries are parsed as JSON.
func newGcloudLogger(componentName string) Logger {
	encoderCfg := zapcore.EncoderConfig{
		MessageKey:     "message",
		LevelKey:       "severity",
		NameKey:        "component",
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		LineEnding:     zapcore.DefaultLineEnding,
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.Lock(os.Stdout), zapcore.DebugLevel)

	return structuredLogger{
		componentName: componentName,
		zapper:        zap.New(core).Named(componentName),
	}
}

func (l structuredLogger) Log(ctx context.Context, traceLabel string, severity Severity, format string, a ...any) {
	trace, _ := ctx.Value(mycontext.CtxTraceContext{}).(string)

	l.zapper.Log(toZapLevel(severity), l.componentName+":"+fmt.Sprintf(format, a...),
		zap.Any("labels", map[string]string{"aggregate": traceLabel}),
		zap.String("logging.googleapis.com/trace", trace),
	)
}
