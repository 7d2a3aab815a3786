package mylog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestSeverityMapping(t *testing.T) {
	testCases := []struct {
		in   Severity
		want zapcore.Level
	}{
		{in: SeverityDebug, want: zapcore.DebugLevel},
		{in: SeverityInfo, want: zapcore.InfoLevel},
		{in: SeverityWarn, want: zapcore.WarnLevel},
		{in: SeverityError, want: zapcore.ErrorLevel},
		{in: Severity("whatever"), want: zapcore.InfoLevel},
	}
	for _, tc := range testCases {
		t.Run(string(tc.in), func(t *testing.T) {
			assert.Equal(t, tc.want, toZapLevel(tc.in))
		})
	}
}
