package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		level   string
		format  string
		want    zapcore.Level
		wantErr bool
	}{
		{level: "info", format: "json", want: zapcore.InfoLevel},
		{level: "DEBUG", format: "console", want: zapcore.DebugLevel},
		{level: " warn ", format: "", want: zapcore.WarnLevel},
		{level: "loud", format: "json", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, err := New(tt.level, tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !logger.Core().Enabled(tt.want) {
				t.Errorf("level %v not enabled", tt.want)
			}
			if tt.want > zapcore.DebugLevel && logger.Core().Enabled(tt.want-1) {
				t.Errorf("level %v enabled below %v", tt.want-1, tt.want)
			}
		})
	}
}
