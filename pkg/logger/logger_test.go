package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"school-timetable/backend/config"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LogConfig
		wantErr bool
	}{
		{"json info", config.LogConfig{Level: "info", Format: "json"}, false},
		{"console debug", config.LogConfig{Level: "debug", Format: "console"}, false},
		{"默认格式", config.LogConfig{Level: "warn"}, false},
		{"非法级别", config.LogConfig{Level: "verbose", Format: "json"}, true},
		{"非法格式", config.LogConfig{Level: "info", Format: "xml"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewLogger(&tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("期望返回错误，实际: nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("期望成功，实际: %v", err)
			}
			lvl, _ := zapcore.ParseLevel(tt.cfg.Level)
			if !l.Core().Enabled(lvl) || l.Core().Enabled(lvl-1) {
				t.Errorf("日志级别应为 %s", tt.cfg.Level)
			}
		})
	}
}
