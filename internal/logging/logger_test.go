// Shoprec - E-Commerce Recommendation and Insight Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"disabled", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestInitWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf, Timestamp: true})
	defer Init(DefaultConfig())

	Info().Str("component", "pipeline").Msg("built feature table")

	out := buf.String()
	if !strings.Contains(out, `"component":"pipeline"`) {
		t.Errorf("expected structured field in output, got %q", out)
	}
	if !strings.Contains(out, `"message":"built feature table"`) {
		t.Errorf("expected message in output, got %q", out)
	}
}

func TestSetLoggerReplacesGlobal(t *testing.T) {
	orig := Logger()
	defer SetLogger(orig)

	l, buf := NewTestLogger()
	SetLogger(l)

	Warn().Msg("low confidence rules")

	if !strings.Contains(buf.String(), "low confidence rules") {
		t.Errorf("expected message via replaced logger, got %q", buf.String())
	}
}

func TestSlogHandlerRoutesToZerolog(t *testing.T) {
	l, buf := NewTestLogger()

	handler := &SlogHandler{logger: l}
	slogger := slog.New(handler)

	slogger.Info("supervisor started", "service", "http")

	out := buf.String()
	if !strings.Contains(out, "supervisor started") {
		t.Errorf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, `"service":"http"`) {
		t.Errorf("expected attr in output, got %q", out)
	}
}

func TestSlogHandlerGroups(t *testing.T) {
	l, buf := NewTestLogger()

	handler := &SlogHandler{logger: l}
	slogger := slog.New(handler).WithGroup("suture")

	slogger.Error("service failed", "backoff", true)

	if !strings.Contains(buf.String(), `"suture.backoff":true`) {
		t.Errorf("expected grouped attr, got %q", buf.String())
	}
}
