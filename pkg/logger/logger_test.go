package logger

import (
	"bytes"
	"strings"
	"testing"
)

func newTestLogger(level LogLevel) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := New(Config{Level: level, Output: &buf})
	return l, &buf
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newTestLogger(WARN)

	l.Debugf("debug %d", 1)
	l.Infof("info %d", 2)
	l.Warnf("warn %d", 3)
	l.Errorf("error %d", 4)

	out := buf.String()
	if strings.Contains(out, "debug 1") || strings.Contains(out, "info 2") {
		t.Errorf("messages below WARN were written: %q", out)
	}
	if !strings.Contains(out, "[WARN] warn 3") {
		t.Errorf("missing WARN line in %q", out)
	}
	if !strings.Contains(out, "[ERROR] error 4") {
		t.Errorf("missing ERROR line in %q", out)
	}
}

func TestFatalExits(t *testing.T) {
	l, buf := newTestLogger(DEBUG)
	code := -1
	l.exit = func(c int) { code = c }

	l.Fatalf("boom")
	if code != 1 {
		t.Errorf("exit code = %d, expected 1", code)
	}
	if !strings.Contains(buf.String(), "[FATAL] boom") {
		t.Errorf("missing FATAL line in %q", buf.String())
	}
}

func TestWithPrefix(t *testing.T) {
	l, buf := newTestLogger(INFO)
	l.With("[http]").Info("GET /health")

	if !strings.Contains(buf.String(), "[INFO] [http] GET /health") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestMessageWithoutArgsIsVerbatim(t *testing.T) {
	l, buf := newTestLogger(INFO)
	l.Info("100% done")

	if !strings.Contains(buf.String(), "[INFO] 100% done") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in     string
		want   LogLevel
		wantOK bool
	}{
		{"debug", DEBUG, true},
		{"INFO", INFO, true},
		{" warning ", WARN, true},
		{"Error", ERROR, true},
		{"fatal", FATAL, true},
		{"verbose", INFO, false},
		{"", INFO, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseLevel(%q) = %v, %v, expected %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
