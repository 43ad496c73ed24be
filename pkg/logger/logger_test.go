package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

// TestNewWithFileOutput 测试文件输出
func TestNewWithFileOutput(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "test.log")

	log, err := NewWithOptions(
		WithLevel(DebugLevel),
		WithFormat(JSONFormat),
		WithFileOutput(file),
		WithCaller(false),
	)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	log.Info("hello", zap.String("k", "v"))
	log.Sync()

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"hello"`) {
		t.Errorf("log file missing message: %s", data)
	}
	if !strings.Contains(string(data), `"k":"v"`) {
		t.Errorf("log file missing field: %s", data)
	}
}

// TestSetLevel 测试动态调整级别
func TestSetLevel(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "level.log")

	log, err := NewWithOptions(
		WithLevel(InfoLevel),
		WithFileOutput(file),
	)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	log.Debug("hidden")
	log.SetLevel(DebugLevel)
	if log.Level() != DebugLevel {
		t.Errorf("expected DebugLevel, got %v", log.Level())
	}
	log.Debug("visible")
	log.Sync()

	data, _ := os.ReadFile(file)
	if strings.Contains(string(data), "hidden") {
		t.Error("debug log should be filtered before SetLevel")
	}
	if !strings.Contains(string(data), "visible") {
		t.Error("debug log should be written after SetLevel")
	}
}

// TestWith 测试子 Logger 附带字段
func TestWith(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "with.log")

	log, err := NewWithOptions(WithFileOutput(file))
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	child := log.With(zap.String("component", "room"))
	child.Info("event")
	child.Sync()

	data, _ := os.ReadFile(file)
	if !strings.Contains(string(data), `"component":"room"`) {
		t.Errorf("child logger missing field: %s", data)
	}
}

// TestNop 测试空 Logger 不会 panic
func TestNop(t *testing.T) {
	log := Nop()
	log.Debug("a")
	log.Info("b")
	log.Warn("c")
	log.Error("d")
	if err := log.Sync(); err != nil {
		t.Errorf("nop sync failed: %v", err)
	}
}

// TestLevelString 测试级别名称
func TestLevelString(t *testing.T) {
	cases := map[Level]string{
		DebugLevel: "debug",
		InfoLevel:  "info",
		WarnLevel:  "warn",
		ErrorLevel: "error",
		FatalLevel: "fatal",
	}
	for level, want := range cases {
		if got := level.String(); got != want {
			t.Errorf("Level(%d).String() = %q, want %q", level, got, want)
		}
	}
}
