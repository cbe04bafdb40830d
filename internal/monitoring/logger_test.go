package monitoring

import (
	"testing"
)

func TestSetLogger(t *testing.T) {
	// Save original logger
	original := Logf
	defer func() { Logf = original }()

	called := false
	customLogger := func(format string, v ...interface{}) {
		called = true
	}

	SetLogger(customLogger)
	Logf("test message")

	if !called {
		t.Error("Custom logger was not called")
	}

	// Now set to nil and verify it doesn't call our logger
	called = false
	SetLogger(nil)
	Logf("test")
	if called {
		t.Error("No-op logger should not have triggered callback")
	}
}

func TestLogf_Default(t *testing.T) {
	if Logf == nil {
		t.Error("Logf should not be nil by default")
	}

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Logf panicked: %v", r)
		}
	}()

	defaultLogf("[test] message: %s", "value")
	Sync()
}

func TestNewZapLogf(t *testing.T) {
	for _, debug := range []bool{false, true} {
		logf, err := NewZapLogf(debug)
		if err != nil {
			t.Fatalf("NewZapLogf(%v) error: %v", debug, err)
		}
		if logf == nil {
			t.Fatalf("NewZapLogf(%v) returned nil", debug)
		}
		logf("[test] debug=%v", debug)
	}
}
