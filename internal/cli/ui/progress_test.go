package ui

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer is a bytes.Buffer safe for the spinner goroutine and the test
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}

func TestSpinnerStartStop(t *testing.T) {
	var buf syncBuffer
	spinner := NewSpinner(&buf, SpinnerOptions{
		Message:  "Checking 3 files",
		NoColor:  true,
		Interval: 10 * time.Millisecond,
	})

	spinner.Start()
	time.Sleep(100 * time.Millisecond)
	spinner.Stop()

	if !strings.Contains(buf.String(), "Checking 3 files") {
		t.Errorf("Expected spinner to show its message, got: %q", buf.String())
	}
	if !strings.HasSuffix(buf.String(), "\r\033[K") {
		t.Error("Expected spinner to clear the line on stop")
	}
}

func TestSpinnerSuccess(t *testing.T) {
	var buf syncBuffer
	spinner := NewSpinner(&buf, SpinnerOptions{Message: "Checking", NoColor: true})

	spinner.Start()
	spinner.Success("No problems found")

	output := buf.String()
	if !strings.Contains(output, "✓ No problems found") {
		t.Errorf("Expected success message, got: %q", output)
	}
}

func TestSpinnerError(t *testing.T) {
	var buf syncBuffer
	spinner := NewSpinner(&buf, SpinnerOptions{Message: "Checking", NoColor: true})

	spinner.Start()
	spinner.Error("Check failed")

	if output := buf.String(); !strings.Contains(output, "❌ Check failed") {
		t.Errorf("Expected error message, got: %q", output)
	}
}

func TestSpinnerNoColor(t *testing.T) {
	var buf syncBuffer
	spinner := NewSpinner(&buf, SpinnerOptions{
		Message:  "Testing",
		NoColor:  true,
		Interval: 10 * time.Millisecond,
	})

	spinner.Start()
	time.Sleep(50 * time.Millisecond)
	spinner.Stop()

	if strings.Contains(buf.String(), "\x1b[3") {
		t.Errorf("Expected no color codes with NoColor=true, got: %q", buf.String())
	}
}

func TestSpinnerStopWithoutStart(t *testing.T) {
	var buf syncBuffer
	spinner := NewSpinner(&buf, SpinnerOptions{Message: "Testing", NoColor: true})

	spinner.Stop()

	if buf.Len() > 0 {
		t.Errorf("Expected no output when stopping inactive spinner, got: %q", buf.String())
	}
}

func TestSpinnerMultipleStops(t *testing.T) {
	var buf syncBuffer
	spinner := NewSpinner(&buf, SpinnerOptions{Message: "Testing", NoColor: true})

	spinner.Start()
	spinner.Stop()
	firstLen := buf.Len()

	spinner.Stop()
	if buf.Len() != firstLen {
		t.Error("Expected a second stop to produce no output")
	}
}

func TestSpinnerRestart(t *testing.T) {
	var buf syncBuffer
	spinner := NewSpinner(&buf, SpinnerOptions{Message: "Testing", NoColor: true})

	spinner.Start()
	spinner.Start()
	spinner.Stop()
	spinner.Start()
	spinner.Stop()
}

func TestSpinnerDefaultInterval(t *testing.T) {
	spinner := NewSpinner(&syncBuffer{}, SpinnerOptions{Message: "Testing", NoColor: true})

	if spinner.interval != 100*time.Millisecond {
		t.Errorf("Expected default interval of 100ms, got: %v", spinner.interval)
	}
}

func TestWithSpinner(t *testing.T) {
	var buf syncBuffer
	called := false

	err := WithSpinner(&buf, "Checking", true, func() error {
		called = true
		return nil
	})

	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
	if !called {
		t.Error("Expected function to be called")
	}
	if strings.Contains(buf.String(), "failed") {
		t.Errorf("Unexpected failure output: %q", buf.String())
	}
}

func TestWithSpinnerError(t *testing.T) {
	var buf syncBuffer
	testErr := errors.New("parse failed")

	err := WithSpinner(&buf, "Checking", true, func() error {
		return testErr
	})

	if !errors.Is(err, testErr) {
		t.Errorf("Expected error to be returned, got: %v", err)
	}
	if !strings.Contains(buf.String(), "❌ Checking failed") {
		t.Errorf("Expected failure output, got: %q", buf.String())
	}
}
