package input

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

// stubCapability fails every call with err and records the last op
type stubCapability struct {
	err    error
	called []string
}

func (s *stubCapability) rec(op string) error {
	s.called = append(s.called, op)
	return s.err
}

func (s *stubCapability) MoveRelative(ctx context.Context, dx, dy int) error { return s.rec("move") }
func (s *stubCapability) MoveAbsolute(ctx context.Context, x, y int) error   { return s.rec("abs") }
func (s *stubCapability) Click(ctx context.Context, button string) error     { return s.rec("click") }
func (s *stubCapability) Drag(ctx context.Context, a, b, c, d int) error     { return s.rec("drag") }
func (s *stubCapability) Scroll(ctx context.Context, dx, dy float64) error   { return s.rec("scroll") }
func (s *stubCapability) TypeText(ctx context.Context, text string) error    { return s.rec("type") }
func (s *stubCapability) SendKey(ctx context.Context, key string) error      { return s.rec("key") }
func (s *stubCapability) PlayPause(ctx context.Context) error                { return s.rec("play") }
func (s *stubCapability) VolumeUp(ctx context.Context) error                 { return s.rec("up") }
func (s *stubCapability) VolumeDown(ctx context.Context) error               { return s.rec("down") }
func (s *stubCapability) Mute(ctx context.Context) error                     { return s.rec("mute") }
func (s *stubCapability) NextTrack(ctx context.Context) error                { return s.rec("next") }
func (s *stubCapability) PreviousTrack(ctx context.Context) error            { return s.rec("prev") }
func (s *stubCapability) Platform() string                                   { return "Test" }

func (s *stubCapability) Volume(ctx context.Context) (float64, error) {
	return 42, s.rec("volume")
}

func (s *stubCapability) Muted(ctx context.Context) (bool, error) {
	return true, s.rec("muted")
}

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// TestLoggedPassesThrough tests that successful calls are forwarded untouched
func TestLoggedPassesThrough(t *testing.T) {
	var buf bytes.Buffer
	stub := &stubCapability{}
	c := WithLogging(stub, newTestLogger(&buf))
	ctx := context.Background()

	if err := c.Click(ctx, ButtonLeft); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	v, err := c.Volume(ctx)
	if err != nil || v != 42 {
		t.Errorf("Expected volume 42, got %v (err %v)", v, err)
	}
	if len(stub.called) != 2 {
		t.Errorf("Expected 2 forwarded calls, got %d", len(stub.called))
	}
	if buf.Len() != 0 {
		t.Errorf("Expected nothing logged, got %q", buf.String())
	}
	if c.Platform() != "Test" {
		t.Errorf("Expected platform 'Test', got '%s'", c.Platform())
	}
}

// TestLoggedWrapsFailure tests that failures are logged and returned as *OpError
func TestLoggedWrapsFailure(t *testing.T) {
	var buf bytes.Buffer
	boom := errors.New("boom")
	c := WithLogging(&stubCapability{err: boom}, newTestLogger(&buf))

	err := c.Scroll(context.Background(), 0, 3)
	var opErr *OpError
	if !errors.As(err, &opErr) {
		t.Fatalf("Expected *OpError, got %T", err)
	}
	if opErr.Op != "scroll" {
		t.Errorf("Expected op 'scroll', got '%s'", opErr.Op)
	}
	if !errors.Is(err, boom) {
		t.Error("Expected error to unwrap to the underlying failure")
	}
	out := buf.String()
	if !strings.Contains(out, "op=scroll") || !strings.Contains(out, "platform=Test") {
		t.Errorf("Expected op and platform in log, got %q", out)
	}
	if !strings.Contains(out, "level=ERROR") {
		t.Errorf("Expected error level, got %q", out)
	}
	if !strings.Contains(out, `msg="Host input call failed"`) {
		t.Errorf("Expected sentence-case message, got %q", out)
	}
}

// TestLoggedQueryFailure tests that volume query failures are logged at debug level
func TestLoggedQueryFailure(t *testing.T) {
	var buf bytes.Buffer
	c := WithLogging(&stubCapability{err: ErrNotSupported}, newTestLogger(&buf))

	if _, err := c.Muted(context.Background()); !errors.Is(err, ErrNotSupported) {
		t.Errorf("Expected ErrNotSupported, got %v", err)
	}
	if !strings.Contains(buf.String(), "level=DEBUG") {
		t.Errorf("Expected debug level, got %q", buf.String())
	}
}

// TestOpErrorMessage tests the error text
func TestOpErrorMessage(t *testing.T) {
	err := &OpError{Op: "click", Platform: "Linux", Err: ErrUnknownButton}
	if got := err.Error(); got != "click on Linux: unknown mouse button" {
		t.Errorf("Expected 'click on Linux: unknown mouse button', got '%s'", got)
	}
}

// TestLoggedCheckDependencies tests forwarding to capabilities without external tools
func TestLoggedCheckDependencies(t *testing.T) {
	var buf bytes.Buffer
	c := WithLogging(&stubCapability{}, newTestLogger(&buf))
	if err := c.CheckDependencies(context.Background()); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}
