//go:build linux

package input

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type recordedCall struct {
	name string
	args []string
}

// fakeRunner records invocations and answers with out/err
type fakeRunner struct {
	calls []recordedCall
	out   string
	err   error
}

func (f *fakeRunner) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, recordedCall{name: name, args: args})
	return []byte(f.out), f.err
}

func newFakeInjector() (*Injector, *fakeRunner) {
	f := &fakeRunner{}
	return &Injector{run: f.run}, f
}

func (f *fakeRunner) last(t *testing.T) string {
	t.Helper()
	if len(f.calls) == 0 {
		t.Fatal("Expected a command to run, got none")
	}
	c := f.calls[len(f.calls)-1]
	return c.name + " " + strings.Join(c.args, " ")
}

// TestLinuxCommands tests the xdotool command line for each operation
func TestLinuxCommands(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		call func(i *Injector) error
		want string
	}{
		{"relative", func(i *Injector) error { return i.MoveRelative(ctx, 5, -3) }, "xdotool mousemove_relative -- 5 -3"},
		{"absolute", func(i *Injector) error { return i.MoveAbsolute(ctx, 100, 200) }, "xdotool mousemove 100 200"},
		{"click right", func(i *Injector) error { return i.Click(ctx, ButtonRight) }, "xdotool click 3"},
		{"click middle", func(i *Injector) error { return i.Click(ctx, ButtonMiddle) }, "xdotool click 2"},
		{"drag", func(i *Injector) error { return i.Drag(ctx, 1, 2, 3, 4) }, "xdotool mousemove 1 2 mousedown 1 mousemove 3 4 mouseup 1"},
		{"scroll down", func(i *Injector) error { return i.Scroll(ctx, 0, 3) }, "xdotool click 5"},
		{"scroll up left", func(i *Injector) error { return i.Scroll(ctx, -1, -1) }, "xdotool click 4 click 6"},
		{"type", func(i *Injector) error { return i.TypeText(ctx, "hello") }, "xdotool type --delay 0 -- hello"},
		{"key enter", func(i *Injector) error { return i.SendKey(ctx, "enter") }, "xdotool key -- Return"},
		{"key passthrough", func(i *Injector) error { return i.SendKey(ctx, "a") }, "xdotool key -- a"},
		{"play", func(i *Injector) error { return i.PlayPause(ctx) }, "xdotool key XF86AudioPlay"},
		{"next", func(i *Injector) error { return i.NextTrack(ctx) }, "xdotool key XF86AudioNext"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inj, f := newFakeInjector()
			if err := tt.call(inj); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if got := f.last(t); got != tt.want {
				t.Errorf("Expected '%s', got '%s'", tt.want, got)
			}
		})
	}
}

// TestLinuxScrollZero tests that a zero scroll runs nothing
func TestLinuxScrollZero(t *testing.T) {
	inj, f := newFakeInjector()
	if err := inj.Scroll(context.Background(), 0, 0); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(f.calls) != 0 {
		t.Errorf("Expected no commands, got %d", len(f.calls))
	}
}

// TestLinuxRejectsUnknown tests button and key validation
func TestLinuxRejectsUnknown(t *testing.T) {
	inj, f := newFakeInjector()
	if err := inj.Click(context.Background(), "side"); !errors.Is(err, ErrUnknownButton) {
		t.Errorf("Expected ErrUnknownButton, got %v", err)
	}
	if err := inj.SendKey(context.Background(), ""); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Expected ErrUnknownKey, got %v", err)
	}
	if len(f.calls) != 0 {
		t.Errorf("Expected no commands, got %d", len(f.calls))
	}
}

// TestLinuxVolume tests parsing of pactl output
func TestLinuxVolume(t *testing.T) {
	inj, f := newFakeInjector()
	f.out = "Volume: front-left: 42597 /  65% / -11.23 dB,   front-right: 42597 /  65% / -11.23 dB\n"

	v, err := inj.Volume(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if v != 65 {
		t.Errorf("Expected volume 65, got %v", v)
	}
	if got := f.last(t); got != "pactl get-sink-volume @DEFAULT_SINK@" {
		t.Errorf("Expected pactl query, got '%s'", got)
	}

	f.out = "no sink"
	if _, err := inj.Volume(context.Background()); err == nil {
		t.Error("Expected error for unparseable output")
	}
}

// TestLinuxMuted tests parsing of pactl mute output
func TestLinuxMuted(t *testing.T) {
	inj, f := newFakeInjector()

	f.out = "Mute: yes\n"
	if m, err := inj.Muted(context.Background()); err != nil || !m {
		t.Errorf("Expected muted, got %v (err %v)", m, err)
	}
	f.out = "Mute: no\n"
	if m, err := inj.Muted(context.Background()); err != nil || m {
		t.Errorf("Expected unmuted, got %v (err %v)", m, err)
	}
	f.err = errors.New("pactl: not found")
	if _, err := inj.Muted(context.Background()); err == nil {
		t.Error("Expected runner error to propagate")
	}
}
