//go:build linux

package input

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Linux/X11 implementation driving xdotool, with PulseAudio (pactl) for volume queries

// X keysym names for normalized key names. Unlisted names are passed through.
var linuxKeyMap = map[string]string{
	"enter":     "Return",
	"escape":    "Escape",
	"tab":       "Tab",
	"backspace": "BackSpace",
	"delete":    "Delete",
	"space":     "space",
	"up":        "Up",
	"down":      "Down",
	"left":      "Left",
	"right":     "Right",
	"home":      "Home",
	"end":       "End",
	"pageup":    "Prior",
	"pagedown":  "Next",
	"ctrl":      "ctrl",
	"alt":       "alt",
	"shift":     "shift",
}

var linuxButtons = map[string]string{
	ButtonLeft:   "1",
	ButtonMiddle: "2",
	ButtonRight:  "3",
}

var volumePercent = regexp.MustCompile(`(\d+(?:\.\d+)?)%`)

// Injector is the Linux input injector
type Injector struct {
	run commandRunner
}

func newPlatform() (Capability, error) {
	return &Injector{run: execRunner}, nil
}

func (i *Injector) Platform() string { return "Linux" }

func (i *Injector) xdotool(ctx context.Context, args ...string) error {
	_, err := i.run(ctx, "xdotool", args...)
	return err
}

// CheckDependencies verifies xdotool is installed
func (i *Injector) CheckDependencies(ctx context.Context) error {
	return lookTools("xdotool")
}

func (i *Injector) MoveRelative(ctx context.Context, dx, dy int) error {
	return i.xdotool(ctx, "mousemove_relative", "--", strconv.Itoa(dx), strconv.Itoa(dy))
}

func (i *Injector) MoveAbsolute(ctx context.Context, x, y int) error {
	return i.xdotool(ctx, "mousemove", strconv.Itoa(x), strconv.Itoa(y))
}

func (i *Injector) Click(ctx context.Context, button string) error {
	b, ok := linuxButtons[button]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownButton, button)
	}
	return i.xdotool(ctx, "click", b)
}

func (i *Injector) Drag(ctx context.Context, startX, startY, endX, endY int) error {
	return i.xdotool(ctx,
		"mousemove", strconv.Itoa(startX), strconv.Itoa(startY),
		"mousedown", "1",
		"mousemove", strconv.Itoa(endX), strconv.Itoa(endY),
		"mouseup", "1",
	)
}

// Scroll sends one wheel notch per non-zero axis. X11 buttons: 4 up, 5 down, 6 left, 7 right.
func (i *Injector) Scroll(ctx context.Context, dx, dy float64) error {
	var args []string
	switch {
	case dy > 0:
		args = append(args, "click", "5")
	case dy < 0:
		args = append(args, "click", "4")
	}
	switch {
	case dx > 0:
		args = append(args, "click", "7")
	case dx < 0:
		args = append(args, "click", "6")
	}
	if len(args) == 0 {
		return nil
	}
	return i.xdotool(ctx, args...)
}

func (i *Injector) TypeText(ctx context.Context, text string) error {
	return i.xdotool(ctx, "type", "--delay", "0", "--", text)
}

func (i *Injector) SendKey(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrUnknownKey)
	}
	sym, ok := linuxKeyMap[strings.ToLower(key)]
	if !ok {
		sym = key
	}
	return i.xdotool(ctx, "key", "--", sym)
}

func (i *Injector) PlayPause(ctx context.Context) error {
	return i.xdotool(ctx, "key", "XF86AudioPlay")
}

func (i *Injector) VolumeUp(ctx context.Context) error {
	return i.xdotool(ctx, "key", "XF86AudioRaiseVolume")
}

func (i *Injector) VolumeDown(ctx context.Context) error {
	return i.xdotool(ctx, "key", "XF86AudioLowerVolume")
}

func (i *Injector) Mute(ctx context.Context) error {
	return i.xdotool(ctx, "key", "XF86AudioMute")
}

func (i *Injector) NextTrack(ctx context.Context) error {
	return i.xdotool(ctx, "key", "XF86AudioNext")
}

func (i *Injector) PreviousTrack(ctx context.Context) error {
	return i.xdotool(ctx, "key", "XF86AudioPrev")
}

// Volume reports the first channel of the default sink
func (i *Injector) Volume(ctx context.Context) (float64, error) {
	out, err := i.run(ctx, "pactl", "get-sink-volume", "@DEFAULT_SINK@")
	if err != nil {
		return 0, err
	}
	m := volumePercent.FindSubmatch(out)
	if m == nil {
		return 0, fmt.Errorf("unexpected pactl output: %q", strings.TrimSpace(string(out)))
	}
	v, err := strconv.ParseFloat(string(m[1]), 64)
	if err != nil || math.IsNaN(v) {
		return 0, fmt.Errorf("unexpected pactl volume %q", m[1])
	}
	return v, nil
}

func (i *Injector) Muted(ctx context.Context) (bool, error) {
	out, err := i.run(ctx, "pactl", "get-sink-mute", "@DEFAULT_SINK@")
	if err != nil {
		return false, err
	}
	s := strings.ToLower(strings.TrimSpace(string(out)))
	switch {
	case strings.HasSuffix(s, "yes"):
		return true, nil
	case strings.HasSuffix(s, "no"):
		return false, nil
	}
	return false, fmt.Errorf("unexpected pactl output: %q", s)
}
