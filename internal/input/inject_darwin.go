//go:build darwin

package input

/*
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation -framework ApplicationServices

#include <CoreGraphics/CoreGraphics.h>
#include <CoreFoundation/CoreFoundation.h>
#include <ApplicationServices/ApplicationServices.h>

static bool hasAccessibilityPermissions() {
    return AXIsProcessTrusted();
}

static CGPoint currentMousePosition() {
    CGEventRef event = CGEventCreate(NULL);
    CGPoint cursor = CGEventGetLocation(event);
    CFRelease(event);
    return cursor;
}

static void postMouse(CGEventType type, CGPoint pos, CGMouseButton button) {
    CGEventRef event = CGEventCreateMouseEvent(NULL, type, pos, button);
    CGEventPost(kCGHIDEventTap, event);
    CFRelease(event);
}

static void moveRelative(CGFloat dx, CGFloat dy) {
    CGPoint cur = currentMousePosition();
    postMouse(kCGEventMouseMoved, CGPointMake(cur.x + dx, cur.y + dy), kCGMouseButtonLeft);
}

static void moveAbsolute(CGFloat x, CGFloat y) {
    postMouse(kCGEventMouseMoved, CGPointMake(x, y), kCGMouseButtonLeft);
}

// button: 1 left, 2 right, 3 middle
static void click(int button) {
    CGPoint cur = currentMousePosition();
    switch (button) {
    case 1:
        postMouse(kCGEventLeftMouseDown, cur, kCGMouseButtonLeft);
        postMouse(kCGEventLeftMouseUp, cur, kCGMouseButtonLeft);
        break;
    case 2:
        postMouse(kCGEventRightMouseDown, cur, kCGMouseButtonRight);
        postMouse(kCGEventRightMouseUp, cur, kCGMouseButtonRight);
        break;
    case 3:
        postMouse(kCGEventOtherMouseDown, cur, kCGMouseButtonCenter);
        postMouse(kCGEventOtherMouseUp, cur, kCGMouseButtonCenter);
        break;
    }
}

static void drag(CGFloat sx, CGFloat sy, CGFloat ex, CGFloat ey) {
    CGPoint start = CGPointMake(sx, sy);
    CGPoint end = CGPointMake(ex, ey);
    postMouse(kCGEventMouseMoved, start, kCGMouseButtonLeft);
    postMouse(kCGEventLeftMouseDown, start, kCGMouseButtonLeft);
    postMouse(kCGEventLeftMouseDragged, end, kCGMouseButtonLeft);
    postMouse(kCGEventLeftMouseUp, end, kCGMouseButtonLeft);
}

// CGEventCreateScrollWheelEvent is variadic and cannot be called from Go directly
static void scroll(int32_t wheelY, int32_t wheelX) {
    CGEventRef event = CGEventCreateScrollWheelEvent(NULL, kCGScrollEventUnitPixel, 2, wheelY, wheelX);
    CGEventPost(kCGHIDEventTap, event);
    CFRelease(event);
}

static void tapKey(CGKeyCode code) {
    CGEventRef down = CGEventCreateKeyboardEvent(NULL, code, true);
    CGEventRef up = CGEventCreateKeyboardEvent(NULL, code, false);
    CGEventPost(kCGHIDEventTap, down);
    CGEventPost(kCGHIDEventTap, up);
    CFRelease(down);
    CFRelease(up);
}
*/
import "C"

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// macOS implementation: CoreGraphics for pointer and keys, osascript for text and media

// CGKeyCode values for normalized key names
var darwinKeyMap = map[string]uint16{
	"enter":     36,
	"escape":    53,
	"tab":       48,
	"backspace": 51,
	"delete":    117,
	"space":     49,
	"up":        126,
	"down":      125,
	"left":      123,
	"right":     124,
	"home":      115,
	"end":       119,
	"pageup":    116,
	"pagedown":  121,
	"f1":        122,
	"f2":        120,
	"f3":        99,
	"f4":        118,
	"f5":        96,
	"f6":        97,
	"f7":        98,
	"f8":        100,
	"f9":        101,
	"f10":       109,
	"f11":       103,
	"f12":       111,
}

var darwinButtons = map[string]C.int{
	ButtonLeft:   1,
	ButtonRight:  2,
	ButtonMiddle: 3,
}

// volumeStep is one notch of the built-in volume keys on the 0-100 scale
const volumeStep = 6.25

// Injector represents a macOS input injector
type Injector struct {
	run commandRunner
}

func newPlatform() (Capability, error) {
	return &Injector{run: execRunner}, nil
}

func (i *Injector) Platform() string { return "macOS" }

// CheckDependencies reports missing accessibility permission, without which events are silently dropped
func (i *Injector) CheckDependencies(ctx context.Context) error {
	if !bool(C.hasAccessibilityPermissions()) {
		return fmt.Errorf("accessibility permission not granted: enable it in System Settings > Privacy & Security > Accessibility")
	}
	return lookTools("osascript")
}

func (i *Injector) osascript(ctx context.Context, script string) ([]byte, error) {
	return i.run(ctx, "osascript", "-e", script)
}

func (i *Injector) MoveRelative(ctx context.Context, dx, dy int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	C.moveRelative(C.CGFloat(dx), C.CGFloat(dy))
	return nil
}

func (i *Injector) MoveAbsolute(ctx context.Context, x, y int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	C.moveAbsolute(C.CGFloat(x), C.CGFloat(y))
	return nil
}

func (i *Injector) Click(ctx context.Context, button string) error {
	b, ok := darwinButtons[button]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownButton, button)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	C.click(b)
	return nil
}

func (i *Injector) Drag(ctx context.Context, startX, startY, endX, endY int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	C.drag(C.CGFloat(startX), C.CGFloat(startY), C.CGFloat(endX), C.CGFloat(endY))
	return nil
}

// Scroll posts pixel deltas. CoreGraphics treats positive values as up and left, so both axes are inverted.
func (i *Injector) Scroll(ctx context.Context, dx, dy float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	wy, wx := int32(math.Round(-dy)), int32(math.Round(-dx))
	if wy == 0 && wx == 0 {
		return nil
	}
	C.scroll(C.int32_t(wy), C.int32_t(wx))
	return nil
}

func appleScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

func (i *Injector) TypeText(ctx context.Context, text string) error {
	_, err := i.osascript(ctx, `tell application "System Events" to keystroke `+appleScriptString(text))
	return err
}

// SendKey taps a mapped key code; single characters fall back to typing
func (i *Injector) SendKey(ctx context.Context, key string) error {
	if code, ok := darwinKeyMap[strings.ToLower(key)]; ok {
		if err := ctx.Err(); err != nil {
			return err
		}
		C.tapKey(C.CGKeyCode(code))
		return nil
	}
	if utf8.RuneCountInString(key) == 1 {
		return i.TypeText(ctx, key)
	}
	return fmt.Errorf("%w: %q", ErrUnknownKey, key)
}

// PlayPause tries the "k" shortcut used by browser players, then falls back to space
func (i *Injector) PlayPause(ctx context.Context) error {
	if _, err := i.osascript(ctx, `tell application "System Events" to keystroke "k"`); err == nil {
		return nil
	}
	_, err := i.osascript(ctx, `tell application "System Events" to keystroke " "`)
	return err
}

func (i *Injector) stepVolume(ctx context.Context, delta float64) error {
	step := strconv.FormatFloat(delta, 'f', -1, 64)
	_, err := i.osascript(ctx, "set volume output volume ((output volume of (get volume settings)) + "+step+")")
	return err
}

func (i *Injector) VolumeUp(ctx context.Context) error {
	return i.stepVolume(ctx, volumeStep)
}

func (i *Injector) VolumeDown(ctx context.Context) error {
	return i.stepVolume(ctx, -volumeStep)
}

// Mute toggles the output mute state
func (i *Injector) Mute(ctx context.Context) error {
	_, err := i.osascript(ctx, "set volume output muted (not (output muted of (get volume settings)))")
	return err
}

func (i *Injector) NextTrack(ctx context.Context) error {
	_, err := i.osascript(ctx, `tell application "System Events" to key code 101`)
	return err
}

func (i *Injector) PreviousTrack(ctx context.Context) error {
	_, err := i.osascript(ctx, `tell application "System Events" to key code 98`)
	return err
}

func (i *Injector) Volume(ctx context.Context) (float64, error) {
	out, err := i.osascript(ctx, "output volume of (get volume settings)")
	if err != nil {
		return 0, err
	}
	s := strings.TrimSpace(string(out))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// "missing value" when the output device has no volume control
		return 0, fmt.Errorf("unexpected osascript output %q: %w", s, ErrNotSupported)
	}
	return v, nil
}

func (i *Injector) Muted(ctx context.Context) (bool, error) {
	out, err := i.osascript(ctx, "output muted of (get volume settings)")
	if err != nil {
		return false, err
	}
	s := strings.TrimSpace(string(out))
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("unexpected osascript output %q: %w", s, ErrNotSupported)
	}
	return b, nil
}
