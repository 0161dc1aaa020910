//go:build windows

package input

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Windows implementation of input injection using user32 SendInput

var (
	user32           = windows.NewLazySystemDLL("user32.dll")
	procSendInput    = user32.NewProc("SendInput")
	procGetCursorPos = user32.NewProc("GetCursorPos")
	procSetCursorPos = user32.NewProc("SetCursorPos")
)

const (
	inputMouse    = 0
	inputKeyboard = 1

	mouseeventfLeftDown   = 0x0002
	mouseeventfLeftUp     = 0x0004
	mouseeventfRightDown  = 0x0008
	mouseeventfRightUp    = 0x0010
	mouseeventfMiddleDown = 0x0020
	mouseeventfMiddleUp   = 0x0040
	mouseeventfWheel      = 0x0800
	mouseeventfHWheel     = 0x1000

	keyeventfExtendedKey = 0x0001
	keyeventfKeyUp       = 0x0002
	keyeventfUnicode     = 0x0004

	wheelDelta = 120
)

// Virtual key codes for normalized key names
var windowsKeyMap = map[string]uint16{
	"enter":     0x0D,
	"escape":    0x1B,
	"tab":       0x09,
	"backspace": 0x08,
	"delete":    0x2E,
	"space":     0x20,
	"up":        0x26,
	"down":      0x28,
	"left":      0x25,
	"right":     0x27,
	"home":      0x24,
	"end":       0x23,
	"pageup":    0x21,
	"pagedown":  0x22,
	"ctrl":      0x11,
	"alt":       0x12,
	"shift":     0x10,
	"f1":        0x70,
	"f2":        0x71,
	"f3":        0x72,
	"f4":        0x73,
	"f5":        0x74,
	"f6":        0x75,
	"f7":        0x76,
	"f8":        0x77,
	"f9":        0x78,
	"f10":       0x79,
	"f11":       0x7A,
	"f12":       0x7B,
}

const (
	vkVolumeMute     = 0xAD
	vkVolumeDown     = 0xAE
	vkVolumeUp       = 0xAF
	vkMediaNextTrack = 0xB0
	vkMediaPrevTrack = 0xB1
	vkMediaPlayPause = 0xB3
)

type point struct {
	X, Y int32
}

type mouseInput struct {
	Dx, Dy    int32
	MouseData uint32
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
}

type keybdInput struct {
	Vk        uint16
	Scan      uint16
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
}

// mouseEvent and keyEvent both match the size of the Win32 INPUT union
type mouseEvent struct {
	Type uint32
	Mi   mouseInput
}

type keyEvent struct {
	Type uint32
	Ki   keybdInput
	_    [8]byte
}

// Injector represents a Windows input injector
type Injector struct{}

func newPlatform() (Capability, error) {
	if err := procSendInput.Find(); err != nil {
		return nil, fmt.Errorf("user32 SendInput unavailable: %w", err)
	}
	return &Injector{}, nil
}

func (i *Injector) Platform() string { return "Windows" }

func sendMouse(events ...mouseEvent) error {
	if len(events) == 0 {
		return nil
	}
	n, _, err := procSendInput.Call(
		uintptr(len(events)),
		uintptr(unsafe.Pointer(&events[0])),
		unsafe.Sizeof(events[0]),
	)
	if int(n) != len(events) {
		return fmt.Errorf("SendInput inserted %d of %d mouse events: %w", n, len(events), err)
	}
	return nil
}

func sendKeys(events ...keyEvent) error {
	if len(events) == 0 {
		return nil
	}
	n, _, err := procSendInput.Call(
		uintptr(len(events)),
		uintptr(unsafe.Pointer(&events[0])),
		unsafe.Sizeof(events[0]),
	)
	if int(n) != len(events) {
		return fmt.Errorf("SendInput inserted %d of %d key events: %w", n, len(events), err)
	}
	return nil
}

func cursorPos() (point, error) {
	var p point
	r, _, err := procGetCursorPos.Call(uintptr(unsafe.Pointer(&p)))
	if r == 0 {
		return p, fmt.Errorf("GetCursorPos: %w", err)
	}
	return p, nil
}

func setCursorPos(x, y int32) error {
	r, _, err := procSetCursorPos.Call(uintptr(x), uintptr(y))
	if r == 0 {
		return fmt.Errorf("SetCursorPos: %w", err)
	}
	return nil
}

func buttonEvent(flags uint32) mouseEvent {
	return mouseEvent{Type: inputMouse, Mi: mouseInput{Flags: flags}}
}

func vkTap(vk uint16, flags uint32) []keyEvent {
	return []keyEvent{
		{Type: inputKeyboard, Ki: keybdInput{Vk: vk, Flags: flags}},
		{Type: inputKeyboard, Ki: keybdInput{Vk: vk, Flags: flags | keyeventfKeyUp}},
	}
}

// MoveRelative offsets the cursor position directly so pointer acceleration does not apply
func (i *Injector) MoveRelative(ctx context.Context, dx, dy int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := cursorPos()
	if err != nil {
		return err
	}
	return setCursorPos(p.X+int32(dx), p.Y+int32(dy))
}

func (i *Injector) MoveAbsolute(ctx context.Context, x, y int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return setCursorPos(int32(x), int32(y))
}

func (i *Injector) Click(ctx context.Context, button string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var down, up uint32
	switch button {
	case ButtonLeft:
		down, up = mouseeventfLeftDown, mouseeventfLeftUp
	case ButtonRight:
		down, up = mouseeventfRightDown, mouseeventfRightUp
	case ButtonMiddle:
		down, up = mouseeventfMiddleDown, mouseeventfMiddleUp
	default:
		return fmt.Errorf("%w: %q", ErrUnknownButton, button)
	}
	return sendMouse(buttonEvent(down), buttonEvent(up))
}

func (i *Injector) Drag(ctx context.Context, startX, startY, endX, endY int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := setCursorPos(int32(startX), int32(startY)); err != nil {
		return err
	}
	if err := sendMouse(buttonEvent(mouseeventfLeftDown)); err != nil {
		return err
	}
	if err := setCursorPos(int32(endX), int32(endY)); err != nil {
		// Do not leave the button held down
		sendMouse(buttonEvent(mouseeventfLeftUp))
		return err
	}
	return sendMouse(buttonEvent(mouseeventfLeftUp))
}

// Scroll sends one wheel notch per non-zero axis. A positive wheel delta scrolls up, so dy is inverted.
func (i *Injector) Scroll(ctx context.Context, dx, dy float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var events []mouseEvent
	if dy != 0 {
		delta := int32(-wheelDelta * math.Copysign(1, dy))
		events = append(events, mouseEvent{Type: inputMouse, Mi: mouseInput{Flags: mouseeventfWheel, MouseData: uint32(delta)}})
	}
	if dx != 0 {
		delta := int32(wheelDelta * math.Copysign(1, dx))
		events = append(events, mouseEvent{Type: inputMouse, Mi: mouseInput{Flags: mouseeventfHWheel, MouseData: uint32(delta)}})
	}
	return sendMouse(events...)
}

// TypeText injects UTF-16 code units directly, so no SendKeys escaping is needed
func (i *Injector) TypeText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	units := utf16.Encode([]rune(text))
	events := make([]keyEvent, 0, len(units)*2)
	for _, u := range units {
		events = append(events,
			keyEvent{Type: inputKeyboard, Ki: keybdInput{Scan: u, Flags: keyeventfUnicode}},
			keyEvent{Type: inputKeyboard, Ki: keybdInput{Scan: u, Flags: keyeventfUnicode | keyeventfKeyUp}},
		)
	}
	return sendKeys(events...)
}

// SendKey taps a mapped virtual key; single characters fall back to typing
func (i *Injector) SendKey(ctx context.Context, key string) error {
	if vk, ok := windowsKeyMap[strings.ToLower(key)]; ok {
		if err := ctx.Err(); err != nil {
			return err
		}
		return sendKeys(vkTap(vk, 0)...)
	}
	if utf8.RuneCountInString(key) == 1 {
		return i.TypeText(ctx, key)
	}
	return fmt.Errorf("%w: %q", ErrUnknownKey, key)
}

func (i *Injector) mediaKey(ctx context.Context, vk uint16) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return sendKeys(vkTap(vk, keyeventfExtendedKey)...)
}

func (i *Injector) PlayPause(ctx context.Context) error     { return i.mediaKey(ctx, vkMediaPlayPause) }
func (i *Injector) VolumeUp(ctx context.Context) error      { return i.mediaKey(ctx, vkVolumeUp) }
func (i *Injector) VolumeDown(ctx context.Context) error    { return i.mediaKey(ctx, vkVolumeDown) }
func (i *Injector) Mute(ctx context.Context) error          { return i.mediaKey(ctx, vkVolumeMute) }
func (i *Injector) NextTrack(ctx context.Context) error     { return i.mediaKey(ctx, vkMediaNextTrack) }
func (i *Injector) PreviousTrack(ctx context.Context) error { return i.mediaKey(ctx, vkMediaPrevTrack) }

// TODO: read the endpoint volume through IAudioEndpointVolume once a COM binding is vendored
func (i *Injector) Volume(ctx context.Context) (float64, error) {
	return 0, ErrNotSupported
}

func (i *Injector) Muted(ctx context.Context) (bool, error) {
	return false, ErrNotSupported
}
