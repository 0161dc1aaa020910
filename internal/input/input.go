// Package input provides host input injection: pointer, keyboard and media keys.
//
// One Capability implementation exists per supported host and is selected once
// by New. Callers never branch on the platform themselves.
package input

import (
	"context"
	"errors"
	"fmt"
)

// Button names accepted by Click
const (
	ButtonLeft   = "left"
	ButtonRight  = "right"
	ButtonMiddle = "middle"
)

var (
	// ErrUnsupportedPlatform is returned by New when the host OS has no implementation
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrNotSupported is returned by operations a host cannot perform
	ErrNotSupported = errors.New("operation not supported on this platform")

	// ErrUnknownKey is returned by SendKey for names the host cannot map
	ErrUnknownKey = errors.New("unknown key")

	// ErrUnknownButton is returned by Click for buttons other than left, right, middle
	ErrUnknownButton = errors.New("unknown mouse button")
)

// Capability is the boundary to OS-level input injection.
// Every method may block until the host has processed the request.
type Capability interface {
	MoveRelative(ctx context.Context, dx, dy int) error
	MoveAbsolute(ctx context.Context, x, y int) error
	Click(ctx context.Context, button string) error
	Drag(ctx context.Context, startX, startY, endX, endY int) error
	// Scroll uses browser convention: positive dy scrolls down, positive dx scrolls right
	Scroll(ctx context.Context, dx, dy float64) error
	TypeText(ctx context.Context, text string) error
	SendKey(ctx context.Context, key string) error

	PlayPause(ctx context.Context) error
	VolumeUp(ctx context.Context) error
	VolumeDown(ctx context.Context) error
	Mute(ctx context.Context) error
	NextTrack(ctx context.Context) error
	PreviousTrack(ctx context.Context) error

	Volume(ctx context.Context) (float64, error)
	Muted(ctx context.Context) (bool, error)

	Platform() string
}

// DependencyChecker is implemented by hosts that rely on external tools
type DependencyChecker interface {
	CheckDependencies(ctx context.Context) error
}

// New returns the Capability for the running host
func New() (Capability, error) {
	return newPlatform()
}

// OpError records a failed capability call
type OpError struct {
	Op       string
	Platform string
	Err      error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s on %s: %v", e.Op, e.Platform, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}
