// Package dispatch routes decoded events to the motion accumulator or the
// host input capability.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"padrelay/internal/input"
	"padrelay/internal/protocol"
)

// ErrNotInput is returned by Dispatch for events handled by the transport itself
var ErrNotInput = errors.New("event is not an input event")

// MediaAction is a canonical media command
type MediaAction string

const (
	MediaPlayPause     MediaAction = "play-pause"
	MediaVolumeUp      MediaAction = "volume-up"
	MediaVolumeDown    MediaAction = "volume-down"
	MediaMute          MediaAction = "mute"
	MediaNextTrack     MediaAction = "next"
	MediaPreviousTrack MediaAction = "previous"
)

var mediaSynonyms = map[string]MediaAction{
	"play":        MediaPlayPause,
	"pause":       MediaPlayPause,
	"playpause":   MediaPlayPause,
	"play-pause":  MediaPlayPause,
	"volumeup":    MediaVolumeUp,
	"volume_up":   MediaVolumeUp,
	"volume-up":   MediaVolumeUp,
	"volumedown":  MediaVolumeDown,
	"volume_down": MediaVolumeDown,
	"volume-down": MediaVolumeDown,
	"mute":        MediaMute,
	"next":        MediaNextTrack,
	"previous":    MediaPreviousTrack,
	"prev":        MediaPreviousTrack,
}

var keyAliases = map[string]string{
	"esc":    "escape",
	"return": "enter",
}

// ResolveMediaAction maps a client action name to its canonical action, ignoring case
func ResolveMediaAction(action string) (MediaAction, bool) {
	a, ok := mediaSynonyms[strings.ToLower(action)]
	return a, ok
}

// NormalizeKey lower-cases a key name and applies aliases
func NormalizeKey(key string) string {
	k := strings.ToLower(key)
	if alias, ok := keyAliases[k]; ok {
		return alias
	}
	return k
}

// IsMotion reports whether ev is accumulated instead of queued for the host
func IsMotion(ev protocol.Event) bool {
	_, ok := ev.(protocol.MouseMove)
	return ok
}

// Accumulator receives relative pointer motion
type Accumulator interface {
	Accumulate(dx, dy float64)
}

// Dispatcher applies input events to the host
type Dispatcher struct {
	host   input.Capability
	motion Accumulator
	logger *slog.Logger
}

// New creates a dispatcher
func New(host input.Capability, motion Accumulator, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		host:   host,
		motion: motion,
		logger: logger.With("component", "dispatch"),
	}
}

// Dispatch applies one input event. Motion returns immediately; every other
// event blocks until the host call completes. Events that carry nothing to
// do are dropped with a nil error.
func (d *Dispatcher) Dispatch(ctx context.Context, ev protocol.Event) error {
	switch e := ev.(type) {
	case protocol.MouseMove:
		d.motion.Accumulate(e.DeltaX, e.DeltaY)
		return nil

	case protocol.MouseClick:
		button := e.Button
		if button == "" {
			button = input.ButtonLeft
		}
		return d.host.Click(ctx, button)

	case protocol.Scroll:
		return d.host.Scroll(ctx, e.DeltaX, e.DeltaY)

	case protocol.KeyPress:
		switch {
		case e.Text != "":
			return d.host.TypeText(ctx, e.Text)
		case e.Key != "":
			return d.host.SendKey(ctx, NormalizeKey(e.Key))
		}
		d.logger.Debug("Dropping key-press without key or text")
		return nil

	case protocol.MediaControl:
		action, ok := ResolveMediaAction(e.Action)
		if !ok {
			d.logger.Warn("Unknown media action", "action", e.Action)
			return nil
		}
		return d.media(ctx, action)

	case protocol.AbsoluteMove:
		return d.host.MoveAbsolute(ctx, pixel(e.X), pixel(e.Y))

	case protocol.Drag:
		return d.host.Drag(ctx, pixel(e.StartX), pixel(e.StartY), pixel(e.EndX), pixel(e.EndY))
	}
	return fmt.Errorf("%w: %s", ErrNotInput, ev.Kind())
}

func (d *Dispatcher) media(ctx context.Context, action MediaAction) error {
	switch action {
	case MediaPlayPause:
		return d.host.PlayPause(ctx)
	case MediaVolumeUp:
		return d.host.VolumeUp(ctx)
	case MediaVolumeDown:
		return d.host.VolumeDown(ctx)
	case MediaMute:
		return d.host.Mute(ctx)
	case MediaNextTrack:
		return d.host.NextTrack(ctx)
	case MediaPreviousTrack:
		return d.host.PreviousTrack(ctx)
	}
	return fmt.Errorf("unhandled media action %q", action)
}

// VolumeStatus queries the host volume and mute state. Each half is reported
// independently; an error is set only when both queries fail.
func (d *Dispatcher) VolumeStatus(ctx context.Context) protocol.Message {
	var status protocol.VolumeStatusPayload
	vol, verr := d.host.Volume(ctx)
	if verr == nil {
		status.Volume = &vol
	}
	muted, merr := d.host.Muted(ctx)
	if merr == nil {
		status.Muted = muted
	}
	if verr != nil && merr != nil {
		status.Error = verr.Error()
	}
	return protocol.Message{Type: protocol.TypeVolumeStatus, Payload: status}
}

// pixel rounds a coordinate and saturates it to the int32 range hosts accept
func pixel(v float64) int {
	return int(math.Max(math.MinInt32, math.Min(math.MaxInt32, math.Round(v))))
}
