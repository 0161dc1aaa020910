package protocol

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrMalformed is returned when a frame or its payload has missing or wrong-typed fields
	ErrMalformed = errors.New("malformed message")

	// ErrUnknownType is returned for message kinds the relay does not handle
	ErrUnknownType = errors.New("unknown message type")
)

// Event is a normalized inbound event
type Event interface {
	Kind() MessageType
}

// JoinRoom asks to enter the active room
type JoinRoom struct {
	RoomID string
}

// MouseMove is a relative pointer delta in client units
type MouseMove struct {
	DeltaX, DeltaY float64
}

// MouseClick requests a click. Button is empty when the client did not name one.
type MouseClick struct {
	Button string
}

// Scroll is a wheel delta, positive DeltaY scrolls down
type Scroll struct {
	DeltaX, DeltaY float64
}

// KeyPress carries verbatim text or a key name; Text wins when both are set
type KeyPress struct {
	Key  string
	Text string
}

// MediaControl carries a media action as sent by the client
type MediaControl struct {
	Action string
}

// AbsoluteMove places the pointer at screen coordinates
type AbsoluteMove struct {
	X, Y float64
}

// Drag presses at the start point and releases at the end point
type Drag struct {
	StartX, StartY, EndX, EndY float64
}

// VolumeQuery asks for the host volume and mute state
type VolumeQuery struct{}

func (JoinRoom) Kind() MessageType     { return TypeJoinRoom }
func (MouseMove) Kind() MessageType    { return TypeMouseMove }
func (MouseClick) Kind() MessageType   { return TypeMouseClick }
func (Scroll) Kind() MessageType       { return TypeScroll }
func (KeyPress) Kind() MessageType     { return TypeKeyPress }
func (MediaControl) Kind() MessageType { return TypeMediaControl }
func (AbsoluteMove) Kind() MessageType { return TypeAbsoluteMove }
func (Drag) Kind() MessageType         { return TypeDrag }
func (VolumeQuery) Kind() MessageType  { return TypeVolumeQuery }

// Wire payloads. Pointer fields distinguish "absent" from zero.

type joinPayload struct {
	RoomID *string `json:"roomId" msgpack:"roomId"`
}

type deltaPayload struct {
	DeltaX *float64 `json:"deltaX" msgpack:"deltaX"`
	DeltaY *float64 `json:"deltaY" msgpack:"deltaY"`
}

type clickPayload struct {
	Button *string `json:"button" msgpack:"button"`
}

type keyPayload struct {
	Key  *string `json:"key" msgpack:"key"`
	Text *string `json:"text" msgpack:"text"`
}

type mediaPayload struct {
	Action *string `json:"action" msgpack:"action"`
}

type pointPayload struct {
	X *float64 `json:"x" msgpack:"x"`
	Y *float64 `json:"y" msgpack:"y"`
}

type dragPayload struct {
	StartX *float64 `json:"startX" msgpack:"startX"`
	StartY *float64 `json:"startY" msgpack:"startY"`
	EndX   *float64 `json:"endX" msgpack:"endX"`
	EndY   *float64 `json:"endY" msgpack:"endY"`
}

// Decode parses one frame into a normalized Event
func Decode(c Codec, data []byte) (Event, error) {
	kind, raw, err := c.envelope(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch kind {
	case TypeJoinRoom:
		// Socket-style clients send the room id as a bare string
		var id string
		if raw != nil && c.payload(raw, &id) == nil {
			return JoinRoom{RoomID: id}, nil
		}
		var p joinPayload
		if err := decodePayload(c, raw, &p); err != nil {
			return nil, err
		}
		if p.RoomID == nil {
			return nil, missing(kind, "roomId")
		}
		return JoinRoom{RoomID: *p.RoomID}, nil

	case TypeMouseMove, TypeScroll:
		var p deltaPayload
		if err := decodePayload(c, raw, &p); err != nil {
			return nil, err
		}
		dx, dy, err := numbers2(kind, "deltaX", p.DeltaX, "deltaY", p.DeltaY)
		if err != nil {
			return nil, err
		}
		if kind == TypeScroll {
			return Scroll{DeltaX: dx, DeltaY: dy}, nil
		}
		return MouseMove{DeltaX: dx, DeltaY: dy}, nil

	case TypeMouseClick:
		var p clickPayload
		if raw != nil {
			if err := decodePayload(c, raw, &p); err != nil {
				return nil, err
			}
		}
		ev := MouseClick{}
		if p.Button != nil {
			ev.Button = *p.Button
		}
		return ev, nil

	case TypeKeyPress:
		var p keyPayload
		if err := decodePayload(c, raw, &p); err != nil {
			return nil, err
		}
		ev := KeyPress{}
		if p.Key != nil {
			ev.Key = *p.Key
		}
		if p.Text != nil {
			ev.Text = *p.Text
		}
		return ev, nil

	case TypeMediaControl:
		var p mediaPayload
		if err := decodePayload(c, raw, &p); err != nil {
			return nil, err
		}
		if p.Action == nil {
			return nil, missing(kind, "action")
		}
		return MediaControl{Action: *p.Action}, nil

	case TypeAbsoluteMove:
		var p pointPayload
		if err := decodePayload(c, raw, &p); err != nil {
			return nil, err
		}
		x, y, err := numbers2(kind, "x", p.X, "y", p.Y)
		if err != nil {
			return nil, err
		}
		return AbsoluteMove{X: x, Y: y}, nil

	case TypeDrag:
		var p dragPayload
		if err := decodePayload(c, raw, &p); err != nil {
			return nil, err
		}
		sx, sy, err := numbers2(kind, "startX", p.StartX, "startY", p.StartY)
		if err != nil {
			return nil, err
		}
		ex, ey, err := numbers2(kind, "endX", p.EndX, "endY", p.EndY)
		if err != nil {
			return nil, err
		}
		return Drag{StartX: sx, StartY: sy, EndX: ex, EndY: ey}, nil

	case TypeVolumeQuery:
		return VolumeQuery{}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, kind)
	}
}

func decodePayload(c Codec, raw []byte, v any) error {
	if raw == nil {
		return fmt.Errorf("%w: missing payload", ErrMalformed)
	}
	if err := c.payload(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

func missing(kind MessageType, field string) error {
	return fmt.Errorf("%w: %s requires %s", ErrMalformed, kind, field)
}

func numbers2(kind MessageType, nameA string, a *float64, nameB string, b *float64) (float64, float64, error) {
	if a == nil {
		return 0, 0, missing(kind, nameA)
	}
	if b == nil {
		return 0, 0, missing(kind, nameB)
	}
	if !finite(*a) || !finite(*b) {
		return 0, 0, fmt.Errorf("%w: %s has non-finite coordinates", ErrMalformed, kind)
	}
	return *a, *b, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
