// Package protocol defines the event contract carried over the relay transport.
package protocol

// MessageType defines the kind of a relay message
type MessageType string

const (
	// TypeJoinRoom is sent by a remote client to enter the active room
	TypeJoinRoom MessageType = "join-room"

	// TypeMouseMove carries a relative pointer delta (accumulated, not injected directly)
	TypeMouseMove MessageType = "mouse-move"

	// TypeMouseClick requests a click, button defaults to left
	TypeMouseClick MessageType = "mouse-click"

	// TypeScroll carries a wheel delta in browser convention
	TypeScroll MessageType = "scroll"

	// TypeKeyPress carries either verbatim text or a named key
	TypeKeyPress MessageType = "key-press"

	// TypeMediaControl carries a media action name
	TypeMediaControl MessageType = "media-control"

	// TypeAbsoluteMove places the pointer at screen coordinates
	TypeAbsoluteMove MessageType = "absolute-move"

	// TypeDrag performs a press-move-release between two points
	TypeDrag MessageType = "drag"

	// TypeVolumeQuery asks the host for its output volume and mute state
	TypeVolumeQuery MessageType = "volume-query"
)

// Outbound notifications
const (
	TypeRoomJoined         MessageType = "room-joined"
	TypeMobileConnected    MessageType = "mobile-connected"
	TypeClientDisconnected MessageType = "client-disconnected"
	TypeVolumeStatus       MessageType = "volume-status"
)

// Message is the generic container for outbound messages
type Message struct {
	Type    MessageType `json:"type" msgpack:"type"`
	Payload any         `json:"payload,omitempty" msgpack:"payload,omitempty"`
}

// RoomJoinedPayload answers a join-room request
type RoomJoinedPayload struct {
	Success bool   `json:"success" msgpack:"success"`
	RoomID  string `json:"roomId,omitempty" msgpack:"roomId,omitempty"`
	Error   string `json:"error,omitempty" msgpack:"error,omitempty"`
}

// PresencePayload is broadcast when a peer joins or leaves the room
type PresencePayload struct {
	ClientID     string `json:"clientId" msgpack:"clientId"`
	TotalClients int    `json:"totalClients" msgpack:"totalClients"`
}

// VolumeStatusPayload answers a volume-query request.
// Volume is nil when the host cannot report it.
type VolumeStatusPayload struct {
	Volume *float64 `json:"volume,omitempty" msgpack:"volume,omitempty"`
	Muted  bool     `json:"muted" msgpack:"muted"`
	Error  string   `json:"error,omitempty" msgpack:"error,omitempty"`
}

// RoomJoined builds a room-joined reply
func RoomJoined(roomID string, err error) Message {
	if err != nil {
		return Message{Type: TypeRoomJoined, Payload: RoomJoinedPayload{Success: false, Error: err.Error()}}
	}
	return Message{Type: TypeRoomJoined, Payload: RoomJoinedPayload{Success: true, RoomID: roomID}}
}

// MobileConnected builds the broadcast sent after a successful join
func MobileConnected(clientID string, total int) Message {
	return Message{Type: TypeMobileConnected, Payload: PresencePayload{ClientID: clientID, TotalClients: total}}
}

// ClientDisconnected builds the broadcast sent after a member leaves
func ClientDisconnected(clientID string, total int) Message {
	return Message{Type: TypeClientDisconnected, Payload: PresencePayload{ClientID: clientID, TotalClients: total}}
}
