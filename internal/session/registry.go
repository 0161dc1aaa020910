// Package session tracks the pairing room and the peers authorized to
// control the host.
package session

import (
	"crypto/rand"
	"errors"
	"log/slog"
	"math/big"
	"sync"

	"padrelay/internal/protocol"
)

const (
	roomIDLength   = 6
	roomIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// ErrInvalidRoom is returned by Join when the claimed room is not the active one
var ErrInvalidRoom = errors.New("invalid room ID")

// Peer is a connected endpoint that can receive notifications
type Peer interface {
	ID() string
	// Notify queues a message for delivery and must not block
	Notify(msg protocol.Message)
}

// Registry holds at most one active room and its member peers.
// Creating a new room discards the previous one along with its members.
type Registry struct {
	logger *slog.Logger

	mu     sync.Mutex
	roomID string
	peers  map[string]Peer
	// order keeps broadcast order stable
	order []string
}

// NewRegistry creates a registry with no active room
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger: logger.With("component", "session"),
		peers:  make(map[string]Peer),
	}
}

// CreateRoom starts a new room with an empty peer set and returns its id
func (r *Registry) CreateRoom() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := generateRoomID()
	for id == r.roomID {
		id = generateRoomID()
	}
	if r.roomID != "" {
		r.logger.Info("Replacing room", "old", r.roomID, "new", id, "dropped_peers", len(r.peers))
	} else {
		r.logger.Info("Room created", "room", id)
	}
	r.roomID = id
	r.peers = make(map[string]Peer)
	r.order = nil
	return id
}

// Join adds peer to the active room if claimed matches it, then announces
// the new member count to every member including the joiner.
func (r *Registry) Join(peer Peer, claimed string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.roomID == "" || claimed != r.roomID {
		r.logger.Warn("Join rejected", "peer", peer.ID(), "claimed", claimed)
		return ErrInvalidRoom
	}
	r.add(peer)
	r.logger.Info("Peer joined", "peer", peer.ID(), "room", r.roomID, "total", len(r.peers))
	r.broadcast(protocol.MobileConnected(peer.ID(), len(r.peers)))
	return nil
}

// Admit adds peer to the active room without a room id check or broadcast.
// It reports false when no room is active.
func (r *Registry) Admit(peer Peer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.roomID == "" {
		return false
	}
	r.add(peer)
	r.logger.Debug("Peer admitted", "peer", peer.ID(), "room", r.roomID, "total", len(r.peers))
	return true
}

// Leave removes the peer and tells the remaining members
func (r *Registry) Leave(peerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.roomID == "" {
		return
	}
	if _, ok := r.peers[peerID]; !ok {
		return
	}
	delete(r.peers, peerID)
	for i, id := range r.order {
		if id == peerID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.logger.Info("Peer left", "peer", peerID, "room", r.roomID, "total", len(r.peers))
	r.broadcast(protocol.ClientDisconnected(peerID, len(r.peers)))
}

// IsMember reports whether the peer belongs to the active room
func (r *Registry) IsMember(peerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.peers[peerID]
	return ok
}

// ActiveRoom returns the active room id, or "" when none exists
func (r *Registry) ActiveRoom() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.roomID
}

// Count returns the number of members in the active room
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.peers)
}

func (r *Registry) add(peer Peer) {
	if _, ok := r.peers[peer.ID()]; ok {
		return
	}
	r.peers[peer.ID()] = peer
	r.order = append(r.order, peer.ID())
}

// broadcast must be called with mu held; Notify never blocks
func (r *Registry) broadcast(msg protocol.Message) {
	for _, id := range r.order {
		r.peers[id].Notify(msg)
	}
}

func generateRoomID() string {
	b := make([]byte, roomIDLength)
	for i := range b {
		b[i] = roomIDAlphabet[randomIndex(len(roomIDAlphabet))]
	}
	return string(b)
}

// randomIndex returns a cryptographically secure random index below max
func randomIndex(max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		panic("session: crypto/rand failed: " + err.Error())
	}
	return int(n.Int64())
}
