// Package tray provides system tray functionality using getlantern/systray.
package tray

import (
	"encoding/binary"
	"log/slog"
	"sync"

	"github.com/getlantern/systray"
)

// Tray shows the current pairing code and lets the user rotate it
type Tray struct {
	newRoom func() string
	onQuit  func()
	logger  *slog.Logger

	mu       sync.Mutex
	room     string
	codeItem *systray.MenuItem
	ready    bool

	quitCh chan struct{}
	once   sync.Once
}

// New creates a tray. newRoom creates a pairing room and returns its id;
// onQuit runs when the user picks Quit.
func New(newRoom func() string, onQuit func(), logger *slog.Logger) *Tray {
	return &Tray{
		newRoom: newRoom,
		onQuit:  onQuit,
		logger:  logger.With("component", "tray"),
		quitCh:  make(chan struct{}),
	}
}

// SetRoom updates the displayed pairing code. Safe to call before Run.
func (t *Tray) SetRoom(roomID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.room = roomID
	if t.ready {
		t.render()
	}
}

// render must be called with mu held
func (t *Tray) render() {
	systray.SetTitle(title(t.room))
	systray.SetTooltip(tooltip(t.room))
	if t.codeItem != nil {
		t.codeItem.SetTitle(codeLabel(t.room))
	}
}

func title(room string) string {
	if room == "" {
		return "padrelay"
	}
	return "padrelay " + room
}

func tooltip(room string) string {
	if room == "" {
		return "padrelay: no pairing code yet"
	}
	return "padrelay: pair with code " + room
}

func codeLabel(room string) string {
	if room == "" {
		return "Pairing code: none"
	}
	return "Pairing code: " + room
}

// Run starts the tray event loop (blocks). It must run on the main goroutine on macOS.
func (t *Tray) Run() {
	systray.Run(t.setupMenu, t.onExit)
}

// setupMenu is called when systray is ready
func (t *Tray) setupMenu() {
	systray.SetIcon(getIcon())

	code := systray.AddMenuItem(codeLabel(""), "Current pairing code")
	code.Disable()
	systray.AddSeparator()
	rotate := systray.AddMenuItem("New pairing code", "Create a new room and disconnect paired devices")
	quit := systray.AddMenuItem("Quit", "Stop the relay")

	t.mu.Lock()
	t.codeItem = code
	t.ready = true
	t.render()
	t.mu.Unlock()

	go func() {
		for {
			select {
			case <-rotate.ClickedCh:
				id := t.newRoom()
				t.logger.Info("Pairing code rotated from tray", "room", id)
				t.SetRoom(id)
			case <-quit.ClickedCh:
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			case <-t.quitCh:
				return
			}
		}
	}()
}

func (t *Tray) onExit() {
	t.once.Do(func() { close(t.quitCh) })
}

// Stop stops the tray
func (t *Tray) Stop() {
	systray.Quit()
}

// getIcon returns a 16x16 32-bit ICO with a filled rounded square
func getIcon() []byte {
	const (
		size      = 16
		header    = 6 + 16
		dibHeader = 40
		pixels    = size * size * 4
		mask      = size * 4 // 1bpp rows padded to 4 bytes
	)
	icon := make([]byte, header+dibHeader+pixels+mask)

	// ICO header: reserved, type 1 (icon), one image
	binary.LittleEndian.PutUint16(icon[2:], 1)
	binary.LittleEndian.PutUint16(icon[4:], 1)

	// Directory entry
	icon[6], icon[7] = size, size
	binary.LittleEndian.PutUint16(icon[10:], 1)  // planes
	binary.LittleEndian.PutUint16(icon[12:], 32) // bpp
	binary.LittleEndian.PutUint32(icon[14:], dibHeader+pixels+mask)
	binary.LittleEndian.PutUint32(icon[18:], header)

	// BITMAPINFOHEADER, height doubled for the AND mask
	dib := icon[header:]
	binary.LittleEndian.PutUint32(dib[0:], dibHeader)
	binary.LittleEndian.PutUint32(dib[4:], size)
	binary.LittleEndian.PutUint32(dib[8:], size*2)
	binary.LittleEndian.PutUint16(dib[12:], 1)
	binary.LittleEndian.PutUint16(dib[14:], 32)
	binary.LittleEndian.PutUint32(dib[20:], pixels)

	px := dib[dibHeader:]
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if !insideRoundedSquare(x, y, size) {
				continue
			}
			i := (y*size + x) * 4
			// BGRA
			px[i], px[i+1], px[i+2], px[i+3] = 0xE0, 0x90, 0x30, 0xFF
		}
	}
	return icon
}

func insideRoundedSquare(x, y, size int) bool {
	const inset, radius = 1, 3
	lo, hi := inset, size-1-inset
	if x < lo || x > hi || y < lo || y > hi {
		return false
	}
	cx, cy := x, y
	switch {
	case x < lo+radius:
		cx = lo + radius
	case x > hi-radius:
		cx = hi - radius
	}
	switch {
	case y < lo+radius:
		cy = lo + radius
	case y > hi-radius:
		cy = hi - radius
	}
	dx, dy := x-cx, y-cy
	return dx*dx+dy*dy <= radius*radius
}
