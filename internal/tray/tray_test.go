package tray

import (
	"encoding/binary"
	"testing"
)

func TestLabels(t *testing.T) {
	if got := codeLabel("AB12CD"); got != "Pairing code: AB12CD" {
		t.Errorf("Expected 'Pairing code: AB12CD', got '%s'", got)
	}
	if got := codeLabel(""); got != "Pairing code: none" {
		t.Errorf("Expected 'Pairing code: none', got '%s'", got)
	}
	if got := title("AB12CD"); got != "padrelay AB12CD" {
		t.Errorf("Expected 'padrelay AB12CD', got '%s'", got)
	}
}

func TestIconHeader(t *testing.T) {
	icon := getIcon()
	if binary.LittleEndian.Uint16(icon[2:]) != 1 || binary.LittleEndian.Uint16(icon[4:]) != 1 {
		t.Fatal("Expected an ICO header with one image")
	}
	size := binary.LittleEndian.Uint32(icon[14:])
	offset := binary.LittleEndian.Uint32(icon[18:])
	if int(offset+size) != len(icon) {
		t.Errorf("Expected image to end at %d, got %d", len(icon), offset+size)
	}
}

func TestRoundedSquare(t *testing.T) {
	if insideRoundedSquare(1, 1, 16) {
		t.Error("Expected corner to be transparent")
	}
	if !insideRoundedSquare(8, 8, 16) {
		t.Error("Expected centre to be filled")
	}
	if insideRoundedSquare(0, 8, 16) {
		t.Error("Expected inset edge to be transparent")
	}
}
