//go:build !darwin && !windows && !linux

package input

import (
	"fmt"
	"runtime"
)

func newPlatform() (Capability, error) {
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, runtime.GOOS)
}
