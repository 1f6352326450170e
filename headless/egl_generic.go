//go:build !linux

package headless

import (
	"errors"

	"github.com/richinsley/glook/graphics"
)

// ErrUnsupported is returned on platforms without EGL.
var ErrUnsupported = errors.New("egl headless rendering is not supported on this platform")

// New always fails outside Linux.
func New(width, height int) (graphics.Context, error) {
	return nil, ErrUnsupported
}
