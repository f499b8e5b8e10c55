//go:build !windows

package capture

import "errors"

// ErrUnsupportedPlatform is returned by TakeSnapshot on any OS other
// than Windows: the capture pipeline only makes sense against the
// Windows registry and Program Files layout.
var ErrUnsupportedPlatform = errors.New("capture: application capture is only supported on Windows")

// TakeSnapshot always fails outside Windows.
func TakeSnapshot() (*Snapshot, error) {
	return nil, ErrUnsupportedPlatform
}
