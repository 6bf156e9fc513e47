//go:build !linux && !darwin

package platform

import (
	"io/fs"
	"time"
)

// FileTimes reports no access or creation time on this platform.
func FileTimes(fs.FileInfo) (accessed, created *time.Time) {
	return nil, nil
}
