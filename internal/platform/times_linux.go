//go:build linux

package platform

import (
	"io/fs"
	"syscall"
	"time"
)

// FileTimes returns the access and creation times recorded in info.
// Linux stat does not report a creation time.
func FileTimes(info fs.FileInfo) (accessed, created *time.Time) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return nil, nil
	}
	atime := time.Unix(stat.Atim.Unix())
	return &atime, nil
}
