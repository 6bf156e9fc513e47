//go:build darwin

package platform

import (
	"io/fs"
	"syscall"
	"time"
)

// FileTimes returns the access and creation times recorded in info.
func FileTimes(info fs.FileInfo) (accessed, created *time.Time) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return nil, nil
	}
	atime := time.Unix(stat.Atimespec.Unix())
	btime := time.Unix(stat.Birthtimespec.Unix())
	return &atime, &btime
}
