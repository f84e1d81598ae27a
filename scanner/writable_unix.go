//go:build unix

package scanner

import (
	"github.com/spf13/afero"
	"golang.org/x/sys/unix"
)

// probeWritable checks that new pages can be created in dir.
func probeWritable(fsys afero.Fs, dir string) error {
	if _, ok := fsys.(*afero.OsFs); !ok {
		return probeByTempFile(fsys, dir)
	}
	return unix.Access(dir, unix.W_OK|unix.X_OK)
}
